package notifier

import (
	"context"
	"fmt"
	"reflect"
	"runtime/debug"
	"sync"
	"time"

	"github.com/factify/backend/internal/models"
	"go.uber.org/zap"
)

// Payload is published after a successful classification by an authenticated user
type Payload struct {
	UserID    int
	InputType models.InputType
	Content   string
	Result    models.AnalysisResult
}

// Listener reacts to published payloads.
// Errors returned by Update are logged by the notifier and never reach the publisher.
type Listener interface {
	Name() string
	Update(ctx context.Context, payload Payload) error
}

// Notifier fans a payload out to its listeners in subscription order
type Notifier struct {
	mu        sync.Mutex
	listeners []Listener
	logger    *zap.Logger
}

// New creates a notifier with no listeners
func New(logger *zap.Logger) *Notifier {
	return &Notifier{logger: logger}
}

// Subscribe appends a listener. Subscribing the same listener twice is a no-op.
func (n *Notifier) Subscribe(listener Listener) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, l := range n.listeners {
		if sameListener(l, listener) {
			return
		}
	}
	n.listeners = append(n.listeners, listener)
}

// Unsubscribe removes a listener if present
func (n *Notifier) Unsubscribe(listener Listener) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, l := range n.listeners {
		if sameListener(l, listener) {
			n.listeners = append(n.listeners[:i:i], n.listeners[i+1:]...)
			return
		}
	}
}

// Notify calls every listener in turn and waits for each one.
// A failing or panicking listener does not stop the others.
func (n *Notifier) Notify(ctx context.Context, payload Payload) {
	n.mu.Lock()
	listeners := make([]Listener, len(n.listeners))
	copy(listeners, n.listeners)
	n.mu.Unlock()

	for _, listener := range listeners {
		start := time.Now()
		if err := n.run(ctx, listener, payload); err != nil {
			n.logger.Error("listener failed",
				zap.String("listener", listener.Name()),
				zap.Int("userID", payload.UserID),
				zap.Error(err),
			)
			continue
		}
		n.logger.Debug("listener completed",
			zap.String("listener", listener.Name()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// sameListener compares listeners by identity. Values that cannot be compared
// would panic on ==, so those are matched by type and name.
func sameListener(a, b Listener) bool {
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	if !reflect.ValueOf(a).Comparable() || !reflect.ValueOf(b).Comparable() {
		return a.Name() == b.Name()
	}
	return a == b
}

func (n *Notifier) run(ctx context.Context, listener Listener, payload Payload) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v\n%s", rec, debug.Stack())
		}
	}()
	return listener.Update(ctx, payload)
}
