package notifier

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// Redis hashes holding running totals
const (
	VerdictsKey = "factify:verdicts"
	KindsKey    = "factify:kinds"
)

// Incrementer is the subset of the redis client the counter needs
type Incrementer interface {
	HIncrBy(ctx context.Context, key, field string, incr int64) *redis.IntCmd
}

// VerdictCounter keeps per-classification and per-input-type totals in Redis
type VerdictCounter struct {
	client Incrementer
}

// NewVerdictCounter creates a new verdict counter
func NewVerdictCounter(client Incrementer) *VerdictCounter {
	return &VerdictCounter{client: client}
}

func (c *VerdictCounter) Name() string {
	return "verdict-counter"
}

// Update increments the classification and input type counters
func (c *VerdictCounter) Update(ctx context.Context, payload Payload) error {
	if err := c.client.HIncrBy(ctx, VerdictsKey, string(payload.Result.Classification), 1).Err(); err != nil {
		return fmt.Errorf("failed to increment verdict counter: %w", err)
	}

	if err := c.client.HIncrBy(ctx, KindsKey, string(payload.InputType), 1).Err(); err != nil {
		return fmt.Errorf("failed to increment kind counter: %w", err)
	}

	return nil
}
