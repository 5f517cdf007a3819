package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/factify/backend/libs/handlers"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports service liveness
type HealthHandler struct {
	handlers.BaseHandler
	db Pinger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		BaseHandler: handlers.BaseHandler{Logger: logger},
		db:          db,
	}
}

// RegisterRoutes registers the root and health routes
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
}

// Root handles GET /
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Factify API is running..."))
}

// Health handles GET /health
// @Summary Health check
// @Description Reports whether the service and its database are reachable
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string "ok"
// @Failure 503 {object} map[string]string "database unreachable"
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.Logger.Warn("health check failed", zap.Error(err))
		h.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
