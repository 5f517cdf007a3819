package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/factify/backend/libs/apperrors"
	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// RespondServiceError maps a service error to its HTTP status.
// Server-side failures are logged and answered with a generic message,
// classifier failures keep their upstream message.
func (h *BaseHandler) RespondServiceError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)

	switch {
	case status == http.StatusBadGateway:
		h.Logger.Error("upstream failure", zap.Error(err))
		h.RespondError(w, status, err.Error())
	case status >= http.StatusInternalServerError:
		h.Logger.Error("internal error", zap.Error(err))
		h.RespondError(w, status, "internal server error")
	default:
		h.RespondError(w, status, apperrors.Message(err))
	}
}

// DecodeJSON decodes the request body into dst
func (h *BaseHandler) DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", apperrors.New(apperrors.ErrValidation, "Invalid request body"), err)
	}
	return nil
}
