package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/factify/backend/internal/storage"
	"github.com/factify/backend/libs/apperrors"
	"github.com/factify/backend/libs/handlers"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UploadHandler serves stored uploads
type UploadHandler struct {
	handlers.BaseHandler
	storage storage.Storage
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(store storage.Storage, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		BaseHandler: handlers.BaseHandler{Logger: logger},
		storage:     store,
	}
}

// RegisterRoutes registers the upload route.
// Note: uploads are served outside of /api
func (h *UploadHandler) RegisterRoutes(r chi.Router) {
	r.Get("/uploads/{key}", h.DownloadFile)
}

// DownloadFile handles GET /uploads/{key}
// @Summary Download upload
// @Description Download a stored image or document by its storage key
// @Tags uploads
// @Produce application/octet-stream
// @Param key path string true "Storage key"
// @Success 200 "File content"
// @Failure 404 {object} map[string]string "File not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /uploads/{key} [get]
func (h *UploadHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	reader, err := h.storage.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.RespondError(w, http.StatusNotFound, "file not found")
			return
		}
		h.Logger.Error("failed to open file", zap.String("key", key), zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to open file")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", storage.ContentType(key))
	w.Header().Set("X-Content-Type-Options", "nosniff")

	if _, err := io.Copy(w, reader); err != nil {
		h.Logger.Error("failed to copy file to response", zap.String("key", key), zap.Error(err))
	}
}
