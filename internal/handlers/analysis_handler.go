package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/factify/backend/internal/models"
	"github.com/factify/backend/internal/services"
	"github.com/factify/backend/internal/storage"
	"github.com/factify/backend/libs/apperrors"
	"github.com/factify/backend/libs/handlers"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AnalysisService is the interface that wraps methods for content analysis business logic.
type AnalysisService interface {
	// Method Analyze classifies the input and records the result in the history of an authenticated caller.
	//
	// "principal" parameter is the authenticated caller, or "nil" for a guest.
	// "input" parameter is the validated content to classify.
	//
	// If the classification service fails, or some other error occurs, the error will be returned together with "nil" value.
	Analyze(ctx context.Context, principal *models.User, input services.AnalysisInput) (*models.AnalysisResult, error)
	// Method History retrieves all analyses of a user, newest first.
	//
	// "userID" parameter is used to identify the user.
	//
	// If some error occurs during data retrieval, the error will be returned together with "nil" value.
	History(ctx context.Context, userID int) ([]models.Analysis, error)
}

// AnalysisHandler handles analysis-related HTTP requests
type AnalysisHandler struct {
	handlers.BaseHandler
	analysisService AnalysisService
	storage         storage.Storage
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analysisService AnalysisService, store storage.Storage, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		BaseHandler:     handlers.BaseHandler{Logger: logger},
		analysisService: analysisService,
		storage:         store,
	}
}

// RegisterRoutes registers all analysis handler routes.
// Analyze is open to guests, history needs an authenticated user.
func (h *AnalysisHandler) RegisterRoutes(r chi.Router, optionalAuth, requiredAuth func(http.Handler) http.Handler) {
	r.Route("/analyze", func(r chi.Router) {
		r.With(optionalAuth).Post("/", h.Analyze)
		r.With(requiredAuth).Get("/history", h.History)
	})
}

// Analyze handles POST /analyze
// @Summary Analyze content
// @Description Classify text, a URL or an image as Fake, Real or Uncertain. Guests get the result only, authenticated users also get it recorded in their history. Images are sent as multipart form with "type" set to "image" and an "image" file part.
// @Tags analyze
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.AnalyzeRequest false "Content to analyze"
// @Param type formData string false "Analysis type (text, url, image)"
// @Param image formData file false "Image to analyze"
// @Success 200 {object} models.AnalysisResult
// @Failure 400 {object} map[string]string "Invalid analysis type or input"
// @Failure 502 {object} map[string]string "Classification service unavailable"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /analyze [post]
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	principal := currentUser(r)

	input, uploadedKey, err := h.parseInput(r)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	result, err := h.analysisService.Analyze(r.Context(), principal, input)

	// Guest uploads and uploads of failed analyses are not referenced by any record
	if uploadedKey != "" && (principal == nil || err != nil) {
		if delErr := h.storage.Delete(context.WithoutCancel(r.Context()), uploadedKey); delErr != nil {
			h.Logger.Warn("failed to remove unreferenced upload", zap.String("key", uploadedKey), zap.Error(delErr))
		}
	}

	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, result)
}

// parseInput reads the analysis input from a JSON or multipart body.
// For a multipart image the upload is stored first and its key returned.
func (h *AnalysisHandler) parseInput(r *http.Request) (services.AnalysisInput, string, error) {
	if !isMultipart(r) {
		var req models.AnalyzeRequest
		if err := h.DecodeJSON(r, &req); err != nil {
			return nil, "", err
		}
		input, err := services.ParseAnalysisInput(req.Type, req.Content)
		return input, "", err
	}

	if err := parseMultipart(r); err != nil {
		return nil, "", err
	}

	kind := r.FormValue("type")
	content := r.FormValue("content")
	if !strings.EqualFold(strings.TrimSpace(kind), string(models.InputTypeImage)) {
		input, err := services.ParseAnalysisInput(kind, content)
		return input, "", err
	}

	file, header, err := formFile(r, "image")
	if err != nil {
		return nil, "", err
	}
	if file == nil {
		input, err := services.ParseAnalysisInput(kind, content)
		return input, "", err
	}
	defer file.Close()

	ext, err := storage.AllowedExtension(models.InputTypeImage, header.Filename)
	if err != nil {
		return nil, "", err
	}

	key, err := h.storage.Save(r.Context(), file, ext)
	if err != nil {
		return nil, "", err
	}

	input, err := services.ParseAnalysisInput(kind, key)
	if err != nil {
		h.storage.Delete(r.Context(), key)
		return nil, "", err
	}
	return input, key, nil
}

// History handles GET /analyze/history
// @Summary Get analysis history
// @Description Get all analyses of the authenticated user, newest first. Requires authentication.
// @Tags analyze
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.Analysis
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /analyze/history [get]
func (h *AnalysisHandler) History(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		h.RespondServiceError(w, apperrors.ErrNoToken)
		return
	}

	history, err := h.analysisService.History(r.Context(), user.ID)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, nonNil(history))
}

// nonNil keeps empty lists encoded as [] instead of null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
