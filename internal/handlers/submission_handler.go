package handlers

import (
	"context"
	"net/http"

	"github.com/factify/backend/internal/models"
	"github.com/factify/backend/internal/services"
	"github.com/factify/backend/libs/apperrors"
	"github.com/factify/backend/libs/handlers"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SubmissionService is the interface that wraps methods for submission business logic.
type SubmissionService interface {
	// Method Create validates and stores a pending submission of a user.
	//
	// "userID" parameter is the owner of the submission.
	// "req" parameter contains input type, text content and source URL.
	// "upload" parameter is the uploaded file for image and file submissions, or "nil".
	//
	// If the submission is invalid, or some other error occurs, the error will be returned together with "nil" value.
	Create(ctx context.Context, userID int, req *models.SubmissionRequest, upload *services.Upload) (*models.Analysis, error)
	// Method List retrieves all submissions of a user, newest first.
	//
	// "userID" parameter is used to identify the user.
	//
	// If some error occurs during data retrieval, the error will be returned together with "nil" value.
	List(ctx context.Context, userID int) ([]models.Analysis, error)
}

// SubmissionHandler handles submission-related HTTP requests
type SubmissionHandler struct {
	handlers.BaseHandler
	submissionService SubmissionService
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(submissionService SubmissionService, logger *zap.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler:       handlers.BaseHandler{Logger: logger},
		submissionService: submissionService,
	}
}

// RegisterRoutes registers all submission handler routes
func (h *SubmissionHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/submissions", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Create)
		r.Get("/", h.List)
	})
}

// Create handles POST /submissions
// @Summary Create submission
// @Description Store content for later review without classifying it. Image and file submissions are sent as multipart form with a "file" part. Requires authentication.
// @Tags submissions
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.SubmissionRequest false "Text or URL submission"
// @Param inputType formData string false "Input type (text, url, image, file)"
// @Param textContent formData string false "Text content"
// @Param sourceUrl formData string false "Source URL"
// @Param file formData file false "Image, PDF, Word document or text file"
// @Success 201 {object} models.SubmissionResponse
// @Failure 400 {object} map[string]string "Invalid submission"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /submissions [post]
func (h *SubmissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		h.RespondServiceError(w, apperrors.ErrNoToken)
		return
	}

	var (
		req    models.SubmissionRequest
		upload *services.Upload
	)

	if isMultipart(r) {
		if err := parseMultipart(r); err != nil {
			h.RespondServiceError(w, err)
			return
		}
		req = models.SubmissionRequest{
			InputType:   r.FormValue("inputType"),
			TextContent: r.FormValue("textContent"),
			SourceURL:   r.FormValue("sourceUrl"),
		}

		file, header, err := formFile(r, "file")
		if err != nil {
			h.RespondServiceError(w, err)
			return
		}
		if file != nil {
			defer file.Close()
			upload = &services.Upload{File: file, Filename: header.Filename}
		}
	} else if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, err)
		return
	}

	submission, err := h.submissionService.Create(r.Context(), user.ID, &req, upload)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, models.SubmissionResponse{
		Message:    "Submission received!",
		Submission: submission,
	})
}

// List handles GET /submissions
// @Summary List submissions
// @Description Get all submissions of the authenticated user, newest first. Requires authentication.
// @Tags submissions
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.Analysis
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /submissions [get]
func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		h.RespondServiceError(w, apperrors.ErrNoToken)
		return
	}

	submissions, err := h.submissionService.List(r.Context(), user.ID)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, nonNil(submissions))
}
