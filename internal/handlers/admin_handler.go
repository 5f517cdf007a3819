package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/factify/backend/internal/models"
	"github.com/factify/backend/libs/apperrors"
	"github.com/factify/backend/libs/handlers"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AdminService is the interface that wraps methods for admin business logic.
type AdminService interface {
	// Method ListUsers retrieves all users without password hashes, newest first.
	//
	// If some error occurs during data retrieval, the error will be returned together with "nil" value.
	ListUsers(ctx context.Context) ([]models.User, error)
	// Method DeleteUser deletes a user together with all their analyses.
	//
	// "targetID" parameter is the user to delete.
	// "actorID" parameter is the admin performing the deletion.
	//
	// If the target is the actor or an admin, or it does not exist, or some other error occurs, the error will be returned.
	DeleteUser(ctx context.Context, targetID, actorID int) error
	// Method ListAnalyses retrieves all owned analyses joined with owner details, newest first.
	//
	// If some error occurs during data retrieval, the error will be returned together with "nil" value.
	ListAnalyses(ctx context.Context) ([]models.AnalysisWithOwner, error)
	// Method GetStats counts users, analyses and Fake and Real verdicts.
	//
	// If any count fails, the error will be returned together with "nil" value.
	GetStats(ctx context.Context) (*models.Stats, error)
}

// AdminHandler handles admin-related HTTP requests
type AdminHandler struct {
	handlers.BaseHandler
	adminService AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  handlers.BaseHandler{Logger: logger},
		adminService: adminService,
	}
}

// RegisterRoutes registers all admin handler routes
// Note: the router is expected to be guarded by the admin role middleware
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Get("/stats", h.GetStats)
		r.Get("/users", h.ListUsers)
		r.Delete("/users/{id}", h.DeleteUser)
		r.Get("/analyses", h.ListAnalyses)
	})
}

// GetStats handles GET /admin/stats
// @Summary Get dashboard statistics
// @Description Get user and analysis counts together with the number of Fake and Real verdicts. Requires admin role.
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} models.Stats
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/stats [get]
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.GetStats(r.Context())
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, stats)
}

// ListUsers handles GET /admin/users
// @Summary List users
// @Description Get all users, newest first. Requires admin role.
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.User
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListUsers(r.Context())
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, nonNil(users))
}

// DeleteUser handles DELETE /admin/users/{id}
// @Summary Delete user
// @Description Delete a user and all their analyses. Admins cannot delete themselves or other admins. Requires admin role.
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Success 200 {object} map[string]string "User and their analyses deleted successfully"
// @Failure 400 {object} map[string]string "Cannot delete yourself or admin users"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor := currentUser(r)
	if actor == nil {
		h.RespondServiceError(w, apperrors.ErrNoToken)
		return
	}

	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		h.RespondError(w, http.StatusNotFound, "User not found")
		return
	}

	if err := h.adminService.DeleteUser(r.Context(), id, actor.ID); err != nil {
		h.Logger.Info("user deletion rejected", zap.Int("userID", id), zap.Int("adminID", actor.ID), zap.Error(err))
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "User and their analyses deleted successfully",
	})
}

// ListAnalyses handles GET /admin/analyses
// @Summary List analyses
// @Description Get all analyses of registered users joined with the owner username and email, newest first. Requires admin role.
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.AnalysisWithOwner
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/analyses [get]
func (h *AdminHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	analyses, err := h.adminService.ListAnalyses(r.Context())
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, nonNil(analyses))
}
