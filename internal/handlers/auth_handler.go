package handlers

import (
	"context"
	"net/http"

	"github.com/factify/backend/internal/models"
	"github.com/factify/backend/libs/handlers"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps methods for authentication business logic.
type AuthService interface {
	// Method Register validates the credentials, creates a user with the "user" role and returns it together with an access token.
	//
	// "req" parameter contains username, email and password.
	//
	// If some field is missing or invalid, or such user already exists, or some other error occurs, the error will be returned together with "nil" value.
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error)
	// Method Login validates the credentials and returns the user together with an access token.
	//
	// "req" parameter contains email and password.
	//
	// If credentials are invalid, or some other error occurs, the error will be returned together with "nil" value.
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	handlers.BaseHandler
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: handlers.BaseHandler{Logger: logger},
		authService: authService,
	}
}

// RegisterRoutes registers all auth handler routes
// Note: This assumes the router is already scoped to /api
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})
}

// Register handles POST /auth/register
// @Summary Register a new user
// @Description Register a new user with username, email and password. Returns the user and an access token.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration data"
// @Success 201 {object} models.AuthResponse
// @Failure 400 {object} map[string]string "Invalid input or user already exists"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, err)
		return
	}

	resp, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		h.Logger.Info("registration rejected", zap.Error(err))
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, resp)
}

// Login handles POST /auth/login
// @Summary Login user
// @Description Authenticate with email and password. Returns the user and an access token.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.AuthResponse
// @Failure 400 {object} map[string]string "Missing fields"
// @Failure 401 {object} map[string]string "Invalid email or password"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, err)
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, resp)
}
