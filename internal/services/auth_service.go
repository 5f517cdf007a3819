package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/factify/backend/internal/models"
	"github.com/factify/backend/libs/apperrors"
	"github.com/factify/backend/libs/auth/middleware"
	"github.com/factify/backend/libs/auth/service"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is the interface that wraps methods for User table data access
type UserRepository interface {
	// Method Create inserts a new user into the database.
	//
	// "user" parameter is used to create a new user. Its ID and CreatedAt are filled in on success.
	//
	// If the email or username is already taken, an error wrapping apperrors.ErrAlreadyExists will be returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByEmail retrieves a user by email.
	//
	// "email" parameter is used to retrieve a user by email.
	//
	// If user with such email does not exist, an error wrapping apperrors.ErrNotFound will be returned together with "nil" value.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Method GetByID retrieves a user by ID.
	//
	// "userID" parameter is used to retrieve a user by ID.
	//
	// If user with such ID does not exist, an error wrapping apperrors.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, userID int) (*models.User, error)
	// Method ExistsByEmail checks if a user with such email exists.
	//
	// "email" parameter is used to check if a user with such email exists.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Method ExistsByUsername checks if a user with such username exists.
	//
	// "username" parameter is used to check if a user with such username exists.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// authService implements AuthService
type authService struct {
	userRepo       UserRepository
	tokenGenerator *service.TokenGenerator
	logger         *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo UserRepository, tokenGenerator *service.TokenGenerator, logger *zap.Logger) *authService {
	return &authService{
		userRepo:       userRepo,
		tokenGenerator: tokenGenerator,
		logger:         logger,
	}
}

// emailRegex validates email format
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const (
	minPasswordLength = 8
	// bcrypt rejects longer input
	maxPasswordBytes = 72
)

// passwordRules are checked in order after the length checks, the first failing rule decides the message
var passwordRules = []struct {
	pattern *regexp.Regexp
	message string
}{
	{regexp.MustCompile(`[A-Z]`), "Password must contain at least one uppercase letter"},
	{regexp.MustCompile(`[a-z]`), "Password must contain at least one lowercase letter"},
	{regexp.MustCompile(`[0-9]`), "Password must contain at least one number"},
	{regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`), "Password must contain at least one special character"},
}

// ValidatePassword returns a validation error naming the first password rule that fails
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return apperrors.New(apperrors.ErrValidation, "Password must be at least 8 characters")
	}
	if len(password) > maxPasswordBytes {
		return apperrors.New(apperrors.ErrValidation, "Password must be at most 72 bytes long")
	}
	for _, rule := range passwordRules {
		if !rule.pattern.MatchString(password) {
			return apperrors.New(apperrors.ErrValidation, rule.message)
		}
	}
	return nil
}

// Register creates a new user account with the user role and returns it with a token
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if username == "" || email == "" || req.Password == "" {
		return nil, apperrors.New(apperrors.ErrValidation, "Please provide all required fields")
	}
	if !emailRegex.MatchString(email) {
		return nil, apperrors.New(apperrors.ErrValidation, "Please provide a valid email")
	}
	if err := ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	emailTaken, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	usernameTaken, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if emailTaken || usernameTaken {
		return nil, apperrors.New(apperrors.ErrAlreadyExists, "User already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, apperrors.New(apperrors.ErrAlreadyExists, "User already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", zap.Int("userID", user.ID), zap.String("username", user.Username))

	return s.authResponse(user)
}

// Login checks the credentials and returns the user with a fresh token
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, apperrors.New(apperrors.ErrValidation, "Please provide email and password")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.New(apperrors.ErrInvalidCredentials, "Invalid email or password")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.New(apperrors.ErrInvalidCredentials, "Invalid email or password")
	}

	return s.authResponse(user)
}

// ResolvePrincipal loads the user behind a token, it backs the access gate
func (s *authService) ResolvePrincipal(ctx context.Context, userID int) (*middleware.Principal, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &middleware.Principal{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role),
	}, nil
}

func (s *authService) authResponse(user *models.User) (*models.AuthResponse, error) {
	token, err := s.tokenGenerator.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.AuthResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		Token:    token,
	}, nil
}
