package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/factify/backend/internal/models"
	"github.com/factify/backend/libs/apperrors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminProvisionRepository is the interface that wraps methods for provisioning the bootstrap admin
type AdminProvisionRepository interface {
	// Method GetByEmail retrieves a user by email.
	// Returns an error wrapping apperrors.ErrNotFound if no such user.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Method Create inserts a new user. Its ID and creation time are filled in on success.
	Create(ctx context.Context, user *models.User) error
	// Method ReplaceByEmail deletes the account with user.Email and inserts user, in one transaction.
	ReplaceByEmail(ctx context.Context, user *models.User) error
}

// AdminAccount holds the credentials of the bootstrap admin
type AdminAccount struct {
	Username string
	Email    string
	Password string
}

// bootstrapService provisions the admin account outside of public registration
type bootstrapService struct {
	repo   AdminProvisionRepository
	logger *zap.Logger
}

// NewBootstrapService creates a new bootstrap service
func NewBootstrapService(repo AdminProvisionRepository, logger *zap.Logger) *bootstrapService {
	return &bootstrapService{
		repo:   repo,
		logger: logger,
	}
}

// EnsureAdmin creates the admin account when its email is not registered yet.
// An email held by a non-admin account is refused.
// With reset set, whatever account holds the email is replaced in one transaction.
// It reports whether an account was created.
func (s *bootstrapService) EnsureAdmin(ctx context.Context, account AdminAccount, reset bool) (bool, error) {
	username := strings.TrimSpace(account.Username)
	email := strings.ToLower(strings.TrimSpace(account.Email))

	if username == "" || email == "" || account.Password == "" {
		return false, apperrors.New(apperrors.ErrValidation, "ADMIN_USERNAME, ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}
	if !emailRegex.MatchString(email) {
		return false, apperrors.New(apperrors.ErrValidation, "Please provide a valid email")
	}
	if err := ValidatePassword(account.Password); err != nil {
		return false, err
	}

	if !reset {
		existing, err := s.repo.GetByEmail(ctx, email)
		switch {
		case err == nil && existing.IsAdmin():
			s.logger.Info("admin already provisioned", zap.String("email", email))
			return false, nil
		case err == nil:
			return false, apperrors.New(apperrors.ErrValidation,
				fmt.Sprintf("%s belongs to an account with role %q, run with -reset to replace it", email, existing.Role))
		case !errors.Is(err, apperrors.ErrNotFound):
			return false, fmt.Errorf("failed to check admin: %w", err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(account.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}

	if reset {
		if err := s.repo.ReplaceByEmail(ctx, admin); err != nil {
			return false, fmt.Errorf("failed to replace admin: %w", err)
		}
		s.logger.Info("admin re-provisioned", zap.Int("userID", admin.ID), zap.String("email", email))
		return true, nil
	}

	if err := s.repo.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("failed to create admin: %w", err)
	}

	s.logger.Info("admin provisioned", zap.Int("userID", admin.ID), zap.String("email", email))
	return true, nil
}
