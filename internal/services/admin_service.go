package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/factify/backend/internal/models"
	"github.com/factify/backend/libs/apperrors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AdminUserRepository is the interface that wraps methods for User table data access used by admins
type AdminUserRepository interface {
	// Method GetAll retrieves all users without password hashes, newest first.
	//
	// If some error occurs during data retrieval, the error will be returned together with "nil" value.
	GetAll(ctx context.Context) ([]models.User, error)
	// Method GetByID retrieves a user by ID.
	//
	// "userID" parameter is used to retrieve a user by ID.
	//
	// If user with such ID does not exist, an error wrapping apperrors.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, userID int) (*models.User, error)
	// Method Count returns the number of users.
	Count(ctx context.Context) (int, error)
	// Method DeleteWithAnalyses deletes the user's analyses and then the user in one transaction.
	//
	// "userID" parameter is used to select the user to delete.
	//
	// If user with such ID does not exist, an error wrapping apperrors.ErrNotFound will be returned.
	DeleteWithAnalyses(ctx context.Context, userID int) error
}

// AdminAnalysisRepository is the interface that wraps methods for Analysis table data access used by admins
type AdminAnalysisRepository interface {
	// Method GetAllWithOwner retrieves all owned analyses joined with owner username and email, newest first.
	//
	// If some error occurs during data retrieval, the error will be returned together with "nil" value.
	GetAllWithOwner(ctx context.Context) ([]models.AnalysisWithOwner, error)
	// Method Count returns the number of owned analyses.
	Count(ctx context.Context) (int, error)
	// Method CountByClassification returns the number of owned analyses with the given classification.
	CountByClassification(ctx context.Context, classification models.Classification) (int, error)
}

// adminService implements AdminService
type adminService struct {
	userRepo     AdminUserRepository
	analysisRepo AdminAnalysisRepository
	logger       *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(userRepo AdminUserRepository, analysisRepo AdminAnalysisRepository, logger *zap.Logger) *adminService {
	return &adminService{
		userRepo:     userRepo,
		analysisRepo: analysisRepo,
		logger:       logger,
	}
}

// ListUsers returns all users, newest first
func (s *adminService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// DeleteUser deletes a non-admin user other than the actor, together with their analyses.
// All checks run before anything is deleted.
func (s *adminService) DeleteUser(ctx context.Context, targetID, actorID int) error {
	if targetID == actorID {
		return apperrors.New(apperrors.ErrSelfDeleteForbidden, "Cannot delete yourself")
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.New(apperrors.ErrNotFound, "User not found")
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if target.IsAdmin() {
		return apperrors.New(apperrors.ErrAdminDeleteForbidden, "Cannot delete admin users")
	}

	if err := s.userRepo.DeleteWithAnalyses(ctx, targetID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.New(apperrors.ErrNotFound, "User not found")
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("user deleted by admin", zap.Int("userID", targetID), zap.Int("adminID", actorID))
	return nil
}

// ListAnalyses returns all owned analyses with owner details, newest first
func (s *adminService) ListAnalyses(ctx context.Context) ([]models.AnalysisWithOwner, error) {
	analyses, err := s.analysisRepo.GetAllWithOwner(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return analyses, nil
}

// GetStats computes the dashboard counters concurrently
func (s *adminService) GetStats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.userRepo.Count(gctx)
		stats.UserCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.analysisRepo.Count(gctx)
		stats.AnalysisCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.analysisRepo.CountByClassification(gctx, models.ClassificationFake)
		stats.FakeCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.analysisRepo.CountByClassification(gctx, models.ClassificationReal)
		stats.RealCount = n
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	return stats, nil
}
