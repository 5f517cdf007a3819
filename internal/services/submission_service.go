package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/factify/backend/internal/models"
	"github.com/factify/backend/internal/storage"
	"github.com/factify/backend/libs/apperrors"
	"go.uber.org/zap"
)

// SubmissionRepository is the interface that wraps methods for storing submissions
type SubmissionRepository interface {
	// Method Create inserts a new analysis record.
	//
	// "analysis" parameter is used to create the record. Its ID is filled in on success.
	//
	// If some error occurs during creation, the error will be returned.
	Create(ctx context.Context, analysis *models.Analysis) error
	// Method GetByUserID retrieves all records of a user, newest first.
	//
	// "userID" parameter is used to filter records by owner.
	//
	// If some error occurs during data retrieval, the error will be returned together with "nil" value.
	GetByUserID(ctx context.Context, userID int) ([]models.Analysis, error)
}

// Upload is a file received with a request
type Upload struct {
	File     io.Reader
	Filename string
}

// submissionService implements SubmissionService
type submissionService struct {
	repo    SubmissionRepository
	storage storage.Storage
	logger  *zap.Logger
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(repo SubmissionRepository, store storage.Storage, logger *zap.Logger) *submissionService {
	return &submissionService{
		repo:    repo,
		storage: store,
		logger:  logger,
	}
}

// Create validates and stores a pending submission.
// Image and file submissions need an upload, text and url submissions need text or a source URL.
func (s *submissionService) Create(ctx context.Context, userID int, req *models.SubmissionRequest, upload *Upload) (*models.Analysis, error) {
	inputType := models.InputType(strings.ToLower(strings.TrimSpace(req.InputType)))
	if !inputType.IsValid() {
		return nil, apperrors.New(apperrors.ErrInvalidAnalysisType, "Invalid input type")
	}

	textContent := strings.TrimSpace(req.TextContent)
	sourceURL := strings.TrimSpace(req.SourceURL)

	analysis := &models.Analysis{
		UserID:    userID,
		InputType: inputType,
		SourceURL: sourceURL,
		Result:    models.AnalysisResult{Classification: models.ClassificationPending, Sources: []string{}},
	}

	if inputType.HasUpload() {
		if upload == nil || upload.File == nil {
			return nil, apperrors.New(apperrors.ErrValidation, "Please upload a file (Image, PDF, Doc, or Text)")
		}
		ext, err := storage.AllowedExtension(inputType, upload.Filename)
		if err != nil {
			return nil, err
		}
		key, err := s.storage.Save(ctx, upload.File, ext)
		if err != nil {
			return nil, fmt.Errorf("failed to store upload: %w", err)
		}
		analysis.Content = key
	} else {
		if textContent == "" && sourceURL == "" {
			return nil, apperrors.New(apperrors.ErrValidation, "Please provide text or URL content")
		}
		analysis.Content = textContent
		if inputType == models.InputTypeURL && sourceURL != "" {
			analysis.Content = sourceURL
		}
	}

	if err := s.repo.Create(ctx, analysis); err != nil {
		if inputType.HasUpload() {
			if delErr := s.storage.Delete(ctx, analysis.Content); delErr != nil {
				s.logger.Warn("failed to remove orphaned upload", zap.String("key", analysis.Content), zap.Error(delErr))
			}
		}
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	s.logger.Info("submission received", zap.Int("submissionID", analysis.ID), zap.Int("userID", userID), zap.String("type", string(inputType)))
	return analysis, nil
}

// List returns the user's submissions, newest first
func (s *submissionService) List(ctx context.Context, userID int) ([]models.Analysis, error) {
	submissions, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, nil
}
