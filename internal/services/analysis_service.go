package services

import (
	"context"
	"fmt"

	"github.com/factify/backend/internal/models"
	"github.com/factify/backend/internal/notifier"
	"github.com/factify/backend/libs/apperrors"
	"go.uber.org/zap"
)

// Classifier is the interface that wraps the outbound classification call
type Classifier interface {
	// Method Classify sends content of the given kind to the classification service.
	//
	// "kind" is text, url or image. For image, "content" is a storage key.
	//
	// If the service is unreachable or answers with an error, an error wrapping
	// apperrors.ErrClassificationUnavailable will be returned together with "nil" value.
	Classify(ctx context.Context, kind models.InputType, content string) (*models.AnalysisResult, error)
}

// Publisher is the interface that wraps result publication
type Publisher interface {
	// Method Notify publishes the payload to every subscribed listener.
	//
	// Listener failures are handled by the publisher and never returned.
	Notify(ctx context.Context, payload notifier.Payload)
}

// AnalysisRepository is the interface that wraps methods for Analysis table reads
type AnalysisRepository interface {
	// Method GetByUserID retrieves all analyses of a user, newest first.
	//
	// "userID" parameter is used to filter analyses by owner.
	//
	// If some error occurs during data retrieval, the error will be returned together with "nil" value.
	GetByUserID(ctx context.Context, userID int) ([]models.Analysis, error)
}

// analysisService implements AnalysisService
type analysisService struct {
	classifier   Classifier
	publisher    Publisher
	analysisRepo AnalysisRepository
	logger       *zap.Logger
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(classifier Classifier, publisher Publisher, analysisRepo AnalysisRepository, logger *zap.Logger) *analysisService {
	return &analysisService{
		classifier:   classifier,
		publisher:    publisher,
		analysisRepo: analysisRepo,
		logger:       logger,
	}
}

// Dispatch classifies the input with the strategy matching its variant
func (s *analysisService) Dispatch(ctx context.Context, input AnalysisInput) (*models.AnalysisResult, error) {
	var (
		result *models.AnalysisResult
		err    error
	)

	switch in := input.(type) {
	case TextInput:
		result, err = s.classifier.Classify(ctx, models.InputTypeText, in.Text)
	case URLInput:
		result, err = s.classifier.Classify(ctx, models.InputTypeURL, in.URL)
	case ImageInput:
		result, err = s.classifier.Classify(ctx, models.InputTypeImage, in.Key)
	default:
		return nil, fmt.Errorf("no strategy for input %T: %w", input, apperrors.ErrStrategyNotSet)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to classify %s: %w", input.Kind(), err)
	}

	return result, nil
}

// Analyze classifies the input and, for an authenticated user, publishes the result to the history listeners.
// A disconnecting caller does not cancel the classification or the history write.
func (s *analysisService) Analyze(ctx context.Context, principal *models.User, input AnalysisInput) (*models.AnalysisResult, error) {
	ctx = context.WithoutCancel(ctx)

	result, err := s.Dispatch(ctx, input)
	if err != nil {
		return nil, err
	}

	if principal == nil {
		s.logger.Debug("guest analysis, history not recorded", zap.String("type", string(input.Kind())))
		return result, nil
	}

	s.publisher.Notify(ctx, notifier.Payload{
		UserID:    principal.ID,
		InputType: input.Kind(),
		Content:   input.Content(),
		Result:    *result,
	})

	return result, nil
}

// History returns the user's analyses, newest first
func (s *analysisService) History(ctx context.Context, userID int) ([]models.Analysis, error) {
	analyses, err := s.analysisRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis history: %w", err)
	}
	return analyses, nil
}
