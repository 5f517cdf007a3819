package notifier

import (
	"context"
	"fmt"

	"github.com/factify/backend/internal/models"
)

// AnalysisWriter persists analysis records
type AnalysisWriter interface {
	Create(ctx context.Context, analysis *models.Analysis) error
}

// HistoryListener stores every published classification in its owner's history
type HistoryListener struct {
	repo AnalysisWriter
}

// NewHistoryListener creates a new history listener
func NewHistoryListener(repo AnalysisWriter) *HistoryListener {
	return &HistoryListener{repo: repo}
}

func (l *HistoryListener) Name() string {
	return "history"
}

// Update writes one analysis record for the payload
func (l *HistoryListener) Update(ctx context.Context, payload Payload) error {
	analysis := &models.Analysis{
		UserID:    payload.UserID,
		InputType: payload.InputType,
		Content:   payload.Content,
		Result:    payload.Result,
		CreatedAt: payload.Result.Timestamp,
	}

	if err := l.repo.Create(ctx, analysis); err != nil {
		return fmt.Errorf("failed to save analysis history: %w", err)
	}

	return nil
}
