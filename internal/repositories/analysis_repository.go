package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/factify/backend/internal/models"
	"github.com/factify/backend/libs/apperrors"
)

// analysisRepository implements AnalysisRepository.
// There is deliberately no update method, records are immutable.
type analysisRepository struct {
	db *sql.DB
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *sql.DB) *analysisRepository {
	return &analysisRepository{
		db: db,
	}
}

// Create inserts a new analysis record
func (r *analysisRepository) Create(ctx context.Context, analysis *models.Analysis) error {
	query := `
		INSERT INTO analyses (user_id, input_type, content, source_url, classification, confidence_score, explanation, sources, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	sources, err := encodeSources(analysis.Result.Sources)
	if err != nil {
		return err
	}

	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx, query,
		analysis.UserID,
		analysis.InputType,
		analysis.Content,
		analysis.SourceURL,
		analysis.Result.Classification,
		analysis.Result.ConfidenceScore,
		analysis.Result.Explanation,
		sources,
		analysis.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis: %w: %w", apperrors.ErrPersistence, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w: %w", apperrors.ErrPersistence, err)
	}

	analysis.ID = int(id)
	return nil
}

// GetByUserID retrieves all analyses of a user, newest first.
// Ties on created_at are broken by insertion order.
func (r *analysisRepository) GetByUserID(ctx context.Context, userID int) ([]models.Analysis, error) {
	query := `
		SELECT id, user_id, input_type, content, source_url, classification, confidence_score, explanation, sources, created_at
		FROM analyses
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w: %w", apperrors.ErrPersistence, err)
	}
	defer rows.Close()

	analyses := []models.Analysis{}
	for rows.Next() {
		var analysis models.Analysis
		var sources sql.NullString
		if err := rows.Scan(
			&analysis.ID,
			&analysis.UserID,
			&analysis.InputType,
			&analysis.Content,
			&analysis.SourceURL,
			&analysis.Result.Classification,
			&analysis.Result.ConfidenceScore,
			&analysis.Result.Explanation,
			&sources,
			&analysis.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w: %w", apperrors.ErrPersistence, err)
		}
		if analysis.Result.Sources, err = decodeSources(sources); err != nil {
			return nil, err
		}
		analysis.Result.Timestamp = analysis.CreatedAt
		analyses = append(analyses, analysis)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analyses: %w: %w", apperrors.ErrPersistence, err)
	}

	return analyses, nil
}

// GetAllWithOwner retrieves all owned analyses joined with owner username and email, newest first
func (r *analysisRepository) GetAllWithOwner(ctx context.Context) ([]models.AnalysisWithOwner, error) {
	query := `
		SELECT a.id, a.user_id, a.input_type, a.content, a.source_url, a.classification, a.confidence_score,
			a.explanation, a.sources, a.created_at, u.username, u.email
		FROM analyses a
		INNER JOIN users u ON u.id = a.user_id
		ORDER BY a.created_at DESC, a.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w: %w", apperrors.ErrPersistence, err)
	}
	defer rows.Close()

	analyses := []models.AnalysisWithOwner{}
	for rows.Next() {
		var item models.AnalysisWithOwner
		var sources sql.NullString
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.InputType,
			&item.Content,
			&item.SourceURL,
			&item.Result.Classification,
			&item.Result.ConfidenceScore,
			&item.Result.Explanation,
			&sources,
			&item.CreatedAt,
			&item.Owner.Username,
			&item.Owner.Email,
		); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w: %w", apperrors.ErrPersistence, err)
		}
		if item.Result.Sources, err = decodeSources(sources); err != nil {
			return nil, err
		}
		item.Owner.ID = item.UserID
		item.Result.Timestamp = item.CreatedAt
		analyses = append(analyses, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analyses: %w: %w", apperrors.ErrPersistence, err)
	}

	return analyses, nil
}

// Count returns the number of owned analyses
func (r *analysisRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w: %w", apperrors.ErrPersistence, err)
	}
	return count, nil
}

// CountByClassification returns the number of owned analyses with the given classification
func (r *analysisRepository) CountByClassification(ctx context.Context, classification models.Classification) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM analyses WHERE classification = ?`
	if err := r.db.QueryRowContext(ctx, query, classification).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s analyses: %w: %w", classification, apperrors.ErrPersistence, err)
	}
	return count, nil
}

// encodeSources stores sources as a JSON array, nil when there are none
func encodeSources(sources []string) (any, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	encoded, err := json.Marshal(sources)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sources: %w", err)
	}
	return string(encoded), nil
}

func decodeSources(raw sql.NullString) ([]string, error) {
	if !raw.Valid || raw.String == "" {
		return []string{}, nil
	}
	var sources []string
	if err := json.Unmarshal([]byte(raw.String), &sources); err != nil {
		return nil, fmt.Errorf("failed to decode sources: %w: %w", apperrors.ErrPersistence, err)
	}
	return sources, nil
}
