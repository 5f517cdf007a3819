package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/factify/backend/internal/models"
	"github.com/factify/backend/libs/apperrors"
	"go.uber.org/zap"
)

// preprocessingMode is sent with every request, the classifier cleans the content before scoring it
const preprocessingMode = "clean"

// maxErrorBody limits how much of an upstream error body ends up in the error message
const maxErrorBody = 512

// FileOpener opens stored uploads by key
type FileOpener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// classifyRequest is the payload sent to the classification service
type classifyRequest struct {
	Type          string `json:"type"`
	Content       string `json:"content"`
	Preprocessing string `json:"preprocessing"`
}

// classifyResponse is the payload returned by the classification service
type classifyResponse struct {
	Verdict         string   `json:"verdict"`
	ConfidenceScore float64  `json:"confidence_score"`
	Explanation     string   `json:"explanation"`
	Sources         []string `json:"sources"`
}

// Client calls the external classification service
type Client struct {
	endpoint   string
	httpClient *http.Client
	files      FileOpener
	logger     *zap.Logger
}

// NewClient creates a new classifier client.
// The timeout bounds the whole outbound call, including reading the response.
func NewClient(endpoint string, timeout time.Duration, files FileOpener, logger *zap.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		files:      files,
		logger:     logger,
	}
}

// Classify sends content of the given kind to the classification service and returns the normalized verdict.
// For images, content is a storage key and the stored bytes are sent base64-encoded.
func (c *Client) Classify(ctx context.Context, kind models.InputType, content string) (*models.AnalysisResult, error) {
	payload := content
	if kind == models.InputTypeImage {
		encoded, err := c.encodeImage(ctx, content)
		if err != nil {
			c.logger.Error("failed to read image for classification", zap.Error(err), zap.String("key", content))
			return nil, fmt.Errorf("%w: failed to read image: %w", apperrors.ErrClassificationUnavailable, err)
		}
		payload = encoded
	}

	body, err := json.Marshal(classifyRequest{
		Type:          string(kind),
		Content:       payload,
		Preprocessing: preprocessingMode,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %w", apperrors.ErrClassificationUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", apperrors.ErrClassificationUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("sending content to classifier", zap.String("type", string(kind)), zap.Int("bytes", len(body)))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("classifier request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", apperrors.ErrClassificationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Error("classifier returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(snippet)),
		)
		return nil, fmt.Errorf("%w: status %d: %s", apperrors.ErrClassificationUnavailable, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logger.Error("failed to decode classifier response", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to decode response: %w", apperrors.ErrClassificationUnavailable, err)
	}

	result := &models.AnalysisResult{
		Classification:  NormalizeVerdict(decoded.Verdict),
		ConfidenceScore: clampConfidence(decoded.ConfidenceScore),
		Explanation:     decoded.Explanation,
		Sources:         decoded.Sources,
		Timestamp:       time.Now().UTC(),
	}
	if result.Sources == nil {
		result.Sources = []string{}
	}

	c.logger.Info("classification completed",
		zap.String("type", string(kind)),
		zap.String("classification", string(result.Classification)),
		zap.Float64("confidence", result.ConfidenceScore),
		zap.Duration("duration", time.Since(start)),
	)

	return result, nil
}

func (c *Client) encodeImage(ctx context.Context, key string) (string, error) {
	if c.files == nil {
		return "", fmt.Errorf("no file storage configured")
	}

	file, err := c.files.Open(ctx, key)
	if err != nil {
		return "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

// NormalizeVerdict maps an upstream verdict onto a classification, case-insensitively.
// Anything other than fake or real becomes Uncertain.
func NormalizeVerdict(verdict string) models.Classification {
	switch strings.ToLower(strings.TrimSpace(verdict)) {
	case "fake":
		return models.ClassificationFake
	case "real":
		return models.ClassificationReal
	default:
		return models.ClassificationUncertain
	}
}

func clampConfidence(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
