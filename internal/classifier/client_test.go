package classifier

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/factify/backend/internal/models"
	"github.com/factify/backend/libs/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockFileOpener is a mock implementation of FileOpener
type mockFileOpener struct {
	files map[string][]byte
}

func (m *mockFileOpener) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.files[key]
	if !ok {
		return nil, errors.New("file not found")
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func TestClient_Classify(t *testing.T) {
	imageBytes := []byte{0x89, 'P', 'N', 'G', 0x00, 0x01}
	files := &mockFileOpener{files: map[string][]byte{"submission-1.png": imageBytes}}

	tests := []struct {
		name                   string
		kind                   models.InputType
		content                string
		status                 int
		response               string
		expectedContent        string
		expectedClassification models.Classification
		expectedConfidence     float64
		expectedError          string
	}{
		{
			name:                   "text fake",
			kind:                   models.InputTypeText,
			content:                "water is dry",
			status:                 http.StatusOK,
			response:               `{"verdict":"FAKE","confidence_score":87.5,"explanation":"contradicts physics","sources":["https://a.test"]}`,
			expectedContent:        "water is dry",
			expectedClassification: models.ClassificationFake,
			expectedConfidence:     87.5,
		},
		{
			name:                   "url real",
			kind:                   models.InputTypeURL,
			content:                "https://news.test/story",
			status:                 http.StatusOK,
			response:               `{"verdict":"real","confidence_score":64}`,
			expectedContent:        "https://news.test/story",
			expectedClassification: models.ClassificationReal,
			expectedConfidence:     64,
		},
		{
			name:                   "image is base64 encoded",
			kind:                   models.InputTypeImage,
			content:                "submission-1.png",
			status:                 http.StatusOK,
			response:               `{"verdict":"Fake","confidence_score":150}`,
			expectedContent:        base64.StdEncoding.EncodeToString(imageBytes),
			expectedClassification: models.ClassificationFake,
			expectedConfidence:     100,
		},
		{
			name:                   "unknown verdict is uncertain",
			kind:                   models.InputTypeText,
			content:                "maybe",
			status:                 http.StatusOK,
			response:               `{"verdict":"mixed","confidence_score":-3}`,
			expectedContent:        "maybe",
			expectedClassification: models.ClassificationUncertain,
			expectedConfidence:     0,
		},
		{
			name:            "upstream error status",
			kind:            models.InputTypeText,
			content:         "claim",
			status:          http.StatusInternalServerError,
			response:        `model not loaded`,
			expectedContent: "claim",
			expectedError:   "status 500: model not loaded",
		},
		{
			name:            "undecodable body",
			kind:            models.InputTypeText,
			content:         "claim",
			status:          http.StatusOK,
			response:        `<html>`,
			expectedContent: "claim",
			expectedError:   "failed to decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var req classifyRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, string(tt.kind), req.Type)
				assert.Equal(t, tt.expectedContent, req.Content)
				assert.Equal(t, "clean", req.Preprocessing)

				w.WriteHeader(tt.status)
				w.Write([]byte(tt.response))
			}))
			defer server.Close()

			client := NewClient(server.URL, 5*time.Second, files, zap.NewNop())
			result, err := client.Classify(context.Background(), tt.kind, tt.content)

			assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
			if tt.expectedError != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrClassificationUnavailable)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, result)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedClassification, result.Classification)
			assert.Equal(t, tt.expectedConfidence, result.ConfidenceScore)
			assert.NotNil(t, result.Sources)
			assert.False(t, result.Timestamp.IsZero())
		})
	}
}

func TestClient_Classify_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	client := NewClient(endpoint, time.Second, nil, zap.NewNop())
	_, err := client.Classify(context.Background(), models.InputTypeText, "claim")

	assert.ErrorIs(t, err, apperrors.ErrClassificationUnavailable)
}

func TestClient_Classify_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, 50*time.Millisecond, nil, zap.NewNop())
	_, err := client.Classify(context.Background(), models.InputTypeText, "slow")

	assert.ErrorIs(t, err, apperrors.ErrClassificationUnavailable)
}

func TestClient_Classify_MissingImage(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, &mockFileOpener{}, zap.NewNop())
	_, err := client.Classify(context.Background(), models.InputTypeImage, "missing.png")

	assert.ErrorIs(t, err, apperrors.ErrClassificationUnavailable)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestNormalizeVerdict(t *testing.T) {
	tests := []struct {
		verdict  string
		expected models.Classification
	}{
		{"Fake", models.ClassificationFake},
		{" fake ", models.ClassificationFake},
		{"REAL", models.ClassificationReal},
		{"", models.ClassificationUncertain},
		{"satire", models.ClassificationUncertain},
	}

	for _, tt := range tests {
		t.Run(tt.verdict, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeVerdict(tt.verdict))
		})
	}
}
