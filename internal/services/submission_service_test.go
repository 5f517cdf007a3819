package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/factify/backend/internal/models"
	"github.com/factify/backend/libs/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockStorage is an in-memory implementation of storage.Storage
type mockStorage struct {
	files   map[string]string
	saveErr error
	deleted []string
}

func newMockStorage() *mockStorage {
	return &mockStorage{files: map[string]string{}}
}

func (m *mockStorage) Save(ctx context.Context, r io.Reader, ext string) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	key := "submission-test" + ext
	m.files[key] = string(data)
	return key, nil
}

func (m *mockStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.files[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	delete(m.files, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func TestSubmissionService_Create(t *testing.T) {
	tests := []struct {
		name            string
		req             *models.SubmissionRequest
		upload          *Upload
		expectedErr     error
		expectedMessage string
		expectedContent string
		expectedType    models.InputType
	}{
		{
			name:            "text",
			req:             &models.SubmissionRequest{InputType: "text", TextContent: " claim "},
			expectedContent: "claim",
			expectedType:    models.InputTypeText,
		},
		{
			name:            "url prefers source url",
			req:             &models.SubmissionRequest{InputType: "url", TextContent: "see link", SourceURL: "https://a.test"},
			expectedContent: "https://a.test",
			expectedType:    models.InputTypeURL,
		},
		{
			name:            "file upload",
			req:             &models.SubmissionRequest{InputType: "file"},
			upload:          &Upload{File: strings.NewReader("%PDF"), Filename: "report.pdf"},
			expectedContent: "submission-test.pdf",
			expectedType:    models.InputTypeFile,
		},
		{
			name:            "image upload",
			req:             &models.SubmissionRequest{InputType: "image", SourceURL: "https://origin.test"},
			upload:          &Upload{File: strings.NewReader("png"), Filename: "a.PNG"},
			expectedContent: "submission-test.png",
			expectedType:    models.InputTypeImage,
		},
		{
			name:            "missing file",
			req:             &models.SubmissionRequest{InputType: "image"},
			expectedErr:     apperrors.ErrValidation,
			expectedMessage: "Please upload a file (Image, PDF, Doc, or Text)",
		},
		{
			name:        "image rejects document",
			req:         &models.SubmissionRequest{InputType: "image"},
			upload:      &Upload{File: strings.NewReader("x"), Filename: "a.pdf"},
			expectedErr: apperrors.ErrValidation,
		},
		{
			name:            "missing text",
			req:             &models.SubmissionRequest{InputType: "text"},
			expectedErr:     apperrors.ErrValidation,
			expectedMessage: "Please provide text or URL content",
		},
		{
			name:        "unknown type",
			req:         &models.SubmissionRequest{InputType: "audio", TextContent: "x"},
			expectedErr: apperrors.ErrInvalidAnalysisType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockAnalysisRepository{}
			store := newMockStorage()
			svc := NewSubmissionService(repo, store, zap.NewNop())

			submission, err := svc.Create(context.Background(), 5, tt.req, tt.upload)

			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				if tt.expectedMessage != "" {
					assert.Equal(t, tt.expectedMessage, apperrors.Message(err))
				}
				assert.Empty(t, repo.analyses)
				assert.Empty(t, store.files)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, 5, submission.UserID)
			assert.Equal(t, tt.expectedType, submission.InputType)
			assert.Equal(t, tt.expectedContent, submission.Content)
			assert.Equal(t, models.ClassificationPending, submission.Result.Classification)
			assert.Zero(t, submission.Result.ConfidenceScore)
			require.Len(t, repo.analyses, 1)
		})
	}
}

func TestSubmissionService_Create_RemovesUploadOnFailure(t *testing.T) {
	repo := &mockAnalysisRepository{createErr: errors.New("insert failed")}
	store := newMockStorage()
	svc := NewSubmissionService(repo, store, zap.NewNop())

	_, err := svc.Create(context.Background(), 5, &models.SubmissionRequest{InputType: "file"},
		&Upload{File: strings.NewReader("text"), Filename: "notes.txt"})

	require.Error(t, err)
	assert.Equal(t, []string{"submission-test.txt"}, store.deleted)
	assert.Empty(t, store.files)
}

func TestSubmissionService_List(t *testing.T) {
	repo := &mockAnalysisRepository{}
	svc := NewSubmissionService(repo, newMockStorage(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.Create(ctx, 5, &models.SubmissionRequest{InputType: "text", TextContent: "one"}, nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, 5, &models.SubmissionRequest{InputType: "text", TextContent: "two"}, nil)
	require.NoError(t, err)

	list, err := svc.List(ctx, 5)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "two", list[0].Content)
}
