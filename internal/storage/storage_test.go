package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/factify/backend/internal/models"
	"github.com/factify/backend/libs/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveOpenDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	ctx := context.Background()

	key, err := store.Save(ctx, strings.NewReader("image-bytes"), ".png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "submission-"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))

	require.NoError(t, store.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(dir, "uploads", key))
	assert.True(t, os.IsNotExist(err))

	_, err = store.Open(ctx, key)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// deleting twice is not an error
	assert.NoError(t, store.Delete(ctx, key))
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("s"), 0644))

	store, err := NewLocalStorage(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	for _, key := range []string{"../secret.txt", "..", "", "a/b.png", `..\secret.txt`} {
		t.Run(key, func(t *testing.T) {
			_, err := store.Open(context.Background(), key)
			assert.ErrorIs(t, err, apperrors.ErrNotFound)
		})
	}
}

func TestGenerateFileName(t *testing.T) {
	tests := []struct {
		name      string
		extension string
		suffix    string
	}{
		{name: "with dot", extension: ".jpg", suffix: ".jpg"},
		{name: "without dot", extension: "pdf", suffix: ".pdf"},
		{name: "empty", extension: "", suffix: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name := GenerateFileName(tt.extension)
			assert.True(t, strings.HasPrefix(name, "submission-"))
			assert.True(t, strings.HasSuffix(name, tt.suffix))
			assert.Len(t, name, len("submission-")+36+len(tt.suffix))
		})
	}

	assert.NotEqual(t, GenerateFileName(".png"), GenerateFileName(".png"))
}

func TestAllowedExtension(t *testing.T) {
	tests := []struct {
		name        string
		inputType   models.InputType
		filename    string
		expected    string
		expectedErr bool
	}{
		{name: "image png", inputType: models.InputTypeImage, filename: "photo.PNG", expected: ".png"},
		{name: "image jpeg", inputType: models.InputTypeImage, filename: "photo.jpeg", expected: ".jpeg"},
		{name: "image rejects pdf", inputType: models.InputTypeImage, filename: "doc.pdf", expectedErr: true},
		{name: "file accepts docx", inputType: models.InputTypeFile, filename: "report.docx", expected: ".docx"},
		{name: "file accepts image", inputType: models.InputTypeFile, filename: "scan.jpg", expected: ".jpg"},
		{name: "file rejects exe", inputType: models.InputTypeFile, filename: "run.exe", expectedErr: true},
		{name: "no extension", inputType: models.InputTypeImage, filename: "blob", expectedErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := AllowedExtension(tt.inputType, tt.filename)
			if tt.expectedErr {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ext)
		})
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", ContentType("submission-x.png"))
	assert.Equal(t, "application/pdf", ContentType("submission-x.PDF"))
	assert.Equal(t, "application/octet-stream", ContentType("submission-x"))
}

// mockObjectAPI is a mock implementation of objectAPI
type mockObjectAPI struct {
	objects map[string][]byte
	putErr  error
}

func (m *mockObjectAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	m.objects[*params.Bucket+"/"+*params.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockObjectAPI) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := m.objects[*params.Bucket+"/"+*params.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockObjectAPI) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(m.objects, *params.Bucket+"/"+*params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Storage(t *testing.T) {
	api := &mockObjectAPI{objects: map[string][]byte{}}
	store := newS3Storage(api, "factify")
	ctx := context.Background()

	key, err := store.Save(ctx, strings.NewReader("pdf-bytes"), ".pdf")
	require.NoError(t, err)
	assert.Contains(t, api.objects, "factify/"+key)

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "pdf-bytes", string(data))

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Open(ctx, key)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = store.Open(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	api.putErr = errors.New("access denied")
	_, err = store.Save(ctx, strings.NewReader("x"), ".png")
	assert.ErrorContains(t, err, "access denied")
}
