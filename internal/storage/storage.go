package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/factify/backend/libs/apperrors"
)

// Storage stores uploaded files under generated keys
type Storage interface {
	// Save writes the reader to a new file with the given extension and returns its key
	Save(ctx context.Context, r io.Reader, ext string) (string, error)
	// Open returns the content stored under key.
	// It returns an error wrapping apperrors.ErrNotFound when the key is unknown.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the file stored under key
	Delete(ctx context.Context, key string) error
}

// localStorage implements Storage interface using local filesystem
type localStorage struct {
	basePath string
}

// NewLocalStorage creates a new localStorage instance, creating the base directory if needed
func NewLocalStorage(basePath string) (*localStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &localStorage{
		basePath: basePath,
	}, nil
}

// path resolves a key inside the base directory
func (s *localStorage) path(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, key), nil
}

// Save writes the reader to a new file and returns its key
func (s *localStorage) Save(ctx context.Context, r io.Reader, ext string) (string, error) {
	key := GenerateFileName(ext)
	path := filepath.Join(s.basePath, key)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return key, nil
}

// Open opens a file for reading and returns a ReadCloser
func (s *localStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("file %q: %w", key, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes a file
func (s *localStorage) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
