package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/factify/backend/internal/models"
	"github.com/factify/backend/libs/apperrors"
	"github.com/google/uuid"
)

// filePrefix is prepended to every generated upload name
const filePrefix = "submission-"

var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

var documentExtensions = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain; charset=utf-8",
}

// GenerateFileName generates a new file name based on the file extension
// It creates a UUID-based filename with the provided extension
func GenerateFileName(extension string) string {
	newUUID := uuid.New().String()
	// Ensure extension starts with a dot if it doesn't already
	if extension != "" && extension[0] != '.' {
		return filePrefix + newUUID + "." + extension
	}
	return filePrefix + newUUID + extension
}

// AllowedExtension returns the lower-cased extension of filename if uploads of inputType may carry it
func AllowedExtension(inputType models.InputType, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	if _, ok := imageExtensions[ext]; ok {
		return ext, nil
	}
	if _, ok := documentExtensions[ext]; ok && inputType == models.InputTypeFile {
		return ext, nil
	}

	if inputType == models.InputTypeImage {
		return "", apperrors.New(apperrors.ErrValidation, "Only image files (jpg, jpeg, png, gif, webp) are allowed")
	}
	return "", apperrors.New(apperrors.ErrValidation, "Only images, PDF, Word documents and text files are allowed")
}

// ContentType returns the MIME type served for a stored key
func ContentType(key string) string {
	ext := strings.ToLower(filepath.Ext(key))
	if ct, ok := imageExtensions[ext]; ok {
		return ct
	}
	if ct, ok := documentExtensions[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ValidateKey rejects keys that could escape the storage root
func ValidateKey(key string) error {
	if key == "" || key != filepath.Base(key) || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("invalid file key %q: %w", key, apperrors.ErrNotFound)
	}
	return nil
}
