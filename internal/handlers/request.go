package handlers

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/factify/backend/internal/models"
	"github.com/factify/backend/libs/apperrors"
	"github.com/factify/backend/libs/auth/middleware"
)

// multipartMemory is the part of a multipart form kept in memory, the rest spills to temp files
const multipartMemory = 10 << 20 // 10MB

// currentUser converts the principal attached by the gate to a user, nil for guests
func currentUser(r *http.Request) *models.User {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		return nil
	}
	return &models.User{
		ID:       principal.ID,
		Username: principal.Username,
		Email:    principal.Email,
		Role:     models.Role(principal.Role),
	}
}

// isMultipart reports whether the request carries a multipart form
func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// formFile returns the named file part, or nil values when the part is absent
func formFile(r *http.Request, name string) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := r.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, errors.Join(apperrors.New(apperrors.ErrValidation, "Failed to process uploaded file"), err)
	}
	return file, header, nil
}

// parseMultipart parses a multipart body, mapping failures to validation errors
func parseMultipart(r *http.Request) error {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return errors.Join(apperrors.New(apperrors.ErrValidation, "Failed to parse request"), err)
	}
	return nil
}
