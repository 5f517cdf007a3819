package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/factify/backend/libs/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBaseHandler_RespondServiceError(t *testing.T) {
	h := &BaseHandler{Logger: zap.NewNop()}

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "validation message",
			err:            apperrors.New(apperrors.ErrValidation, "Password must contain at least one number"),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Password must contain at least one number"}`,
		},
		{
			name:           "not found",
			err:            fmt.Errorf("delete user: %w", apperrors.New(apperrors.ErrNotFound, "User not found")),
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"User not found"}`,
		},
		{
			name:           "persistence is hidden",
			err:            fmt.Errorf("failed to create analysis: %w: %w", apperrors.ErrPersistence, errors.New("deadlock")),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"internal server error"}`,
		},
		{
			name:           "classifier failure keeps upstream text",
			err:            fmt.Errorf("%w: status 503", apperrors.ErrClassificationUnavailable),
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"error":"classification service unavailable: status 503"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.RespondServiceError(w, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestBaseHandler_DecodeJSON(t *testing.T) {
	h := &BaseHandler{Logger: zap.NewNop()}

	var dst struct {
		Email string `json:"email"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co"}`))
	require.NoError(t, h.DecodeJSON(req, &dst))
	assert.Equal(t, "a@b.co", dst.Email)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":`))
	err := h.DecodeJSON(req, &dst)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, "Invalid request body", apperrors.Message(err))
}
