package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/factify/backend/libs/apperrors"
	"github.com/factify/backend/libs/auth/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockResolver is a mock implementation of PrincipalResolver
type mockResolver struct {
	principals map[int]*Principal
	err        error
}

func (m *mockResolver) ResolvePrincipal(ctx context.Context, userID int) (*Principal, error) {
	if m.err != nil {
		return nil, m.err
	}
	if p, ok := m.principals[userID]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("user %d: %w", userID, apperrors.ErrNotFound)
}

func setupGate(t *testing.T, resolver *mockResolver) (*Gate, *service.TokenGenerator) {
	t.Helper()
	tokens := service.NewTokenGenerator("gate-test-secret", time.Hour)
	return NewGate(tokens, resolver, zap.NewNop()), tokens
}

func newResolver() *mockResolver {
	return &mockResolver{principals: map[int]*Principal{
		1: {ID: 1, Username: "alice", Email: "alice@example.com", Role: "user"},
		2: {ID: 2, Username: "root", Email: "root@example.com", Role: "admin"},
	}}
}

func TestGate_Required(t *testing.T) {
	gate, tokens := setupGate(t, newResolver())

	userToken, err := tokens.GenerateToken(1, "user")
	require.NoError(t, err)
	adminToken, err := tokens.GenerateToken(2, "admin")
	require.NoError(t, err)
	goneToken, err := tokens.GenerateToken(99, "user")
	require.NoError(t, err)
	foreignToken, err := service.NewTokenGenerator("other", time.Hour).GenerateToken(1, "user")
	require.NoError(t, err)

	tests := []struct {
		name           string
		roles          []string
		header         string
		cookie         string
		expectedStatus int
		expectedError  string
		expectedUserID int
	}{
		{name: "no token", expectedStatus: http.StatusUnauthorized, expectedError: apperrors.ErrNoToken.Error()},
		{name: "malformed header", header: "Token abc", expectedStatus: http.StatusUnauthorized, expectedError: apperrors.ErrNoToken.Error()},
		{name: "invalid signature", header: "Bearer " + foreignToken, expectedStatus: http.StatusUnauthorized, expectedError: apperrors.ErrInvalidToken.Error()},
		{name: "principal gone", header: "Bearer " + goneToken, expectedStatus: http.StatusUnauthorized, expectedError: apperrors.ErrPrincipalGone.Error()},
		{name: "any role", header: "Bearer " + userToken, expectedStatus: http.StatusOK, expectedUserID: 1},
		{name: "cookie fallback", cookie: userToken, expectedStatus: http.StatusOK, expectedUserID: 1},
		{name: "lower-case bearer", header: "bearer " + userToken, expectedStatus: http.StatusOK, expectedUserID: 1},
		{name: "role not allowed", roles: []string{"admin"}, header: "Bearer " + userToken, expectedStatus: http.StatusForbidden, expectedError: apperrors.ErrForbidden.Error()},
		{name: "role allowed", roles: []string{"admin"}, header: "Bearer " + adminToken, expectedStatus: http.StatusOK, expectedUserID: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *Principal
			handler := gate.Required(tt.roles...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = GetPrincipal(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, tt.expectedError), w.Body.String())
				assert.Nil(t, seen)
				return
			}
			require.NotNil(t, seen)
			assert.Equal(t, tt.expectedUserID, seen.ID)
		})
	}
}

func TestGate_Required_ResolverFailure(t *testing.T) {
	resolver := newResolver()
	resolver.err = errors.New("connection refused")
	gate, tokens := setupGate(t, resolver)

	token, err := tokens.GenerateToken(1, "user")
	require.NoError(t, err)

	handler := gate.Required()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestGate_Optional(t *testing.T) {
	resolver := newResolver()
	gate, tokens := setupGate(t, resolver)

	userToken, err := tokens.GenerateToken(1, "user")
	require.NoError(t, err)
	goneToken, err := tokens.GenerateToken(42, "user")
	require.NoError(t, err)

	tests := []struct {
		name           string
		header         string
		expectedUserID int
	}{
		{name: "no token is guest"},
		{name: "garbage token is guest", header: "Bearer not-a-jwt"},
		{name: "missing principal is guest", header: "Bearer " + goneToken},
		{name: "valid token attaches principal", header: "Bearer " + userToken, expectedUserID: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			var seen *Principal
			var ok bool
			handler := gate.Optional()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				seen, ok = GetPrincipal(r.Context())
			}))

			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			require.True(t, called)
			assert.Equal(t, http.StatusOK, w.Code)
			if tt.expectedUserID == 0 {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.expectedUserID, seen.ID)
		})
	}
}

func TestGetPrincipal(t *testing.T) {
	_, ok := GetPrincipal(context.Background())
	assert.False(t, ok)

	_, ok = GetPrincipal(WithPrincipal(context.Background(), nil))
	assert.False(t, ok)

	p, ok := GetPrincipal(WithPrincipal(context.Background(), &Principal{ID: 5}))
	require.True(t, ok)
	assert.Equal(t, 5, p.ID)
}
