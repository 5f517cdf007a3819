package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/factify/backend/internal/models"
	"github.com/factify/backend/libs/apperrors"
	"github.com/factify/backend/libs/auth/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockAdminService is a mock implementation of AdminService
type mockAdminService struct {
	users      []models.User
	analyses   []models.AnalysisWithOwner
	stats      *models.Stats
	err        error
	deleteErr  error
	lastTarget int
	lastActor  int
}

func (m *mockAdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	return m.users, m.err
}

func (m *mockAdminService) DeleteUser(ctx context.Context, targetID, actorID int) error {
	m.lastTarget = targetID
	m.lastActor = actorID
	return m.deleteErr
}

func (m *mockAdminService) ListAnalyses(ctx context.Context) ([]models.AnalysisWithOwner, error) {
	return m.analyses, m.err
}

func (m *mockAdminService) GetStats(ctx context.Context) (*models.Stats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

var testAdmin = &middleware.Principal{ID: 1, Username: "root", Email: "root@example.com", Role: "admin"}

func setupAdminRouter(svc *mockAdminService) chi.Router {
	gate := fakeGate{principal: testAdmin}
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(gate.required)
			NewAdminHandler(svc, zap.NewNop()).RegisterRoutes(r)
		})
	})
	return r
}

func TestAdminHandler_GetStats(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &mockAdminService{stats: &models.Stats{UserCount: 3, AnalysisCount: 10, FakeCount: 6, RealCount: 3}}
		router := setupAdminRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"userCount":3,"analysisCount":10,"fakeCount":6,"realCount":3}`, w.Body.String())
	})

	t.Run("failure", func(t *testing.T) {
		svc := &mockAdminService{err: fmt.Errorf("count: %w", apperrors.ErrPersistence)}
		router := setupAdminRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal server error", decodeError(t, w))
	})
}

func TestAdminHandler_ListUsers(t *testing.T) {
	svc := &mockAdminService{users: []models.User{
		{ID: 3, Username: "alice", Email: "alice@example.com", Role: models.RoleUser, PasswordHash: "hash"},
	}}
	router := setupAdminRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "hash")

	var users []map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&users))
	require.Len(t, users, 1)
	assert.EqualValues(t, 3, users[0]["_id"])
}

func TestAdminHandler_ListAnalyses(t *testing.T) {
	svc := &mockAdminService{analyses: []models.AnalysisWithOwner{
		{
			Analysis: models.Analysis{ID: 9, UserID: 3, InputType: models.InputTypeText, Content: "claim"},
			Owner:    models.AnalysisOwner{ID: 3, Username: "alice", Email: "alice@example.com"},
		},
	}}
	router := setupAdminRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/analyses", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var analyses []map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&analyses))
	require.Len(t, analyses, 1)
	owner, ok := analyses[0]["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice", owner["username"])
	assert.Equal(t, "alice@example.com", owner["email"])
}

func TestAdminHandler_DeleteUser(t *testing.T) {
	tests := []struct {
		name            string
		path            string
		deleteErr       error
		expectedStatus  int
		expectedMessage string
		expectedTarget  int
	}{
		{
			name:           "success",
			path:           "/api/admin/users/3",
			expectedStatus: http.StatusOK,
			expectedTarget: 3,
		},
		{
			name:            "self delete",
			path:            "/api/admin/users/1",
			deleteErr:       apperrors.New(apperrors.ErrSelfDeleteForbidden, "Cannot delete yourself"),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Cannot delete yourself",
			expectedTarget:  1,
		},
		{
			name:            "admin target",
			path:            "/api/admin/users/2",
			deleteErr:       apperrors.New(apperrors.ErrAdminDeleteForbidden, "Cannot delete admin users"),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Cannot delete admin users",
			expectedTarget:  2,
		},
		{
			name:            "unknown user",
			path:            "/api/admin/users/99",
			deleteErr:       apperrors.New(apperrors.ErrNotFound, "User not found"),
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "User not found",
			expectedTarget:  99,
		},
		{
			name:            "malformed id",
			path:            "/api/admin/users/abc",
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "User not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAdminService{deleteErr: tt.deleteErr}
			router := setupAdminRouter(svc)

			req := httptest.NewRequest(http.MethodDelete, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedTarget, svc.lastTarget)
			if tt.expectedMessage != "" {
				assert.Equal(t, tt.expectedMessage, decodeError(t, w))
				return
			}

			assert.Equal(t, testAdmin.ID, svc.lastActor)
			assert.JSONEq(t, `{"message":"User and their analyses deleted successfully"}`, w.Body.String())
		})
	}
}
