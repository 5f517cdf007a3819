package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/factify/backend/libs/apperrors"
	"go.uber.org/zap"
)

type contextKey string

const principalKey contextKey = "principal"

// AccessTokenCookie is the cookie the gate falls back to when no Authorization header is sent
const AccessTokenCookie = "access_token"

// Principal is the authenticated caller attached to the request context
type Principal struct {
	ID       int
	Username string
	Email    string
	Role     string
}

// TokenValidator validates a bearer token and returns the user ID and role encoded in it
type TokenValidator interface {
	ValidateToken(tokenString string) (int, string, error)
}

// PrincipalResolver loads the principal behind a validated token.
// It returns an error wrapping apperrors.ErrNotFound when the user no longer exists.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, userID int) (*Principal, error)
}

// Gate authenticates requests and enforces role-based access
type Gate struct {
	tokens   TokenValidator
	resolver PrincipalResolver
	logger   *zap.Logger
}

// NewGate creates a new access gate
func NewGate(tokens TokenValidator, resolver PrincipalResolver, logger *zap.Logger) *Gate {
	return &Gate{
		tokens:   tokens,
		resolver: resolver,
		logger:   logger,
	}
}

// Required rejects requests without a valid token or whose principal has none of the given roles.
// An empty role list admits any authenticated principal.
func (g *Gate) Required(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := g.authenticate(r)
			if err != nil {
				status := apperrors.HTTPStatus(err)
				if status == http.StatusInternalServerError {
					g.logger.Error("failed to resolve principal", zap.Error(err))
					writeError(w, status, "internal server error")
					return
				}
				writeError(w, status, apperrors.Message(err))
				return
			}

			if len(roles) > 0 && !slices.Contains(roles, principal.Role) {
				writeError(w, http.StatusForbidden, apperrors.ErrForbidden.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// Optional attaches the principal when a valid token is present and otherwise lets the request through as a guest
func (g *Gate) Optional() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := g.authenticate(r)
			if err != nil {
				if !errors.Is(err, apperrors.ErrNoToken) {
					g.logger.Debug("proceeding as guest", zap.Error(err))
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// authenticate walks token extraction, validation and principal lookup
func (g *Gate) authenticate(r *http.Request) (*Principal, error) {
	token := extractToken(r)
	if token == "" {
		return nil, apperrors.ErrNoToken
	}

	userID, _, err := g.tokens.ValidateToken(token)
	if err != nil {
		return nil, errors.Join(apperrors.ErrInvalidToken, err)
	}

	principal, err := g.resolver.ResolvePrincipal(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrPrincipalGone
		}
		return nil, err
	}

	return principal, nil
}

// extractToken reads the token from the Authorization header or the access token cookie
func extractToken(r *http.Request) string {
	// Expected format: "Bearer <token>"
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Fields(authHeader)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}

	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}

	return ""
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// WithPrincipal returns a copy of ctx carrying the principal
func WithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// GetPrincipal retrieves the principal from context
func GetPrincipal(ctx context.Context) (*Principal, bool) {
	principal, ok := ctx.Value(principalKey).(*Principal)
	return principal, ok && principal != nil
}
