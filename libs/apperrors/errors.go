// Package apperrors defines sentinel errors shared by services, middlewares and handlers.
// Callers wrap them with fmt.Errorf("...: %w", err) and match them with errors.Is.
package apperrors

import (
	"errors"
	"net/http"
)

var (
	// Input errors
	ErrValidation          = errors.New("validation error")
	ErrInvalidAnalysisType = errors.New("invalid analysis type")
	ErrAlreadyExists       = errors.New("already exists")

	// Authentication errors
	ErrNoToken            = errors.New("not authorized, no token")
	ErrInvalidToken       = errors.New("not authorized, token failed")
	ErrPrincipalGone      = errors.New("user no longer exists")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Authorization errors
	ErrForbidden            = errors.New("access denied")
	ErrSelfDeleteForbidden  = errors.New("cannot delete yourself")
	ErrAdminDeleteForbidden = errors.New("cannot delete admin users")

	// Lookup errors
	ErrNotFound = errors.New("not found")

	// Infrastructure errors
	ErrClassificationUnavailable = errors.New("classification service unavailable")
	ErrPersistence               = errors.New("persistence error")
	ErrStrategyNotSet            = errors.New("strategy not set")
)

// HTTPStatus maps an error chain to the HTTP status code the API answers with.
// Unknown errors are treated as internal server errors.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidAnalysisType),
		errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrSelfDeleteForbidden),
		errors.Is(err, ErrAdminDeleteForbidden):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoToken),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrPrincipalGone),
		errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrClassificationUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error pairs a sentinel kind with the message returned to API clients
type Error struct {
	Kind    error
	Message string
}

// New creates an error of the given kind with a client-facing message
func New(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Message returns the client-facing message of an error chain.
// It prefers an *Error message and falls back to the text of the matched sentinel.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}

	for _, sentinel := range []error{
		ErrValidation, ErrInvalidAnalysisType, ErrAlreadyExists,
		ErrNoToken, ErrInvalidToken, ErrPrincipalGone, ErrInvalidCredentials,
		ErrForbidden, ErrSelfDeleteForbidden, ErrAdminDeleteForbidden, ErrNotFound,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}

	return err.Error()
}
