package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for common cases.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("resource conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrGone         = errors.New("resource gone")
	ErrUpstream     = errors.New("upstream failure")
	ErrInternal     = errors.New("internal error")
)

// AppError is a structured application error carrying the machine-readable
// code that goes on the wire and the HTTP status it maps to.
type AppError struct {
	Code   string `json:"code"`
	Status int    `json:"-"`
	Err    error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NoSuchUser means no user exists with the presented username.
func NoSuchUser() *AppError {
	return &AppError{Code: "NO_SUCH_USER", Status: http.StatusUnauthorized, Err: ErrUnauthorized}
}

// IncorrectPassword means the candidate password did not match the stored hash.
func IncorrectPassword() *AppError {
	return &AppError{Code: "INCORRECT_PASSWORD", Status: http.StatusUnauthorized, Err: ErrUnauthorized}
}

// IncorrectTeamPassword means the shared team-invite secret was wrong at sign-up.
func IncorrectTeamPassword() *AppError {
	return &AppError{Code: "INCORRECT_TEAM_PASSWORD", Status: http.StatusUnauthorized, Err: ErrUnauthorized}
}

// UsernameTaken means another account already owns the requested username.
func UsernameTaken() *AppError {
	return &AppError{Code: "USERNAME_TAKEN", Status: http.StatusConflict, Err: ErrConflict}
}

// InvalidRefreshToken means the presented refresh token does not exist,
// whether it never existed, was rotated away, or was revoked. Callers cannot
// distinguish those cases.
func InvalidRefreshToken() *AppError {
	return &AppError{Code: "INVALID_REFRESH_TOKEN", Status: http.StatusUnauthorized, Err: ErrUnauthorized}
}

// ExpiredRefreshToken means the refresh token existed but was past its expiry.
func ExpiredRefreshToken() *AppError {
	return &AppError{Code: "EXPIRED_REFRESH_TOKEN", Status: http.StatusUnauthorized, Err: ErrUnauthorized}
}

// RefreshTokenNotFound is the logout-time 404 for an already-deleted token.
func RefreshTokenNotFound() *AppError {
	return &AppError{Code: "REFRESH_TOKEN_NOT_FOUND", Status: http.StatusNotFound, Err: ErrNotFound}
}

// ReportNotFound means no scouting report exists with the given id.
func ReportNotFound() *AppError {
	return &AppError{Code: "REPORT_NOT_FOUND", Status: http.StatusNotFound, Err: ErrNotFound}
}

// DeletedAccount means the access token is valid but its account is gone.
func DeletedAccount() *AppError {
	return &AppError{Code: "DELETED_ACCOUNT", Status: http.StatusGone, Err: ErrGone}
}

// AvatarNotFound means the user has no stored avatar.
func AvatarNotFound() *AppError {
	return &AppError{Code: "NO_SUCH_AVATAR", Status: http.StatusNotFound, Err: ErrNotFound}
}

// RankingUpstreamFailed means the AI ranking provider returned garbage or nothing.
func RankingUpstreamFailed(err error) *AppError {
	return &AppError{Code: "OPENAI_API_FAILED", Status: http.StatusBadGateway, Err: fmt.Errorf("%w: %w", ErrUpstream, err)}
}

// InvalidFormData means a multipart request body could not be parsed.
func InvalidFormData() *AppError {
	return &AppError{Code: "INVALID_FORM_DATA", Status: http.StatusBadRequest, Err: ErrInvalidInput}
}

// InvalidInput creates a 400 error with the generic input code.
func InvalidInput(err error) *AppError {
	return &AppError{Code: "INVALID_INPUT", Status: http.StatusBadRequest, Err: fmt.Errorf("%w: %w", ErrInvalidInput, err)}
}

// Unauthorized creates a generic 401 error.
func Unauthorized() *AppError {
	return &AppError{Code: "UNAUTHORIZED", Status: http.StatusUnauthorized, Err: ErrUnauthorized}
}

// Internal creates a 500 error wrapping the cause.
func Internal(err error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Status: http.StatusInternalServerError, Err: fmt.Errorf("%w: %w", ErrInternal, err)}
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrGone):
		return http.StatusGone
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the wire code for the given error, falling back to
// INTERNAL_ERROR for anything that is not an AppError.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "INTERNAL_ERROR"
}
