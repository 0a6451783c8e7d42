// Package apperror defines the application's error taxonomy.
//
// Every domain error is raised exactly once, as close to its origin as
// possible, and carried unmodified up to the HTTP boundary where
// handler.writeError translates it into the wire envelope:
//
//	{"status": "error", "code": "<CODE>", "message": "<text>"}
//
// The core never retries or recovers from these — translation happens at a
// single outermost point, so the service and repository layers stay free of
// HTTP knowledge.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel error kinds. Services and tests check these with errors.Is;
// the concrete HTTP status and wire code live on the AppError itself.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrExternal     = errors.New("external api error")
	ErrInternal     = errors.New("internal error")
)

// Code is the machine-readable error code returned in the response envelope.
type Code string

const (
	CodeInvalidToken     Code = "INVALID_TOKEN"
	CodeTokenExpired     Code = "TOKEN_EXPIRED"
	CodeUserNotFound     Code = "USER_NOT_FOUND"
	CodeGitHubAuthFailed Code = "GITHUB_AUTH_FAILED"
	CodeInvalidRepoURL   Code = "INVALID_REPO_URL"
	CodeInvalidRequest   Code = "INVALID_REQUEST"
	CodeAnalysisNotFound Code = "ANALYSIS_NOT_FOUND"
	CodeGitHubAPIError   Code = "GITHUB_API_ERROR"
	CodeGeminiAPIError   Code = "GEMINI_API_ERROR"
	CodeInternalError    Code = "INTERNAL_ERROR"
)

// AppError is the single error type that crosses layer boundaries.
type AppError struct {
	Err     error  // sentinel kind, reachable via errors.Is
	Status  int    // HTTP status the boundary layer responds with
	Code    Code   // machine-readable code in the envelope
	Message string // human-readable description
	Field   string // optional: request field that caused a validation failure
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// InvalidToken covers both a missing/garbled bearer token and a token whose
// subject cannot be resolved through signature verification.
func InvalidToken(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Status:  http.StatusUnauthorized,
		Code:    CodeInvalidToken,
		Message: message,
	}
}

// TokenExpired is a distinct code so clients can trigger a re-login instead
// of treating it as a hard auth failure.
func TokenExpired() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Status:  http.StatusUnauthorized,
		Code:    CodeTokenExpired,
		Message: "token expired",
	}
}

// UserNotFound means a syntactically valid token references a user that no
// longer exists. Treated as an authentication failure, not a 404 — the
// caller holds a credential, not a resource id.
func UserNotFound(id string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Status:  http.StatusUnauthorized,
		Code:    CodeUserNotFound,
		Message: fmt.Sprintf("user not found: %s", id),
	}
}

// GitHubAuthFailed is raised when the OAuth code exchange or the profile
// fetch yields no usable token or user id.
func GitHubAuthFailed(message string) *AppError {
	return &AppError{
		Err:     ErrExternal,
		Status:  http.StatusBadRequest,
		Code:    CodeGitHubAuthFailed,
		Message: message,
	}
}

// InvalidRepoURL is raised by the repo URL parser before any network call.
func InvalidRepoURL() *AppError {
	return &AppError{
		Err:     ErrValidation,
		Status:  http.StatusBadRequest,
		Code:    CodeInvalidRepoURL,
		Message: "invalid repo_url format, expected https://github.com/owner/repo",
	}
}

// ValidationFailed covers request-schema violations: limit out of range,
// memo too long, malformed branch names. 422 keeps it distinct from the
// semantic 400s above.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Status:  http.StatusUnprocessableEntity,
		Code:    CodeInvalidRequest,
		Message: message,
		Field:   field,
	}
}

// AnalysisNotFound is returned identically whether the id does not exist or
// exists under a different owner. The two cases must be unobservable from
// each other — that is the anti-enumeration guarantee.
func AnalysisNotFound() *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Status:  http.StatusNotFound,
		Code:    CodeAnalysisNotFound,
		Message: "Analysis not found",
	}
}

// GitHubAPIError carries the remote status and message from a failed commit
// list call. Best-effort: never retried.
func GitHubAPIError(remoteStatus int, message string) *AppError {
	return &AppError{
		Err:     ErrExternal,
		Status:  http.StatusBadRequest,
		Code:    CodeGitHubAPIError,
		Message: fmt.Sprintf("GitHub API error: %s (status %d)", message, remoteStatus),
	}
}

// GeminiAPIError wraps a failed or unparseable generation call.
func GeminiAPIError(err error) *AppError {
	return &AppError{
		Err:     ErrExternal,
		Status:  http.StatusInternalServerError,
		Code:    CodeGeminiAPIError,
		Message: fmt.Sprintf("Gemini API error: %v", err),
	}
}

// Internal is the catch-all for failures with no domain meaning (storage
// errors, encoding bugs). The underlying error stays on the chain for logs;
// the message is safe to show a client.
func Internal(err error) *AppError {
	wrapped := ErrInternal
	if err != nil {
		wrapped = fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return &AppError{
		Err:     wrapped,
		Status:  http.StatusInternalServerError,
		Code:    CodeInternalError,
		Message: "An internal error occurred",
	}
}
