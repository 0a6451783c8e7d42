package handler

// RESPONSE ENVELOPE:
// Every response from the API has one of two shapes:
//
//	success → {"status": "success", "data": <payload>}
//	error   → {"status": "error", "code": "<CODE>", "message": "<text>"}
//
// A fixed envelope means clients always know what fields to expect,
// regardless of endpoint or status code. writeError is the single point
// where domain errors become HTTP — services never see status codes.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/suzuki-tomok/github-analyzer/internal/apperror"
)

// SuccessResponse is the envelope for every successful response.
type SuccessResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

// ErrorResponse is the envelope for every error response.
type ErrorResponse struct {
	Status  string        `json:"status"`
	Code    apperror.Code `json:"code"`
	Message string        `json:"message"`
}

// writeSuccess sends a success envelope with the given status code.
//
// Headers and status must be written before the body: once Encode starts
// writing, header changes are silently ignored.
func writeSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(SuccessResponse{Status: "success", Data: data}); err != nil {
		// Headers are already sent — all we can do is log.
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError maps a domain error to its HTTP status and error envelope.
//
// Each AppError carries its own status and code, assigned where the error
// was raised (the taxonomy lives in internal/apperror). Anything that isn't
// an AppError is a programming or infrastructure failure with no domain
// meaning — it becomes a generic 500 so internal details (SQL text, file
// paths) never leak to a client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.Internal(err)
	}

	writeJSON(w, appErr.Status, ErrorResponse{
		Status:  "error",
		Code:    appErr.Code,
		Message: appErr.Message,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}
