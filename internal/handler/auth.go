package handler

import (
	"log/slog"
	"net/http"

	"github.com/suzuki-tomok/github-analyzer/internal/apperror"
	"github.com/suzuki-tomok/github-analyzer/internal/auth"
	"github.com/suzuki-tomok/github-analyzer/internal/service"
)

// AuthHandler exposes the GitHub OAuth callback and the current-user lookup.
//
//	POST /auth/github/callback?code=... → exchange code, upsert user, mint JWT
//	GET  /auth/me                       → id + GitHub username of the caller
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, logger: logger}
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: POST /auth/github/callback?code=xxx
//
// The frontend obtains the code from GitHub's redirect and posts it here.
// On success the response is {"access_token": "<jwt>", "token_type": "bearer"}
// inside the success envelope; the GitHub access token itself stays
// server-side as the user's delegated credential.
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, apperror.ValidationFailed("code", "code query parameter is required"))
		return
	}

	tokens, err := h.auth.LoginWithGitHub(r.Context(), code)
	if err != nil {
		h.logger.Warn("github login failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tokens)
}

// meResponse is the trimmed profile returned by /auth/me. The full user
// record holds the delegated credential — even with its json:"-" tag, a
// dedicated response type keeps the surface explicit.
type meResponse struct {
	ID             string `json:"id"`
	GitHubUsername string `json:"github_username"`
}

// HandleMe returns the currently authenticated user's profile.
//
// HTTP: GET /auth/me
// Auth: required (RequireAuth middleware sets userID in context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// Unreachable on a RequireAuth-protected route, but be safe.
		writeError(w, apperror.InvalidToken("valid authentication required"))
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, meResponse{
		ID:             user.ID,
		GitHubUsername: user.Username,
	})
}
