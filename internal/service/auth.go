// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services accept primitives and return domain errors — they have zero
// knowledge of HTTP. Handlers translate domain errors into the wire envelope
// at the single outermost boundary.
//
// DEPENDENCY INJECTION:
// Every service takes its collaborators as interfaces at construction time.
// There is no ambient singleton anywhere — the logger, token service, and
// repositories are all explicit constructor arguments, wired once in
// internal/server.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/suzuki-tomok/github-analyzer/internal/auth"
	"github.com/suzuki-tomok/github-analyzer/internal/model"
	"github.com/suzuki-tomok/github-analyzer/internal/repository"
)

// GitHubExchanger trades an OAuth authorization code for a GitHub profile
// and access token. *auth.GitHubProvider implements it; tests substitute a
// mock so the flow can run without GitHub.
type GitHubExchanger interface {
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, string, error)
}

// AuthService handles the authentication business logic.
type AuthService struct {
	users  repository.UserRepository
	github GitHubExchanger
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	github GitHubExchanger,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		github: github,
		tokens: tokens,
		logger: logger,
	}
}

// TokenResponse is the payload returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// LoginWithGitHub completes the OAuth callback:
//
//  1. Exchange the code for a GitHub access token + profile
//  2. Upsert the user — created on first sight keyed by the GitHub numeric
//     id, otherwise the stored delegated credential is rotated
//  3. Mint a bearer JWT whose subject is the internal user id
//
// The GitHub access token is persisted server-side only; the client receives
// just our own JWT.
func (s *AuthService) LoginWithGitHub(ctx context.Context, code string) (*TokenResponse, error) {
	ghUser, accessToken, err := s.github.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		GitHubID:    ghUser.ID,
		Username:    ghUser.Login,
		AccessToken: accessToken,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", user.Username),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	}, nil
}

// GetUserByID returns the user for the given internal ID. Used after the
// middleware validates the JWT and extracts the userID from the Subject
// claim — a subject with no matching user is an auth failure (401), which
// the repository already expresses.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}
	return s.users.GetUserByID(ctx, id)
}
