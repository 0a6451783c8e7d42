package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/suzuki-tomok/github-analyzer/internal/apperror"
)

// GitHubUser is the portion of the GitHub /user API response we care about.
// GitHub returns a much larger object — we only unmarshal the fields we need.
//
// GitHub API docs: https://docs.github.com/en/rest/users/users#get-the-authenticated-user
type GitHubUser struct {
	ID    int64  `json:"id"`    // GitHub's numeric user ID — stable, never changes
	Login string `json:"login"` // GitHub username, e.g. "suzuki-tomok"
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization Code flow.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
// 1. The frontend sends the user to GitHub's authorization endpoint.
// 2. The user approves the authorization request on GitHub.
// 3. GitHub redirects back to the frontend with a short-lived "code",
//    which the frontend POSTs to our /auth/github/callback.
// 4. This server exchanges the code for an access token (server-to-server,
//    using the ClientSecret — the secret never touches the browser).
// 5. This server uses the access token to call the GitHub API for user info.
//
// The access token is also kept as the user's delegated credential: analysis
// runs call the GitHub commits API with it, on the user's behalf.
type GitHubProvider struct {
	config *oauth2.Config

	// userURL is overridable so tests can point the profile fetch at a
	// local httptest server. Production always uses the GitHub API.
	userURL string
}

// NewGitHubProvider creates a GitHubProvider with the given credentials.
//
// You get ClientID and ClientSecret by registering an OAuth App at:
// https://github.com/settings/developers → "OAuth Apps" → "New OAuth App"
//
// Scopes we request:
//   - "read:user" — the user's public profile (ID, login)
//   - "repo"      — read access to repositories, needed to list commits on
//     private repos the user can see
func NewGitHubProvider(clientID, clientSecret string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       []string{"read:user", "repo"},
			Endpoint:     github.Endpoint, // pre-defined GitHub OAuth endpoints
		},
		userURL: "https://api.github.com/user",
	}
}

// Exchange completes the OAuth flow: trades the authorization code for the
// GitHub access token and the user's profile.
//
// Steps:
//  1. Exchange the code for an OAuth access token (server-to-server)
//  2. Use the token to call GitHub's /user API endpoint
//  3. Unmarshal the response into a GitHubUser struct
//
// Both the profile and the raw access token are returned — the caller stores
// the token on the user record as the delegated credential.
// Any failure that leaves us without a usable token or user id surfaces as
// GITHUB_AUTH_FAILED.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, string, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, "", apperror.GitHubAuthFailed("Failed to get access token from GitHub")
	}
	if oauthToken.AccessToken == "" {
		return nil, "", apperror.GitHubAuthFailed("Failed to get access token from GitHub")
	}

	// oauth2.Config.Client returns an *http.Client that automatically adds
	// the "Authorization: Bearer <token>" header to every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get(p.userURL)
	if err != nil {
		return nil, "", fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", apperror.GitHubAuthFailed(
			fmt.Sprintf("GitHub /user API returned status %d", resp.StatusCode))
	}

	var ghUser GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		return nil, "", apperror.GitHubAuthFailed("Failed to get user info from GitHub")
	}

	if ghUser.ID == 0 {
		return nil, "", apperror.GitHubAuthFailed("Failed to get user info from GitHub")
	}

	return &ghUser, oauthToken.AccessToken, nil
}
