// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered user account.
//
// We use GitHub OAuth as the identity provider, so the primary external
// identifier is the GitHub user ID (an integer). We still generate our own
// internal string ID (xid) for consistency with Analysis and to avoid tying
// our primary keys to a third-party's numbering scheme.
//
// WHY GitHubID int64?
// GitHub user IDs are integers (e.g. 1234567). Using int64 avoids overflow
// for large GitHub account numbers. The UNIQUE constraint on github_id in the
// DB ensures one GitHub account maps to exactly one app account.
//
// WHY AccessToken `json:"-"`?
// The GitHub OAuth access token is a delegated credential — we call the
// GitHub API on the user's behalf with it when running an analysis. It must
// never leave the server, so the "-" json tag excludes it from every
// serialized response. It is rotated (overwritten) on every login.
type User struct {
	ID          string    `json:"id"`
	GitHubID    int64     `json:"github_id"`       // GitHub's numeric user ID
	Username    string    `json:"github_username"` // GitHub login, e.g. "suzuki-tomok"
	AccessToken string    `json:"-"`               // Delegated GitHub credential, server-side only
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
