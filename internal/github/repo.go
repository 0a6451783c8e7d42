// Package github talks to the GitHub REST API: it validates repository
// references and fetches bounded commit history as a textual digest.
package github

import (
	"regexp"

	"github.com/suzuki-tomok/github-analyzer/internal/apperror"
)

// repoURLPattern accepts exactly https://github.com/owner/repo with an
// optional trailing slash. Owner and repo are restricted to word characters,
// "-" and "." — this is the injection defense for everything downstream that
// embeds owner/repo into an API request path, so the character class stays
// deliberately tight.
var repoURLPattern = regexp.MustCompile(`^https://github\.com/([\w\-.]+)/([\w\-.]+)/?$`)

// branchDenyPattern matches shell and command metacharacters. A branch name
// containing any of them is rejected outright. The value only ever lands in
// an HTTP query parameter here, but it is untrusted input and must never be
// in a position to reach a shell or synthesize an unescaped query.
var branchDenyPattern = regexp.MustCompile("[;&|`$\\\\'\"\n\r]")

// ParseRepoURL extracts (owner, repo) from a GitHub repository URL.
// Pure function, no network. Fails with INVALID_REPO_URL if the URL does
// not match the strict pattern.
func ParseRepoURL(repoURL string) (owner, repo string, err error) {
	m := repoURLPattern.FindStringSubmatch(repoURL)
	if m == nil {
		return "", "", apperror.InvalidRepoURL()
	}
	return m[1], m[2], nil
}

// ValidateBranch rejects branch names containing shell metacharacters and
// returns everything else unchanged. Git itself allows stranger names than
// we do; anyone with such a branch can rename it.
func ValidateBranch(branch string) error {
	if branchDenyPattern.MatchString(branch) {
		return apperror.ValidationFailed("branch", "Invalid branch name")
	}
	return nil
}
