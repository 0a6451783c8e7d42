package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/suzuki-tomok/github-analyzer/internal/apperror"
)

// patchExcerptLen bounds how much of each file's diff makes it into the
// digest. Keeping the digest small matters: it is the entire prompt payload
// for the generation call.
const patchExcerptLen = 200

// CommitService fetches a bounded window of commit history and renders it
// into the textual digest consumed by the report generator.
//
// The service itself is stateless — the delegated credential is per user and
// arrives with every call, so a fresh go-github client is built per fetch.
type CommitService struct {
	logger *slog.Logger

	// baseURL overrides the GitHub API endpoint for tests. Empty in
	// production.
	baseURL string
}

// NewCommitService creates a CommitService.
func NewCommitService(logger *slog.Logger) *CommitService {
	return &CommitService{logger: logger}
}

// newClient builds a go-github client authenticated as the user.
//
// oauth2.StaticTokenSource wraps the stored access token; oauth2.NewClient
// produces an *http.Client that attaches "Authorization: Bearer <token>" to
// every request.
func (s *CommitService) newClient(ctx context.Context, token string) *github.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := github.NewClient(oauth2.NewClient(ctx, ts))

	if s.baseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(s.baseURL, "/") + "/")
		if err == nil {
			client.BaseURL = base
		}
	}

	return client
}

// FetchCommitLog retrieves the most recent `limit` commits on `branch` and
// returns them as a digest string.
//
// Failure domains are treated asymmetrically on purpose:
//   - The initial commit-list call failing aborts the whole fetch with
//     GITHUB_API_ERROR carrying the remote status and message. No retry.
//   - An individual detail fetch failing drops that one commit from the
//     digest silently. The analysis proceeds on whatever subset resolved.
//
// The detail fetches for one batch are all launched together and awaited
// together — unbounded fan-out, capped only by the 1-30 commit ceiling the
// caller enforces. Results keep list order regardless of completion order.
func (s *CommitService) FetchCommitLog(ctx context.Context, token, owner, repo, branch string, limit int) (string, error) {
	client := s.newClient(ctx, token)

	s.logger.Debug("fetching commits",
		slog.String("owner", owner),
		slog.String("repo", repo),
		slog.String("branch", branch),
		slog.Int("limit", limit),
	)

	commits, _, err := client.Repositories.ListCommits(ctx, owner, repo, &github.CommitsListOptions{
		SHA:         branch,
		ListOptions: github.ListOptions{PerPage: limit},
	})
	if err != nil {
		return "", translateListError(err)
	}

	s.logger.Info("commits fetched",
		slog.String("repo", owner+"/"+repo),
		slog.Int("count", len(commits)),
	)

	// Fan out one detail request per commit. Each goroutine writes only its
	// own index, so the slice needs no mutex, and indexing preserves the
	// input order even though completion order is arbitrary.
	details := make([]*github.RepositoryCommit, len(commits))
	var wg sync.WaitGroup

	for i, c := range commits {
		wg.Add(1)
		go func(idx int, sha string) {
			defer wg.Done()
			detail, _, err := client.Repositories.GetCommit(ctx, owner, repo, sha, nil)
			if err != nil {
				// Partial-failure policy: a missing detail drops the
				// commit from the digest, nothing more.
				s.logger.Warn("commit detail fetch failed",
					slog.String("sha", sha),
					slog.String("error", err.Error()),
				)
				return
			}
			details[idx] = detail
		}(i, c.GetSHA())
	}
	wg.Wait()

	return renderDigest(details), nil
}

// renderDigest turns resolved commit details into the digest text: one block
// per commit, blocks separated by a blank line. This string is the sole
// artifact that crosses into the generation step — no structured commit data
// survives past here.
func renderDigest(details []*github.RepositoryCommit) string {
	var lines []string

	for _, detail := range details {
		if detail == nil {
			continue
		}

		sha := detail.GetSHA()
		if len(sha) > 7 {
			sha = sha[:7]
		}

		lines = append(lines,
			fmt.Sprintf("=== Commit: %s ===", sha),
			fmt.Sprintf("Author: %s", detail.GetCommit().GetAuthor().GetName()),
			fmt.Sprintf("Date: %s", detail.GetCommit().GetAuthor().GetDate().Format(time.RFC3339)),
			fmt.Sprintf("Message: %s", detail.GetCommit().GetMessage()),
			"Files:",
		)

		for _, f := range detail.Files {
			lines = append(lines, fmt.Sprintf("  - %s (+%d, -%d)",
				f.GetFilename(), f.GetAdditions(), f.GetDeletions()))

			if patch := f.GetPatch(); patch != "" {
				if len(patch) > patchExcerptLen {
					patch = patch[:patchExcerptLen]
				}
				lines = append(lines, fmt.Sprintf("    Diff: %s...", patch))
			}
		}

		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// translateListError maps a failed commit-list call to GITHUB_API_ERROR,
// preserving the remote status code and message when go-github parsed them.
func translateListError(err error) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		status := 0
		if ghErr.Response != nil {
			status = ghErr.Response.StatusCode
		}
		message := ghErr.Message
		if message == "" {
			message = "Unknown error"
		}
		return apperror.GitHubAPIError(status, message)
	}
	// Transport-level failure: no remote status to report.
	return apperror.GitHubAPIError(0, err.Error())
}
