package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/suzuki-tomok/github-analyzer/internal/apperror"
	gh "github.com/suzuki-tomok/github-analyzer/internal/github"
	"github.com/suzuki-tomok/github-analyzer/internal/model"
	"github.com/suzuki-tomok/github-analyzer/internal/repository"
)

// Validation constants for analysis requests.
const (
	MinCommitLimit     = 1
	MaxCommitLimit     = 30
	DefaultCommitLimit = 30
	DefaultBranch      = "main"
	MaxMemoLength      = 1000
)

// CommitFetcher retrieves commit history as a digest string.
// *github.CommitService implements it; tests substitute a mock.
type CommitFetcher interface {
	FetchCommitLog(ctx context.Context, token, owner, repo, branch string, limit int) (string, error)
}

// ReportGenerator turns a commit digest into scores and a report.
// *gemini.Service implements it; tests substitute a mock.
type ReportGenerator interface {
	AnalyzeCommits(ctx context.Context, commitLog string) (*model.AnalysisResult, error)
}

// AnalysisService owns the analysis pipeline and the CRUD operations around
// stored analyses.
//
// THE PIPELINE (Run):
//
//	validate → fetch commits → generate report → persist
//
// Each stage either succeeds into the next or aborts the whole run with its
// own domain error; no stage is retried and nothing is persisted on any
// failure path. Concurrent runs for the same user/repo are independent — two
// identical requests simply produce two stored analyses.
type AnalysisService struct {
	analyses repository.AnalysisRepository
	commits  CommitFetcher
	reports  ReportGenerator
	logger   *slog.Logger
}

// NewAnalysisService creates an AnalysisService.
func NewAnalysisService(
	analyses repository.AnalysisRepository,
	commits CommitFetcher,
	reports ReportGenerator,
	logger *slog.Logger,
) *AnalysisService {
	return &AnalysisService{
		analyses: analyses,
		commits:  commits,
		reports:  reports,
		logger:   logger,
	}
}

// Run executes one full analysis for the given user.
//
// Input handling:
//   - repoURL must match https://github.com/owner/repo (trailing slash
//     tolerated and stripped before storage) → INVALID_REPO_URL otherwise
//   - branch defaults to "main"; shell metacharacters are rejected
//   - limit must be within [1, 30] — defaulting an absent limit is the
//     handler's job, so an explicit 0 fails here
//
// The user's stored GitHub access token is the credential for the commit
// fetch — analyses always run as the requesting user.
func (s *AnalysisService) Run(ctx context.Context, user *model.User, repoURL, branch string, limit int) (*model.Analysis, error) {
	if branch == "" {
		branch = DefaultBranch
	}
	if limit < MinCommitLimit || limit > MaxCommitLimit {
		return nil, apperror.ValidationFailed("limit",
			fmt.Sprintf("limit must be between %d and %d", MinCommitLimit, MaxCommitLimit))
	}
	if err := gh.ValidateBranch(branch); err != nil {
		return nil, err
	}

	owner, repo, err := gh.ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	repoURL = strings.TrimSuffix(repoURL, "/")

	s.logger.Info("analysis started",
		slog.String("userID", user.ID),
		slog.String("repo", owner+"/"+repo),
		slog.String("branch", branch),
		slog.Int("limit", limit),
	)

	commitLog, err := s.commits.FetchCommitLog(ctx, user.AccessToken, owner, repo, branch, limit)
	if err != nil {
		return nil, err
	}

	// An empty digest (no commits survived) is still sent onward — the
	// generator is allowed to produce a low-information report.
	result, err := s.reports.AnalyzeCommits(ctx, commitLog)
	if err != nil {
		return nil, err
	}

	analysis := &model.Analysis{
		UserID:  user.ID,
		RepoURL: repoURL,
		Branch:  branch,
		Scores:  result.Scores,
		Report:  result.Report,
	}
	if err := s.analyses.Create(ctx, analysis); err != nil {
		s.logger.Error("failed to persist analysis",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating analysis: %w", err)
	}

	s.logger.Info("analysis complete", slog.String("id", analysis.ID))

	return analysis, nil
}

// List returns the user's analyses, newest first.
func (s *AnalysisService) List(ctx context.Context, userID string) ([]model.Analysis, error) {
	analyses, err := s.analyses.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	return analyses, nil
}

// Get returns one analysis, ownership-scoped.
func (s *AnalysisService) Get(ctx context.Context, id, userID string) (*model.Analysis, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.AnalysisNotFound()
	}
	return s.analyses.GetByIDAndUser(ctx, id, userID)
}

// UpdateMemo overwrites the memo on an owned analysis. The memo is the only
// mutable field of an analysis. The length bound counts characters, not
// bytes — multibyte memos get the full 1000.
func (s *AnalysisService) UpdateMemo(ctx context.Context, id, userID, memo string) (*model.Analysis, error) {
	if utf8.RuneCountInString(memo) > MaxMemoLength {
		return nil, apperror.ValidationFailed("memo",
			fmt.Sprintf("memo must be %d characters or less", MaxMemoLength))
	}

	analysis, err := s.analyses.UpdateMemo(ctx, id, userID, memo)
	if err != nil {
		return nil, err
	}

	s.logger.Info("memo updated", slog.String("id", id))
	return analysis, nil
}

// Delete removes an owned analysis. Repeating a delete yields the same
// NotFound as the first miss — safe to call twice.
func (s *AnalysisService) Delete(ctx context.Context, id, userID string) error {
	if err := s.analyses.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.logger.Info("analysis deleted", slog.String("id", id))
	return nil
}
