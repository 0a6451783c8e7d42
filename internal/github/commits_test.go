package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/suzuki-tomok/github-analyzer/internal/apperror"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeGitHub serves the two endpoints FetchCommitLog touches. Commit SHAs are
// "sha-0001" style; detail handlers can be overridden per SHA to simulate
// partial failures.
type fakeGitHub struct {
	listStatus int
	listBody   string
	failDetail map[string]bool
	shas       []string
}

func (f *fakeGitHub) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/repos/octo/demo/commits", func(w http.ResponseWriter, r *http.Request) {
		if f.listStatus != 0 {
			w.WriteHeader(f.listStatus)
			io.WriteString(w, f.listBody)
			return
		}
		var items []string
		for _, sha := range f.shas {
			items = append(items, fmt.Sprintf(`{"sha": %q}`, sha))
		}
		io.WriteString(w, "["+strings.Join(items, ",")+"]")
	})

	mux.HandleFunc("/repos/octo/demo/commits/", func(w http.ResponseWriter, r *http.Request) {
		sha := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		if f.failDetail[sha] {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"message": "boom"}`)
			return
		}
		fmt.Fprintf(w, `{
			"sha": %q,
			"commit": {
				"message": "msg for %s",
				"author": {"name": "Octo Cat", "date": "2026-08-01T12:00:00Z"}
			},
			"files": [
				{"filename": "main.go", "additions": 3, "deletions": 1, "patch": "@@ patch for %s"}
			]
		}`, sha, sha, sha)
	})

	return mux
}

func newTestService(t *testing.T, f *fakeGitHub) (*CommitService, func()) {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	svc := NewCommitService(discardLogger())
	svc.baseURL = srv.URL
	return svc, srv.Close
}

func TestFetchCommitLog_DigestContent(t *testing.T) {
	fake := &fakeGitHub{shas: []string{"aaaaaaaaaaaa", "bbbbbbbbbbbb"}}
	svc, done := newTestService(t, fake)
	defer done()

	digest, err := svc.FetchCommitLog(context.Background(), "tok", "octo", "demo", "main", 2)
	if err != nil {
		t.Fatalf("FetchCommitLog failed: %v", err)
	}

	// SHAs are truncated to 7 characters in the header line.
	for _, want := range []string{
		"=== Commit: aaaaaaa ===",
		"=== Commit: bbbbbbb ===",
		"Author: Octo Cat",
		"Date: 2026-08-01T12:00:00Z",
		"Message: msg for aaaaaaaaaaaa",
		"Files:",
		"  - main.go (+3, -1)",
		"    Diff: @@ patch for aaaaaaaaaaaa...",
	} {
		if !strings.Contains(digest, want) {
			t.Errorf("digest missing %q\n---\n%s", want, digest)
		}
	}

	// Blocks keep list order even though detail fetches race.
	if strings.Index(digest, "aaaaaaa") > strings.Index(digest, "bbbbbbb") {
		t.Error("digest blocks out of order")
	}
}

func TestFetchCommitLog_PartialDetailFailureDropsCommit(t *testing.T) {
	fake := &fakeGitHub{
		shas:       []string{"aaaaaaaaaaaa", "bbbbbbbbbbbb", "cccccccccccc"},
		failDetail: map[string]bool{"bbbbbbbbbbbb": true},
	}
	svc, done := newTestService(t, fake)
	defer done()

	digest, err := svc.FetchCommitLog(context.Background(), "tok", "octo", "demo", "main", 3)
	if err != nil {
		t.Fatalf("FetchCommitLog failed: %v", err)
	}

	if strings.Contains(digest, "bbbbbbb") {
		t.Error("failed commit should be dropped from digest")
	}
	if !strings.Contains(digest, "aaaaaaa") || !strings.Contains(digest, "ccccccc") {
		t.Errorf("surviving commits missing from digest:\n%s", digest)
	}
}

func TestFetchCommitLog_ListFailure(t *testing.T) {
	fake := &fakeGitHub{
		listStatus: http.StatusNotFound,
		listBody:   `{"message": "Not Found"}`,
	}
	svc, done := newTestService(t, fake)
	defer done()

	_, err := svc.FetchCommitLog(context.Background(), "tok", "octo", "demo", "main", 5)
	if err == nil {
		t.Fatal("FetchCommitLog succeeded, want error")
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error is not an AppError: %v", err)
	}
	if appErr.Code != apperror.CodeGitHubAPIError {
		t.Errorf("code = %q, want GITHUB_API_ERROR", appErr.Code)
	}
	if !strings.Contains(appErr.Message, "Not Found") || !strings.Contains(appErr.Message, "404") {
		t.Errorf("message should carry remote status and text, got %q", appErr.Message)
	}
	if !errors.Is(err, apperror.ErrExternal) {
		t.Error("want errors.Is(err, ErrExternal)")
	}
}

func TestFetchCommitLog_EmptyRepo(t *testing.T) {
	fake := &fakeGitHub{shas: nil}
	svc, done := newTestService(t, fake)
	defer done()

	digest, err := svc.FetchCommitLog(context.Background(), "tok", "octo", "demo", "main", 10)
	if err != nil {
		t.Fatalf("FetchCommitLog failed: %v", err)
	}
	if digest != "" {
		t.Errorf("digest for empty repo = %q, want empty", digest)
	}
}
