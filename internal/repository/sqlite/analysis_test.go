package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/suzuki-tomok/github-analyzer/internal/apperror"
	"github.com/suzuki-tomok/github-analyzer/internal/model"
)

// seedUser inserts a user and returns its internal ID. Analyses carry a
// foreign key to users, so every analysis test needs at least one.
func seedUser(t *testing.T, db *DB, githubID int64, name string) string {
	t.Helper()
	u := &model.User{GitHubID: githubID, Username: name, AccessToken: "tok"}
	if err := db.Upsert(context.Background(), u); err != nil {
		t.Fatalf("seeding user %s: %v", name, err)
	}
	return u.ID
}

func sampleAnalysis(userID string) *model.Analysis {
	return &model.Analysis{
		UserID:  userID,
		RepoURL: "https://github.com/octo/demo",
		Branch:  "main",
		Scores: model.Scores{
			Test: 80, Comment: 70, CommitSize: 60,
			CommitFrequency: 50, CommitMessage: 90, Activity: 40,
		},
		Report: model.Report{
			Test: "good coverage", Comment: "sparse", CommitSize: "large",
			CommitFrequency: "steady", CommitMessage: "clear", Activity: "active",
		},
	}
}

func TestCreateAndGet_Roundtrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	userID := seedUser(t, db, 1, "alice")

	a := sampleAnalysis(userID)
	if err := db.Create(ctx, a); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if a.ID == "" {
		t.Fatal("Create did not assign an ID")
	}

	got, err := db.GetByIDAndUser(ctx, a.ID, userID)
	if err != nil {
		t.Fatalf("GetByIDAndUser failed: %v", err)
	}

	if got.RepoURL != a.RepoURL || got.Branch != a.Branch {
		t.Errorf("repo/branch mismatch: %+v", got)
	}
	if got.Scores != a.Scores {
		t.Errorf("scores roundtrip mismatch: got %+v, want %+v", got.Scores, a.Scores)
	}
	if got.Report != a.Report {
		t.Errorf("report roundtrip mismatch: got %+v, want %+v", got.Report, a.Report)
	}
	if got.Memo != nil {
		t.Errorf("memo should start absent, got %q", *got.Memo)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestListByUser_OrderAndIsolation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, 1, "alice")
	bob := seedUser(t, db, 2, "bob")

	older := sampleAnalysis(alice)
	older.RepoURL = "https://github.com/octo/older"
	if err := db.Create(ctx, older); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// created_at has sub-second precision; a small sleep keeps the ordering
	// deterministic.
	time.Sleep(10 * time.Millisecond)

	newer := sampleAnalysis(alice)
	newer.RepoURL = "https://github.com/octo/newer"
	if err := db.Create(ctx, newer); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	theirs := sampleAnalysis(bob)
	if err := db.Create(ctx, theirs); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	list, err := db.ListByUser(ctx, alice)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(list) = %d, want 2", len(list))
	}
	if list[0].RepoURL != "https://github.com/octo/newer" {
		t.Errorf("list not newest-first: %s", list[0].RepoURL)
	}
	for _, a := range list {
		if a.UserID != alice {
			t.Errorf("foreign analysis leaked into list: %+v", a)
		}
	}

	empty, err := db.ListByUser(ctx, "no-such-user")
	if err != nil {
		t.Fatalf("ListByUser(unknown) failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("unknown user list = %d rows, want 0", len(empty))
	}
}

// Cross-owner access must be indistinguishable from a missing row.
func TestOwnershipScoping(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, 1, "alice")
	bob := seedUser(t, db, 2, "bob")

	a := sampleAnalysis(alice)
	if err := db.Create(ctx, a); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	assertNotFound := func(t *testing.T, err error) {
		t.Helper()
		if err == nil {
			t.Fatal("expected AnalysisNotFound, got nil")
		}
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) || appErr.Code != apperror.CodeAnalysisNotFound {
			t.Fatalf("error = %v, want ANALYSIS_NOT_FOUND", err)
		}
	}

	t.Run("get", func(t *testing.T) {
		_, crossErr := db.GetByIDAndUser(ctx, a.ID, bob)
		assertNotFound(t, crossErr)
		_, absentErr := db.GetByIDAndUser(ctx, "no-such-id", alice)
		assertNotFound(t, absentErr)
		// The two failure modes give literally the same answer.
		if crossErr.Error() != absentErr.Error() {
			t.Errorf("cross-owner and absent errors differ: %q vs %q", crossErr, absentErr)
		}
	})

	t.Run("update memo", func(t *testing.T) {
		_, err := db.UpdateMemo(ctx, a.ID, bob, "not yours")
		assertNotFound(t, err)

		// The failed update must not have touched the row.
		got, err := db.GetByIDAndUser(ctx, a.ID, alice)
		if err != nil {
			t.Fatalf("GetByIDAndUser failed: %v", err)
		}
		if got.Memo != nil {
			t.Errorf("cross-owner update modified memo: %q", *got.Memo)
		}
	})

	t.Run("delete", func(t *testing.T) {
		assertNotFound(t, db.Delete(ctx, a.ID, bob))
		if _, err := db.GetByIDAndUser(ctx, a.ID, alice); err != nil {
			t.Errorf("cross-owner delete removed the row: %v", err)
		}
	})
}

func TestUpdateMemo(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, 1, "alice")

	a := sampleAnalysis(alice)
	if err := db.Create(ctx, a); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := db.UpdateMemo(ctx, a.ID, alice, "looked good")
	if err != nil {
		t.Fatalf("UpdateMemo failed: %v", err)
	}
	if updated.Memo == nil || *updated.Memo != "looked good" {
		t.Errorf("memo not persisted: %+v", updated.Memo)
	}
	if !updated.UpdatedAt.After(a.UpdatedAt) && !updated.UpdatedAt.Equal(a.UpdatedAt) {
		t.Errorf("updated_at went backwards: %v < %v", updated.UpdatedAt, a.UpdatedAt)
	}

	// Overwriting with empty string is a write, not a reset to NULL.
	cleared, err := db.UpdateMemo(ctx, a.ID, alice, "")
	if err != nil {
		t.Fatalf("UpdateMemo(empty) failed: %v", err)
	}
	if cleared.Memo == nil || *cleared.Memo != "" {
		t.Errorf("empty memo should persist as empty string, got %+v", cleared.Memo)
	}
}

func TestDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, 1, "alice")

	a := sampleAnalysis(alice)
	if err := db.Create(ctx, a); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := db.Delete(ctx, a.ID, alice); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := db.GetByIDAndUser(ctx, a.ID, alice); err == nil {
		t.Error("deleted analysis still readable")
	}

	// Deleting again reports not found, same as an id that never existed.
	err := db.Delete(ctx, a.ID, alice)
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperror.CodeAnalysisNotFound {
		t.Errorf("repeat delete error = %v, want ANALYSIS_NOT_FOUND", err)
	}
}
