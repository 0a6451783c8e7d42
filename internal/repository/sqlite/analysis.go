package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/suzuki-tomok/github-analyzer/internal/apperror"
	"github.com/suzuki-tomok/github-analyzer/internal/model"
	"github.com/suzuki-tomok/github-analyzer/internal/repository"
)

// compile-time check that *DB implements repository.AnalysisRepository
var _ repository.AnalysisRepository = (*DB)(nil)

// THE OWNERSHIP PREDICATE:
// Every read/update/delete below matches `id = ? AND user_id = ?`. A row
// that exists under another user and a row that doesn't exist at all both
// fall through to the same AnalysisNotFound. There is no separate
// authorization check — the predicate IS the authorization, and it makes
// cross-user interference structurally impossible without any locking.

// Create inserts a new analysis, assigning its ID and timestamps.
// Memo starts absent (NULL), not empty.
func (db *DB) Create(ctx context.Context, analysis *model.Analysis) error {
	analysis.ID = xid.New().String()

	now := time.Now()
	analysis.CreatedAt = now
	analysis.UpdatedAt = now

	scoresJSON, err := json.Marshal(analysis.Scores)
	if err != nil {
		return fmt.Errorf("sqlite: encoding scores: %w", err)
	}
	reportJSON, err := json.Marshal(analysis.Report)
	if err != nil {
		return fmt.Errorf("sqlite: encoding report: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO analyses (id, user_id, repo_url, branch, scores, report, memo, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		analysis.ID,
		analysis.UserID,
		analysis.RepoURL,
		analysis.Branch,
		string(scoresJSON),
		string(reportJSON),
		analysis.Memo,
		analysis.CreatedAt,
		analysis.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating analysis: %w", err)
	}

	return nil
}

// ListByUser returns all analyses owned by userID, newest first.
func (db *DB) ListByUser(ctx context.Context, userID string) ([]model.Analysis, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, repo_url, branch, scores, report, memo, created_at, updated_at
		 FROM analyses
		 WHERE user_id = ?
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing analyses: %w", err)
	}
	defer rows.Close()

	analyses := []model.Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning analysis row: %w", err)
		}
		analyses = append(analyses, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating analyses: %w", err)
	}

	return analyses, nil
}

// GetByIDAndUser retrieves one analysis, ownership-scoped.
func (db *DB) GetByIDAndUser(ctx context.Context, id, userID string) (*model.Analysis, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, repo_url, branch, scores, report, memo, created_at, updated_at
		 FROM analyses
		 WHERE id = ? AND user_id = ?`,
		id, userID,
	)

	a, err := scanAnalysis(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.AnalysisNotFound()
		}
		return nil, fmt.Errorf("sqlite: getting analysis %s: %w", id, err)
	}

	return a, nil
}

// UpdateMemo overwrites the memo and bumps updated_at, then reads the row
// back so the caller gets the canonical updated record.
//
// RowsAffected == 0 means the WHERE clause didn't match — either the id is
// unknown or it belongs to someone else. Same answer for both.
func (db *DB) UpdateMemo(ctx context.Context, id, userID, memo string) (*model.Analysis, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE analyses SET memo = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		memo,
		time.Now(),
		id,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating analysis memo %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.AnalysisNotFound()
	}

	return db.GetByIDAndUser(ctx, id, userID)
}

// Delete removes an analysis, ownership-scoped. Deleting an id that is gone
// (or never existed, or belongs to another user) is the same NotFound —
// repeating a delete is safe.
func (db *DB) Delete(ctx context.Context, id, userID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM analyses WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting analysis %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.AnalysisNotFound()
	}

	return nil
}

// scanAnalysis reads one analyses row regardless of whether it came from
// QueryRow or Rows — both expose the same Scan signature.
func scanAnalysis(scan func(dest ...any) error) (*model.Analysis, error) {
	var (
		a          model.Analysis
		scoresJSON string
		reportJSON string
		memo       sql.NullString
	)

	err := scan(
		&a.ID,
		&a.UserID,
		&a.RepoURL,
		&a.Branch,
		&scoresJSON,
		&reportJSON,
		&memo,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(scoresJSON), &a.Scores); err != nil {
		return nil, fmt.Errorf("decoding scores: %w", err)
	}
	if err := json.Unmarshal([]byte(reportJSON), &a.Report); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	if memo.Valid {
		a.Memo = &memo.String
	}

	return &a, nil
}
