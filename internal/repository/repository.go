// Package repository defines the storage interfaces consumed by the service
// layer. The sqlite subpackage provides the concrete implementation; tests
// substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/suzuki-tomok/github-analyzer/internal/model"
)

type UserRepository interface {
	// Upsert creates the user on first sight (keyed by GitHub ID) or, for an
	// existing user, rotates the stored access token and refreshes the
	// username. After the call user.ID is populated either way.
	Upsert(ctx context.Context, user *model.User) error

	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// AnalysisRepository is the ownership-scoped analysis store.
//
// Every operation except Create takes the owning user's id and conjoins it
// with the record id in the query. A missing record and a record owned by
// someone else both come back as the same NotFound — callers cannot tell
// the two apart, which prevents analysis-id enumeration across users.
type AnalysisRepository interface {
	Create(ctx context.Context, analysis *model.Analysis) error
	ListByUser(ctx context.Context, userID string) ([]model.Analysis, error)
	GetByIDAndUser(ctx context.Context, id, userID string) (*model.Analysis, error)
	UpdateMemo(ctx context.Context, id, userID, memo string) (*model.Analysis, error)
	Delete(ctx context.Context, id, userID string) error
}
