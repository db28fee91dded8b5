package repository

import (
	"context"
	"errors"

	"github.com/rpattn/activegames/internal/domain"
)

// ErrEmptyBatch is returned when Create receives no documents.
var ErrEmptyBatch = errors.New("no documents to insert")

// ProfileRepository defines the persistence gateway for profile documents.
//
// Every filtered operation selects the records matching ANY clause of the list.
type ProfileRepository interface {
	Create(ctx context.Context, kind domain.ModelKind, docs []domain.ProfileRecord) (CreateResult, error)
	SearchAny(ctx context.Context, kind domain.ModelKind, clauses domain.FilterClauseList) ([]domain.ProfileRecord, error)
	UpdateAny(ctx context.Context, kind domain.ModelKind, clauses domain.FilterClauseList, patch domain.ProfileRecord) (UpdateResult, error)
	DeleteAny(ctx context.Context, kind domain.ModelKind, clauses domain.FilterClauseList) (DeleteResult, error)
}

// CreateResult lists the identifiers assigned to inserted documents, in input order.
type CreateResult struct {
	InsertedIDs []string `json:"insertedIds"`
}

// UpdateResult reports how many documents matched and how many changed.
type UpdateResult struct {
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// DeleteResult reports how many documents were removed.
type DeleteResult struct {
	DeletedCount int64 `json:"deletedCount"`
}
