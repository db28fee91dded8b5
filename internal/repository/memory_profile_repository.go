package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rpattn/activegames/internal/domain"
)

// ErrDuplicateID is returned when a document reuses an identifier already stored.
var ErrDuplicateID = errors.New("duplicate document id")

// memoryProfileRepository keeps documents in process, ordered by insertion.
type memoryProfileRepository struct {
	mu      sync.RWMutex
	buckets map[domain.ModelKind][]domain.ProfileRecord
}

// NewMemoryProfileRepository creates an empty in-process repository.
func NewMemoryProfileRepository() ProfileRepository {
	return &memoryProfileRepository{
		buckets: make(map[domain.ModelKind][]domain.ProfileRecord),
	}
}

func (r *memoryProfileRepository) Create(ctx context.Context, kind domain.ModelKind, docs []domain.ProfileRecord) (CreateResult, error) {
	if err := ctx.Err(); err != nil {
		return CreateResult{}, err
	}
	prepared, ids, err := prepareDocuments(docs)
	if err != nil {
		return CreateResult{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(r.buckets[kind])+len(prepared))
	for _, doc := range r.buckets[kind] {
		seen[doc.ID()] = struct{}{}
	}
	for _, id := range ids {
		if _, exists := seen[id]; exists {
			return CreateResult{}, fmt.Errorf("failed to insert %s: %w", id, ErrDuplicateID)
		}
		seen[id] = struct{}{}
	}

	r.buckets[kind] = append(r.buckets[kind], prepared...)
	return CreateResult{InsertedIDs: ids}, nil
}

func (r *memoryProfileRepository) SearchAny(ctx context.Context, kind domain.ModelKind, clauses domain.FilterClauseList) ([]domain.ProfileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	normalized, err := normalizeClauses(clauses)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	results := []domain.ProfileRecord{}
	for _, doc := range r.buckets[kind] {
		if matchesAny(doc, normalized) {
			results = append(results, doc.Clone())
		}
	}
	return results, nil
}

func (r *memoryProfileRepository) UpdateAny(ctx context.Context, kind domain.ModelKind, clauses domain.FilterClauseList, patch domain.ProfileRecord) (UpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return UpdateResult{}, err
	}
	normalized, err := normalizeClauses(clauses)
	if err != nil {
		return UpdateResult{}, err
	}
	fields, err := preparePatch(patch)
	if err != nil {
		return UpdateResult{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var result UpdateResult
	for _, doc := range r.buckets[kind] {
		if !matchesAny(doc, normalized) {
			continue
		}
		result.MatchedCount++
		if applyPatch(doc, fields.Clone()) {
			result.ModifiedCount++
		}
	}
	return result, nil
}

func (r *memoryProfileRepository) DeleteAny(ctx context.Context, kind domain.ModelKind, clauses domain.FilterClauseList) (DeleteResult, error) {
	if err := ctx.Err(); err != nil {
		return DeleteResult{}, err
	}
	normalized, err := normalizeClauses(clauses)
	if err != nil {
		return DeleteResult{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var result DeleteResult
	// DeleteFunc zeroes the vacated tail.
	r.buckets[kind] = slices.DeleteFunc(r.buckets[kind], func(doc domain.ProfileRecord) bool {
		if matchesAny(doc, normalized) {
			result.DeletedCount++
			return true
		}
		return false
	})
	return result, nil
}
