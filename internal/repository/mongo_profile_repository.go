package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rpattn/activegames/internal/domain"
)

// mongoProfileRepository stores each model kind in its own collection.
type mongoProfileRepository struct {
	database *mongo.Database
}

// NewMongoProfileRepository creates a repository over the given database.
func NewMongoProfileRepository(database *mongo.Database) ProfileRepository {
	return &mongoProfileRepository{database: database}
}

func (r *mongoProfileRepository) collection(kind domain.ModelKind) *mongo.Collection {
	return r.database.Collection(string(kind))
}

func (r *mongoProfileRepository) Create(ctx context.Context, kind domain.ModelKind, docs []domain.ProfileRecord) (CreateResult, error) {
	prepared, ids, err := prepareDocuments(docs)
	if err != nil {
		return CreateResult{}, err
	}

	payload := make([]any, len(prepared))
	for i, doc := range prepared {
		payload[i] = bson.M(doc)
	}

	if _, err := r.collection(kind).InsertMany(ctx, payload); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return CreateResult{}, fmt.Errorf("failed to create profiles: %w", ErrDuplicateID)
		}
		return CreateResult{}, fmt.Errorf("failed to create profiles: %w", err)
	}
	return CreateResult{InsertedIDs: ids}, nil
}

func (r *mongoProfileRepository) SearchAny(ctx context.Context, kind domain.ModelKind, clauses domain.FilterClauseList) ([]domain.ProfileRecord, error) {
	normalized, err := normalizeClauses(clauses)
	if err != nil {
		return nil, err
	}

	cursor, err := r.collection(kind).Find(ctx, buildBSONFilter(normalized))
	if err != nil {
		return nil, fmt.Errorf("failed to search profiles: %w", err)
	}
	defer cursor.Close(ctx)

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode profiles: %w", err)
	}

	results := make([]domain.ProfileRecord, 0, len(raw))
	for _, doc := range raw {
		plain, _ := fromBSON(doc).(map[string]any)
		results = append(results, domain.ProfileRecord(plain))
	}
	return results, nil
}

func (r *mongoProfileRepository) UpdateAny(ctx context.Context, kind domain.ModelKind, clauses domain.FilterClauseList, patch domain.ProfileRecord) (UpdateResult, error) {
	normalized, err := normalizeClauses(clauses)
	if err != nil {
		return UpdateResult{}, err
	}
	fields, err := preparePatch(patch)
	if err != nil {
		return UpdateResult{}, err
	}
	filter := buildBSONFilter(normalized)

	// $set rejects an empty document
	if len(fields) == 0 {
		matched, err := r.collection(kind).CountDocuments(ctx, filter)
		if err != nil {
			return UpdateResult{}, fmt.Errorf("failed to count profiles: %w", err)
		}
		return UpdateResult{MatchedCount: matched}, nil
	}

	res, err := r.collection(kind).UpdateMany(ctx, filter, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return UpdateResult{}, fmt.Errorf("failed to update profiles: %w", err)
	}
	return UpdateResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

func (r *mongoProfileRepository) DeleteAny(ctx context.Context, kind domain.ModelKind, clauses domain.FilterClauseList) (DeleteResult, error) {
	normalized, err := normalizeClauses(clauses)
	if err != nil {
		return DeleteResult{}, err
	}

	res, err := r.collection(kind).DeleteMany(ctx, buildBSONFilter(normalized))
	if err != nil {
		return DeleteResult{}, fmt.Errorf("failed to delete profiles: %w", err)
	}
	return DeleteResult{DeletedCount: res.DeletedCount}, nil
}
