package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rpattn/activegames/internal/db"
	"github.com/rpattn/activegames/internal/domain"
)

// postgresProfileRepository stores profile documents as JSONB rows partitioned by model kind.
type postgresProfileRepository struct {
	conn *db.Connection
}

// NewPostgresProfileRepository creates a repository backed by the profile_documents table.
func NewPostgresProfileRepository(conn *db.Connection) ProfileRepository {
	return &postgresProfileRepository{conn: conn}
}

// Create inserts all documents in a single transaction
func (r *postgresProfileRepository) Create(ctx context.Context, kind domain.ModelKind, docs []domain.ProfileRecord) (CreateResult, error) {
	prepared, ids, err := prepareDocuments(docs)
	if err != nil {
		return CreateResult{}, err
	}

	batch := &pgx.Batch{}
	for i, doc := range prepared {
		documentJSON, err := json.Marshal(doc)
		if err != nil {
			return CreateResult{}, fmt.Errorf("failed to marshal document %d: %w", i, err)
		}
		batch.Queue(
			`INSERT INTO profile_documents (model_kind, id, document) VALUES ($1, $2, $3::jsonb)`,
			string(kind), ids[i], string(documentJSON),
		)
	}

	err = r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for i := range prepared {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("failed to insert document %s: %w", ids[i], err)
			}
		}
		return results.Close()
	})
	if err != nil {
		return CreateResult{}, fmt.Errorf("failed to create profiles: %w", err)
	}

	return CreateResult{InsertedIDs: ids}, nil
}

// SearchAny returns matching documents in insertion order
func (r *postgresProfileRepository) SearchAny(ctx context.Context, kind domain.ModelKind, clauses domain.FilterClauseList) ([]domain.ProfileRecord, error) {
	predicate, err := buildSQLPredicate(clauses, 2)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`SELECT document FROM profile_documents WHERE model_kind = $1 AND (%s) ORDER BY seq`,
		predicate.SQL,
	)
	args := append([]any{string(kind)}, predicate.Args...)

	rows, err := r.conn.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search profiles: %w", err)
	}
	defer rows.Close()

	results := []domain.ProfileRecord{}
	for rows.Next() {
		var documentJSON []byte
		if err := rows.Scan(&documentJSON); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		var record domain.ProfileRecord
		if err := json.Unmarshal(documentJSON, &record); err != nil {
			return nil, fmt.Errorf("failed to decode profile: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}

	return results, nil
}

// UpdateAny merges the patch into every matching document
func (r *postgresProfileRepository) UpdateAny(ctx context.Context, kind domain.ModelKind, clauses domain.FilterClauseList, patch domain.ProfileRecord) (UpdateResult, error) {
	fields, err := preparePatch(patch)
	if err != nil {
		return UpdateResult{}, err
	}
	predicate, err := buildSQLPredicate(clauses, 2)
	if err != nil {
		return UpdateResult{}, err
	}
	args := append([]any{string(kind)}, predicate.Args...)

	var result UpdateResult
	err = r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		countSQL := fmt.Sprintf(
			`SELECT count(*) FROM profile_documents WHERE model_kind = $1 AND (%s)`,
			predicate.SQL,
		)
		if err := tx.QueryRow(ctx, countSQL, args...).Scan(&result.MatchedCount); err != nil {
			return fmt.Errorf("failed to count matching profiles: %w", err)
		}
		if result.MatchedCount == 0 || len(fields) == 0 {
			return nil
		}

		patchJSON, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("failed to marshal patch: %w", err)
		}
		patchArg := fmt.Sprintf("$%d", len(args)+1)
		updateSQL := fmt.Sprintf(
			`UPDATE profile_documents
			 SET document = document || %[1]s::jsonb, updated_at = now()
			 WHERE model_kind = $1 AND (%[2]s) AND (document || %[1]s::jsonb) <> document`,
			patchArg, predicate.SQL,
		)
		tag, err := tx.Exec(ctx, updateSQL, append(args, string(patchJSON))...)
		if err != nil {
			return fmt.Errorf("failed to apply patch: %w", err)
		}
		result.ModifiedCount = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return UpdateResult{}, fmt.Errorf("failed to update profiles: %w", err)
	}

	return result, nil
}

// DeleteAny removes every matching document
func (r *postgresProfileRepository) DeleteAny(ctx context.Context, kind domain.ModelKind, clauses domain.FilterClauseList) (DeleteResult, error) {
	predicate, err := buildSQLPredicate(clauses, 2)
	if err != nil {
		return DeleteResult{}, err
	}

	query := fmt.Sprintf(`DELETE FROM profile_documents WHERE model_kind = $1 AND (%s)`, predicate.SQL)
	tag, err := r.conn.Pool.Exec(ctx, query, append([]any{string(kind)}, predicate.Args...)...)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("failed to delete profiles: %w", err)
	}

	return DeleteResult{DeletedCount: tag.RowsAffected()}, nil
}
