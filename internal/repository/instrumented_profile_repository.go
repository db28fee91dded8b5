package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/rpattn/activegames/internal/domain"
	"github.com/rpattn/activegames/internal/logging"
	"github.com/rpattn/activegames/internal/metrics"
)

// instrumentedProfileRepository records latency and failures of every gateway call.
type instrumentedProfileRepository struct {
	inner    ProfileRepository
	recorder *metrics.Recorder
	logger   *slog.Logger
	backend  string
}

// NewInstrumentedProfileRepository wraps inner with metrics and debug logging.
func NewInstrumentedProfileRepository(inner ProfileRepository, backend string, recorder *metrics.Recorder, logger *slog.Logger) ProfileRepository {
	return &instrumentedProfileRepository{
		inner:    inner,
		recorder: recorder,
		logger:   logger,
		backend:  backend,
	}
}

func (r *instrumentedProfileRepository) Create(ctx context.Context, kind domain.ModelKind, docs []domain.ProfileRecord) (CreateResult, error) {
	start := time.Now()
	result, err := r.inner.Create(ctx, kind, docs)
	r.observe(ctx, "create", kind, start, err, len(result.InsertedIDs))
	return result, err
}

func (r *instrumentedProfileRepository) SearchAny(ctx context.Context, kind domain.ModelKind, clauses domain.FilterClauseList) ([]domain.ProfileRecord, error) {
	start := time.Now()
	records, err := r.inner.SearchAny(ctx, kind, clauses)
	r.observe(ctx, "search", kind, start, err, len(records))
	return records, err
}

func (r *instrumentedProfileRepository) UpdateAny(ctx context.Context, kind domain.ModelKind, clauses domain.FilterClauseList, patch domain.ProfileRecord) (UpdateResult, error) {
	start := time.Now()
	result, err := r.inner.UpdateAny(ctx, kind, clauses, patch)
	r.observe(ctx, "update", kind, start, err, int(result.ModifiedCount))
	return result, err
}

func (r *instrumentedProfileRepository) DeleteAny(ctx context.Context, kind domain.ModelKind, clauses domain.FilterClauseList) (DeleteResult, error) {
	start := time.Now()
	result, err := r.inner.DeleteAny(ctx, kind, clauses)
	r.observe(ctx, "delete", kind, start, err, int(result.DeletedCount))
	return result, err
}

func (r *instrumentedProfileRepository) observe(ctx context.Context, operation string, kind domain.ModelKind, start time.Time, err error, count int) {
	duration := time.Since(start)
	r.recorder.RecordGatewayOperation(operation, string(kind), duration, err)

	logger := logging.FromContext(ctx, r.logger)
	attrs := []any{
		slog.String(logging.FieldBackend, r.backend),
		slog.String(logging.FieldOperation, operation),
		slog.String(logging.FieldModelKind, string(kind)),
		slog.Int64(logging.FieldDurationMS, duration.Milliseconds()),
	}
	if err != nil {
		logger.Warn("gateway operation failed", append(attrs, slog.Any("error", err))...)
		return
	}
	logger.Debug("gateway operation complete", append(attrs, slog.Int(logging.FieldCount, count))...)
}
