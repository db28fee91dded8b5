package repository

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/activegames/internal/domain"
	"github.com/rpattn/activegames/internal/metrics"
)

func TestInstrumentedRepositoryDelegatesAndRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	recorder := metrics.NewRecorder()
	repo := NewInstrumentedProfileRepository(NewMemoryProfileRepository(), "memory", recorder, logger)
	ctx := context.Background()

	seedProfiles(t, repo)
	records, err := repo.SearchAny(ctx, domain.UserActiveGames, domain.NormalizeFilter(nil))
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = repo.Create(ctx, domain.UserActiveGames, nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	count, err := testutil.GatherAndCount(recorder.Registry(), "active_games_gateway_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	assert.Contains(t, buf.String(), "gateway operation complete")
	assert.Contains(t, buf.String(), "gateway operation failed")
	assert.Contains(t, buf.String(), "backend=memory")
}
