package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/activegames/internal/config"
	"github.com/rpattn/activegames/internal/metrics"
	"github.com/rpattn/activegames/internal/profile"
	"github.com/rpattn/activegames/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func newTestServer(t *testing.T) (*httptest.Server, config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Backend = config.BackendMemory
	logger := testLogger()

	repo, closeStore, err := openRepository(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(closeStore)

	recorder := metrics.NewRecorder()
	repo = repository.NewInstrumentedProfileRepository(repo, cfg.Store.Backend, recorder, logger)
	service := profile.NewService(repo, cfg.Store.ModelKind, logger)

	srv := httptest.NewServer(newRouter(cfg, service, recorder, logger))
	t.Cleanup(srv.Close)
	return srv, cfg
}

func TestRouterServesProfilesHealthAndMetrics(t *testing.T) {
	srv, cfg := newTestServer(t)

	resp, err := http.Post(srv.URL+cfg.Server.BasePath, "application/json", strings.NewReader(`{"userID":"alice"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, err = http.Get(srv.URL + cfg.Server.BasePath + "?userID=alice")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + cfg.Metrics.Path)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "active_games_gateway_operations_total")
	assert.Contains(t, string(body), "active_games_http_requests_total")
}

func TestRouterAnswersCORSPreflight(t *testing.T) {
	srv, cfg := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+cfg.Server.BasePath, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestOpenRepositoryRejectsUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "cassandra"

	_, _, err := openRepository(context.Background(), cfg, testLogger())
	assert.ErrorIs(t, err, config.ErrUnknownBackend)
}
