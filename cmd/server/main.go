package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/cors"

	"github.com/rpattn/activegames/internal/config"
	"github.com/rpattn/activegames/internal/db"
	"github.com/rpattn/activegames/internal/logging"
	"github.com/rpattn/activegames/internal/metrics"
	"github.com/rpattn/activegames/internal/middleware"
	"github.com/rpattn/activegames/internal/profile"
	"github.com/rpattn/activegames/internal/repository"
)

func main() {
	configPath := flag.String("config", ".", "directory holding config.yaml and .env")
	flag.Parse()

	bootLogger := logging.NewLogger(logging.Config{Level: "info"})
	cfg, err := config.Load(*configPath, bootLogger)
	if err != nil {
		bootLogger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.Log)

	// Create context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server exited")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.NewRecorder()
	}

	repo, closeStore, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	repo = repository.NewInstrumentedProfileRepository(repo, cfg.Store.Backend, recorder, logger)
	service := profile.NewService(repo, cfg.Store.ModelKind, logger)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      newRouter(cfg, service, recorder, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			slog.String("addr", cfg.Server.Addr),
			slog.String("base_path", cfg.Server.BasePath),
			slog.String(logging.FieldBackend, cfg.Store.Backend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// openRepository connects the configured backend and returns its cleanup function.
func openRepository(ctx context.Context, cfg config.Config, logger *slog.Logger) (repository.ProfileRepository, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		if cfg.Store.RunMigrations {
			if err := db.RunMigrations(cfg.Database.DSN(), logger); err != nil {
				return nil, nil, err
			}
		}
		conn, err := db.NewConnection(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPostgresProfileRepository(conn), conn.Close, nil

	case config.BackendMongo:
		client, err := db.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Warn("failed to disconnect mongo", slog.Any("error", err))
			}
		}
		return repository.NewMongoProfileRepository(client.Database(cfg.Mongo.Database)), closeFn, nil

	case config.BackendMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return repository.NewMemoryProfileRepository(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Store.Backend)
	}
}

func newRouter(cfg config.Config, service *profile.Service, recorder *metrics.Recorder, logger *slog.Logger) http.Handler {
	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-ID"},
	})

	mux := http.NewServeMux()
	profiles := profile.NewHTTPHandler(service, logger)
	mux.Handle(cfg.Server.BasePath, corsHandler.Handler(
		middleware.LoggingMiddleware(logger, recorder, cfg.Server.BasePath, profiles),
	))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, recorder.Handler())
	}
	return mux
}
