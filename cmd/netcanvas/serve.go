package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"netcanvas/internal/adapter"
	"netcanvas/internal/config"
	"netcanvas/internal/handler"
	"netcanvas/internal/hub"
	"netcanvas/internal/metrics"
	"netcanvas/internal/repository"
	"netcanvas/internal/repository/postgres"
	"netcanvas/internal/repository/sqlite"
	"netcanvas/internal/service"
	"netcanvas/internal/watcher"
)

// openStore opens the configured snapshot store wrapped with metrics and logging
func openStore(ctx context.Context, sc config.StorageConfig, m *metrics.Registry) (repository.SnapshotStore, error) {
	var (
		store repository.SnapshotStore
		err   error
	)

	switch sc.Driver {
	case config.DriverPostgres:
		store, err = postgres.New(ctx, sc.DSN)
	case config.DriverSQLite:
		store, err = sqlite.New(sc.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", sc.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", sc.Driver, err)
	}

	return repository.NewInstrumented(store, m, slog.Default()), nil
}

// newSyncer builds the device syncer, or returns nil when no inventory is configured
func newSyncer(ic config.InventoryConfig, m *metrics.Registry) *adapter.Syncer {
	if !ic.Enabled() {
		return nil
	}

	opts := []adapter.ClientOption{
		adapter.WithHTTPClient(&http.Client{Timeout: ic.Timeout.Duration()}),
		adapter.WithClientLogger(slog.Default()),
	}
	if ic.TokenEnv != "" {
		opts = append(opts, adapter.WithTokenSource(adapter.EnvToken(ic.TokenEnv)))
	}

	return adapter.NewSyncer(adapter.NewInventoryClient(ic.URL, opts...),
		adapter.WithLogger(slog.Default()),
		adapter.WithMetrics(m),
		adapter.WithTimeout(ic.Timeout.Duration()),
		adapter.WithPollInterval(ic.PollInterval.Duration()),
	)
}

func serve(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting netcanvas", "addr", cfg.Server.Addr, "storage", cfg.Storage.Driver)
	slog.Debug("Effective config\n" + cfg.Summary())

	reg := metrics.NewRegistry()

	store, err := openStore(ctx, cfg.Storage, reg)
	if err != nil {
		return err
	}
	defer closeQuietly("snapshot store", store)

	eventBus := service.NewEventBus()

	sseHub := hub.New(hub.WithLogger(slog.Default()), hub.WithMetrics(reg))
	go sseHub.Run(ctx)

	// Connect event bus to SSE hub
	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	defer eventBus.Unsubscribe(eventChan)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventChan:
				sseHub.Broadcast(string(event.Type), event.Payload)
			}
		}
	}()

	editorOpts := []service.EditorOption{
		service.WithStore(store),
		service.WithEventBus(eventBus),
		service.WithMetrics(reg),
		service.WithLogger(slog.Default()),
		service.WithConfig(service.EditorConfig{
			MinDistance: cfg.Editor.MinDistance,
			Grid:        cfg.Editor.Grid,
		}),
	}

	if syncer := newSyncer(cfg.Inventory, reg); syncer != nil {
		syncer.SetEventHandler(eventBus.Forward)
		syncer.Start(ctx)
		defer syncer.Stop()
		editorOpts = append(editorOpts, service.WithDevices(syncer))
		slog.Info("Device sync enabled", "url", cfg.Inventory.URL, "poll", cfg.Inventory.PollInterval.Duration())
	} else {
		slog.Info("Device sync disabled, no inventory URL configured")
	}

	editor := service.NewEditor(editorOpts...)

	if seed := cfg.Editor.SeedFile; seed != "" {
		result, err := loadDocument(editor, seed, "")
		if err != nil {
			return err
		}
		slog.Info("Loaded seed file", "path", seed, "nodes", result.Report.NodesLoaded, "edges", result.Report.EdgesLoaded)

		if cfg.Editor.WatchSeed {
			w := watcher.New(seed, reloadSeed(editor), watcher.WithLogger(slog.Default()))
			go func() {
				if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
					slog.Warn("Seed watcher stopped", "err", err)
				}
			}()
		}
	}

	router := handler.NewRouter(handler.RouterConfig{
		Editor:         handler.NewEditorHandler(editor, slog.Default()),
		Events:         sseHub,
		Metrics:        reg,
		Logger:         slog.Default(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// no WriteTimeout: SSE streams stay open
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listening on %s: %w", cfg.Server.Addr, err)
		}
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server stopped")
	return nil
}
