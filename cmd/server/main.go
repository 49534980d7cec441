package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/fasalvaidya/crop-health/internal/api"
	"github.com/fasalvaidya/crop-health/internal/cache"
	"github.com/fasalvaidya/crop-health/internal/config"
	"github.com/fasalvaidya/crop-health/internal/db"
	"github.com/fasalvaidya/crop-health/internal/health"
	"github.com/fasalvaidya/crop-health/internal/metrics"
	"github.com/fasalvaidya/crop-health/internal/repository"
	"github.com/fasalvaidya/crop-health/internal/watcher"
)

func main() {
	// Initialize structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting crop-health service")

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := api.Deps{Config: cfg}
	var (
		pool        *db.Pool
		idempotency *repository.IdempotencyRepository
		source      health.Source = health.FileSource{Path: cfg.Health.ThresholdsPath}
	)

	if cfg.Storage.UsesSQLite() {
		conn := openSQLite(ctx, cfg)
		defer conn.Close()
		store := repository.NewSQLiteStore(conn)
		deps.Scans = store
		deps.Farmers = store
		deps.Crops = repository.CatalogCrops{}
	} else {
		pool = connectWithRetry(ctx, cfg, 30)
		defer pool.Close()

		if err := db.RunMigrations(ctx, pool); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		scans := repository.NewScanRepository(pool)
		imports := repository.NewImportRepository(pool)
		idempotency = repository.NewIdempotencyRepository(pool, cfg.Import.IdempotencyTTL)
		deps.Scans = scans
		deps.ScanWriter = scans
		deps.Imports = imports
		deps.Idempotency = idempotency
		deps.Crops = repository.NewCropRepository(pool)
		deps.Farmers = repository.NewFarmerRepository(pool)

		if cfg.Health.ThresholdSource == "database" {
			thresholds := repository.NewThresholdRepository(pool)
			deps.Thresholds = thresholds
			source = health.FallbackSource{repository.ThresholdSource{Repo: thresholds}, source}
		}
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.NewMetrics(registry)
	if err != nil {
		slog.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}
	deps.Metrics = m
	deps.Gatherer = registry

	// Thresholds
	store := health.NewStore(source, logger)
	health.SetDefaultStore(store)
	store.OnReload(m.SetThresholdsVersion)
	store.Reload(ctx)

	reports := cache.NewReportCache(cfg.Health.ReportCacheTTL, cfg.Health.CacheCleanup)
	reports.FlushOnReload(store)

	deps.Store = store
	deps.Cache = reports
	deps.Engine = health.NewEngine(store, health.WithLogger(logger), health.WithObserver(m))

	if cfg.Health.Watch && cfg.Health.ThresholdSource != "database" {
		w := startWatcher(ctx, cfg, store, m)
		if w != nil {
			defer w.Stop()
		}
	}

	if idempotency != nil {
		go cleanIdempotencyKeys(ctx, idempotency, time.Hour)
	}

	router := api.NewRouter(deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("server listening",
			"port", cfg.Server.Port,
			"storage", cfg.Storage.Driver,
			"threshold_source", cfg.Health.ThresholdSource,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	<-ctx.Done()

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server exited")
}

func connectWithRetry(ctx context.Context, cfg *config.Config, maxRetries int) *db.Pool {
	for i := 0; i < maxRetries; i++ {
		pool, err := db.Connect(ctx, cfg.Database)
		if err == nil {
			return pool
		}
		slog.Warn("database not ready, retrying...",
			"attempt", i+1,
			"max_retries", maxRetries,
			"error", err,
		)
		time.Sleep(2 * time.Second)
	}
	slog.Error("failed to connect to database after retries")
	os.Exit(1)
	return nil
}

func openSQLite(ctx context.Context, cfg *config.Config) *sql.DB {
	conn, err := db.OpenSQLite(ctx, cfg.Storage.SQLitePath)
	if err != nil {
		slog.Error("failed to open sqlite database", "error", err)
		os.Exit(1)
	}
	return conn
}

// startWatcher reloads the thresholds store whenever the document changes on
// disk. A watcher that cannot start is logged and skipped.
func startWatcher(ctx context.Context, cfg *config.Config, store *health.Store, m *metrics.Metrics) *watcher.ThresholdsWatcher {
	w, err := watcher.New(cfg.Health.ThresholdsPath, func(ctx context.Context) {
		m.RecordReload("watcher", store.Reload(ctx))
	})
	if err != nil {
		slog.Warn("thresholds watcher disabled", "error", err)
		return nil
	}
	if err := w.Start(ctx); err != nil {
		slog.Warn("thresholds watcher disabled", "error", err)
		return nil
	}
	return w
}

func cleanIdempotencyKeys(ctx context.Context, repo *repository.IdempotencyRepository, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.CleanExpired(ctx)
			if err != nil {
				slog.Warn("idempotency cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("expired idempotency keys removed", "count", n)
			}
		}
	}
}
