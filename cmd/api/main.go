package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/meeting-sync/internal/archive"
	"github.com/BruksfildServices01/meeting-sync/internal/audit"
	"github.com/BruksfildServices01/meeting-sync/internal/cache"
	"github.com/BruksfildServices01/meeting-sync/internal/config"
	dbpkg "github.com/BruksfildServices01/meeting-sync/internal/db"
	"github.com/BruksfildServices01/meeting-sync/internal/logger"
	"github.com/BruksfildServices01/meeting-sync/internal/metrics"
	"github.com/BruksfildServices01/meeting-sync/internal/routes"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "meeting-sync: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	db, err := dbpkg.NewDB(cfg)
	if err != nil {
		return err
	}

	// --------------------------------------------------
	// Redis (opcional)
	// --------------------------------------------------
	rdb := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
	if rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, idempotency cache disabled", zap.Error(err))
			_ = rdb.Close()
			rdb = nil
		}
		cancel()
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	// --------------------------------------------------
	// Métricas / auditoria / snapshots
	// --------------------------------------------------
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	syncMetrics := metrics.NewSyncMetrics(registry)

	dispatcher := audit.NewDispatcher(audit.New(db), log)
	defer dispatcher.Close()

	snapshots := archive.NewS3Store(archive.S3Config{
		Bucket:           cfg.SnapshotBucket,
		Region:           cfg.AWSRegion,
		AccessKeyID:      cfg.AWSAccessKeyID,
		SecretAccessKey:  cfg.AWSSecretAccessKey,
		EndpointOverride: cfg.AWSEndpointOverride,
	})

	// --------------------------------------------------
	// HTTP
	// --------------------------------------------------
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		DB:        db,
		Config:    cfg,
		Logger:    log,
		Gatherer:  registry,
		Metrics:   syncMetrics,
		Audit:     dispatcher,
		Cache:     cache.NewIdempotencyCache(rdb, cfg.IdempotencyTTL),
		Snapshots: snapshots,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server running", zap.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
