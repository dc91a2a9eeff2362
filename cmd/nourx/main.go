// Command nourx runs the NOURX client-management API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	nourxhttp "github.com/nourx/nourx/internal/adapter/http"
	nourxnats "github.com/nourx/nourx/internal/adapter/nats"
	"github.com/nourx/nourx/internal/adapter/otel"
	"github.com/nourx/nourx/internal/adapter/postgres"
	"github.com/nourx/nourx/internal/adapter/ristretto"
	"github.com/nourx/nourx/internal/adapter/storage/local"
	"github.com/nourx/nourx/internal/adapter/storage/s3"
	"github.com/nourx/nourx/internal/adapter/ws"
	"github.com/nourx/nourx/internal/config"
	"github.com/nourx/nourx/internal/logger"
	"github.com/nourx/nourx/internal/middleware"
	"github.com/nourx/nourx/internal/port/messagequeue"
	"github.com/nourx/nourx/internal/port/storage"
	"github.com/nourx/nourx/internal/service"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"storage_driver", cfg.Storage.Driver,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)

	ctx := context.Background()

	// Telemetry
	shutdownOtel, err := otel.Init(ctx, otel.Config{
		ServiceName:    cfg.Logging.Service,
		ServiceVersion: version,
		Endpoint:       cfg.Otel.Endpoint,
		Enabled:        cfg.Otel.Enabled,
	})
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(shutdownCtx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()
	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("postgres ready")
	store := postgres.NewStore(pool)

	// NATS (optional; empty URL disables entity event publishing)
	var queue messagequeue.Queue
	if cfg.NATS.URL != "" {
		q, err := nourxnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() {
			if err := q.Drain(); err != nil {
				slog.Warn("nats drain", "error", err)
			}
		}()
		queue = q
	}

	// Deliverable file store
	var files storage.FileStore
	switch cfg.Storage.Driver {
	case "s3":
		files, err = s3.New(ctx, s3.Config{
			Bucket:    cfg.Storage.S3.Bucket,
			Region:    cfg.Storage.S3.Region,
			Endpoint:  cfg.Storage.S3.Endpoint,
			AccessKey: cfg.Storage.S3.AccessKey,
			SecretKey: cfg.Storage.S3.SecretKey,
		})
	default:
		files, err = local.New(cfg.Storage.LocalRoot)
	}
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	// Idempotency replay cache
	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer l1.Close()

	// Services
	hub := ws.NewHub()
	events := &service.Events{Queue: queue, Broadcaster: hub}
	orgSvc := service.NewOrganizationService(store, events)
	projectSvc := service.NewProjectService(store, events)
	milestoneSvc := service.NewMilestoneService(store, events)
	deliverableSvc := service.NewDeliverableService(store, files, events, metrics)
	auditSvc := service.NewAuditService(store)

	handlers := nourxhttp.NewHandlers(orgSvc, projectSvc, milestoneSvc, deliverableSvc, auditSvc, store, queue)

	// HTTP
	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	if cfg.Otel.Enabled {
		r.Use(otel.HTTPMiddleware(cfg.Logging.Service))
	}
	r.Use(middleware.Idempotency(l1, cfg.Idempotency.TTL))

	r.Get("/ws", hub.HandleWS)
	nourxhttp.MountRoutes(r, handlers)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
