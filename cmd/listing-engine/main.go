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

	"github.com/joho/godotenv"

	"github.com/propdesk/listing-engine/internal/api"
	"github.com/propdesk/listing-engine/internal/catalog"
	"github.com/propdesk/listing-engine/internal/cleanup"
	"github.com/propdesk/listing-engine/internal/config"
	"github.com/propdesk/listing-engine/internal/mapsurface"
	"github.com/propdesk/listing-engine/internal/notify"
	"github.com/propdesk/listing-engine/internal/preview"
	"github.com/propdesk/listing-engine/internal/session"
	"github.com/propdesk/listing-engine/internal/storage"
)

func main() {
	// Optional local .env; ignored when absent
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting listing-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Driver,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Initialize project repository
	var repo storage.Repository
	switch cfg.Storage.Driver {
	case "postgres":
		slog.Info("running database migrations", "dir", cfg.Storage.MigrationsDir)
		if err := storage.MigrateFromDSN(initCtx, cfg.Storage.DSN, cfg.Storage.MigrationsDir); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		pg, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
			DSN:          cfg.Storage.DSN,
			MaxOpenConns: int32(cfg.Storage.MaxOpenConns),
			MaxIdleConns: int32(cfg.Storage.MaxIdleConns),
		})
		if err != nil {
			slog.Error("failed to create database repository", "error", err)
			os.Exit(1)
		}
		repo = pg
		slog.Info("database connected successfully")
	default:
		repo = storage.NewSeededRepository()
		slog.Info("using in-memory repository with demo projects")
	}

	// Initialize preview store and notifier
	var previews preview.Store
	var notifier session.Notifier
	if cfg.Redis.Enabled {
		rs, err := preview.NewRedisStore(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		previews = rs
		notifier = notify.NewRedis(rs.Client())
		slog.Info("redis connected successfully", "address", cfg.Redis.Address)
	} else {
		previews = preview.NewMemoryStore()
		notifier = notify.NewSlog()
	}

	// Load amenity catalog
	cat := catalog.New()
	if err := cat.LoadFromDir(cfg.Catalog.Dir); err != nil {
		slog.Warn("failed to load catalog from dir", "dir", cfg.Catalog.Dir, "error", err)
	}

	// Map surface hub for connected dashboard clients
	mapHub := mapsurface.NewHub()

	// Initialize session manager
	manager := session.NewManager(
		session.ManagerConfig{
			TTL:           cfg.Session.TTL,
			LoadDelay:     cfg.Session.LoadDelay,
			RedirectDelay: cfg.Session.RedirectDelay,
			ListPath:      "/",
			DefaultLat:    cfg.Map.CenterLat,
			DefaultLng:    cfg.Map.CenterLng,
			Zoom:          cfg.Map.Zoom,
		},
		repo,
		previews,
		mapHub,
		notifier,
		cat,
		api.NewNavigatorFactory(mapHub),
	)

	// Initialize cleanup worker
	cleaner := cleanup.NewCleaner(manager, cfg.Cleanup.Interval)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start cleanup worker
	cleaner.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, repo, manager, previews, cat, mapHub)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Close live edit sessions, releasing preview handles
	manager.Shutdown(shutdownCtx)

	if err := previews.Close(); err != nil {
		slog.Error("preview store close error", "error", err)
	}
	if err := repo.Close(); err != nil {
		slog.Error("repository close error", "error", err)
	}

	slog.Info("listing-engine stopped")
}
