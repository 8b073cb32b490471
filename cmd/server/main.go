package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/llocg/internal/cachesync"
	"github.com/JonMunkholm/llocg/internal/config"
	"github.com/JonMunkholm/llocg/internal/core"
	db "github.com/JonMunkholm/llocg/internal/database"
	"github.com/JonMunkholm/llocg/internal/logging"
	"github.com/JonMunkholm/llocg/internal/web"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Warn("could not read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"bulk_max_cards", cfg.Catalog.BulkMaxCards,
		"redis_enabled", cfg.Cache.RedisEnabled(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		slog.Error("database setup failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	service, err := core.NewService(ctx, pool, core.Options{
		ReadTimeout:       cfg.Catalog.ReadTimeout,
		BulkMaxCards:      cfg.Catalog.BulkMaxCards,
		BulkMaxConcurrent: cfg.Catalog.BulkMaxConcurrent,
		BulkMaxWait:       cfg.Catalog.BulkMaxWait,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	// Background jobs stop when jobCtx is cancelled.
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	if cfg.Cache.RedisEnabled() {
		bus, err := cachesync.New(ctx, cachesync.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			Channel:  cfg.Cache.RedisChannel,
		})
		if err != nil {
			slog.Error("failed to connect cache bus", "error", err)
			os.Exit(1)
		}
		defer bus.Close()

		if err := bus.Listen(jobCtx, service); err != nil {
			slog.Error("failed to subscribe to cache bus", "error", err)
			os.Exit(1)
		}
		service.SetInvalidator(bus)
		slog.Info("cache bus connected", "channel", cfg.Cache.RedisChannel, "origin", bus.Origin())
	}

	stopResync := func() {}
	if cfg.Cache.ResyncSchedule != "" {
		stopResync, err = service.StartResync(jobCtx, cfg.Cache.ResyncSchedule)
		if err != nil {
			slog.Error("failed to schedule cache resync", "error", err)
			os.Exit(1)
		}
	}

	server := web.NewServer(service, cfg, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		if active := service.Limiter().ActiveCount(); active > 0 {
			slog.Info("waiting for bulk creations to finish", "active", active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("bulk creations did not finish in time", "error", err)
			}
		}

		stopResync()
		cancelJobs()
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
