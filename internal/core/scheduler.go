package core

// scheduler.go runs the periodic cache resync.
//
// Each replica's caches are only updated by its own writes and by Redis
// invalidations, either of which can be missed (e.g. a replica restarting
// its subscription, or rows edited by hand in the database). The resync job
// reloads every cache from storage on a cron schedule. Failures are logged
// and retried on the next tick; they never stop the process.

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// StartResync schedules ReloadAll on spec, a standard cron expression or a
// descriptor such as "@every 15m". The returned function stops the scheduler
// and waits for a running job to finish.
func (s *Service) StartResync(ctx context.Context, spec string) (stop func(), err error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { s.runResyncJob(ctx) }); err != nil {
		return nil, err
	}
	c.Start()
	slog.Info("cache resync scheduler started", "schedule", spec)

	return func() {
		<-c.Stop().Done()
		slog.Info("cache resync scheduler stopped")
	}, nil
}

// runResyncJob performs one full reload.
func (s *Service) runResyncJob(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := s.ReloadAll(ctx); err != nil {
		slog.Error("cache resync failed", "error", err)
		return
	}
	slog.Debug("cache resync completed", "duration_ms", time.Since(start).Milliseconds())
}
