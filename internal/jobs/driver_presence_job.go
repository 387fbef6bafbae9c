package jobs

import (
	"context"
	"log/slog"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"

	"github.com/robfig/cron/v3"
)

const DefaultPresenceSchedule = "@every 30s"

type StaleDriverSweeper interface {
	Handle(ctx context.Context) ([]kernel.UUID, error)
}

// DriverPresenceJob takes drivers without recent heartbeats offline.
type DriverPresenceJob struct {
	sweeper StaleDriverSweeper
	opts    Options
	cron    *cron.Cron
	logger  *slog.Logger
}

func NewDriverPresenceJob(sweeper StaleDriverSweeper, opts Options, logger *slog.Logger) *DriverPresenceJob {
	if opts.Schedule == "" {
		opts.Schedule = DefaultPresenceSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DriverPresenceJob{
		sweeper: sweeper,
		opts:    opts,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With("component", "driver_presence_job"),
	}
}

// Start schedules the sweep.
func (j *DriverPresenceJob) Start() error {
	if _, err := j.cron.AddFunc(j.opts.Schedule, func() { j.RunOnce(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("Driver presence job started", "schedule", j.opts.Schedule)
	return nil
}

// RunOnce performs a single sweep and returns the number of drivers taken offline.
func (j *DriverPresenceJob) RunOnce(ctx context.Context) int {
	swept := 0
	ran, err := j.opts.tick(ctx, "driver_presence", func(ctx context.Context) error {
		ids, err := j.sweeper.Handle(ctx)
		swept = len(ids)
		return err
	})
	switch {
	case err != nil:
		j.logger.ErrorContext(ctx, "Driver presence sweep failed", "error", err)
	case !ran:
		j.logger.DebugContext(ctx, "Driver presence sweep skipped, lease held elsewhere")
	case swept > 0:
		j.logger.InfoContext(ctx, "Stale drivers marked offline", "count", swept)
	}
	return swept
}

// Stop waits for a running sweep to finish.
func (j *DriverPresenceJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("Driver presence job stopped")
}
