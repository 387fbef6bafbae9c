package jobs

import (
	"context"
	"log/slog"

	"github.com/bharathakku/delivery-backend/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

const DefaultDispatchSchedule = "@every 15s"

type PendingOrderDispatcher interface {
	Handle(ctx context.Context, cmd commands.DispatchPendingOrdersCommand) (int, error)
}

// OrderDispatchJob auto-assigns orders that are still waiting for a driver,
// oldest first.
type OrderDispatchJob struct {
	dispatcher PendingOrderDispatcher
	batch      int
	opts       Options
	cron       *cron.Cron
	logger     *slog.Logger
}

func NewOrderDispatchJob(dispatcher PendingOrderDispatcher, batch int, opts Options, logger *slog.Logger) *OrderDispatchJob {
	if opts.Schedule == "" {
		opts.Schedule = DefaultDispatchSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderDispatchJob{
		dispatcher: dispatcher,
		batch:      batch,
		opts:       opts,
		cron:       cron.New(cron.WithSeconds()),
		logger:     logger.With("component", "order_dispatch_job"),
	}
}

func (j *OrderDispatchJob) Start() error {
	if _, err := j.cron.AddFunc(j.opts.Schedule, func() { j.RunOnce(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("Order dispatch job started", "schedule", j.opts.Schedule)
	return nil
}

// RunOnce performs one dispatch pass and returns how many orders were assigned.
func (j *OrderDispatchJob) RunOnce(ctx context.Context) int {
	assigned := 0
	_, err := j.opts.tick(ctx, "order_dispatch", func(ctx context.Context) error {
		n, err := j.dispatcher.Handle(ctx, commands.NewDispatchPendingOrdersCommand(j.batch))
		assigned = n
		return err
	})
	if err != nil {
		j.logger.ErrorContext(ctx, "Order dispatch failed", "error", err, "assigned", assigned)
	} else if assigned > 0 {
		j.logger.InfoContext(ctx, "Pending orders assigned", "count", assigned)
	}
	return assigned
}

func (j *OrderDispatchJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("Order dispatch job stopped")
}
