package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
	"github.com/bharathakku/delivery-backend/internal/core/domain/services"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"
)

const DefaultDispatchBatchSize = 50

// DispatchPendingOrdersCommand asks for one auto-assignment pass over the oldest
// created orders.
type DispatchPendingOrdersCommand struct {
	limit int
}

func NewDispatchPendingOrdersCommand(limit int) DispatchPendingOrdersCommand {
	if limit <= 0 {
		limit = DefaultDispatchBatchSize
	}
	return DispatchPendingOrdersCommand{limit: limit}
}

func (c DispatchPendingOrdersCommand) Limit() int {
	if c.limit <= 0 {
		return DefaultDispatchBatchSize
	}
	return c.limit
}

// DispatchPendingOrdersCommandHandler runs auto-assignment as the system actor for
// each waiting order. Orders that cannot be served right now are skipped.
type DispatchPendingOrdersCommandHandler struct {
	uowFactory OrderUoWFactory
	autoAssign AutoAssignDriverCommandHandler
	logger     *slog.Logger
}

func NewDispatchPendingOrdersCommandHandler(
	uowFactory OrderUoWFactory,
	autoAssign AutoAssignDriverCommandHandler,
	logger *slog.Logger,
) DispatchPendingOrdersCommandHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return DispatchPendingOrdersCommandHandler{
		uowFactory: uowFactory,
		autoAssign: autoAssign,
		logger:     logger,
	}
}

// Handle returns how many orders were assigned.
func (h *DispatchPendingOrdersCommandHandler) Handle(ctx context.Context, cmd DispatchPendingOrdersCommand) (int, error) {
	pending, err := h.pending(ctx, cmd.Limit())
	if err != nil {
		return 0, err
	}

	assigned := 0
	for _, o := range pending {
		if err = ctx.Err(); err != nil {
			return assigned, err
		}

		autoCmd, err := NewAutoAssignDriverCommand(o.ID(), kernel.SystemActor())
		if err != nil {
			return assigned, err
		}

		_, err = h.autoAssign.Handle(ctx, autoCmd)
		switch {
		case err == nil:
			assigned++
		case isSkippable(err):
			h.logger.Debug("order skipped", "order_id", o.ID().String(), "reason", err.Error())
		default:
			return assigned, err
		}
	}

	return assigned, nil
}

func (h *DispatchPendingOrdersCommandHandler) pending(ctx context.Context, limit int) ([]*order.Order, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	return uow.OrderRepository().ListByStatus(ctx, []order.Status{order.Created}, limit)
}

func isSkippable(err error) bool {
	return errors.Is(err, services.ErrNoEligibleDriver) ||
		errors.Is(err, order.ErrInvalidTransition) ||
		errors.Is(err, errs.ErrConflict) ||
		errors.Is(err, errs.ErrValueIsRequired) ||
		errors.Is(err, errs.ErrObjectNotFound)
}
