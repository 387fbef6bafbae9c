package commands

import (
	"context"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
)

type ChangeOrderStatusCommandHandler struct {
	uowFactory OrderUoWFactory
	fares      order.FareCalculator
	announcer  *OrderAnnouncer
}

func NewChangeOrderStatusCommandHandler(
	uowFactory OrderUoWFactory,
	fares order.FareCalculator,
	announcer *OrderAnnouncer,
) ChangeOrderStatusCommandHandler {
	return ChangeOrderStatusCommandHandler{
		uowFactory: uowFactory,
		fares:      fares,
		announcer:  announcer,
	}
}

// Handle applies the transition and persists it under optimistic locking.
// Subscribers of the order room are told only after the commit.
func (h *ChangeOrderStatusCommandHandler) Handle(ctx context.Context, cmd ChangeOrderStatusCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	o, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}

	opts := order.TransitionOptions{Note: cmd.Note(), ActualDistanceKm: cmd.ActualDistanceKm()}
	if err = o.ChangeStatus(cmd.Actor(), cmd.Status(), opts, h.fares); err != nil {
		return nil, err
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.announcer.StatusChanged(ctx, o)
	return o, nil
}
