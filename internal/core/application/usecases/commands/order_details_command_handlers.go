package commands

import (
	"context"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
)

// orderMutation loads an order, applies change and saves it in one transaction.
func orderMutation(
	ctx context.Context,
	uowFactory OrderUoWFactory,
	orderID kernel.UUID,
	change func(o *order.Order) error,
) (*order.Order, error) {
	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	o, err := orderRepo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err = change(o); err != nil {
		return nil, err
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return o, nil
}

type SetActualDistanceCommandHandler struct {
	uowFactory OrderUoWFactory
	fares      order.FareCalculator
}

func NewSetActualDistanceCommandHandler(uowFactory OrderUoWFactory, fares order.FareCalculator) SetActualDistanceCommandHandler {
	return SetActualDistanceCommandHandler{uowFactory: uowFactory, fares: fares}
}

func (h *SetActualDistanceCommandHandler) Handle(ctx context.Context, cmd SetActualDistanceCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return orderMutation(ctx, h.uowFactory, cmd.OrderID(), func(o *order.Order) error {
		return o.SetActualDistance(cmd.Actor(), cmd.ActualDistanceKm(), h.fares)
	})
}

type AddProofCommandHandler struct {
	uowFactory OrderUoWFactory
}

func NewAddProofCommandHandler(uowFactory OrderUoWFactory) AddProofCommandHandler {
	return AddProofCommandHandler{uowFactory: uowFactory}
}

func (h *AddProofCommandHandler) Handle(ctx context.Context, cmd AddProofCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return orderMutation(ctx, h.uowFactory, cmd.OrderID(), func(o *order.Order) error {
		return o.AddProof(cmd.Actor(), cmd.Kind(), cmd.URL(), cmd.Note())
	})
}

type RateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
}

func NewRateOrderCommandHandler(uowFactory OrderUoWFactory) RateOrderCommandHandler {
	return RateOrderCommandHandler{uowFactory: uowFactory}
}

func (h *RateOrderCommandHandler) Handle(ctx context.Context, cmd RateOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return orderMutation(ctx, h.uowFactory, cmd.OrderID(), func(o *order.Order) error {
		return o.Rate(cmd.Actor(), cmd.Score(), cmd.Review())
	})
}
