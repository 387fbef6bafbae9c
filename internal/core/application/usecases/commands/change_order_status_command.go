package commands

import (
	"errors"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
	"github.com/bharathakku/delivery-backend/internal/pkg/guard"
)

var ErrChangeOrderStatusCommandIsNotConstructed = errors.New(
	"ChangeOrderStatusCommand must be created via NewChangeOrderStatusCommand constructor",
)

// ChangeOrderStatusCommand moves an order along its lifecycle. Cancellation is a
// status change to cancelled with the reason as note.
type ChangeOrderStatusCommand struct { //nolint:recvcheck //using for validation
	orderID          kernel.UUID
	actor            kernel.Actor
	status           order.Status
	note             string
	actualDistanceKm *float64

	guard guard.ConstructorGuard
}

func NewChangeOrderStatusCommand(
	orderID kernel.UUID,
	actor kernel.Actor,
	status order.Status,
	note string,
	actualDistanceKm *float64,
) (ChangeOrderStatusCommand, error) {
	if err := errors.Join(orderID.Validate(), actor.Validate(), status.Validate()); err != nil {
		return ChangeOrderStatusCommand{}, err
	}

	var distance *float64
	if actualDistanceKm != nil {
		v := *actualDistanceKm
		distance = &v
	}

	return ChangeOrderStatusCommand{
		orderID:          orderID,
		actor:            actor,
		status:           status,
		note:             note,
		actualDistanceKm: distance,
		guard:            guard.NewConstructorGuard(),
	}, nil
}

func NewCancelOrderCommand(orderID kernel.UUID, actor kernel.Actor, reason string) (ChangeOrderStatusCommand, error) {
	return NewChangeOrderStatusCommand(orderID, actor, order.Cancelled, reason, nil)
}

func (c ChangeOrderStatusCommand) Validate() error {
	return c.guard.Validate(ErrChangeOrderStatusCommandIsNotConstructed)
}

func (c ChangeOrderStatusCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c ChangeOrderStatusCommand) Actor() kernel.Actor {
	return c.actor
}

func (c ChangeOrderStatusCommand) Status() order.Status {
	return c.status
}

func (c ChangeOrderStatusCommand) Note() string {
	return c.note
}

func (c ChangeOrderStatusCommand) ActualDistanceKm() *float64 {
	return c.actualDistanceKm
}
