package commands

import (
	"errors"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/pkg/guard"
)

var (
	ErrAssignDriverCommandIsNotConstructed = errors.New(
		"AssignDriverCommand must be created via NewAssignDriverCommand constructor",
	)
	ErrAutoAssignDriverCommandIsNotConstructed = errors.New(
		"AutoAssignDriverCommand must be created via NewAutoAssignDriverCommand constructor",
	)
)

// AssignDriverCommand binds an order to a driver chosen by an administrator.
type AssignDriverCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	driverID kernel.UUID
	actor    kernel.Actor
	note     string

	guard guard.ConstructorGuard
}

func NewAssignDriverCommand(orderID, driverID kernel.UUID, actor kernel.Actor, note string) (AssignDriverCommand, error) {
	if err := errors.Join(orderID.Validate(), driverID.Validate(), actor.Validate()); err != nil {
		return AssignDriverCommand{}, err
	}

	return AssignDriverCommand{
		orderID:  orderID,
		driverID: driverID,
		actor:    actor,
		note:     note,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c AssignDriverCommand) Validate() error {
	return c.guard.Validate(ErrAssignDriverCommandIsNotConstructed)
}

func (c AssignDriverCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c AssignDriverCommand) DriverID() kernel.UUID {
	return c.driverID
}

func (c AssignDriverCommand) Actor() kernel.Actor {
	return c.actor
}

func (c AssignDriverCommand) Note() string {
	return c.note
}

// AutoAssignDriverCommand asks the engine to pick the nearest eligible driver.
type AutoAssignDriverCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	actor   kernel.Actor

	guard guard.ConstructorGuard
}

func NewAutoAssignDriverCommand(orderID kernel.UUID, actor kernel.Actor) (AutoAssignDriverCommand, error) {
	if err := errors.Join(orderID.Validate(), actor.Validate()); err != nil {
		return AutoAssignDriverCommand{}, err
	}

	return AutoAssignDriverCommand{
		orderID: orderID,
		actor:   actor,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c AutoAssignDriverCommand) Validate() error {
	return c.guard.Validate(ErrAutoAssignDriverCommandIsNotConstructed)
}

func (c AutoAssignDriverCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c AutoAssignDriverCommand) Actor() kernel.Actor {
	return c.actor
}
