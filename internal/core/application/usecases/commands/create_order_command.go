package commands

import (
	"errors"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"
	"github.com/bharathakku/delivery-backend/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand represents a request to place a new delivery order.
// Customers always order for themselves; administrators order on behalf of a
// customer and must name them.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(actor, nil, order.Details{
//	    VehicleType: kernel.VehicleTwoWheeler,
//	    From:        pickup,
//	    To:          dropoff,
//	    DistanceKm:  10,
//	    Price:       100,
//	})
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	handler := NewCreateOrderCommandHandler(uowFactory)
//	created, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	actor      kernel.Actor
	customerID kernel.UUID
	details    order.Details

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates the actor and resolves the customer the order
// belongs to. customerID is only honoured for administrators.
func NewCreateOrderCommand(actor kernel.Actor, customerID *kernel.UUID, details order.Details) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		details: details,
		guard:   guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setActor(actor),
		cmd.setCustomerID(customerID),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) Actor() kernel.Actor {
	return c.actor
}

// CustomerID returns the customer the order is placed for.
func (c CreateOrderCommand) CustomerID() kernel.UUID {
	return c.customerID
}

func (c CreateOrderCommand) Details() order.Details {
	return c.details
}

func (c *CreateOrderCommand) setActor(actor kernel.Actor) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	if !actor.Is(kernel.RoleCustomer, kernel.RoleAdmin) {
		return errs.NewForbiddenError("create order", "only customers and admins")
	}

	c.actor = actor
	return nil
}

func (c *CreateOrderCommand) setCustomerID(customerID *kernel.UUID) error {
	if c.actor.Role() == kernel.RoleCustomer {
		c.customerID = c.actor.UserID()
		return nil
	}
	if c.actor.Role() != kernel.RoleAdmin {
		return nil
	}
	if customerID == nil {
		return errs.NewValueIsRequiredError("customerId")
	}
	if err := customerID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("customerId", err)
	}

	c.customerID = *customerID
	return nil
}
