package queries

import (
	"errors"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"
	"github.com/bharathakku/delivery-backend/internal/pkg/guard"
)

var (
	ErrGetOrderQueryIsNotConstructed = errors.New(
		"GetOrderQuery must be created via NewGetOrderQuery constructor",
	)
	ErrListOrdersQueryIsNotConstructed = errors.New(
		"ListOrdersQuery must be created via NewListOrdersQuery constructor",
	)
)

// GetOrderQuery reads a single order on behalf of an actor. It backs the order
// details, fare breakdown and tracking endpoints.
type GetOrderQuery struct {
	orderID kernel.UUID
	actor   kernel.Actor

	guard guard.ConstructorGuard
}

func NewGetOrderQuery(orderID kernel.UUID, actor kernel.Actor) (GetOrderQuery, error) {
	if err := errors.Join(orderID.Validate(), actor.Validate()); err != nil {
		return GetOrderQuery{}, err
	}
	return GetOrderQuery{orderID: orderID, actor: actor, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

func (q GetOrderQuery) OrderID() kernel.UUID {
	return q.orderID
}

func (q GetOrderQuery) Actor() kernel.Actor {
	return q.actor
}

// Caps for the history listings, which are returned newest first.
const (
	CustomerOrdersLimit = 50
	AdminOrdersLimit    = 200
)

// ListScope selects which orders a ListOrdersQuery returns.
type ListScope int

const (
	// ScopeBoard is the work board: unfinished orders for admins, assigned ones for drivers.
	ScopeBoard ListScope = iota
	// ScopeAll is every order, for admins.
	ScopeAll
	// ScopeCustomer is the orders placed by one customer.
	ScopeCustomer
)

// ListOrdersQuery lists orders for an admin board, a driver's work queue or a
// customer's order history.
type ListOrdersQuery struct {
	actor      kernel.Actor
	scope      ListScope
	customerID kernel.UUID
	limit      int

	guard guard.ConstructorGuard
}

// NewListOrdersQuery builds the board listing for actor. Administrators see every
// unfinished order; drivers see the orders assigned to them.
func NewListOrdersQuery(actor kernel.Actor, limit int) (ListOrdersQuery, error) {
	if err := actor.Validate(); err != nil {
		return ListOrdersQuery{}, err
	}
	if !actor.Is(kernel.RoleAdmin, kernel.RoleDriver) {
		return ListOrdersQuery{}, errs.NewForbiddenError("list orders", "only admins and drivers")
	}
	if limit < 0 {
		return ListOrdersQuery{}, errs.NewValueIsOutOfRangeError("limit", limit, 0, 1000)
	}
	return ListOrdersQuery{actor: actor, scope: ScopeBoard, limit: limit, guard: guard.NewConstructorGuard()}, nil
}

// NewListAllOrdersQuery lists every order, newest first, at most AdminOrdersLimit.
func NewListAllOrdersQuery(actor kernel.Actor, limit int) (ListOrdersQuery, error) {
	if err := actor.Validate(); err != nil {
		return ListOrdersQuery{}, err
	}
	if actor.Role() != kernel.RoleAdmin {
		return ListOrdersQuery{}, errs.NewForbiddenError("list all orders", "only admins")
	}
	limit, err := capped(limit, AdminOrdersLimit)
	if err != nil {
		return ListOrdersQuery{}, err
	}
	return ListOrdersQuery{actor: actor, scope: ScopeAll, limit: limit, guard: guard.NewConstructorGuard()}, nil
}

// NewCustomerOrdersQuery lists the orders of customerID, newest first. Customers may
// only list their own orders, capped at CustomerOrdersLimit; admins may list anyone's.
func NewCustomerOrdersQuery(actor kernel.Actor, customerID kernel.UUID, limit int) (ListOrdersQuery, error) {
	if err := errors.Join(actor.Validate(), customerID.Validate()); err != nil {
		return ListOrdersQuery{}, err
	}

	ceiling := AdminOrdersLimit
	switch actor.Role() {
	case kernel.RoleAdmin:
	case kernel.RoleCustomer:
		if !actor.UserID().IsEqual(customerID) {
			return ListOrdersQuery{}, errs.NewForbiddenError("list customer orders", "not the customer")
		}
		ceiling = CustomerOrdersLimit
	default:
		return ListOrdersQuery{}, errs.NewForbiddenError("list customer orders", "only admins and the customer")
	}

	limit, err := capped(limit, ceiling)
	if err != nil {
		return ListOrdersQuery{}, err
	}
	return ListOrdersQuery{
		actor:      actor,
		scope:      ScopeCustomer,
		customerID: customerID,
		limit:      limit,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (q ListOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersQueryIsNotConstructed)
}

func (q ListOrdersQuery) Actor() kernel.Actor {
	return q.actor
}

func (q ListOrdersQuery) Scope() ListScope {
	return q.scope
}

// CustomerID is set for ScopeCustomer.
func (q ListOrdersQuery) CustomerID() kernel.UUID {
	return q.customerID
}

func (q ListOrdersQuery) Limit() int {
	return q.limit
}

// capped turns an unset limit into ceiling and clamps larger ones to it.
func capped(limit, ceiling int) (int, error) {
	if limit < 0 {
		return 0, errs.NewValueIsOutOfRangeError("limit", limit, 0, ceiling)
	}
	if limit == 0 || limit > ceiling {
		return ceiling, nil
	}
	return limit, nil
}
