package ports

import (
	"context"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
)

type OrderRepository interface {
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists the order only if it still has the version it was loaded at.
	// A lost race yields errs.ConflictError.
	Update(ctx context.Context, aggregate *order.Order) error

	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// ListByStatus returns orders in any of statuses, oldest first. limit <= 0 means no limit.
	ListByStatus(ctx context.Context, statuses []order.Status, limit int) ([]*order.Order, error)

	// ListActiveByDriver returns the orders a driver is currently working on, oldest first.
	ListActiveByDriver(ctx context.Context, driverID kernel.UUID) ([]*order.Order, error)

	// ListByCustomer returns the orders placed by a customer, newest first.
	ListByCustomer(ctx context.Context, customerID kernel.UUID, limit int) ([]*order.Order, error)

	// ListRecent returns all orders, newest first.
	ListRecent(ctx context.Context, limit int) ([]*order.Order, error)
}
