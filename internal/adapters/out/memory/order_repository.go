package memory

import (
	"context"
	"slices"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"
)

type OrderRepository struct {
	uow *UnitOfWork
}

func (r *OrderRepository) Add(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	u := r.uow
	u.ensureStaging()
	if _, exists := u.viewOrder(aggregate.ID()); exists {
		return errs.NewConflictError("order", aggregate.ID(), aggregate.Version())
	}

	u.orders[aggregate.ID()] = stagedOrder{
		aggregate: aggregate.Clone(),
		expected:  aggregate.Version(),
		isNew:     true,
	}
	return u.autoCommit()
}

func (r *OrderRepository) Update(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	u := r.uow
	u.ensureStaging()
	current, exists := u.viewOrder(aggregate.ID())
	if !exists {
		return errs.NewObjectNotFoundError("order", aggregate.ID())
	}
	expected := aggregate.Version()
	if current.Version() != expected {
		return errs.NewConflictError("order", aggregate.ID(), expected)
	}

	next := aggregate.Clone()
	next.SetVersion(expected + 1)

	staged, ok := u.orders[aggregate.ID()]
	if !ok {
		staged = stagedOrder{expected: expected}
	}
	staged.aggregate = next
	u.orders[aggregate.ID()] = staged

	if err := u.autoCommit(); err != nil {
		return err
	}
	aggregate.SetVersion(expected + 1)
	return nil
}

func (r *OrderRepository) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	o, ok := r.uow.viewOrder(id)
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return o, nil
}

func (r *OrderRepository) ListByStatus(_ context.Context, statuses []order.Status, limit int) ([]*order.Order, error) {
	out := make([]*order.Order, 0)
	for _, o := range r.uow.viewOrders() {
		if !slices.Contains(statuses, o.Status()) {
			continue
		}
		out = append(out, o)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *OrderRepository) ListActiveByDriver(_ context.Context, driverID kernel.UUID) ([]*order.Order, error) {
	out := make([]*order.Order, 0)
	for _, o := range r.uow.viewOrders() {
		id, ok := o.DriverID()
		if ok && id.IsEqual(driverID) && o.Status().IsActive() {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *OrderRepository) ListByCustomer(_ context.Context, customerID kernel.UUID, limit int) ([]*order.Order, error) {
	out := make([]*order.Order, 0)
	for _, o := range newestFirst(r.uow.viewOrders()) {
		if !o.CustomerID().IsEqual(customerID) {
			continue
		}
		out = append(out, o)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *OrderRepository) ListRecent(_ context.Context, limit int) ([]*order.Order, error) {
	out := newestFirst(r.uow.viewOrders())
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
