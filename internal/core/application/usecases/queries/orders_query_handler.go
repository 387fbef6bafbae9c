package queries

import (
	"context"
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
	"github.com/bharathakku/delivery-backend/internal/core/ports"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"
)

// GetOrderQueryHandler answers order reads. Only the owner, the assigned driver,
// admins and the system may see an order.
//
// Example:
//
//	handler := NewGetOrderQueryHandler(uowFactory, services.NewFareCalculator())
//	query, _ := NewGetOrderQuery(orderID, actor)
//
//	tracking, err := handler.Tracking(ctx, query)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("order is %s, %d steps so far\n", tracking.Status, len(tracking.Timeline))
type GetOrderQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
	fares      order.FareCalculator
}

func NewGetOrderQueryHandler(uowFactory ports.UnitOfWorkFactory, fares order.FareCalculator) GetOrderQueryHandler {
	return GetOrderQueryHandler{uowFactory: uowFactory, fares: fares}
}

// Handle returns the order if the actor may view it.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (*order.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return h.load(ctx, h.uowFactory.Create(), query)
}

// FareBreakdown returns the stored breakdown, or the one implied by the planned
// distance when no actual distance has been recorded yet.
func (h GetOrderQueryHandler) FareBreakdown(ctx context.Context, query GetOrderQuery) (kernel.FareBreakdown, error) {
	if err := query.Validate(); err != nil {
		return kernel.FareBreakdown{}, err
	}

	o, err := h.load(ctx, h.uowFactory.Create(), query)
	if err != nil {
		return kernel.FareBreakdown{}, err
	}
	if fare, ok := o.FareBreakdown(); ok {
		return fare, nil
	}
	return h.fares.Calculate(o.DistanceKm(), o.Price(), o.DistanceKm())
}

// DriverPosition is the last known position of the driver working on an order.
type DriverPosition struct {
	DriverID   kernel.UUID
	Location   *kernel.GeoPoint
	LastSeenAt time.Time
	IsOnline   bool
}

type OrderTracking struct {
	OrderID  kernel.UUID
	Status   order.Status
	Timeline []order.HistoryEntry
	Driver   *DriverPosition
}

// Tracking returns the status timeline and, once assigned, where the driver is.
func (h GetOrderQueryHandler) Tracking(ctx context.Context, query GetOrderQuery) (OrderTracking, error) {
	if err := query.Validate(); err != nil {
		return OrderTracking{}, err
	}

	uow := h.uowFactory.Create()
	o, err := h.load(ctx, uow, query)
	if err != nil {
		return OrderTracking{}, err
	}

	tracking := OrderTracking{
		OrderID:  o.ID(),
		Status:   o.Status(),
		Timeline: o.History(),
	}

	driverID, ok := o.DriverID()
	if !ok {
		return tracking, nil
	}

	drv, err := uow.DriverRepository().Get(ctx, driverID)
	if err != nil {
		return OrderTracking{}, err
	}
	position := &DriverPosition{
		DriverID:   drv.ID(),
		LastSeenAt: drv.LastSeenAt(),
		IsOnline:   drv.IsOnline(),
	}
	if loc, has := drv.Location(); has {
		position.Location = &loc
	}
	tracking.Driver = position
	return tracking, nil
}

func (h GetOrderQueryHandler) load(ctx context.Context, uow ports.UnitOfWork, query GetOrderQuery) (*order.Order, error) {
	o, err := uow.OrderRepository().Get(ctx, query.OrderID())
	if err != nil {
		return nil, err
	}
	if !o.CanView(query.Actor()) {
		return nil, errs.NewForbiddenError("view order", "not a participant")
	}
	return o, nil
}

type ListOrdersQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewListOrdersQueryHandler(uowFactory ports.UnitOfWorkFactory) ListOrdersQueryHandler {
	return ListOrdersQueryHandler{uowFactory: uowFactory}
}

// Handle lists orders for the query's scope. The board is oldest first; the
// history listings are newest first.
func (h ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]*order.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	repo := h.uowFactory.Create().OrderRepository()
	actor := query.Actor()

	switch query.Scope() {
	case ScopeAll:
		return repo.ListRecent(ctx, query.Limit())
	case ScopeCustomer:
		return repo.ListByCustomer(ctx, query.CustomerID(), query.Limit())
	}

	if actor.Role() == kernel.RoleAdmin {
		return repo.ListByStatus(ctx, unfinished(), query.Limit())
	}

	driverID, ok := actor.DriverID()
	if !ok {
		return []*order.Order{}, nil
	}
	orders, err := repo.ListActiveByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if query.Limit() > 0 && len(orders) > query.Limit() {
		orders = orders[:query.Limit()]
	}
	return orders, nil
}

func unfinished() []order.Status {
	out := make([]order.Status, 0, len(order.Statuses()))
	for _, s := range order.Statuses() {
		if !s.IsTerminal() {
			out = append(out, s)
		}
	}
	return out
}
