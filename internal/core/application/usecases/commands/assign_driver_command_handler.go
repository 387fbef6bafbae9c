package commands

import (
	"context"
	"errors"
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/driver"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
	"github.com/bharathakku/delivery-backend/internal/core/domain/services"
	"github.com/bharathakku/delivery-backend/internal/core/ports"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"
)

// AssignDriverCommandHandler performs manual assignment. The driver only has to exist;
// eligibility is the administrator's call.
type AssignDriverCommandHandler struct {
	uowFactory UoWFactory
	dispatcher services.OrderDispatcher
	announcer  *OrderAnnouncer
}

func NewAssignDriverCommandHandler(
	uowFactory UoWFactory,
	dispatcher services.OrderDispatcher,
	announcer *OrderAnnouncer,
) AssignDriverCommandHandler {
	return AssignDriverCommandHandler{
		uowFactory: uowFactory,
		dispatcher: dispatcher,
		announcer:  announcer,
	}
}

func (h *AssignDriverCommandHandler) Handle(ctx context.Context, cmd AssignDriverCommand) (*order.Order, error) {
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

	o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}

	drv, err := uow.DriverRepository().Get(ctx, cmd.DriverID())
	if err != nil {
		return nil, err
	}

	if err = h.dispatcher.Dispatch(o, drv, cmd.Actor(), cmd.Note()); err != nil {
		return nil, err
	}

	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.announcer.StatusChanged(ctx, o)
	return o, nil
}

// AutoAssignDriverCommandHandler picks the nearest online, active, matching driver
// around the pickup point and assigns the order to them.
//
// The geo index may lag behind the driver table, so each candidate is reloaded
// from the repository and re-checked before the assignment is written. The first
// one that still qualifies wins.
type AutoAssignDriverCommandHandler struct {
	uowFactory UoWFactory
	geo        ports.GeoIndex
	dispatcher services.OrderDispatcher
	announcer  *OrderAnnouncer
	timeout    time.Duration
}

func NewAutoAssignDriverCommandHandler(
	uowFactory UoWFactory,
	geo ports.GeoIndex,
	dispatcher services.OrderDispatcher,
	announcer *OrderAnnouncer,
	timeout time.Duration,
) AutoAssignDriverCommandHandler {
	return AutoAssignDriverCommandHandler{
		uowFactory: uowFactory,
		geo:        geo,
		dispatcher: dispatcher,
		announcer:  announcer,
		timeout:    timeout,
	}
}

func (h *AutoAssignDriverCommandHandler) Handle(ctx context.Context, cmd AutoAssignDriverCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if !cmd.Actor().Is(kernel.RoleAdmin, kernel.RoleSystem) {
		return nil, errs.NewForbiddenError("auto-assign order", "only admin or system")
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

	criteria, err := h.dispatcher.Criteria(o)
	if err != nil {
		return nil, err
	}

	nearest, err := h.findNearest(ctx, criteria)
	if err != nil {
		return nil, err
	}

	candidates := make([]services.Candidate, 0, len(nearest))
	for _, n := range nearest {
		candidates = append(candidates, services.Candidate{DriverID: n.DriverID, DistanceMeters: n.DistanceMeters})
	}

	ranked, err := h.dispatcher.Rank(o, candidates)
	if err != nil {
		return nil, err
	}

	drv, err := h.firstQualified(ctx, uow.DriverRepository(), o, ranked, criteria)
	if err != nil {
		return nil, err
	}

	if err = h.dispatcher.Dispatch(o, drv, cmd.Actor(), ""); err != nil {
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

func (h *AutoAssignDriverCommandHandler) firstQualified(
	ctx context.Context,
	driverRepo ports.DriverRepository,
	o *order.Order,
	ranked []services.Candidate,
	criteria services.SearchCriteria,
) (*driver.Driver, error) {
	for _, c := range ranked {
		drv, err := driverRepo.Get(ctx, c.DriverID)
		switch {
		case errors.Is(err, errs.ErrObjectNotFound):
			continue
		case err != nil:
			return nil, err
		}
		if h.dispatcher.Qualifies(drv, criteria) {
			return drv, nil
		}
	}
	return nil, h.dispatcher.NoEligibleDriver(o)
}

func (h *AutoAssignDriverCommandHandler) findNearest(
	ctx context.Context,
	criteria services.SearchCriteria,
) ([]ports.NearestDriver, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	return h.geo.FindNearest(ctx, ports.NearestQuery{
		Origin:            criteria.Origin,
		VehicleType:       criteria.VehicleType,
		MinCapacityKg:     criteria.MinCapacityKg,
		MaxDistanceMeters: criteria.MaxDistanceMeters,
		Limit:             criteria.Limit,
	})
}
