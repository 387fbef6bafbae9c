package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/driver"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
	"github.com/bharathakku/delivery-backend/internal/core/ports"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"
)

var clock = func() time.Time { return time.Now().UTC() }

// UpdateDriverLocationCommandHandler stores a heartbeat, mirrors it into the geo
// index and relays it to the rooms of the driver's active orders.
type UpdateDriverLocationCommandHandler struct {
	uowFactory UoWFactory
	geo        ports.GeoIndex
	announcer  *OrderAnnouncer
	logger     *slog.Logger
}

func NewUpdateDriverLocationCommandHandler(
	uowFactory UoWFactory,
	geo ports.GeoIndex,
	announcer *OrderAnnouncer,
	logger *slog.Logger,
) UpdateDriverLocationCommandHandler {
	return UpdateDriverLocationCommandHandler{
		uowFactory: uowFactory,
		geo:        geo,
		announcer:  announcer,
		logger:     orDefault(logger),
	}
}

func (h *UpdateDriverLocationCommandHandler) Handle(ctx context.Context, cmd UpdateDriverLocationCommand) (*driver.Driver, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var (
		drv    *driver.Driver
		active []*order.Order
	)
	at := clock()
	err := retryOnConflict(func() error {
		var err error
		drv, active, err = h.save(ctx, cmd, at)
		return err
	})
	if err != nil {
		return nil, err
	}

	mirrorDriver(ctx, h.geo, h.logger, drv)
	h.announcer.DriverMoved(ctx, drv.ID(), cmd.Point(), cmd.Heading(), cmd.Speed(), at, active)
	return drv, nil
}

func (h *UpdateDriverLocationCommandHandler) save(
	ctx context.Context,
	cmd UpdateDriverLocationCommand,
	at time.Time,
) (*driver.Driver, []*order.Order, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	driverRepo := uow.DriverRepository()
	drv, err := driverOf(ctx, driverRepo, cmd.Actor())
	if err != nil {
		return nil, nil, err
	}

	if err = drv.Heartbeat(cmd.Point(), at); err != nil {
		return nil, nil, err
	}

	if err = driverRepo.Update(ctx, drv); err != nil {
		return nil, nil, err
	}

	active, err := uow.OrderRepository().ListActiveByDriver(ctx, drv.ID())
	if err != nil {
		return nil, nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return drv, active, nil
}

type SetDriverOnlineCommandHandler struct {
	uowFactory DriverUoWFactory
	geo        ports.GeoIndex
	logger     *slog.Logger
}

func NewSetDriverOnlineCommandHandler(
	uowFactory DriverUoWFactory,
	geo ports.GeoIndex,
	logger *slog.Logger,
) SetDriverOnlineCommandHandler {
	return SetDriverOnlineCommandHandler{uowFactory: uowFactory, geo: geo, logger: orDefault(logger)}
}

func (h *SetDriverOnlineCommandHandler) Handle(ctx context.Context, cmd SetDriverOnlineCommand) (*driver.Driver, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return driverMutation(ctx, h.uowFactory, h.geo, h.logger,
		func(repo ports.DriverRepository) (*driver.Driver, error) {
			return driverOf(ctx, repo, cmd.Actor())
		},
		func(drv *driver.Driver) error {
			return drv.SetOnline(cmd.Online(), clock())
		},
	)
}

type SetDriverActiveCommandHandler struct {
	uowFactory DriverUoWFactory
	geo        ports.GeoIndex
	logger     *slog.Logger
}

func NewSetDriverActiveCommandHandler(
	uowFactory DriverUoWFactory,
	geo ports.GeoIndex,
	logger *slog.Logger,
) SetDriverActiveCommandHandler {
	return SetDriverActiveCommandHandler{uowFactory: uowFactory, geo: geo, logger: orDefault(logger)}
}

func (h *SetDriverActiveCommandHandler) Handle(ctx context.Context, cmd SetDriverActiveCommand) (*driver.Driver, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return driverMutation(ctx, h.uowFactory, h.geo, h.logger,
		func(repo ports.DriverRepository) (*driver.Driver, error) {
			return repo.Get(ctx, cmd.DriverID())
		},
		func(drv *driver.Driver) error {
			return drv.SetActive(cmd.Active())
		},
	)
}

type UpsertDriverProfileCommandHandler struct {
	uowFactory DriverUoWFactory
	geo        ports.GeoIndex
	logger     *slog.Logger
}

func NewUpsertDriverProfileCommandHandler(
	uowFactory DriverUoWFactory,
	geo ports.GeoIndex,
	logger *slog.Logger,
) UpsertDriverProfileCommandHandler {
	return UpsertDriverProfileCommandHandler{uowFactory: uowFactory, geo: geo, logger: orDefault(logger)}
}

func (h *UpsertDriverProfileCommandHandler) Handle(ctx context.Context, cmd UpsertDriverProfileCommand) (*driver.Driver, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var drv *driver.Driver
	err := retryOnConflict(func() error {
		var err error
		drv, err = h.save(ctx, cmd)
		return err
	})
	if err != nil {
		return nil, err
	}

	mirrorDriver(ctx, h.geo, h.logger, drv)
	return drv, nil
}

func (h *UpsertDriverProfileCommandHandler) save(ctx context.Context, cmd UpsertDriverProfileCommand) (*driver.Driver, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	driverRepo := uow.DriverRepository()
	drv, err := driverRepo.GetByUserID(ctx, cmd.Actor().UserID())
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		drv, err = driver.NewDriver(kernel.NewUUID(), cmd.Actor().UserID(), cmd.VehicleType(), cmd.CapacityKg())
		if err != nil {
			return nil, err
		}
		if err = driverRepo.Add(ctx, drv); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if err = drv.UpdateProfile(cmd.VehicleType(), cmd.CapacityKg()); err != nil {
			return nil, err
		}
		if err = driverRepo.Update(ctx, drv); err != nil {
			return nil, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return drv, nil
}

// MarkStaleDriversOfflineCommandHandler is the presence sweep: every online driver
// without a heartbeat for staleAfter goes offline. Reruns are harmless.
type MarkStaleDriversOfflineCommandHandler struct {
	uowFactory DriverUoWFactory
	geo        ports.GeoIndex
	staleAfter time.Duration
	logger     *slog.Logger
}

func NewMarkStaleDriversOfflineCommandHandler(
	uowFactory DriverUoWFactory,
	geo ports.GeoIndex,
	staleAfter time.Duration,
	logger *slog.Logger,
) MarkStaleDriversOfflineCommandHandler {
	return MarkStaleDriversOfflineCommandHandler{
		uowFactory: uowFactory,
		geo:        geo,
		staleAfter: staleAfter,
		logger:     orDefault(logger),
	}
}

// Handle returns the ids of the drivers it took offline.
func (h *MarkStaleDriversOfflineCommandHandler) Handle(ctx context.Context) ([]kernel.UUID, error) {
	if h.staleAfter <= 0 {
		return nil, errs.NewValueIsInvalidError("staleAfter")
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	driverRepo := uow.DriverRepository()
	ids, err := driverRepo.MarkStaleOffline(ctx, clock().Add(-h.staleAfter))
	if err != nil {
		return nil, err
	}

	swept := make([]*driver.Driver, 0, len(ids))
	for _, id := range ids {
		drv, err := driverRepo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		swept = append(swept, drv)
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	for _, drv := range swept {
		if err := h.geo.SetAvailability(ctx, drv.ID(), false, drv.IsActive()); err != nil {
			h.logger.Warn("geo index availability update failed", "driver_id", drv.ID().String(), "error", err)
		}
	}
	return ids, nil
}

// WarmGeoIndexCommandHandler copies every stored driver into the geo index.
// It runs at startup so that an empty index does not hide available drivers.
type WarmGeoIndexCommandHandler struct {
	uowFactory DriverUoWFactory
	geo        ports.GeoIndex
	logger     *slog.Logger
}

func NewWarmGeoIndexCommandHandler(
	uowFactory DriverUoWFactory,
	geo ports.GeoIndex,
	logger *slog.Logger,
) WarmGeoIndexCommandHandler {
	return WarmGeoIndexCommandHandler{uowFactory: uowFactory, geo: geo, logger: orDefault(logger)}
}

func (h *WarmGeoIndexCommandHandler) Handle(ctx context.Context) (int, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	drivers, err := uow.DriverRepository().List(ctx)
	if err != nil {
		return 0, err
	}

	for _, drv := range drivers {
		if err = syncDriver(ctx, h.geo, drv); err != nil {
			return 0, err
		}
	}
	return len(drivers), nil
}

func driverMutation(
	ctx context.Context,
	uowFactory DriverUoWFactory,
	geo ports.GeoIndex,
	logger *slog.Logger,
	load func(repo ports.DriverRepository) (*driver.Driver, error),
	change func(drv *driver.Driver) error,
) (*driver.Driver, error) {
	var drv *driver.Driver
	err := retryOnConflict(func() error {
		uow := uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return err
		}

		defer func() {
			_ = uow.Rollback(ctx)
		}()

		driverRepo := uow.DriverRepository()
		loaded, err := load(driverRepo)
		if err != nil {
			return err
		}

		if err = change(loaded); err != nil {
			return err
		}

		if err = driverRepo.Update(ctx, loaded); err != nil {
			return err
		}

		if err = uow.Commit(ctx); err != nil {
			return err
		}
		drv = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	mirrorDriver(ctx, geo, logger, drv)
	return drv, nil
}

// driverWriteAttempts bounds how often a driver write is replayed after losing
// a version race with another writer.
const driverWriteAttempts = 3

// retryOnConflict reruns fn while it fails with a version conflict. fn must load
// the driver again on each run.
func retryOnConflict(fn func() error) error {
	var err error
	for range driverWriteAttempts {
		if err = fn(); !errors.Is(err, errs.ErrConflict) {
			return err
		}
	}
	return err
}

// driverOf resolves the driver record behind a driver actor.
func driverOf(ctx context.Context, repo ports.DriverRepository, actor kernel.Actor) (*driver.Driver, error) {
	if actor.Role() != kernel.RoleDriver {
		return nil, errs.NewForbiddenError("act as driver", "only drivers")
	}
	if id, ok := actor.DriverID(); ok {
		return repo.Get(ctx, id)
	}
	return repo.GetByUserID(ctx, actor.UserID())
}

// mirrorDriver pushes committed driver state to the geo index. The repository
// stays authoritative, so failures are logged and not returned.
func mirrorDriver(ctx context.Context, geo ports.GeoIndex, logger *slog.Logger, drv *driver.Driver) {
	if geo == nil {
		return
	}
	if err := syncDriver(ctx, geo, drv); err != nil {
		logger.Warn("geo index update failed", "driver_id", drv.ID().String(), "error", err)
	}
}

func syncDriver(ctx context.Context, geo ports.GeoIndex, drv *driver.Driver) error {
	err := errors.Join(
		geo.SetProfile(ctx, drv.ID(), drv.VehicleType(), drv.CapacityKg()),
		geo.SetAvailability(ctx, drv.ID(), drv.IsOnline(), drv.IsActive()),
	)
	if point, ok := drv.Location(); ok {
		err = errors.Join(err, geo.UpsertLocation(ctx, drv.ID(), point, drv.LastSeenAt()))
	}
	return err
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
