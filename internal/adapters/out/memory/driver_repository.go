package memory

import (
	"context"
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/driver"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"
)

type DriverRepository struct {
	uow *UnitOfWork
}

func (r *DriverRepository) Add(_ context.Context, aggregate *driver.Driver) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	u := r.uow
	u.ensureStaging()
	for _, d := range u.viewDrivers() {
		if d.ID().IsEqual(aggregate.ID()) || d.UserID().IsEqual(aggregate.UserID()) {
			return errs.NewConflictError("driver", aggregate.ID(), 0)
		}
	}

	u.drivers[aggregate.ID()] = stagedDriver{
		aggregate: aggregate.Clone(),
		expected:  aggregate.Version(),
		isNew:     true,
	}
	return u.autoCommit()
}

func (r *DriverRepository) Update(_ context.Context, aggregate *driver.Driver) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	u := r.uow
	u.ensureStaging()
	current, exists := u.viewDriver(aggregate.ID())
	if !exists {
		return errs.NewObjectNotFoundError("driver", aggregate.ID())
	}
	expected := aggregate.Version()
	if current.Version() != expected {
		return errs.NewConflictError("driver", aggregate.ID(), expected)
	}

	next := aggregate.Clone()
	next.SetVersion(expected + 1)

	staged, ok := u.drivers[aggregate.ID()]
	if !ok {
		staged = stagedDriver{expected: expected}
	}
	staged.aggregate = next
	u.drivers[aggregate.ID()] = staged

	if err := u.autoCommit(); err != nil {
		return err
	}
	aggregate.SetVersion(expected + 1)
	return nil
}

func (r *DriverRepository) Get(_ context.Context, id kernel.UUID) (*driver.Driver, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	d, ok := r.uow.viewDriver(id)
	if !ok {
		return nil, errs.NewObjectNotFoundError("driver", id.String())
	}
	return d, nil
}

func (r *DriverRepository) GetByUserID(_ context.Context, userID kernel.UUID) (*driver.Driver, error) {
	for _, d := range r.uow.viewDrivers() {
		if d.UserID().IsEqual(userID) {
			return d, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("driver.userId", userID.String())
}

func (r *DriverRepository) List(_ context.Context) ([]*driver.Driver, error) {
	return r.uow.viewDrivers(), nil
}

func (r *DriverRepository) MarkStaleOffline(_ context.Context, cutoff time.Time) ([]kernel.UUID, error) {
	ids := make([]kernel.UUID, 0)
	for _, d := range r.uow.viewDrivers() {
		if d.IsStale(cutoff) {
			ids = append(ids, d.ID())
		}
	}
	if len(ids) == 0 {
		return ids, nil
	}

	r.uow.stageSweep(cutoff, ids)
	return ids, r.uow.autoCommit()
}
