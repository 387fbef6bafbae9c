package memory

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/driver"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
	"github.com/bharathakku/delivery-backend/internal/core/ports"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"
)

var ErrNoTransaction = errors.New("no active transaction")

type UnitOfWorkFactory struct {
	store *Store
}

func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

type stagedOrder struct {
	aggregate *order.Order
	expected  int
	isNew     bool
}

type stagedDriver struct {
	aggregate *driver.Driver
	expected  int
	isNew     bool
}

// UnitOfWork stages writes and applies them atomically on Commit. Outside of a
// transaction every write is applied immediately. An instance must not be shared
// between goroutines.
type UnitOfWork struct {
	store *Store

	active  bool
	orders  map[kernel.UUID]stagedOrder
	drivers map[kernel.UUID]stagedDriver
	sweeps  []sweep
}

func (u *UnitOfWork) Begin(_ context.Context) error {
	if u.active {
		return nil
	}
	u.reset()
	u.active = true
	return nil
}

func (u *UnitOfWork) Commit(_ context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}
	defer u.reset()
	return u.flush()
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}
	u.reset()
	return nil
}

func (u *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &OrderRepository{uow: u}
}

func (u *UnitOfWork) DriverRepository() ports.DriverRepository {
	return &DriverRepository{uow: u}
}

func (u *UnitOfWork) reset() {
	u.active = false
	u.orders = make(map[kernel.UUID]stagedOrder)
	u.drivers = make(map[kernel.UUID]stagedDriver)
	u.sweeps = nil
}

// autoCommit applies staged writes right away when no transaction is open.
func (u *UnitOfWork) autoCommit() error {
	if u.active {
		return nil
	}
	defer u.reset()
	return u.flush()
}

func (u *UnitOfWork) flush() error {
	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := u.check(); err != nil {
		return err
	}

	for id, staged := range u.orders {
		s.orders[id] = staged.aggregate.Clone()
	}
	for id, staged := range u.drivers {
		s.drivers[id] = staged.aggregate.Clone()
	}
	for _, sw := range u.sweeps {
		for _, id := range sw.ids {
			if d, ok := s.drivers[id]; ok && d.IsStale(sw.cutoff) {
				d.MarkOffline()
				d.SetVersion(d.Version() + 1)
			}
		}
	}
	return nil
}

// check runs under the store write lock.
func (u *UnitOfWork) check() error {
	s := u.store
	for id, staged := range u.orders {
		stored, exists := s.orders[id]
		switch {
		case staged.isNew && exists:
			return errs.NewConflictError("order", id, staged.expected)
		case !staged.isNew && !exists:
			return errs.NewObjectNotFoundError("order", id)
		case !staged.isNew && stored.Version() != staged.expected:
			return errs.NewConflictError("order", id, staged.expected)
		}
	}
	for id, staged := range u.drivers {
		stored, exists := s.drivers[id]
		switch {
		case staged.isNew && exists:
			return errs.NewConflictError("driver", id, 0)
		case !staged.isNew && !exists:
			return errs.NewObjectNotFoundError("driver", id)
		case !staged.isNew && stored.Version() != staged.expected:
			return errs.NewConflictError("driver", id, staged.expected)
		}
		if staged.isNew {
			for _, other := range s.drivers {
				if other.UserID().IsEqual(staged.aggregate.UserID()) {
					return errs.NewConflictError("driver.userId", staged.aggregate.UserID(), 0)
				}
			}
		}
	}
	return nil
}

func (u *UnitOfWork) ensureStaging() {
	if u.orders == nil {
		u.reset()
	}
}

func (u *UnitOfWork) viewOrder(id kernel.UUID) (*order.Order, bool) {
	if staged, ok := u.orders[id]; ok {
		return staged.aggregate.Clone(), true
	}
	return u.store.order(id)
}

func (u *UnitOfWork) viewOrders() []*order.Order {
	all := u.store.allOrders()
	for id, staged := range u.orders {
		all[id] = staged.aggregate.Clone()
	}
	out := make([]*order.Order, 0, len(all))
	for _, o := range all {
		out = append(out, o)
	}
	sortOrders(out)
	return out
}

func (u *UnitOfWork) viewDriver(id kernel.UUID) (*driver.Driver, bool) {
	d, ok := u.drivers[id]
	var out *driver.Driver
	if ok {
		out = d.aggregate.Clone()
	} else {
		stored, found := u.store.driver(id)
		if !found {
			return nil, false
		}
		out = stored
	}
	u.applySweeps(out)
	return out, true
}

func (u *UnitOfWork) viewDrivers() []*driver.Driver {
	all := u.store.allDrivers()
	for id, staged := range u.drivers {
		all[id] = staged.aggregate.Clone()
	}
	out := make([]*driver.Driver, 0, len(all))
	for _, d := range all {
		u.applySweeps(d)
		out = append(out, d)
	}
	sortDrivers(out)
	return out
}

func (u *UnitOfWork) applySweeps(d *driver.Driver) {
	for _, sw := range u.sweeps {
		if slices.ContainsFunc(sw.ids, d.ID().IsEqual) && d.IsStale(sw.cutoff) {
			d.MarkOffline()
		}
	}
}

func (u *UnitOfWork) stageSweep(cutoff time.Time, ids []kernel.UUID) {
	u.ensureStaging()
	u.sweeps = append(u.sweeps, sweep{cutoff: cutoff, ids: slices.Clone(ids)})
}
