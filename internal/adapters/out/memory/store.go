// Package memory keeps orders and drivers in process memory. It backs the
// STORAGE=memory mode and the end-to-end tests, with the same optimistic
// locking contract as the postgres adapter.
package memory

import (
	"slices"
	"sync"
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/driver"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
)

// Store is the shared state behind every unit of work.
type Store struct {
	mu      sync.RWMutex
	orders  map[kernel.UUID]*order.Order
	drivers map[kernel.UUID]*driver.Driver
}

func NewStore() *Store {
	return &Store{
		orders:  make(map[kernel.UUID]*order.Order),
		drivers: make(map[kernel.UUID]*driver.Driver),
	}
}

func (s *Store) order(id kernel.UUID) (*order.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, false
	}
	return o.Clone(), true
}

func (s *Store) driver(id kernel.UUID) (*driver.Driver, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drivers[id]
	if !ok {
		return nil, false
	}
	return d.Clone(), true
}

func (s *Store) allOrders() map[kernel.UUID]*order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[kernel.UUID]*order.Order, len(s.orders))
	for id, o := range s.orders {
		out[id] = o.Clone()
	}
	return out
}

func (s *Store) allDrivers() map[kernel.UUID]*driver.Driver {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[kernel.UUID]*driver.Driver, len(s.drivers))
	for id, d := range s.drivers {
		out[id] = d.Clone()
	}
	return out
}

func sortOrders(orders []*order.Order) {
	slices.SortFunc(orders, func(a, b *order.Order) int {
		if c := a.CreatedAt().Compare(b.CreatedAt()); c != 0 {
			return c
		}
		return a.ID().Compare(b.ID())
	})
}

// newestFirst reverses a slice sorted by sortOrders.
func newestFirst(orders []*order.Order) []*order.Order {
	slices.Reverse(orders)
	return orders
}

func sortDrivers(drivers []*driver.Driver) {
	slices.SortFunc(drivers, func(a, b *driver.Driver) int {
		if c := a.CreatedAt().Compare(b.CreatedAt()); c != 0 {
			return c
		}
		return a.ID().Compare(b.ID())
	})
}

// sweep marks a presence sweep staged in a unit of work.
type sweep struct {
	cutoff time.Time
	ids    []kernel.UUID
}
