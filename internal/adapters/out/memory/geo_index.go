package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/ports"
)

type geoEntry struct {
	point       *kernel.GeoPoint
	at          time.Time
	isOnline    bool
	isActive    bool
	vehicleType kernel.VehicleType
	capacityKg  float64
}

// GeoIndex answers nearest-driver queries with a linear haversine scan.
type GeoIndex struct {
	mu      sync.RWMutex
	entries map[kernel.UUID]*geoEntry
}

func NewGeoIndex() *GeoIndex {
	return &GeoIndex{entries: make(map[kernel.UUID]*geoEntry)}
}

func (g *GeoIndex) UpsertLocation(_ context.Context, driverID kernel.UUID, point kernel.GeoPoint, at time.Time) error {
	if err := point.Validate(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	e := g.entry(driverID)
	e.point = &point
	e.at = at
	return nil
}

func (g *GeoIndex) SetAvailability(_ context.Context, driverID kernel.UUID, isOnline, isActive bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	e := g.entry(driverID)
	e.isOnline = isOnline
	e.isActive = isActive
	return nil
}

func (g *GeoIndex) SetProfile(_ context.Context, driverID kernel.UUID, vehicleType kernel.VehicleType, capacityKg float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	e := g.entry(driverID)
	e.vehicleType = vehicleType
	e.capacityKg = capacityKg
	return nil
}

func (g *GeoIndex) FindNearest(_ context.Context, q ports.NearestQuery) ([]ports.NearestDriver, error) {
	if err := q.Origin.Validate(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	out := make([]ports.NearestDriver, 0)
	for id, e := range g.entries {
		if !e.matches(q) {
			continue
		}
		d := q.Origin.DistanceTo(*e.point)
		if q.MaxDistanceMeters > 0 && d > q.MaxDistanceMeters {
			continue
		}
		out = append(out, ports.NearestDriver{DriverID: id, Location: *e.point, DistanceMeters: d})
	}
	g.mu.RUnlock()

	slices.SortFunc(out, ports.CompareNearest)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (g *GeoIndex) entry(id kernel.UUID) *geoEntry {
	e, ok := g.entries[id]
	if !ok {
		e = &geoEntry{}
		g.entries[id] = e
	}
	return e
}

func (e *geoEntry) matches(q ports.NearestQuery) bool {
	if e.point == nil || !e.isOnline || !e.isActive {
		return false
	}
	if q.VehicleType != kernel.VehicleUnknown && e.vehicleType != q.VehicleType {
		return false
	}
	return e.capacityKg >= q.MinCapacityKg
}
