package ports

import (
	"context"
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
)

// NearestQuery selects eligible drivers around Origin. An unset VehicleType matches any vehicle.
type NearestQuery struct {
	Origin            kernel.GeoPoint
	VehicleType       kernel.VehicleType
	MinCapacityKg     float64
	MaxDistanceMeters float64
	Limit             int
}

type NearestDriver struct {
	DriverID       kernel.UUID
	Location       kernel.GeoPoint
	DistanceMeters float64
}

// GeoIndex answers nearest-available-driver queries. It mirrors the driver
// repository and may lag behind it.
type GeoIndex interface {
	UpsertLocation(ctx context.Context, driverID kernel.UUID, point kernel.GeoPoint, at time.Time) error

	SetAvailability(ctx context.Context, driverID kernel.UUID, isOnline, isActive bool) error

	SetProfile(ctx context.Context, driverID kernel.UUID, vehicleType kernel.VehicleType, capacityKg float64) error

	// FindNearest returns online, active, matching drivers within MaxDistanceMeters
	// ordered by haversine distance, then driver id. No match is an empty slice.
	FindNearest(ctx context.Context, query NearestQuery) ([]NearestDriver, error)
}

// CompareNearest orders by distance, then by driver id.
func CompareNearest(a, b NearestDriver) int {
	switch {
	case a.DistanceMeters < b.DistanceMeters:
		return -1
	case a.DistanceMeters > b.DistanceMeters:
		return 1
	default:
		return a.DriverID.Compare(b.DriverID)
	}
}
