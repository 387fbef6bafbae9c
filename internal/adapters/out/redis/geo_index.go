package redis

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const (
	locationsKey = "drivers:locations"
	statePrefix  = "drivers:state:"

	fieldOnline   = "online"
	fieldActive   = "active"
	fieldVehicle  = "vehicle"
	fieldCapacity = "capacity"
	fieldSeenAt   = "seen_at"
	fieldLng      = "lng"
	fieldLat      = "lat"
)

// Redis measures with a slightly larger earth radius than the domain metric and
// stores geohash-rounded coordinates, so the search circle is widened and the
// results are re-filtered against the exact point kept in the state hash.
const (
	searchMargin      = 1.01
	searchSlackMeters = 1.0
)

var _ ports.GeoIndex = (*GeoIndex)(nil)

// GeoIndex stores positions in a GEO set and per-driver eligibility in a hash.
// Eligibility filtering and the final ordering happen in process.
type GeoIndex struct {
	client redis.UniversalClient
}

func NewGeoIndex(client redis.UniversalClient) *GeoIndex {
	return &GeoIndex{client: client}
}

func (g *GeoIndex) UpsertLocation(ctx context.Context, driverID kernel.UUID, point kernel.GeoPoint, at time.Time) error {
	if err := point.Validate(); err != nil {
		return err
	}

	_, err := g.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.GeoAdd(ctx, locationsKey, &redis.GeoLocation{
			Name:      driverID.String(),
			Longitude: point.Lng(),
			Latitude:  point.Lat(),
		})
		pipe.HSet(ctx, stateKey(driverID),
			fieldSeenAt, at.UnixMilli(),
			fieldLng, strconv.FormatFloat(point.Lng(), 'f', -1, 64),
			fieldLat, strconv.FormatFloat(point.Lat(), 'f', -1, 64),
		)
		return nil
	})
	return err
}

func (g *GeoIndex) SetAvailability(ctx context.Context, driverID kernel.UUID, isOnline, isActive bool) error {
	return g.client.HSet(ctx, stateKey(driverID),
		fieldOnline, strconv.FormatBool(isOnline),
		fieldActive, strconv.FormatBool(isActive),
	).Err()
}

func (g *GeoIndex) SetProfile(ctx context.Context, driverID kernel.UUID, vehicleType kernel.VehicleType, capacityKg float64) error {
	return g.client.HSet(ctx, stateKey(driverID),
		fieldVehicle, string(vehicleType),
		fieldCapacity, strconv.FormatFloat(capacityKg, 'f', -1, 64),
	).Err()
}

func (g *GeoIndex) FindNearest(ctx context.Context, q ports.NearestQuery) ([]ports.NearestDriver, error) {
	if err := q.Origin.Validate(); err != nil {
		return nil, err
	}

	radius := q.MaxDistanceMeters
	if radius <= 0 {
		radius = math.Pi * kernel.EarthRadiusMeters
	}

	hits, err := g.client.GeoSearchLocation(ctx, locationsKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  q.Origin.Lng(),
			Latitude:   q.Origin.Lat(),
			Radius:     radius*searchMargin + searchSlackMeters,
			RadiusUnit: "m",
			Sort:       "ASC",
		},
		WithCoord: true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("geo search: %w", err)
	}
	if len(hits) == 0 {
		return []ports.NearestDriver{}, nil
	}

	states := make([]*redis.MapStringStringCmd, len(hits))
	_, err = g.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, hit := range hits {
			states[i] = pipe.HGetAll(ctx, statePrefix+hit.Name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load driver state: %w", err)
	}

	out := make([]ports.NearestDriver, 0, len(hits))
	for i, hit := range hits {
		state := parseState(states[i].Val())
		if !state.matches(q) {
			continue
		}
		id, err := kernel.UUIDFromString(hit.Name)
		if err != nil {
			continue
		}
		point, ok := state.location()
		if !ok {
			point, err = kernel.NewGeoPoint(hit.Longitude, hit.Latitude)
			if err != nil {
				continue
			}
		}
		d := q.Origin.DistanceTo(point)
		if q.MaxDistanceMeters > 0 && d > q.MaxDistanceMeters {
			continue
		}
		out = append(out, ports.NearestDriver{DriverID: id, Location: point, DistanceMeters: d})
	}

	slices.SortFunc(out, ports.CompareNearest)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func stateKey(id kernel.UUID) string {
	return statePrefix + id.String()
}

type driverState struct {
	isOnline    bool
	isActive    bool
	vehicleType kernel.VehicleType
	capacityKg  float64
	lng, lat    string
}

func parseState(fields map[string]string) driverState {
	s := driverState{
		vehicleType: kernel.VehicleType(fields[fieldVehicle]),
		lng:         fields[fieldLng],
		lat:         fields[fieldLat],
	}
	s.isOnline, _ = strconv.ParseBool(fields[fieldOnline])
	s.isActive, _ = strconv.ParseBool(fields[fieldActive])
	s.capacityKg, _ = strconv.ParseFloat(fields[fieldCapacity], 64)
	return s
}

// location is the exact last point, absent for entries written before it was stored.
func (s driverState) location() (kernel.GeoPoint, bool) {
	lng, err := strconv.ParseFloat(s.lng, 64)
	if err != nil {
		return kernel.GeoPoint{}, false
	}
	lat, err := strconv.ParseFloat(s.lat, 64)
	if err != nil {
		return kernel.GeoPoint{}, false
	}
	p, err := kernel.NewGeoPoint(lng, lat)
	if err != nil {
		return kernel.GeoPoint{}, false
	}
	return p, true
}

func (s driverState) matches(q ports.NearestQuery) bool {
	if !s.isOnline || !s.isActive {
		return false
	}
	if q.VehicleType != kernel.VehicleUnknown && s.vehicleType != q.VehicleType {
		return false
	}
	return s.capacityKg >= q.MinCapacityKg
}
