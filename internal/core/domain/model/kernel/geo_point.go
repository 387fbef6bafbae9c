package kernel

import (
	"errors"
	"fmt"
	"math"

	"github.com/bharathakku/delivery-backend/internal/pkg/errs"
	"github.com/bharathakku/delivery-backend/internal/pkg/guard"
)

// EarthRadiusMeters is the spherical earth radius used by the haversine metric.
const EarthRadiusMeters = 6371000.0

const (
	MinLongitude = -180.0
	MaxLongitude = 180.0
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
)

var ErrGeoPointIsNotConstructed = errs.NewValueIsRequiredError("geo point must be created via NewGeoPoint")

// GeoPoint is a WGS84 longitude/latitude pair.
type GeoPoint struct { //nolint:recvcheck //using for validation
	lng   float64
	lat   float64
	guard guard.ConstructorGuard
}

func NewGeoPoint(lng, lat float64) (GeoPoint, error) {
	p := GeoPoint{guard: guard.NewConstructorGuard()}
	if err := errors.Join(p.setLng(lng), p.setLat(lat)); err != nil {
		return GeoPoint{}, err
	}
	return p, nil
}

func (p GeoPoint) Validate() error {
	return p.guard.Validate(ErrGeoPointIsNotConstructed)
}

func (p GeoPoint) Lng() float64 {
	return p.lng
}

func (p GeoPoint) Lat() float64 {
	return p.lat
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("GeoPoint(%.6f,%.6f)", p.lng, p.lat)
}

func (p GeoPoint) IsEqual(other GeoPoint) bool {
	return p.lng == other.lng && p.lat == other.lat
}

// DistanceTo returns the haversine great-circle distance in meters.
func (p GeoPoint) DistanceTo(other GeoPoint) float64 {
	return Haversine(p.lat, p.lng, other.lat, other.lng)
}

// Haversine returns the great-circle distance in meters between two lat/lng pairs in degrees.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

func (p *GeoPoint) setLng(lng float64) error {
	if math.IsNaN(lng) || lng < MinLongitude || lng > MaxLongitude {
		return errs.NewValueIsOutOfRangeError("lng", lng, MinLongitude, MaxLongitude)
	}
	p.lng = lng
	return nil
}

func (p *GeoPoint) setLat(lat float64) error {
	if math.IsNaN(lat) || lat < MinLatitude || lat > MaxLatitude {
		return errs.NewValueIsOutOfRangeError("lat", lat, MinLatitude, MaxLatitude)
	}
	p.lat = lat
	return nil
}
