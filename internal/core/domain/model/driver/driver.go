package driver

import (
	"errors"
	"math"
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"
)

// DefaultCapacityKg applies when a profile does not state a capacity.
const DefaultCapacityKg = 50.0

var ErrDriverIsNotConstructed = errors.New("Driver must be created via NewDriver constructor")

// Snapshot is the persistent state of a driver.
type Snapshot struct {
	ID            kernel.UUID
	UserID        kernel.UUID
	VehicleType   kernel.VehicleType
	CapacityKg    float64
	IsOnline      bool
	IsActive      bool
	ManualOffline bool
	Location      *kernel.GeoPoint
	LastSeenAt    time.Time
	CreatedAt     time.Time
	Version       int
}

type Driver struct {
	id     kernel.UUID
	userID kernel.UUID

	vehicleType kernel.VehicleType
	capacityKg  float64

	isOnline      bool
	isActive      bool
	manualOffline bool

	location   *kernel.GeoPoint
	lastSeenAt time.Time
	createdAt  time.Time
	version    int

	isConstructed bool
}

// NewDriver creates an active, offline driver without a known location.
// A zero capacity falls back to DefaultCapacityKg.
func NewDriver(id, userID kernel.UUID, vehicleType kernel.VehicleType, capacityKg float64) (*Driver, error) {
	d := &Driver{
		isActive:      true,
		createdAt:     time.Now().UTC(),
		isConstructed: true,
	}

	if err := errors.Join(
		d.setID(id),
		d.setUserID(userID),
		d.setVehicleType(vehicleType),
		d.setCapacity(capacityKg),
	); err != nil {
		return nil, err
	}

	return d, nil
}

func RestoreDriver(s Snapshot) (*Driver, error) {
	if err := errors.Join(s.ID.Validate(), s.UserID.Validate()); err != nil {
		return nil, err
	}
	d := &Driver{
		id:            s.ID,
		userID:        s.UserID,
		vehicleType:   s.VehicleType,
		capacityKg:    s.CapacityKg,
		isOnline:      s.IsOnline,
		isActive:      s.IsActive,
		manualOffline: s.ManualOffline,
		lastSeenAt:    s.LastSeenAt,
		createdAt:     s.CreatedAt,
		version:       s.Version,
		isConstructed: true,
	}
	if s.Location != nil {
		loc := *s.Location
		d.location = &loc
	}
	return d, nil
}

func (d *Driver) Snapshot() Snapshot {
	s := Snapshot{
		ID:            d.id,
		UserID:        d.userID,
		VehicleType:   d.vehicleType,
		CapacityKg:    d.capacityKg,
		IsOnline:      d.isOnline,
		IsActive:      d.isActive,
		ManualOffline: d.manualOffline,
		LastSeenAt:    d.lastSeenAt,
		CreatedAt:     d.createdAt,
		Version:       d.version,
	}
	if d.location != nil {
		loc := *d.location
		s.Location = &loc
	}
	return s
}

func (d *Driver) Clone() *Driver {
	c, _ := RestoreDriver(d.Snapshot())
	return c
}

func (d *Driver) Validate() error {
	if d == nil || !d.isConstructed {
		return ErrDriverIsNotConstructed
	}
	return nil
}

func (d *Driver) IsEqual(other *Driver) bool {
	return other != nil && d.id.IsEqual(other.id)
}

func (d *Driver) ID() kernel.UUID {
	return d.id
}

func (d *Driver) UserID() kernel.UUID {
	return d.userID
}

func (d *Driver) VehicleType() kernel.VehicleType {
	return d.vehicleType
}

func (d *Driver) CapacityKg() float64 {
	return d.capacityKg
}

func (d *Driver) IsOnline() bool {
	return d.isOnline
}

func (d *Driver) IsActive() bool {
	return d.isActive
}

// ManualOffline reports whether the driver went offline on purpose.
func (d *Driver) ManualOffline() bool {
	return d.manualOffline
}

func (d *Driver) Location() (kernel.GeoPoint, bool) {
	if d.location == nil {
		return kernel.GeoPoint{}, false
	}
	return *d.location, true
}

func (d *Driver) LastSeenAt() time.Time {
	return d.lastSeenAt
}

func (d *Driver) CreatedAt() time.Time {
	return d.createdAt
}

// Version is the persisted revision the driver was loaded at. Writes made from
// an older revision are rejected.
func (d *Driver) Version() int {
	return d.version
}

// SetVersion is called by storage adapters after a successful write.
func (d *Driver) SetVersion(version int) {
	d.version = version
}

// Heartbeat records a location push. It brings the driver online unless they
// switched themselves offline.
func (d *Driver) Heartbeat(point kernel.GeoPoint, at time.Time) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if err := point.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("location", err)
	}
	d.location = &point
	d.lastSeenAt = at
	if !d.manualOffline {
		d.isOnline = true
	}
	return nil
}

// SetOnline is the driver's explicit availability toggle. Going online counts as a heartbeat.
func (d *Driver) SetOnline(online bool, at time.Time) error {
	if err := d.Validate(); err != nil {
		return err
	}
	d.isOnline = online
	d.manualOffline = !online
	if online {
		d.lastSeenAt = at
	}
	return nil
}

// MarkOffline is used by the presence sweep. The next heartbeat brings the driver back.
func (d *Driver) MarkOffline() {
	d.isOnline = false
}

// IsStale reports whether an online driver has not been seen since cutoff.
func (d *Driver) IsStale(cutoff time.Time) bool {
	return d.isOnline && d.lastSeenAt.Before(cutoff)
}

func (d *Driver) SetActive(active bool) error {
	if err := d.Validate(); err != nil {
		return err
	}
	d.isActive = active
	return nil
}

func (d *Driver) UpdateProfile(vehicleType kernel.VehicleType, capacityKg float64) error {
	if err := d.Validate(); err != nil {
		return err
	}
	return errors.Join(d.setVehicleType(vehicleType), d.setCapacity(capacityKg))
}

// IsEligibleFor reports whether the driver can be auto-assigned an order needing
// vehicleType (unset matches any) and at least minCapacityKg.
func (d *Driver) IsEligibleFor(vehicleType kernel.VehicleType, minCapacityKg float64) bool {
	if !d.isOnline || !d.isActive {
		return false
	}
	if vehicleType != kernel.VehicleUnknown && d.vehicleType != vehicleType {
		return false
	}
	return d.capacityKg >= minCapacityKg
}

func (d *Driver) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	d.id = id
	return nil
}

func (d *Driver) setUserID(userID kernel.UUID) error {
	if err := userID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("userId", err)
	}
	d.userID = userID
	return nil
}

func (d *Driver) setVehicleType(vehicleType kernel.VehicleType) error {
	if vehicleType != kernel.VehicleUnknown {
		if err := vehicleType.Validate(); err != nil {
			return err
		}
	}
	d.vehicleType = vehicleType
	return nil
}

func (d *Driver) setCapacity(capacityKg float64) error {
	if math.IsNaN(capacityKg) || math.IsInf(capacityKg, 0) || capacityKg < 0 {
		return errs.NewValueIsOutOfRangeError("capacityKg", capacityKg, 0, math.MaxFloat64)
	}
	if capacityKg == 0 {
		capacityKg = DefaultCapacityKg
	}
	d.capacityKg = capacityKg
	return nil
}
