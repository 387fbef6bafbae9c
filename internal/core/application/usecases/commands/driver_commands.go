package commands

import (
	"errors"
	"math"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"
	"github.com/bharathakku/delivery-backend/internal/pkg/guard"
)

var (
	ErrUpdateDriverLocationCommandIsNotConstructed = errors.New(
		"UpdateDriverLocationCommand must be created via NewUpdateDriverLocationCommand constructor",
	)
	ErrSetDriverOnlineCommandIsNotConstructed = errors.New(
		"SetDriverOnlineCommand must be created via NewSetDriverOnlineCommand constructor",
	)
	ErrSetDriverActiveCommandIsNotConstructed = errors.New(
		"SetDriverActiveCommand must be created via NewSetDriverActiveCommand constructor",
	)
	ErrUpsertDriverProfileCommandIsNotConstructed = errors.New(
		"UpsertDriverProfileCommand must be created via NewUpsertDriverProfileCommand constructor",
	)
)

// UpdateDriverLocationCommand is a location push from a driver app.
// Heading is in degrees, speed in metres per second; both are optional.
type UpdateDriverLocationCommand struct { //nolint:recvcheck //using for validation
	actor   kernel.Actor
	point   kernel.GeoPoint
	heading *float64
	speed   *float64

	guard guard.ConstructorGuard
}

func NewUpdateDriverLocationCommand(
	actor kernel.Actor,
	point kernel.GeoPoint,
	heading, speed *float64,
) (UpdateDriverLocationCommand, error) {
	cmd := UpdateDriverLocationCommand{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		cmd.setActor(actor),
		cmd.setPoint(point),
		cmd.setHeading(heading),
		cmd.setSpeed(speed),
	); err != nil {
		return UpdateDriverLocationCommand{}, err
	}

	return cmd, nil
}

func (c UpdateDriverLocationCommand) Validate() error {
	return c.guard.Validate(ErrUpdateDriverLocationCommandIsNotConstructed)
}

func (c UpdateDriverLocationCommand) Actor() kernel.Actor {
	return c.actor
}

func (c UpdateDriverLocationCommand) Point() kernel.GeoPoint {
	return c.point
}

func (c UpdateDriverLocationCommand) Heading() *float64 {
	return c.heading
}

func (c UpdateDriverLocationCommand) Speed() *float64 {
	return c.speed
}

func (c *UpdateDriverLocationCommand) setActor(actor kernel.Actor) error {
	if err := requireDriverRole(actor, "update location"); err != nil {
		return err
	}
	c.actor = actor
	return nil
}

func (c *UpdateDriverLocationCommand) setPoint(point kernel.GeoPoint) error {
	if err := point.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("location", err)
	}
	c.point = point
	return nil
}

func (c *UpdateDriverLocationCommand) setHeading(heading *float64) error {
	if heading == nil {
		return nil
	}
	v := *heading
	if math.IsNaN(v) || v < 0 || v > 360 {
		return errs.NewValueIsOutOfRangeError("heading", v, 0, 360)
	}
	c.heading = &v
	return nil
}

func (c *UpdateDriverLocationCommand) setSpeed(speed *float64) error {
	if speed == nil {
		return nil
	}
	v := *speed
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return errs.NewValueIsOutOfRangeError("speed", v, 0, math.MaxFloat64)
	}
	c.speed = &v
	return nil
}

// SetDriverOnlineCommand is the driver's own availability toggle.
type SetDriverOnlineCommand struct { //nolint:recvcheck //using for validation
	actor  kernel.Actor
	online bool

	guard guard.ConstructorGuard
}

func NewSetDriverOnlineCommand(actor kernel.Actor, online bool) (SetDriverOnlineCommand, error) {
	if err := requireDriverRole(actor, "change availability"); err != nil {
		return SetDriverOnlineCommand{}, err
	}
	return SetDriverOnlineCommand{actor: actor, online: online, guard: guard.NewConstructorGuard()}, nil
}

func (c SetDriverOnlineCommand) Validate() error {
	return c.guard.Validate(ErrSetDriverOnlineCommandIsNotConstructed)
}

func (c SetDriverOnlineCommand) Actor() kernel.Actor {
	return c.actor
}

func (c SetDriverOnlineCommand) Online() bool {
	return c.online
}

// SetDriverActiveCommand lets an administrator suspend or reinstate a driver.
type SetDriverActiveCommand struct { //nolint:recvcheck //using for validation
	driverID kernel.UUID
	actor    kernel.Actor
	active   bool

	guard guard.ConstructorGuard
}

func NewSetDriverActiveCommand(driverID kernel.UUID, actor kernel.Actor, active bool) (SetDriverActiveCommand, error) {
	if err := errors.Join(driverID.Validate(), actor.Validate()); err != nil {
		return SetDriverActiveCommand{}, err
	}
	if !actor.Is(kernel.RoleAdmin) {
		return SetDriverActiveCommand{}, errs.NewForbiddenError("change driver state", "only admin")
	}
	return SetDriverActiveCommand{
		driverID: driverID,
		actor:    actor,
		active:   active,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c SetDriverActiveCommand) Validate() error {
	return c.guard.Validate(ErrSetDriverActiveCommandIsNotConstructed)
}

func (c SetDriverActiveCommand) DriverID() kernel.UUID {
	return c.driverID
}

func (c SetDriverActiveCommand) Active() bool {
	return c.active
}

// UpsertDriverProfileCommand registers the calling driver on first use and
// updates their vehicle afterwards.
type UpsertDriverProfileCommand struct { //nolint:recvcheck //using for validation
	actor       kernel.Actor
	vehicleType kernel.VehicleType
	capacityKg  float64

	guard guard.ConstructorGuard
}

func NewUpsertDriverProfileCommand(
	actor kernel.Actor,
	vehicleType kernel.VehicleType,
	capacityKg float64,
) (UpsertDriverProfileCommand, error) {
	if err := requireDriverRole(actor, "update driver profile"); err != nil {
		return UpsertDriverProfileCommand{}, err
	}
	if vehicleType != kernel.VehicleUnknown {
		if err := vehicleType.Validate(); err != nil {
			return UpsertDriverProfileCommand{}, err
		}
	}
	return UpsertDriverProfileCommand{
		actor:       actor,
		vehicleType: vehicleType,
		capacityKg:  capacityKg,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (c UpsertDriverProfileCommand) Validate() error {
	return c.guard.Validate(ErrUpsertDriverProfileCommandIsNotConstructed)
}

func (c UpsertDriverProfileCommand) Actor() kernel.Actor {
	return c.actor
}

func (c UpsertDriverProfileCommand) VehicleType() kernel.VehicleType {
	return c.vehicleType
}

func (c UpsertDriverProfileCommand) CapacityKg() float64 {
	return c.capacityKg
}

func requireDriverRole(actor kernel.Actor, action string) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	if actor.Role() != kernel.RoleDriver {
		return errs.NewForbiddenError(action, "only drivers")
	}
	return nil
}
