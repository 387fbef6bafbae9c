package kernel

import (
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleDriver   Role = "driver"
	RoleAdmin    Role = "admin"
	RoleSystem   Role = "system"
)

func (r Role) Validate() error {
	switch r {
	case RoleCustomer, RoleDriver, RoleAdmin, RoleSystem:
		return nil
	default:
		return errs.NewValueIsInvalidError("role")
	}
}

// Actor is the authenticated caller of an operation. Drivers carry the id of
// their driver profile so that assignment checks do not need a lookup.
type Actor struct {
	userID   UUID
	role     Role
	driverID UUID
}

func NewActor(userID UUID, role Role) (Actor, error) {
	if err := role.Validate(); err != nil {
		return Actor{}, err
	}
	if role != RoleSystem {
		if err := userID.Validate(); err != nil {
			return Actor{}, errs.NewValueIsRequiredErrorWithCause("actor.userId", err)
		}
	}
	return Actor{userID: userID, role: role}, nil
}

// SystemActor is used by automatic assignment and background jobs.
func SystemActor() Actor {
	return Actor{role: RoleSystem}
}

// WithDriver returns a copy of a driver actor bound to its driver profile.
func (a Actor) WithDriver(driverID UUID) Actor {
	a.driverID = driverID
	return a
}

func (a Actor) UserID() UUID {
	return a.userID
}

func (a Actor) Role() Role {
	return a.role
}

// DriverID returns the driver profile of a driver actor.
func (a Actor) DriverID() (UUID, bool) {
	if a.role != RoleDriver || a.driverID.IsNil() {
		return UUID{}, false
	}
	return a.driverID, true
}

func (a Actor) Is(roles ...Role) bool {
	for _, r := range roles {
		if a.role == r {
			return true
		}
	}
	return false
}

func (a Actor) Validate() error {
	if a.role == "" {
		return errs.NewValueIsRequiredError("actor")
	}
	return a.role.Validate()
}
