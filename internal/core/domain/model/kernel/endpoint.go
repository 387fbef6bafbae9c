package kernel

import (
	"strings"

	"github.com/bharathakku/delivery-backend/internal/pkg/errs"
	"github.com/bharathakku/delivery-backend/internal/pkg/guard"
)

var ErrEndpointIsNotConstructed = errs.NewValueIsRequiredError("endpoint must be created via NewEndpoint")

// Endpoint is a pickup or drop-off place: an address, a point, or both.
type Endpoint struct {
	address  string
	point    GeoPoint
	hasPoint bool
	guard    guard.ConstructorGuard
}

// NewEndpoint requires at least one of address or point. A nil point means no coordinates.
func NewEndpoint(name string, address string, point *GeoPoint) (Endpoint, error) {
	address = strings.TrimSpace(address)
	e := Endpoint{address: address, guard: guard.NewConstructorGuard()}
	if point != nil {
		if err := point.Validate(); err != nil {
			return Endpoint{}, errs.NewValueIsInvalidErrorWithCause(name+".location", err)
		}
		e.point = *point
		e.hasPoint = true
	}
	if address == "" && !e.hasPoint {
		return Endpoint{}, errs.NewValueIsRequiredError(name + ".address or " + name + ".location")
	}
	return e, nil
}

func (e Endpoint) Validate() error {
	return e.guard.Validate(ErrEndpointIsNotConstructed)
}

func (e Endpoint) Address() string {
	return e.address
}

// Point returns the coordinates and whether they are known.
func (e Endpoint) Point() (GeoPoint, bool) {
	return e.point, e.hasPoint
}
