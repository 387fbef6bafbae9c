package services

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/driver"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"
)

// DefaultSearchRadiusMeters bounds automatic assignment.
const DefaultSearchRadiusMeters = 15_000.0

// CandidateLimit is how many nearby drivers automatic assignment considers
// before giving up. The geo index may report drivers that no longer qualify.
const CandidateLimit = 5

var ErrNoEligibleDriver = errors.New("no eligible driver")

// NoEligibleDriverError is returned when automatic assignment finds no candidate.
type NoEligibleDriverError struct {
	OrderID      kernel.UUID
	RadiusMeters float64
}

func (e *NoEligibleDriverError) Error() string {
	return fmt.Sprintf("%s for order %s within %.0fm", ErrNoEligibleDriver, e.OrderID, e.RadiusMeters)
}

func (e *NoEligibleDriverError) Unwrap() error {
	return ErrNoEligibleDriver
}

// SearchCriteria describes the drivers that can serve an order.
type SearchCriteria struct {
	Origin            kernel.GeoPoint
	VehicleType       kernel.VehicleType
	MinCapacityKg     float64
	MaxDistanceMeters float64
	Limit             int
}

// Candidate is a driver found near the pickup point.
type Candidate struct {
	DriverID       kernel.UUID
	DistanceMeters float64
}

// OrderDispatcher decides who gets an order.
type OrderDispatcher struct {
	radiusMeters float64
}

func NewOrderDispatcher(radiusMeters float64) OrderDispatcher {
	if radiusMeters <= 0 {
		radiusMeters = DefaultSearchRadiusMeters
	}
	return OrderDispatcher{radiusMeters: radiusMeters}
}

func (d OrderDispatcher) RadiusMeters() float64 {
	if d.radiusMeters <= 0 {
		return DefaultSearchRadiusMeters
	}
	return d.radiusMeters
}

// Criteria builds the nearest-driver search for an order. The pickup must have coordinates.
func (d OrderDispatcher) Criteria(o *order.Order) (SearchCriteria, error) {
	if err := o.Validate(); err != nil {
		return SearchCriteria{}, err
	}
	if o.Status() != order.Created {
		return SearchCriteria{}, order.NewInvalidTransitionError(o.Status(), order.Assigned)
	}
	origin, ok := o.From().Point()
	if !ok {
		return SearchCriteria{}, errs.NewValueIsRequiredError("from.location")
	}
	return SearchCriteria{
		Origin:            origin,
		VehicleType:       o.VehicleType(),
		MinCapacityKg:     o.WeightKg(),
		MaxDistanceMeters: d.RadiusMeters(),
		Limit:             CandidateLimit,
	}, nil
}

// Rank drops candidates outside the radius and orders the rest nearest first,
// ties broken by driver id.
func (d OrderDispatcher) Rank(o *order.Order, candidates []Candidate) ([]Candidate, error) {
	inRange := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.DistanceMeters <= d.RadiusMeters() {
			inRange = append(inRange, c)
		}
	}
	if len(inRange) == 0 {
		return nil, d.NoEligibleDriver(o)
	}
	slices.SortFunc(inRange, CompareCandidates)
	return inRange, nil
}

// Qualifies re-checks a candidate against the authoritative driver record.
func (d OrderDispatcher) Qualifies(drv *driver.Driver, c SearchCriteria) bool {
	return drv.Validate() == nil && drv.IsEligibleFor(c.VehicleType, c.MinCapacityKg)
}

func (d OrderDispatcher) NoEligibleDriver(o *order.Order) error {
	return &NoEligibleDriverError{OrderID: o.ID(), RadiusMeters: d.RadiusMeters()}
}

// Dispatch assigns the order to an existing driver on behalf of actor.
// Eligibility is not re-checked so that administrators can override it.
func (d OrderDispatcher) Dispatch(o *order.Order, drv *driver.Driver, actor kernel.Actor, note string) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if err := drv.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("driver", err)
	}
	return o.Assign(actor, drv.ID(), note)
}

// CompareCandidates orders by distance, then by driver id.
func CompareCandidates(a, b Candidate) int {
	if c := cmp.Compare(a.DistanceMeters, b.DistanceMeters); c != 0 {
		return c
	}
	return a.DriverID.Compare(b.DriverID)
}
