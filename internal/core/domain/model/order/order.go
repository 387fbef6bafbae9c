package order

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"
)

var (
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
	ErrOrderIsCancelled      = errors.New("order is cancelled")
	ErrOrderAlreadyRated     = errors.New("order is already rated")
)

// FareCalculator computes the adjusted fare once the travelled distance is known.
type FareCalculator interface {
	Calculate(plannedDistanceKm, plannedPrice, actualDistanceKm float64) (kernel.FareBreakdown, error)
}

// Details are the customer supplied properties fixed at creation.
type Details struct {
	VehicleType kernel.VehicleType
	From        kernel.Endpoint
	To          kernel.Endpoint
	DistanceKm  float64
	Price       float64
	WeightKg    float64
}

// TransitionOptions carries the optional inputs of a status change.
type TransitionOptions struct {
	Note             string
	ActualDistanceKm *float64
}

// Snapshot is the full persistent state of an order, used by storage adapters.
type Snapshot struct {
	ID               kernel.UUID
	CustomerID       kernel.UUID
	DriverID         *kernel.UUID
	Details          Details
	ActualDistanceKm *float64
	Fare             *kernel.FareBreakdown
	History          []HistoryEntry
	Proofs           []Proof
	Rating           *Rating
	CreatedAt        time.Time
	Version          int
}

var now = func() time.Time { return time.Now().UTC() }

type Order struct {
	id         kernel.UUID
	customerID kernel.UUID
	driverID   *kernel.UUID

	details Details

	actualDistanceKm *float64
	fare             *kernel.FareBreakdown

	history []HistoryEntry
	proofs  []Proof
	rating  *Rating

	createdAt time.Time
	version   int

	isConstructed bool
}

// NewOrder creates an order in the created status. The first history entry is
// attributed to createdBy.
func NewOrder(id, customerID kernel.UUID, details Details, createdBy kernel.Actor) (*Order, error) {
	o := &Order{isConstructed: true}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerID(customerID),
		o.setDetails(details),
		createdBy.Validate(),
	); err != nil {
		return nil, err
	}

	o.createdAt = now()
	o.history = []HistoryEntry{newHistoryEntry(Created, createdBy, "", o.createdAt)}
	return o, nil
}

// RestoreOrder rebuilds an order from storage without re-running creation rules.
func RestoreOrder(s Snapshot) (*Order, error) {
	if err := errors.Join(s.ID.Validate(), s.CustomerID.Validate()); err != nil {
		return nil, err
	}
	if len(s.History) == 0 {
		return nil, errs.NewValueIsRequiredError("statusHistory")
	}
	o := &Order{
		id:               s.ID,
		customerID:       s.CustomerID,
		details:          s.Details,
		actualDistanceKm: copyFloat(s.ActualDistanceKm),
		history:          slices.Clone(s.History),
		proofs:           slices.Clone(s.Proofs),
		createdAt:        s.CreatedAt,
		version:          s.Version,
		isConstructed:    true,
	}
	if s.DriverID != nil {
		driverID := *s.DriverID
		o.driverID = &driverID
	}
	if s.Fare != nil {
		fare := *s.Fare
		o.fare = &fare
	}
	if s.Rating != nil {
		rating := *s.Rating
		o.rating = &rating
	}
	return o, nil
}

// Snapshot returns a deep copy of the order state.
func (o *Order) Snapshot() Snapshot {
	s := Snapshot{
		ID:               o.id,
		CustomerID:       o.customerID,
		Details:          o.details,
		ActualDistanceKm: copyFloat(o.actualDistanceKm),
		History:          slices.Clone(o.history),
		Proofs:           slices.Clone(o.proofs),
		CreatedAt:        o.createdAt,
		Version:          o.version,
	}
	if o.driverID != nil {
		driverID := *o.driverID
		s.DriverID = &driverID
	}
	if o.fare != nil {
		fare := *o.fare
		s.Fare = &fare
	}
	if o.rating != nil {
		rating := *o.rating
		s.Rating = &rating
	}
	return s
}

// Clone returns an independent copy of the order.
func (o *Order) Clone() *Order {
	c, _ := RestoreOrder(o.Snapshot())
	return c
}

func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) CustomerID() kernel.UUID {
	return o.customerID
}

// DriverID returns the assigned driver, if any.
func (o *Order) DriverID() (kernel.UUID, bool) {
	if o.driverID == nil {
		return kernel.UUID{}, false
	}
	return *o.driverID, true
}

func (o *Order) VehicleType() kernel.VehicleType {
	return o.details.VehicleType
}

func (o *Order) From() kernel.Endpoint {
	return o.details.From
}

func (o *Order) To() kernel.Endpoint {
	return o.details.To
}

func (o *Order) DistanceKm() float64 {
	return o.details.DistanceKm
}

func (o *Order) Price() float64 {
	return o.details.Price
}

func (o *Order) WeightKg() float64 {
	return o.details.WeightKg
}

func (o *Order) ActualDistanceKm() (float64, bool) {
	if o.actualDistanceKm == nil {
		return 0, false
	}
	return *o.actualDistanceKm, true
}

func (o *Order) AdjustedPrice() (float64, bool) {
	if o.fare == nil {
		return 0, false
	}
	return o.fare.AdjustedPrice, true
}

func (o *Order) FareBreakdown() (kernel.FareBreakdown, bool) {
	if o.fare == nil {
		return kernel.FareBreakdown{}, false
	}
	return *o.fare, true
}

// Status is the status of the last history entry.
func (o *Order) Status() Status {
	if len(o.history) == 0 {
		return Unknown
	}
	return o.history[len(o.history)-1].status
}

func (o *Order) History() []HistoryEntry {
	return slices.Clone(o.history)
}

func (o *Order) Proofs() []Proof {
	return slices.Clone(o.proofs)
}

func (o *Order) Rating() (Rating, bool) {
	if o.rating == nil {
		return Rating{}, false
	}
	return *o.rating, true
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

// UpdatedAt is the time of the latest status change.
func (o *Order) UpdatedAt() time.Time {
	if len(o.history) == 0 {
		return o.createdAt
	}
	return o.history[len(o.history)-1].at
}

// Version is the persisted revision the order was loaded at.
func (o *Order) Version() int {
	return o.version
}

// SetVersion is called by storage adapters after a successful write.
func (o *Order) SetVersion(version int) {
	o.version = version
}

func (o *Order) IsOwner(actor kernel.Actor) bool {
	return actor.Role() == kernel.RoleCustomer && actor.UserID().IsEqual(o.customerID)
}

func (o *Order) IsAssignedDriver(actor kernel.Actor) bool {
	driverID, ok := actor.DriverID()
	return ok && o.driverID != nil && o.driverID.IsEqual(driverID)
}

// CanView reports whether actor may read the order, its fare and its tracking.
func (o *Order) CanView(actor kernel.Actor) bool {
	return actor.Is(kernel.RoleAdmin, kernel.RoleSystem) || o.IsOwner(actor) || o.IsAssignedDriver(actor)
}

// Assign binds the order to a driver and moves it to assigned.
func (o *Order) Assign(actor kernel.Actor, driverID kernel.UUID, note string) error {
	if err := errors.Join(o.Validate(), actor.Validate()); err != nil {
		return err
	}
	if err := driverID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("driverId", err)
	}

	perm, ok := transitions[transition{from: o.Status(), to: Assigned}]
	if !ok {
		return NewInvalidTransitionError(o.Status(), Assigned)
	}
	if !o.permits(actor, perm) {
		return errs.NewForbiddenError("assign order", fmt.Sprintf("role %s", actor.Role()))
	}

	o.driverID = &driverID
	o.history = append(o.history, newHistoryEntry(Assigned, actor, note, now()))
	return nil
}

// ChangeStatus applies any transition other than assignment. When the target is
// in_transit or delivered, opts.ActualDistanceKm may carry the travelled distance
// and the fare is recomputed with fares.
func (o *Order) ChangeStatus(actor kernel.Actor, to Status, opts TransitionOptions, fares FareCalculator) error {
	if err := errors.Join(o.Validate(), actor.Validate(), to.Validate()); err != nil {
		return err
	}
	if opts.ActualDistanceKm != nil {
		if err := validateDistance("actualDistanceKm", *opts.ActualDistanceKm); err != nil {
			return err
		}
		if !to.AcceptsActualDistance() {
			return errs.NewValueIsInvalidErrorWithCause("actualDistanceKm",
				fmt.Errorf("not accepted when moving to %s", to))
		}
		if fares == nil {
			return errs.NewValueIsRequiredError("fareCalculator")
		}
	}

	from := o.Status()
	if to == Assigned {
		if from == Created {
			return errs.NewValueIsRequiredError("driverId")
		}
		return NewInvalidTransitionError(from, to)
	}

	perm, ok := transitions[transition{from: from, to: to}]
	if !ok {
		return NewInvalidTransitionError(from, to)
	}
	if !o.permits(actor, perm) {
		return errs.NewForbiddenError(fmt.Sprintf("move order to %s", to), fmt.Sprintf("role %s", actor.Role()))
	}

	var fare *kernel.FareBreakdown
	if opts.ActualDistanceKm != nil {
		breakdown, err := fares.Calculate(o.details.DistanceKm, o.details.Price, *opts.ActualDistanceKm)
		if err != nil {
			return err
		}
		fare = &breakdown
	}

	if fare != nil {
		o.actualDistanceKm = copyFloat(opts.ActualDistanceKm)
		o.fare = fare
	}
	o.history = append(o.history, newHistoryEntry(to, actor, opts.Note, now()))
	return nil
}

// Cancel is a shortcut for a transition to cancelled with a reason.
func (o *Order) Cancel(actor kernel.Actor, reason string) error {
	return o.ChangeStatus(actor, Cancelled, TransitionOptions{Note: reason}, nil)
}

// SetActualDistance records the travelled distance outside of a status change.
// It does not touch the status history.
func (o *Order) SetActualDistance(actor kernel.Actor, actualDistanceKm float64, fares FareCalculator) error {
	if err := errors.Join(o.Validate(), actor.Validate()); err != nil {
		return err
	}
	if err := validateDistance("actualDistanceKm", actualDistanceKm); err != nil {
		return err
	}
	if fares == nil {
		return errs.NewValueIsRequiredError("fareCalculator")
	}
	if !actor.Is(kernel.RoleAdmin) && !o.IsAssignedDriver(actor) {
		return errs.NewForbiddenError("set actual distance", "only admin or assigned driver")
	}
	if o.Status() == Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status", ErrOrderIsCancelled)
	}

	breakdown, err := fares.Calculate(o.details.DistanceKm, o.details.Price, actualDistanceKm)
	if err != nil {
		return err
	}
	o.actualDistanceKm = &actualDistanceKm
	o.fare = &breakdown
	return nil
}

// AddProof appends a proof-of-delivery reference.
func (o *Order) AddProof(actor kernel.Actor, kind ProofKind, rawURL, note string) error {
	if err := errors.Join(o.Validate(), actor.Validate()); err != nil {
		return err
	}
	proof, err := newProof(rawURL, kind, actor.UserID(), note, now())
	if err != nil {
		return err
	}
	if !actor.Is(kernel.RoleAdmin) && !o.IsAssignedDriver(actor) {
		return errs.NewForbiddenError("add proof", "only admin or assigned driver")
	}
	if o.Status() == Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status", ErrOrderIsCancelled)
	}
	o.proofs = append(o.proofs, proof)
	return nil
}

// Rate stores the owner's feedback on a delivered order. It can be given once.
func (o *Order) Rate(actor kernel.Actor, score int, review string) error {
	if err := errors.Join(o.Validate(), actor.Validate()); err != nil {
		return err
	}
	rating, err := newRating(score, review, now())
	if err != nil {
		return err
	}
	if !o.IsOwner(actor) {
		return errs.NewForbiddenError("rate order", "only the customer who placed it")
	}
	if o.Status() != Delivered {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%s orders cannot be rated", o.Status()))
	}
	if o.rating != nil {
		return errs.NewValueIsInvalidErrorWithCause("rating", ErrOrderAlreadyRated)
	}
	o.rating = &rating
	return nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setCustomerID(customerID kernel.UUID) error {
	if err := customerID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("customerId", err)
	}
	o.customerID = customerID
	return nil
}

func (o *Order) setDetails(d Details) error {
	err := errors.Join(
		d.VehicleType.Validate(),
		validateEndpoint("from", d.From),
		validateEndpoint("to", d.To),
		validateDistance("distanceKm", d.DistanceKm),
		validateDistance("price", d.Price),
		validateDistance("weightKg", d.WeightKg),
	)
	if err != nil {
		return err
	}
	o.details = d
	return nil
}

func validateEndpoint(name string, e kernel.Endpoint) error {
	if err := e.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause(name, err)
	}
	return nil
}

func validateDistance(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return errs.NewValueIsOutOfRangeError(name, v, 0, math.MaxFloat64)
	}
	return nil
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
