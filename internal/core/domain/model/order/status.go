package order

import (
	"fmt"

	"github.com/bharathakku/delivery-backend/internal/pkg/errs"
)

// Status represents a step of the order lifecycle.
type Status int

const (
	Unknown Status = iota
	Created
	Assigned
	Accepted
	PickedUp
	InTransit
	Delivered
	Cancelled
)

var statusNames = map[Status]string{
	Created:   "created",
	Assigned:  "assigned",
	Accepted:  "accepted",
	PickedUp:  "picked_up",
	InTransit: "in_transit",
	Delivered: "delivered",
	Cancelled: "cancelled",
}

// Statuses lists every valid status in lifecycle order.
func Statuses() []Status {
	return []Status{Created, Assigned, Accepted, PickedUp, InTransit, Delivered, Cancelled}
}

func ParseStatus(s string) (Status, error) {
	for status, name := range statusNames {
		if name == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsTerminal reports whether no further transition can leave s.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// IsActive reports whether a driver is working on an order in status s.
func (s Status) IsActive() bool {
	return s == Assigned || s == Accepted || s == PickedUp || s == InTransit
}

// AcceptsActualDistance reports whether a transition into s may carry the travelled distance.
func (s Status) AcceptsActualDistance() bool {
	return s == InTransit || s == Delivered
}
