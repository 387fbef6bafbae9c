package order

import (
	"errors"
	"fmt"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// InvalidTransitionError reports a status change that the lifecycle does not allow.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func NewInvalidTransitionError(from, to Status) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

type permission uint8

const (
	byAdmin permission = 1 << iota
	bySystem
	byOwner
	byAssignedDriver
)

type transition struct {
	from Status
	to   Status
}

var transitions = map[transition]permission{
	{Created, Assigned}:    byAdmin | bySystem,
	{Created, Cancelled}:   byOwner | byAdmin,
	{Assigned, Cancelled}:  byOwner | byAdmin,
	{Assigned, Accepted}:   byAssignedDriver,
	{Accepted, Cancelled}:  byAdmin,
	{PickedUp, Cancelled}:  byAdmin,
	{InTransit, Cancelled}: byAdmin,
	{Accepted, PickedUp}:   byAssignedDriver,
	{PickedUp, InTransit}:  byAssignedDriver,
	{InTransit, Delivered}: byAssignedDriver,
}

// CanTransition reports whether the lifecycle has an edge from -> to, regardless of actor.
func CanTransition(from, to Status) bool {
	_, ok := transitions[transition{from: from, to: to}]
	return ok
}

// NextStatuses lists the statuses reachable from s in lifecycle order.
func NextStatuses(s Status) []Status {
	var next []Status
	for _, to := range Statuses() {
		if CanTransition(s, to) {
			next = append(next, to)
		}
	}
	return next
}

func (o *Order) permits(actor kernel.Actor, p permission) bool {
	switch actor.Role() {
	case kernel.RoleAdmin:
		return p&byAdmin != 0
	case kernel.RoleSystem:
		return p&bySystem != 0
	case kernel.RoleCustomer:
		return p&byOwner != 0 && o.IsOwner(actor)
	case kernel.RoleDriver:
		return p&byAssignedDriver != 0 && o.IsAssignedDriver(actor)
	default:
		return false
	}
}
