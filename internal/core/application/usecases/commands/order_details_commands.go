package commands

import (
	"errors"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
	"github.com/bharathakku/delivery-backend/internal/pkg/guard"
)

var (
	ErrSetActualDistanceCommandIsNotConstructed = errors.New(
		"SetActualDistanceCommand must be created via NewSetActualDistanceCommand constructor",
	)
	ErrAddProofCommandIsNotConstructed = errors.New(
		"AddProofCommand must be created via NewAddProofCommand constructor",
	)
	ErrRateOrderCommandIsNotConstructed = errors.New(
		"RateOrderCommand must be created via NewRateOrderCommand constructor",
	)
)

// SetActualDistanceCommand records the travelled distance without a status change.
type SetActualDistanceCommand struct { //nolint:recvcheck //using for validation
	orderID          kernel.UUID
	actor            kernel.Actor
	actualDistanceKm float64

	guard guard.ConstructorGuard
}

func NewSetActualDistanceCommand(orderID kernel.UUID, actor kernel.Actor, actualDistanceKm float64) (SetActualDistanceCommand, error) {
	if err := errors.Join(orderID.Validate(), actor.Validate()); err != nil {
		return SetActualDistanceCommand{}, err
	}
	return SetActualDistanceCommand{
		orderID:          orderID,
		actor:            actor,
		actualDistanceKm: actualDistanceKm,
		guard:            guard.NewConstructorGuard(),
	}, nil
}

func (c SetActualDistanceCommand) Validate() error {
	return c.guard.Validate(ErrSetActualDistanceCommandIsNotConstructed)
}

func (c SetActualDistanceCommand) OrderID() kernel.UUID { return c.orderID }
func (c SetActualDistanceCommand) Actor() kernel.Actor { return c.actor }
func (c SetActualDistanceCommand) ActualDistanceKm() float64 { return c.actualDistanceKm }

// AddProofCommand attaches a proof-of-delivery URL to an order.
type AddProofCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	actor   kernel.Actor
	kind    order.ProofKind
	url     string
	note    string

	guard guard.ConstructorGuard
}

func NewAddProofCommand(orderID kernel.UUID, actor kernel.Actor, kind order.ProofKind, url, note string) (AddProofCommand, error) {
	if err := errors.Join(orderID.Validate(), actor.Validate()); err != nil {
		return AddProofCommand{}, err
	}
	return AddProofCommand{
		orderID: orderID,
		actor:   actor,
		kind:    kind,
		url:     url,
		note:    note,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c AddProofCommand) Validate() error {
	return c.guard.Validate(ErrAddProofCommandIsNotConstructed)
}

func (c AddProofCommand) OrderID() kernel.UUID { return c.orderID }
func (c AddProofCommand) Actor() kernel.Actor { return c.actor }
func (c AddProofCommand) Kind() order.ProofKind { return c.kind }
func (c AddProofCommand) URL() string { return c.url }
func (c AddProofCommand) Note() string { return c.note }

type RateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	actor   kernel.Actor
	score   int
	review  string

	guard guard.ConstructorGuard
}

func NewRateOrderCommand(orderID kernel.UUID, actor kernel.Actor, score int, review string) (RateOrderCommand, error) {
	if err := errors.Join(orderID.Validate(), actor.Validate()); err != nil {
		return RateOrderCommand{}, err
	}
	return RateOrderCommand{
		orderID: orderID,
		actor:   actor,
		score:   score,
		review:  review,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c RateOrderCommand) Validate() error {
	return c.guard.Validate(ErrRateOrderCommandIsNotConstructed)
}

func (c RateOrderCommand) OrderID() kernel.UUID { return c.orderID }
func (c RateOrderCommand) Actor() kernel.Actor { return c.actor }
func (c RateOrderCommand) Score() int { return c.score }
func (c RateOrderCommand) Review() string { return c.review }
