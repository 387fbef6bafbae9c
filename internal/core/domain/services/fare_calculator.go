package services

import (
	"errors"
	"math"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"
)

// FareCalculator adjusts a planned fare to the distance actually travelled.
// Shorter trips keep the planned price.
type FareCalculator struct{}

func NewFareCalculator() FareCalculator {
	return FareCalculator{}
}

func (FareCalculator) Calculate(plannedDistanceKm, plannedPrice, actualDistanceKm float64) (kernel.FareBreakdown, error) {
	if err := errors.Join(
		nonNegative("distanceKm", plannedDistanceKm),
		nonNegative("price", plannedPrice),
		nonNegative("actualDistanceKm", actualDistanceKm),
	); err != nil {
		return kernel.FareBreakdown{}, err
	}

	perKm := 0.0
	if plannedDistanceKm > 0 {
		perKm = plannedPrice / plannedDistanceKm
	}
	extraKm := math.Max(0, actualDistanceKm-plannedDistanceKm)
	extraCharge := roundTo(extraKm*perKm, 2)

	return kernel.FareBreakdown{
		BaseDistanceKm:   plannedDistanceKm,
		BasePrice:        plannedPrice,
		PerKmRate:        roundTo(perKm, 2),
		ActualDistanceKm: actualDistanceKm,
		ExtraDistanceKm:  roundTo(extraKm, 3),
		ExtraCharge:      extraCharge,
		AdjustedPrice:    roundTo(plannedPrice+extraCharge, 2),
	}, nil
}

func nonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return errs.NewValueIsOutOfRangeError(name, v, 0, math.MaxFloat64)
	}
	return nil
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
