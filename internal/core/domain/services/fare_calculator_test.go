package services_test

import (
	"math"
	"testing"

	"github.com/bharathakku/delivery-backend/internal/core/domain/services"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFareCalculator_Calculate(t *testing.T) {
	calc := services.NewFareCalculator()

	tests := []struct {
		name                           string
		planned, price, actual         float64
		perKm, extraKm, extra, adjusted float64
	}{
		{"longer trip", 5, 200, 8, 40, 3, 120, 320},
		{"two extra km", 5, 200, 7, 40, 2, 80, 280},
		{"shorter trip keeps price", 10, 300, 7, 30, 0, 0, 300},
		{"exact distance", 10, 300, 10, 30, 0, 0, 300},
		{"zero planned distance", 0, 150, 12, 0, 12, 0, 150},
		{"rounding", 3, 100, 4.3333, 33.33, 1.333, 44.44, 144.44},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fare, err := calc.Calculate(tt.planned, tt.price, tt.actual)

			require.NoError(t, err)
			assert.InDelta(t, tt.perKm, fare.PerKmRate, 1e-9)
			assert.InDelta(t, tt.extraKm, fare.ExtraDistanceKm, 1e-9)
			assert.InDelta(t, tt.extra, fare.ExtraCharge, 1e-9)
			assert.InDelta(t, tt.adjusted, fare.AdjustedPrice, 1e-9)
			assert.InDelta(t, tt.planned, fare.BaseDistanceKm, 0)
			assert.InDelta(t, tt.price, fare.BasePrice, 0)
			assert.InDelta(t, tt.actual, fare.ActualDistanceKm, 0)
		})
	}
}

func TestFareCalculator_Deterministic(t *testing.T) {
	calc := services.NewFareCalculator()
	first, err := calc.Calculate(7.3, 219.99, 11.17)
	require.NoError(t, err)

	for range 100 {
		again, err := calc.Calculate(7.3, 219.99, 11.17)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestFareCalculator_Monotonic(t *testing.T) {
	calc := services.NewFareCalculator()
	prev := -1.0

	for actual := 0.0; actual <= 30; actual += 0.137 {
		fare, err := calc.Calculate(5, 199.99, actual)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, fare.AdjustedPrice, prev, "actual=%v", actual)
		assert.GreaterOrEqual(t, fare.AdjustedPrice, 199.99)
		prev = fare.AdjustedPrice
	}
}

func TestFareCalculator_RejectsBadInput(t *testing.T) {
	calc := services.NewFareCalculator()

	for _, in := range [][3]float64{
		{-1, 100, 5},
		{5, -0.01, 5},
		{5, 100, -3},
		{math.NaN(), 100, 5},
		{5, 100, math.Inf(1)},
	} {
		_, err := calc.Calculate(in[0], in[1], in[2])
		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange, "%v", in)
	}
}
