package services_test

import (
	"testing"
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/driver"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
	"github.com/bharathakku/delivery-backend/internal/core/domain/services"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(t *testing.T, withPickupPoint bool, weightKg float64) *order.Order {
	t.Helper()

	customer, err := kernel.NewActor(kernel.NewUUID(), kernel.RoleCustomer)
	require.NoError(t, err)

	var pickup *kernel.GeoPoint
	if withPickupPoint {
		p, err := kernel.NewGeoPoint(77.59, 12.97)
		require.NoError(t, err)
		pickup = &p
	}
	from, err := kernel.NewEndpoint("from", "Pickup street", pickup)
	require.NoError(t, err)
	to, err := kernel.NewEndpoint("to", "Drop street", nil)
	require.NoError(t, err)

	o, err := order.NewOrder(kernel.NewUUID(), customer.UserID(), order.Details{
		VehicleType: kernel.VehicleThreeWheeler,
		From:        from,
		To:          to,
		DistanceKm:  4,
		Price:       120,
		WeightKg:    weightKg,
	}, customer)
	require.NoError(t, err)
	return o
}

func mustUUID(t *testing.T, s string) kernel.UUID {
	t.Helper()
	id, err := kernel.UUIDFromString(s)
	require.NoError(t, err)
	return id
}

func TestOrderDispatcher_Criteria(t *testing.T) {
	dispatcher := services.NewOrderDispatcher(0)

	t.Run("uses pickup point, vehicle and weight", func(t *testing.T) {
		o := newOrder(t, true, 30)

		c, err := dispatcher.Criteria(o)

		require.NoError(t, err)
		assert.InDelta(t, 12.97, c.Origin.Lat(), 0)
		assert.Equal(t, kernel.VehicleThreeWheeler, c.VehicleType)
		assert.InDelta(t, 30, c.MinCapacityKg, 0)
		assert.InDelta(t, services.DefaultSearchRadiusMeters, c.MaxDistanceMeters, 0)
		assert.Equal(t, services.CandidateLimit, c.Limit)
	})

	t.Run("pickup without coordinates", func(t *testing.T) {
		_, err := dispatcher.Criteria(newOrder(t, false, 0))
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("order already assigned", func(t *testing.T) {
		o := newOrder(t, true, 0)
		require.NoError(t, o.Assign(kernel.SystemActor(), kernel.NewUUID(), ""))

		_, err := dispatcher.Criteria(o)
		require.ErrorIs(t, err, order.ErrInvalidTransition)
	})
}

func TestOrderDispatcher_Rank(t *testing.T) {
	dispatcher := services.NewOrderDispatcher(5_000)
	o := newOrder(t, true, 0)
	a := mustUUID(t, "00000000-0000-0000-0000-00000000000a")
	b := mustUUID(t, "00000000-0000-0000-0000-00000000000b")
	c := mustUUID(t, "00000000-0000-0000-0000-00000000000c")

	t.Run("nearest first, outside radius dropped", func(t *testing.T) {
		ranked, err := dispatcher.Rank(o, []services.Candidate{
			{DriverID: c, DistanceMeters: 900},
			{DriverID: a, DistanceMeters: 7000},
			{DriverID: b, DistanceMeters: 300},
		})
		require.NoError(t, err)
		require.Len(t, ranked, 2)
		assert.True(t, ranked[0].DriverID.IsEqual(b))
		assert.True(t, ranked[1].DriverID.IsEqual(c))
	})

	t.Run("ties broken by id", func(t *testing.T) {
		ranked, err := dispatcher.Rank(o, []services.Candidate{
			{DriverID: c, DistanceMeters: 1000},
			{DriverID: a, DistanceMeters: 1000},
		})
		require.NoError(t, err)
		assert.True(t, ranked[0].DriverID.IsEqual(a))
	})

	t.Run("outside radius", func(t *testing.T) {
		_, err := dispatcher.Rank(o, []services.Candidate{{DriverID: a, DistanceMeters: 5001}})

		require.ErrorIs(t, err, services.ErrNoEligibleDriver)
		var typed *services.NoEligibleDriverError
		require.ErrorAs(t, err, &typed)
		assert.True(t, typed.OrderID.IsEqual(o.ID()))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := dispatcher.Rank(o, nil)
		require.ErrorIs(t, err, services.ErrNoEligibleDriver)
	})
}

func TestOrderDispatcher_Qualifies(t *testing.T) {
	dispatcher := services.NewOrderDispatcher(0)
	criteria := services.SearchCriteria{VehicleType: kernel.VehicleThreeWheeler, MinCapacityKg: 30}
	here, err := kernel.NewGeoPoint(77.59, 12.97)
	require.NoError(t, err)

	online := func(t *testing.T, vehicle kernel.VehicleType, capacityKg float64) *driver.Driver {
		t.Helper()
		d, err := driver.NewDriver(kernel.NewUUID(), kernel.NewUUID(), vehicle, capacityKg)
		require.NoError(t, err)
		require.NoError(t, d.Heartbeat(here, time.Now()))
		return d
	}

	t.Run("online and matching", func(t *testing.T) {
		assert.True(t, dispatcher.Qualifies(online(t, kernel.VehicleThreeWheeler, 40), criteria))
	})

	t.Run("deactivated", func(t *testing.T) {
		d := online(t, kernel.VehicleThreeWheeler, 40)
		require.NoError(t, d.SetActive(false))
		assert.False(t, dispatcher.Qualifies(d, criteria))
	})

	t.Run("offline", func(t *testing.T) {
		d := online(t, kernel.VehicleThreeWheeler, 40)
		d.MarkOffline()
		assert.False(t, dispatcher.Qualifies(d, criteria))
	})

	t.Run("wrong vehicle", func(t *testing.T) {
		assert.False(t, dispatcher.Qualifies(online(t, kernel.VehicleTwoWheeler, 40), criteria))
	})

	t.Run("under capacity", func(t *testing.T) {
		assert.False(t, dispatcher.Qualifies(online(t, kernel.VehicleThreeWheeler, 20), criteria))
	})
}

func TestOrderDispatcher_Dispatch(t *testing.T) {
	dispatcher := services.NewOrderDispatcher(0)
	admin, err := kernel.NewActor(kernel.NewUUID(), kernel.RoleAdmin)
	require.NoError(t, err)

	t.Run("assigns even an offline driver", func(t *testing.T) {
		o := newOrder(t, true, 0)
		d, err := driver.NewDriver(kernel.NewUUID(), kernel.NewUUID(), kernel.VehicleHeavyTruck, 0)
		require.NoError(t, err)

		require.NoError(t, dispatcher.Dispatch(o, d, admin, "override"))

		assert.Equal(t, order.Assigned, o.Status())
		got, _ := o.DriverID()
		assert.True(t, got.IsEqual(d.ID()))
	})

	t.Run("missing driver", func(t *testing.T) {
		o := newOrder(t, true, 0)
		require.ErrorIs(t, dispatcher.Dispatch(o, nil, admin, ""), errs.ErrValueIsRequired)
		assert.Equal(t, order.Created, o.Status())
	})
}
