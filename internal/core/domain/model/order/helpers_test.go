package order_test

import (
	"testing"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
	"github.com/bharathakku/delivery-backend/internal/core/domain/services"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	customer kernel.Actor
	admin    kernel.Actor
	driver   kernel.Actor
	stranger kernel.Actor
	driverID kernel.UUID
	fares    services.FareCalculator
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	customer, err := kernel.NewActor(kernel.NewUUID(), kernel.RoleCustomer)
	require.NoError(t, err)
	admin, err := kernel.NewActor(kernel.NewUUID(), kernel.RoleAdmin)
	require.NoError(t, err)

	driverID := kernel.NewUUID()
	drv, err := kernel.NewActor(kernel.NewUUID(), kernel.RoleDriver)
	require.NoError(t, err)
	stranger, err := kernel.NewActor(kernel.NewUUID(), kernel.RoleDriver)
	require.NoError(t, err)

	return fixture{
		customer: customer,
		admin:    admin,
		driver:   drv.WithDriver(driverID),
		stranger: stranger.WithDriver(kernel.NewUUID()),
		driverID: driverID,
		fares:    services.NewFareCalculator(),
	}
}

func (f fixture) details(t *testing.T) order.Details {
	t.Helper()

	pickup, err := kernel.NewGeoPoint(77.5946, 12.9716)
	require.NoError(t, err)
	from, err := kernel.NewEndpoint("from", "MG Road", &pickup)
	require.NoError(t, err)
	to, err := kernel.NewEndpoint("to", "Indiranagar", nil)
	require.NoError(t, err)

	return order.Details{
		VehicleType: kernel.VehicleTwoWheeler,
		From:        from,
		To:          to,
		DistanceKm:  5,
		Price:       200,
	}
}

func (f fixture) newOrder(t *testing.T) *order.Order {
	t.Helper()

	o, err := order.NewOrder(kernel.NewUUID(), f.customer.UserID(), f.details(t), f.customer)
	require.NoError(t, err)
	return o
}

// orderIn drives a fresh order along the lifecycle until it reaches status.
func (f fixture) orderIn(t *testing.T, status order.Status) *order.Order {
	t.Helper()

	o := f.newOrder(t)
	if status == order.Created {
		return o
	}
	if status == order.Cancelled {
		require.NoError(t, o.Cancel(f.admin, "test"))
		return o
	}

	require.NoError(t, o.Assign(f.admin, f.driverID, ""))
	for _, next := range []order.Status{order.Accepted, order.PickedUp, order.InTransit, order.Delivered} {
		if o.Status() == status {
			break
		}
		require.NoError(t, o.ChangeStatus(f.driver, next, order.TransitionOptions{}, f.fares))
	}
	require.Equal(t, status, o.Status())
	return o
}

func ptr(v float64) *float64 {
	return &v
}
