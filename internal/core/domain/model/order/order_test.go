package order_test

import (
	"math"
	"testing"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	f := newFixture(t)

	t.Run("starts in created with one history entry", func(t *testing.T) {
		o := f.newOrder(t)

		require.NoError(t, o.Validate())
		assert.Equal(t, order.Created, o.Status())
		require.Len(t, o.History(), 1)
		assert.True(t, o.History()[0].By().IsEqual(f.customer.UserID()))
		assert.Equal(t, kernel.RoleCustomer, o.History()[0].Role())
		_, assigned := o.DriverID()
		assert.False(t, assigned)
		_, adjusted := o.AdjustedPrice()
		assert.False(t, adjusted)
		assert.InDelta(t, 200, o.Price(), 0)
		assert.Equal(t, 0, o.Version())
	})

	t.Run("rejects negative distance", func(t *testing.T) {
		d := f.details(t)
		d.DistanceKm = -1

		o, err := order.NewOrder(kernel.NewUUID(), f.customer.UserID(), d, f.customer)

		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
		assert.Nil(t, o)
	})

	t.Run("rejects unknown vehicle type", func(t *testing.T) {
		d := f.details(t)
		d.VehicleType = "rocket"

		_, err := order.NewOrder(kernel.NewUUID(), f.customer.UserID(), d, f.customer)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("rejects missing endpoints", func(t *testing.T) {
		d := f.details(t)
		d.To = kernel.Endpoint{}

		_, err := order.NewOrder(kernel.NewUUID(), f.customer.UserID(), d, f.customer)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		assert.Contains(t, err.Error(), "to")
	})

	t.Run("rejects missing ids", func(t *testing.T) {
		_, err := order.NewOrder(kernel.UUID{}, kernel.UUID{}, f.details(t), f.customer)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "UUID must be created")
		assert.Contains(t, err.Error(), "customerId")
	})

	t.Run("zero value is not constructed", func(t *testing.T) {
		var o order.Order
		require.ErrorIs(t, o.Validate(), order.ErrOrderIsNotConstructed)
		require.ErrorIs(t, o.Cancel(f.admin, ""), order.ErrOrderIsNotConstructed)
	})
}

func TestOrder_HappyPath(t *testing.T) {
	f := newFixture(t)
	o := f.newOrder(t)

	require.NoError(t, o.Assign(f.admin, f.driverID, "manual"))
	driverID, ok := o.DriverID()
	require.True(t, ok)
	assert.True(t, driverID.IsEqual(f.driverID))

	require.NoError(t, o.ChangeStatus(f.driver, order.Accepted, order.TransitionOptions{}, f.fares))
	require.NoError(t, o.ChangeStatus(f.driver, order.PickedUp, order.TransitionOptions{}, f.fares))
	require.NoError(t, o.ChangeStatus(f.driver, order.InTransit, order.TransitionOptions{ActualDistanceKm: ptr(7)}, f.fares))

	adjusted, ok := o.AdjustedPrice()
	require.True(t, ok)
	assert.InDelta(t, 280, adjusted, 1e-9)
	actual, ok := o.ActualDistanceKm()
	require.True(t, ok)
	assert.InDelta(t, 7, actual, 0)

	require.NoError(t, o.ChangeStatus(f.driver, order.Delivered, order.TransitionOptions{Note: "left at door"}, f.fares))

	var statuses []order.Status
	for _, h := range o.History() {
		statuses = append(statuses, h.Status())
	}
	assert.Equal(t, []order.Status{
		order.Created, order.Assigned, order.Accepted, order.PickedUp, order.InTransit, order.Delivered,
	}, statuses)
	assert.Equal(t, "left at door", o.History()[5].Note())
	assert.Equal(t, "manual", o.History()[1].Note())
	assert.False(t, o.UpdatedAt().Before(o.CreatedAt()))
}

func TestOrder_ChangeStatusValidation(t *testing.T) {
	f := newFixture(t)

	t.Run("negative actual distance is rejected before anything else", func(t *testing.T) {
		o := f.orderIn(t, order.PickedUp)

		err := o.ChangeStatus(f.driver, order.InTransit, order.TransitionOptions{ActualDistanceKm: ptr(-2)}, f.fares)

		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
		assert.Equal(t, order.PickedUp, o.Status())
		_, ok := o.FareBreakdown()
		assert.False(t, ok)
	})

	t.Run("infinite actual distance is rejected", func(t *testing.T) {
		o := f.orderIn(t, order.InTransit)
		err := o.ChangeStatus(f.driver, order.Delivered, order.TransitionOptions{ActualDistanceKm: ptr(math.Inf(1))}, f.fares)
		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})

	t.Run("actual distance only on in_transit or delivered", func(t *testing.T) {
		o := f.orderIn(t, order.Accepted)

		err := o.ChangeStatus(f.driver, order.PickedUp, order.TransitionOptions{ActualDistanceKm: ptr(3)}, f.fares)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Equal(t, order.Accepted, o.Status())
	})

	t.Run("assigned needs a driver", func(t *testing.T) {
		o := f.orderIn(t, order.Created)
		err := o.ChangeStatus(f.admin, order.Assigned, order.TransitionOptions{}, f.fares)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		assert.Equal(t, order.Created, o.Status())
	})

	t.Run("unknown target", func(t *testing.T) {
		o := f.orderIn(t, order.Created)
		require.ErrorIs(t, o.ChangeStatus(f.admin, order.Unknown, order.TransitionOptions{}, f.fares), errs.ErrValueIsInvalid)
	})

	t.Run("fare on delivery keeps planned price for shorter trips", func(t *testing.T) {
		o := f.orderIn(t, order.InTransit)
		require.NoError(t, o.ChangeStatus(f.driver, order.Delivered, order.TransitionOptions{ActualDistanceKm: ptr(3)}, f.fares))
		adjusted, ok := o.AdjustedPrice()
		require.True(t, ok)
		assert.InDelta(t, 200, adjusted, 0)
	})
}

func TestOrder_SetActualDistance(t *testing.T) {
	f := newFixture(t)

	t.Run("assigned driver updates fare without history", func(t *testing.T) {
		o := f.orderIn(t, order.PickedUp)
		before := len(o.History())

		require.NoError(t, o.SetActualDistance(f.driver, 8, f.fares))

		fare, ok := o.FareBreakdown()
		require.True(t, ok)
		assert.InDelta(t, 320, fare.AdjustedPrice, 1e-9)
		assert.InDelta(t, 120, fare.ExtraCharge, 1e-9)
		assert.Len(t, o.History(), before)
	})

	t.Run("other driver is forbidden", func(t *testing.T) {
		o := f.orderIn(t, order.PickedUp)
		require.ErrorIs(t, o.SetActualDistance(f.stranger, 8, f.fares), errs.ErrForbidden)
	})

	t.Run("owner is forbidden", func(t *testing.T) {
		o := f.orderIn(t, order.Delivered)
		require.ErrorIs(t, o.SetActualDistance(f.customer, 8, f.fares), errs.ErrForbidden)
	})

	t.Run("cancelled orders are frozen", func(t *testing.T) {
		o := f.orderIn(t, order.Cancelled)
		err := o.SetActualDistance(f.admin, 8, f.fares)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.ErrorContains(t, err, order.ErrOrderIsCancelled.Error())
	})
}

func TestOrder_AddProof(t *testing.T) {
	f := newFixture(t)

	t.Run("assigned driver adds proof", func(t *testing.T) {
		o := f.orderIn(t, order.PickedUp)

		require.NoError(t, o.AddProof(f.driver, order.ProofPickup, "https://cdn.example.com/p/1.jpg", "parcel"))

		proofs := o.Proofs()
		require.Len(t, proofs, 1)
		assert.Equal(t, order.ProofPickup, proofs[0].Kind())
		assert.True(t, proofs[0].By().IsEqual(f.driver.UserID()))
		assert.Equal(t, "parcel", proofs[0].Note())
	})

	t.Run("bad url", func(t *testing.T) {
		o := f.orderIn(t, order.PickedUp)
		require.ErrorIs(t, o.AddProof(f.driver, order.ProofPickup, "not a url", ""), errs.ErrValueIsInvalid)
		require.ErrorIs(t, o.AddProof(f.driver, order.ProofPickup, " ", ""), errs.ErrValueIsRequired)
	})

	t.Run("customer cannot add proof", func(t *testing.T) {
		o := f.orderIn(t, order.Delivered)
		require.ErrorIs(t, o.AddProof(f.customer, order.ProofDelivery, "https://x.example/a.png", ""), errs.ErrForbidden)
	})
}

func TestParseProofKind(t *testing.T) {
	k, err := order.ParseProofKind("")
	require.NoError(t, err)
	assert.Equal(t, order.ProofOther, k)

	_, err = order.ParseProofKind("selfie")
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestOrder_Rate(t *testing.T) {
	f := newFixture(t)

	t.Run("owner rates delivered order once", func(t *testing.T) {
		o := f.orderIn(t, order.Delivered)

		require.NoError(t, o.Rate(f.customer, 5, " quick "))
		r, ok := o.Rating()
		require.True(t, ok)
		assert.Equal(t, 5, r.Score())
		assert.Equal(t, "quick", r.Review())

		err := o.Rate(f.customer, 4, "")
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.ErrorContains(t, err, order.ErrOrderAlreadyRated.Error())
	})

	t.Run("score range", func(t *testing.T) {
		o := f.orderIn(t, order.Delivered)
		require.ErrorIs(t, o.Rate(f.customer, 0, ""), errs.ErrValueIsOutOfRange)
		require.ErrorIs(t, o.Rate(f.customer, 6, ""), errs.ErrValueIsOutOfRange)
	})

	t.Run("not delivered", func(t *testing.T) {
		o := f.orderIn(t, order.InTransit)
		require.ErrorIs(t, o.Rate(f.customer, 3, ""), errs.ErrValueIsInvalid)
	})

	t.Run("only owner", func(t *testing.T) {
		o := f.orderIn(t, order.Delivered)
		require.ErrorIs(t, o.Rate(f.admin, 3, ""), errs.ErrForbidden)
	})
}

func TestOrder_Visibility(t *testing.T) {
	f := newFixture(t)
	o := f.orderIn(t, order.Assigned)

	assert.True(t, o.CanView(f.admin))
	assert.True(t, o.CanView(f.customer))
	assert.True(t, o.CanView(f.driver))
	assert.False(t, o.CanView(f.stranger))
	assert.True(t, o.IsOwner(f.customer))
	assert.False(t, o.IsOwner(f.admin))
}

func TestOrder_SnapshotRoundTrip(t *testing.T) {
	f := newFixture(t)
	o := f.orderIn(t, order.InTransit)
	require.NoError(t, o.SetActualDistance(f.driver, 6, f.fares))
	require.NoError(t, o.AddProof(f.driver, order.ProofPickup, "https://x.example/1", ""))
	o.SetVersion(4)

	restored, err := order.RestoreOrder(o.Snapshot())
	require.NoError(t, err)

	assert.Equal(t, o.Snapshot(), restored.Snapshot())
	assert.Equal(t, order.InTransit, restored.Status())
	assert.Equal(t, 4, restored.Version())

	t.Run("clone is independent", func(t *testing.T) {
		c := o.Clone()
		require.NoError(t, c.ChangeStatus(f.driver, order.Delivered, order.TransitionOptions{}, f.fares))
		assert.Equal(t, order.InTransit, o.Status())
		assert.Equal(t, order.Delivered, c.Status())
	})

	t.Run("history is required", func(t *testing.T) {
		s := o.Snapshot()
		s.History = nil
		_, err := order.RestoreOrder(s)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})
}
