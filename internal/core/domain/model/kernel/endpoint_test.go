package kernel_test

import (
	"testing"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEndpoint(t *testing.T) {
	point, err := kernel.NewGeoPoint(77.6, 12.9)
	require.NoError(t, err)

	t.Run("address only", func(t *testing.T) {
		e, err := kernel.NewEndpoint("from", "  12 MG Road ", nil)
		require.NoError(t, err)
		assert.Equal(t, "12 MG Road", e.Address())
		_, ok := e.Point()
		assert.False(t, ok)
	})

	t.Run("point only", func(t *testing.T) {
		e, err := kernel.NewEndpoint("to", "", &point)
		require.NoError(t, err)
		p, ok := e.Point()
		require.True(t, ok)
		assert.True(t, p.IsEqual(point))
	})

	t.Run("neither", func(t *testing.T) {
		_, err := kernel.NewEndpoint("from", " ", nil)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		assert.Contains(t, err.Error(), "from.address")
	})

	t.Run("unconstructed point", func(t *testing.T) {
		_, err := kernel.NewEndpoint("to", "somewhere", &kernel.GeoPoint{})
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestNewActor(t *testing.T) {
	userID := kernel.NewUUID()

	t.Run("customer", func(t *testing.T) {
		a, err := kernel.NewActor(userID, kernel.RoleCustomer)
		require.NoError(t, err)
		assert.True(t, a.Is(kernel.RoleCustomer))
		_, ok := a.DriverID()
		assert.False(t, ok)
	})

	t.Run("driver bound to profile", func(t *testing.T) {
		driverID := kernel.NewUUID()
		a, err := kernel.NewActor(userID, kernel.RoleDriver)
		require.NoError(t, err)
		a = a.WithDriver(driverID)
		got, ok := a.DriverID()
		require.True(t, ok)
		assert.True(t, got.IsEqual(driverID))
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := kernel.NewActor(userID, "root")
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := kernel.NewActor(kernel.UUID{}, kernel.RoleAdmin)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("system actor", func(t *testing.T) {
		a := kernel.SystemActor()
		require.NoError(t, a.Validate())
		assert.True(t, a.UserID().IsNil())
		assert.True(t, a.Is(kernel.RoleAdmin, kernel.RoleSystem))
	})
}
