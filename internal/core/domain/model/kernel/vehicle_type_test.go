package kernel_test

import (
	"testing"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVehicleType(t *testing.T) {
	for _, s := range []string{"two-wheeler", "three-wheeler", "heavy-truck"} {
		v, err := kernel.ParseVehicleType(s)
		require.NoError(t, err)
		assert.Equal(t, s, v.String())
	}

	for _, s := range []string{"", "bike", "Two-Wheeler"} {
		_, err := kernel.ParseVehicleType(s)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid, s)
	}
}

func TestVehicleTypes(t *testing.T) {
	all := kernel.VehicleTypes()
	assert.Len(t, all, 3)

	all[0] = "changed"
	assert.Equal(t, kernel.VehicleTwoWheeler, kernel.VehicleTypes()[0])
}
