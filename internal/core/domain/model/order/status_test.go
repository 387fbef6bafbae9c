package order_test

import (
	"fmt"
	"testing"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_String(t *testing.T) {
	names := map[order.Status]string{
		order.Created:   "created",
		order.Assigned:  "assigned",
		order.Accepted:  "accepted",
		order.PickedUp:  "picked_up",
		order.InTransit: "in_transit",
		order.Delivered: "delivered",
		order.Cancelled: "cancelled",
	}
	for status, name := range names {
		assert.Equal(t, name, status.String())

		parsed, err := order.ParseStatus(name)
		require.NoError(t, err)
		assert.Equal(t, status, parsed)
	}
	assert.Equal(t, "unknown", order.Unknown.String())
}

func TestStatus_Validate(t *testing.T) {
	for _, s := range order.Statuses() {
		require.NoError(t, s.Validate(), s.String())
	}

	for _, s := range []order.Status{order.Unknown, order.Status(-1), order.Status(42)} {
		t.Run(fmt.Sprintf("rejects %d", int(s)), func(t *testing.T) {
			err := s.Validate()
			require.Error(t, err)
			assert.IsType(t, &errs.ValueIsInvalidError{}, err)
			assert.Contains(t, err.Error(), "is not a valid status")
		})
	}
}

func TestParseStatus_Unknown(t *testing.T) {
	_, err := order.ParseStatus("lost")
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestStatus_Predicates(t *testing.T) {
	assert.True(t, order.Delivered.IsTerminal())
	assert.True(t, order.Cancelled.IsTerminal())
	assert.False(t, order.InTransit.IsTerminal())

	assert.True(t, order.Accepted.IsActive())
	assert.False(t, order.Created.IsActive())
	assert.False(t, order.Delivered.IsActive())

	assert.True(t, order.InTransit.AcceptsActualDistance())
	assert.True(t, order.Delivered.AcceptsActualDistance())
	assert.False(t, order.PickedUp.AcceptsActualDistance())
}
