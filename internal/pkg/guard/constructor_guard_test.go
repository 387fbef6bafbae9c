package guard_test

import (
	"errors"
	"testing"

	"github.com/bharathakku/delivery-backend/internal/pkg/guard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errOrderNotConstructed = errors.New("Order must be created via NewOrder constructor")

type trackedOrder struct {
	reference string
	guard     guard.ConstructorGuard
}

func newTrackedOrder(reference string) trackedOrder {
	return trackedOrder{reference: reference, guard: guard.NewConstructorGuard()}
}

func (o trackedOrder) Validate() error {
	return o.guard.Validate(errOrderNotConstructed)
}

func TestConstructorGuard_Validate(t *testing.T) {
	t.Run("constructed_guard_passes", func(t *testing.T) {
		// Given
		g := guard.NewConstructorGuard()

		// Then
		require.NoError(t, g.Validate(errOrderNotConstructed))
		require.NoError(t, g.Validate(nil))
	})

	t.Run("zero_guard_returns_given_error", func(t *testing.T) {
		// Given
		var g guard.ConstructorGuard

		// When
		err := g.Validate(errOrderNotConstructed)

		// Then
		require.ErrorIs(t, err, errOrderNotConstructed)
	})

	t.Run("zero_guard_falls_back_to_default_error", func(t *testing.T) {
		var g guard.ConstructorGuard

		require.ErrorIs(t, g.Validate(nil), guard.ErrDefaultConstructorGuard)
		assert.Equal(t, "object must be created via its constructor", guard.ErrDefaultConstructorGuard.Error())
	})
}

func TestConstructorGuard_Embedded(t *testing.T) {
	t.Run("constructor_marks_owner_valid", func(t *testing.T) {
		o := newTrackedOrder("ORD-1")

		require.NoError(t, o.Validate())
		assert.Equal(t, "ORD-1", o.reference)
	})

	t.Run("literal_owner_is_rejected", func(t *testing.T) {
		o := trackedOrder{reference: "ORD-2"}

		require.ErrorIs(t, o.Validate(), errOrderNotConstructed)
	})

	t.Run("copies_keep_the_mark", func(t *testing.T) {
		original := newTrackedOrder("ORD-3")
		clones := []trackedOrder{original, original}

		for _, c := range clones {
			require.NoError(t, c.Validate())
		}
	})

	t.Run("zero_value_in_collections_is_rejected", func(t *testing.T) {
		orders := make([]trackedOrder, 2)
		orders[1] = newTrackedOrder("ORD-4")

		require.Error(t, orders[0].Validate())
		require.NoError(t, orders[1].Validate())
	})
}
