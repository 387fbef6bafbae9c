package commands_test

import (
	"testing"

	"github.com/bharathakku/delivery-backend/internal/core/application/usecases/commands"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
	"github.com/bharathakku/delivery-backend/internal/core/domain/services"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func expectMutation(t *testing.T, o *order.Order, update bool) (*MockOrderUoWFactory, *MockOrderRepository) {
	t.Helper()
	ctx := t.Context()

	orderRepo := new(MockOrderRepository)
	uow := uowWith(orderRepo, nil)
	factory := new(MockOrderUoWFactory)

	factory.On("Create").Return(uow).Once()
	uow.On("Begin", ctx).Return(nil).Once()
	orderRepo.On("Get", ctx, o.ID()).Return(o, nil).Once()
	if update {
		orderRepo.On("Update", ctx, o).Return(nil).Once()
		uow.On("Commit", ctx).Return(nil).Once()
	}
	uow.On("Rollback", ctx).Return(nil).Once()
	return factory, orderRepo
}

func TestSetActualDistanceCommandHandler_Handle(t *testing.T) {
	f := newFixture(t)
	o := f.assignedOrder(t)

	cmd, err := commands.NewSetActualDistanceCommand(o.ID(), f.driver, 8)
	require.NoError(t, err)

	factory, orderRepo := expectMutation(t, o, true)
	handler := commands.NewSetActualDistanceCommandHandler(factory, services.NewFareCalculator())
	updated, err := handler.Handle(t.Context(), cmd)

	require.NoError(t, err)
	fare, ok := updated.FareBreakdown()
	require.True(t, ok)
	assert.InDelta(t, 100.0, fare.AdjustedPrice, 1e-9)
	assert.Len(t, updated.History(), 2)
	orderRepo.AssertExpectations(t)
}

func TestSetActualDistanceCommandHandler_Handle_Negative(t *testing.T) {
	f := newFixture(t)
	o := f.assignedOrder(t)

	cmd, err := commands.NewSetActualDistanceCommand(o.ID(), f.admin, -1)
	require.NoError(t, err)

	factory, orderRepo := expectMutation(t, o, false)
	handler := commands.NewSetActualDistanceCommandHandler(factory, services.NewFareCalculator())
	_, err = handler.Handle(t.Context(), cmd)

	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	orderRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAddProofCommandHandler_Handle(t *testing.T) {
	f := newFixture(t)
	o := f.assignedOrder(t)

	cmd, err := commands.NewAddProofCommand(o.ID(), f.driver, order.ProofDelivery, "https://cdn.example.com/p/1.jpg", "porch")
	require.NoError(t, err)

	factory, _ := expectMutation(t, o, true)
	handler := commands.NewAddProofCommandHandler(factory)
	updated, err := handler.Handle(t.Context(), cmd)

	require.NoError(t, err)
	require.Len(t, updated.Proofs(), 1)
	assert.Equal(t, "https://cdn.example.com/p/1.jpg", updated.Proofs()[0].URL())
}

func TestRateOrderCommandHandler_Handle_NotDelivered(t *testing.T) {
	f := newFixture(t)
	o := f.assignedOrder(t)

	cmd, err := commands.NewRateOrderCommand(o.ID(), f.customer, 5, "great")
	require.NoError(t, err)

	factory, _ := expectMutation(t, o, false)
	handler := commands.NewRateOrderCommandHandler(factory)
	_, err = handler.Handle(t.Context(), cmd)

	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestOrderDetailsHandlers_ValidationError(t *testing.T) {
	factory := new(MockOrderUoWFactory)

	distance := commands.NewSetActualDistanceCommandHandler(factory, services.NewFareCalculator())
	_, err := distance.Handle(t.Context(), commands.SetActualDistanceCommand{})
	require.ErrorIs(t, err, commands.ErrSetActualDistanceCommandIsNotConstructed)

	proof := commands.NewAddProofCommandHandler(factory)
	_, err = proof.Handle(t.Context(), commands.AddProofCommand{})
	require.ErrorIs(t, err, commands.ErrAddProofCommandIsNotConstructed)

	rate := commands.NewRateOrderCommandHandler(factory)
	_, err = rate.Handle(t.Context(), commands.RateOrderCommand{})
	require.ErrorIs(t, err, commands.ErrRateOrderCommandIsNotConstructed)

	factory.AssertNotCalled(t, "Create")
}
