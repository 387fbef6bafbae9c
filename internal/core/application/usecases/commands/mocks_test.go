package commands_test

import (
	"context"
	"testing"
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/application/usecases/commands"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/driver"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
	"github.com/bharathakku/delivery-backend/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByStatus(ctx context.Context, statuses []order.Status, limit int) ([]*order.Order, error) {
	args := m.Called(ctx, statuses, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) ListActiveByDriver(ctx context.Context, driverID kernel.UUID) ([]*order.Order, error) {
	args := m.Called(ctx, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByCustomer(ctx context.Context, customerID kernel.UUID, limit int) ([]*order.Order, error) {
	args := m.Called(ctx, customerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

type MockDriverRepository struct{ mock.Mock }

func (m *MockDriverRepository) Add(ctx context.Context, d *driver.Driver) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDriverRepository) Update(ctx context.Context, d *driver.Driver) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDriverRepository) Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*driver.Driver), args.Error(1)
}

func (m *MockDriverRepository) GetByUserID(ctx context.Context, userID kernel.UUID) (*driver.Driver, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*driver.Driver), args.Error(1)
}

func (m *MockDriverRepository) List(ctx context.Context) ([]*driver.Driver, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*driver.Driver), args.Error(1)
}

func (m *MockDriverRepository) MarkStaleOffline(ctx context.Context, cutoff time.Time) ([]kernel.UUID, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]kernel.UUID), args.Error(1)
}

// MockUoW satisfies every unit of work flavour used by the handlers.
type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockUoW) DriverRepository() ports.DriverRepository {
	args := m.Called()
	return args.Get(0).(ports.DriverRepository)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	args := m.Called()
	return args.Get(0).(commands.UoW)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockDriverUoWFactory struct{ mock.Mock }

func (m *MockDriverUoWFactory) Create() commands.DriverUoW {
	args := m.Called()
	return args.Get(0).(commands.DriverUoW)
}

type MockGeoIndex struct{ mock.Mock }

func (m *MockGeoIndex) UpsertLocation(ctx context.Context, id kernel.UUID, point kernel.GeoPoint, at time.Time) error {
	args := m.Called(ctx, id, point, at)
	return args.Error(0)
}

func (m *MockGeoIndex) SetAvailability(ctx context.Context, id kernel.UUID, isOnline, isActive bool) error {
	args := m.Called(ctx, id, isOnline, isActive)
	return args.Error(0)
}

func (m *MockGeoIndex) SetProfile(ctx context.Context, id kernel.UUID, vt kernel.VehicleType, capacityKg float64) error {
	args := m.Called(ctx, id, vt, capacityKg)
	return args.Error(0)
}

func (m *MockGeoIndex) FindNearest(ctx context.Context, q ports.NearestQuery) ([]ports.NearestDriver, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.NearestDriver), args.Error(1)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(ctx context.Context, topic string, event ports.Event) {
	m.Called(ctx, topic, event)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) Notify(ctx context.Context, n ports.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// uowWith wires a unit of work mock to the given repositories. Repository accessors
// may be called any number of times.
func uowWith(orders ports.OrderRepository, drivers ports.DriverRepository) *MockUoW {
	uow := new(MockUoW)
	if orders != nil {
		uow.On("OrderRepository").Return(orders).Maybe()
	}
	if drivers != nil {
		uow.On("DriverRepository").Return(drivers).Maybe()
	}
	return uow
}

type fixture struct {
	customer kernel.Actor
	admin    kernel.Actor
	driver   kernel.Actor
	driverID kernel.UUID
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	customer, err := kernel.NewActor(kernel.NewUUID(), kernel.RoleCustomer)
	require.NoError(t, err)
	admin, err := kernel.NewActor(kernel.NewUUID(), kernel.RoleAdmin)
	require.NoError(t, err)
	drv, err := kernel.NewActor(kernel.NewUUID(), kernel.RoleDriver)
	require.NoError(t, err)

	driverID := kernel.NewUUID()
	return fixture{
		customer: customer,
		admin:    admin,
		driver:   drv.WithDriver(driverID),
		driverID: driverID,
	}
}

func point(t *testing.T, lng, lat float64) kernel.GeoPoint {
	t.Helper()

	p, err := kernel.NewGeoPoint(lng, lat)
	require.NoError(t, err)
	return p
}

func (f fixture) details(t *testing.T) order.Details {
	t.Helper()

	pickup := point(t, 77.5946, 12.9716)
	from, err := kernel.NewEndpoint("from", "MG Road", &pickup)
	require.NoError(t, err)
	to, err := kernel.NewEndpoint("to", "Indiranagar", nil)
	require.NoError(t, err)

	return order.Details{
		VehicleType: kernel.VehicleTwoWheeler,
		From:        from,
		To:          to,
		DistanceKm:  10,
		Price:       100,
		WeightKg:    5,
	}
}

func (f fixture) newOrder(t *testing.T) *order.Order {
	t.Helper()

	o, err := order.NewOrder(kernel.NewUUID(), f.customer.UserID(), f.details(t), f.customer)
	require.NoError(t, err)
	return o
}

func (f fixture) assignedOrder(t *testing.T) *order.Order {
	t.Helper()

	o := f.newOrder(t)
	require.NoError(t, o.Assign(f.admin, f.driverID, ""))
	return o
}

func (f fixture) newDriver(t *testing.T) *driver.Driver {
	t.Helper()

	d, err := driver.NewDriver(f.driverID, f.driver.UserID(), kernel.VehicleTwoWheeler, 20)
	require.NoError(t, err)
	return d
}

// onlineDriver returns a driver that auto-assignment would accept for fixture orders.
func onlineDriver(t *testing.T, id kernel.UUID) *driver.Driver {
	t.Helper()

	d, err := driver.NewDriver(id, kernel.NewUUID(), kernel.VehicleTwoWheeler, 20)
	require.NoError(t, err)
	require.NoError(t, d.Heartbeat(point(t, 77.5946, 12.9716), time.Now().UTC()))
	return d
}
