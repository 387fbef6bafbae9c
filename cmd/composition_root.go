package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	httpin "github.com/bharathakku/delivery-backend/internal/adapters/in/http"
	"github.com/bharathakku/delivery-backend/internal/adapters/in/ws"
	"github.com/bharathakku/delivery-backend/internal/adapters/out/memory"
	"github.com/bharathakku/delivery-backend/internal/adapters/out/notify"
	"github.com/bharathakku/delivery-backend/internal/adapters/out/postgres"
	"github.com/bharathakku/delivery-backend/internal/adapters/out/realtime"
	redis_adapter "github.com/bharathakku/delivery-backend/internal/adapters/out/redis"
	"github.com/bharathakku/delivery-backend/internal/core/application/usecases/commands"
	"github.com/bharathakku/delivery-backend/internal/core/application/usecases/queries"
	"github.com/bharathakku/delivery-backend/internal/core/domain/services"
	"github.com/bharathakku/delivery-backend/internal/core/ports"
	"github.com/bharathakku/delivery-backend/internal/jobs"
	"github.com/bharathakku/delivery-backend/internal/pkg/auth"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CompositionRoot owns the infrastructure and builds every handler from it.
type CompositionRoot struct {
	cfg    Config
	logger *slog.Logger
	nrApp  *newrelic.Application

	uowFactory ports.UnitOfWorkFactory
	geo        ports.GeoIndex
	locker     ports.Locker
	hub        *realtime.Hub
	notifier   ports.Notifier
	tokens     *auth.Manager
	announcer  *commands.OrderAnnouncer

	closers []func() error
}

// NewCompositionRoot connects the configured backends. nrApp may be nil.
func NewCompositionRoot(ctx context.Context, cfg Config, log *slog.Logger, nrApp *newrelic.Application) (*CompositionRoot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	c := &CompositionRoot{cfg: cfg, logger: log, nrApp: nrApp}
	if err := c.init(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *CompositionRoot) init(ctx context.Context) error {
	tokens, err := auth.NewManager(c.cfg.JWTSecret, c.cfg.JWTTTL)
	if err != nil {
		return err
	}
	c.tokens = tokens

	switch c.cfg.Storage {
	case StorageMemory:
		c.uowFactory = memory.NewUnitOfWorkFactory(memory.NewStore())
	default:
		db, err := gorm.Open(gorm_postgres.Open(c.cfg.DSN()), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		if err := postgres.Migrate(db); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
		c.uowFactory = postgres.NewGormUnitOfWorkFactory(db)
		c.closers = append(c.closers, func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
	}

	switch c.cfg.GeoBackend {
	case GeoBackendRedis:
		client, err := redis_adapter.NewClient(ctx, redis_adapter.Config{
			Addr:     c.cfg.RedisAddr,
			Password: c.cfg.RedisPassword,
			DB:       c.cfg.RedisDB,
		}, c.nrApp)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		c.closers = append(c.closers, client.Close)
		c.geo = redis_adapter.NewGeoIndex(client)
		c.locker = redis_adapter.NewLocker(client)
	default:
		c.geo = memory.NewGeoIndex()
	}

	if c.cfg.RabbitMQURL != "" {
		rabbit, err := notify.DialRabbitNotifier(c.cfg.RabbitMQURL, c.cfg.NotifyExchange, c.cfg.ExternalCallTimeout)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		c.closers = append(c.closers, rabbit.Close)
		c.notifier = rabbit
	} else {
		c.notifier = notify.NewLogNotifier(c.logger)
	}

	c.hub = realtime.NewHub(c.logger)
	c.announcer = commands.NewOrderAnnouncer(c.hub, c.notifier, c.logger, c.cfg.ExternalCallTimeout)
	return nil
}

// Close releases connections in reverse order of creation.
func (c *CompositionRoot) Close() error {
	var errList []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errList = append(errList, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errList...)
}

func (c *CompositionRoot) Hub() *realtime.Hub {
	return c.hub
}

func (c *CompositionRoot) Tokens() *auth.Manager {
	return c.tokens
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) driverUoWFactory() commands.DriverUoWFactory {
	return FuncDriverUoWFactory(func() commands.DriverUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) fullUoWFactory() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) dispatcher() services.OrderDispatcher {
	return services.NewOrderDispatcher(c.cfg.AutoAssignRadiusM)
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.orderUoWFactory())
}

func (c *CompositionRoot) CreateChangeOrderStatusCommandHandler() commands.ChangeOrderStatusCommandHandler {
	return commands.NewChangeOrderStatusCommandHandler(c.orderUoWFactory(), services.NewFareCalculator(), c.announcer)
}

func (c *CompositionRoot) CreateAssignDriverCommandHandler() commands.AssignDriverCommandHandler {
	return commands.NewAssignDriverCommandHandler(c.fullUoWFactory(), c.dispatcher(), c.announcer)
}

func (c *CompositionRoot) CreateAutoAssignDriverCommandHandler() commands.AutoAssignDriverCommandHandler {
	return commands.NewAutoAssignDriverCommandHandler(
		c.fullUoWFactory(), c.geo, c.dispatcher(), c.announcer, c.cfg.ExternalCallTimeout,
	)
}

func (c *CompositionRoot) CreateSetActualDistanceCommandHandler() commands.SetActualDistanceCommandHandler {
	return commands.NewSetActualDistanceCommandHandler(c.orderUoWFactory(), services.NewFareCalculator())
}

func (c *CompositionRoot) CreateAddProofCommandHandler() commands.AddProofCommandHandler {
	return commands.NewAddProofCommandHandler(c.orderUoWFactory())
}

func (c *CompositionRoot) CreateRateOrderCommandHandler() commands.RateOrderCommandHandler {
	return commands.NewRateOrderCommandHandler(c.orderUoWFactory())
}

func (c *CompositionRoot) CreateUpdateDriverLocationCommandHandler() commands.UpdateDriverLocationCommandHandler {
	return commands.NewUpdateDriverLocationCommandHandler(c.fullUoWFactory(), c.geo, c.announcer, c.logger)
}

func (c *CompositionRoot) CreateSetDriverOnlineCommandHandler() commands.SetDriverOnlineCommandHandler {
	return commands.NewSetDriverOnlineCommandHandler(c.driverUoWFactory(), c.geo, c.logger)
}

func (c *CompositionRoot) CreateSetDriverActiveCommandHandler() commands.SetDriverActiveCommandHandler {
	return commands.NewSetDriverActiveCommandHandler(c.driverUoWFactory(), c.geo, c.logger)
}

func (c *CompositionRoot) CreateUpsertDriverProfileCommandHandler() commands.UpsertDriverProfileCommandHandler {
	return commands.NewUpsertDriverProfileCommandHandler(c.driverUoWFactory(), c.geo, c.logger)
}

func (c *CompositionRoot) CreateMarkStaleDriversOfflineCommandHandler() commands.MarkStaleDriversOfflineCommandHandler {
	return commands.NewMarkStaleDriversOfflineCommandHandler(c.driverUoWFactory(), c.geo, c.cfg.DriverStaleAfter, c.logger)
}

func (c *CompositionRoot) CreateDispatchPendingOrdersCommandHandler() commands.DispatchPendingOrdersCommandHandler {
	return commands.NewDispatchPendingOrdersCommandHandler(
		c.orderUoWFactory(), c.CreateAutoAssignDriverCommandHandler(), c.logger.With("component", "order_dispatch"),
	)
}

func (c *CompositionRoot) CreateWarmGeoIndexCommandHandler() commands.WarmGeoIndexCommandHandler {
	return commands.NewWarmGeoIndexCommandHandler(c.driverUoWFactory(), c.geo, c.logger)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.uowFactory, services.NewFareCalculator())
}

func (c *CompositionRoot) CreateListOrdersQueryHandler() queries.ListOrdersQueryHandler {
	return queries.NewListOrdersQueryHandler(c.uowFactory)
}

func (c *CompositionRoot) CreateResolveActorQueryHandler() queries.ResolveActorQueryHandler {
	return queries.NewResolveActorQueryHandler(c.uowFactory)
}

// WarmUp loads the stored drivers into the geo index.
func (c *CompositionRoot) WarmUp(ctx context.Context) (int, error) {
	handler := c.CreateWarmGeoIndexCommandHandler()
	return handler.Handle(ctx)
}

func (c *CompositionRoot) CreateHandlers() httpin.Handlers {
	return httpin.Handlers{
		CreateOrder:          c.CreateCreateOrderCommandHandler(),
		ChangeOrderStatus:    c.CreateChangeOrderStatusCommandHandler(),
		AssignDriver:         c.CreateAssignDriverCommandHandler(),
		AutoAssignDriver:     c.CreateAutoAssignDriverCommandHandler(),
		SetActualDistance:    c.CreateSetActualDistanceCommandHandler(),
		AddProof:             c.CreateAddProofCommandHandler(),
		RateOrder:            c.CreateRateOrderCommandHandler(),
		UpdateDriverLocation: c.CreateUpdateDriverLocationCommandHandler(),
		SetDriverOnline:      c.CreateSetDriverOnlineCommandHandler(),
		SetDriverActive:      c.CreateSetDriverActiveCommandHandler(),
		UpsertDriverProfile:  c.CreateUpsertDriverProfileCommandHandler(),
		GetOrder:             c.CreateGetOrderQueryHandler(),
		ListOrders:           c.CreateListOrdersQueryHandler(),
	}
}

func (c *CompositionRoot) CreateRealtimeHandler() *ws.Handler {
	location := c.CreateUpdateDriverLocationCommandHandler()
	return ws.NewHandler(
		c.hub,
		c.tokens,
		c.CreateResolveActorQueryHandler(),
		c.CreateGetOrderQueryHandler(),
		&location,
		c.logger,
	)
}

// CreateRouter builds the HTTP surface: REST API, realtime socket and docs.
func (c *CompositionRoot) CreateRouter(ctx context.Context) (*echo.Echo, error) {
	doc, err := httpin.LoadSpec(ctx)
	if err != nil {
		return nil, err
	}
	return httpin.NewRouter(httpin.RouterOptions{
		Server:   httpin.NewServer(c.CreateHandlers()),
		Tokens:   c.tokens,
		Resolver: c.CreateResolveActorQueryHandler(),
		Spec:     doc,
		NewRelic: c.nrApp,
		Realtime: echo.WrapHandler(c.CreateRealtimeHandler()),
		Logger:   c.logger,
	})
}

// CreateJobManager schedules the presence sweep and, when enabled, the pending
// order dispatch.
func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	sweep := c.CreateMarkStaleDriversOfflineCommandHandler()
	presence := jobs.NewDriverPresenceJob(&sweep, jobs.Options{
		Schedule: c.cfg.DriverSweepSchedule,
		Timeout:  c.cfg.DriverStaleAfter,
		Locker:   c.locker,
		NewRelic: c.nrApp,
	}, c.logger)

	if !c.cfg.OrderDispatchEnabled {
		return jobs.NewJobManager(presence)
	}

	dispatch := c.CreateDispatchPendingOrdersCommandHandler()
	dispatchJob := jobs.NewOrderDispatchJob(&dispatch, c.cfg.OrderDispatchBatch, jobs.Options{
		Schedule: c.cfg.OrderDispatchSchedule,
		Locker:   c.locker,
		NewRelic: c.nrApp,
	}, c.logger)
	return jobs.NewJobManager(presence, dispatchJob)
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncDriverUoWFactory func() commands.DriverUoW

func (f FuncDriverUoWFactory) Create() commands.DriverUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
