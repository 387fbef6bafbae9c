package http

import (
	"net/http"

	"github.com/bharathakku/delivery-backend/internal/core/application/usecases/commands"
	"github.com/bharathakku/delivery-backend/internal/core/application/usecases/queries"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Handlers are the use cases the REST API exposes.
type Handlers struct {
	CreateOrder       commands.CreateOrderCommandHandler
	ChangeOrderStatus commands.ChangeOrderStatusCommandHandler
	AssignDriver      commands.AssignDriverCommandHandler
	AutoAssignDriver  commands.AutoAssignDriverCommandHandler
	SetActualDistance commands.SetActualDistanceCommandHandler
	AddProof          commands.AddProofCommandHandler
	RateOrder         commands.RateOrderCommandHandler

	UpdateDriverLocation commands.UpdateDriverLocationCommandHandler
	SetDriverOnline      commands.SetDriverOnlineCommandHandler
	SetDriverActive      commands.SetDriverActiveCommandHandler
	UpsertDriverProfile  commands.UpsertDriverProfileCommandHandler

	GetOrder   queries.GetOrderQueryHandler
	ListOrders queries.ListOrdersQueryHandler
}

// Server translates HTTP requests into commands and queries.
type Server struct {
	h Handlers
}

func NewServer(h Handlers) *Server {
	return &Server{h: h}
}

// Register mounts the API routes on g. g must already authenticate callers.
func (s *Server) Register(g *echo.Group) {
	admin := RequireRoles(kernel.RoleAdmin)
	driverOnly := RequireRoles(kernel.RoleDriver)

	customerOnly := RequireRoles(kernel.RoleCustomer)

	g.POST("/orders", s.CreateOrder, RequireRoles(kernel.RoleCustomer, kernel.RoleAdmin))
	g.GET("/orders", s.ListAllOrders, admin)
	g.GET("/orders/my", s.ListMyOrders, customerOnly)
	g.GET("/orders/my-orders", s.ListMyOrders, customerOnly)
	g.GET("/orders/by-customer/:id", s.ListCustomerOrders, admin)
	g.GET("/orders/active", s.ListActiveOrders, admin)
	g.GET("/orders/assigned/me", s.ListMyAssignedOrders, driverOnly)
	g.GET("/orders/:id", s.GetOrder)
	g.PATCH("/orders/:id/status", s.ChangeOrderStatus)
	g.POST("/orders/:id/cancel", s.CancelOrder)
	g.POST("/orders/:id/assign", s.AssignDriver, admin)
	g.POST("/orders/:id/auto-assign", s.AutoAssignDriver, admin)
	g.PATCH("/orders/:id/actuals", s.SetActualDistance)
	g.GET("/orders/:id/fare", s.GetFareBreakdown)
	g.GET("/orders/:id/tracking", s.GetTracking)
	g.POST("/orders/:id/proofs", s.AddProof)
	g.POST("/orders/:id/rate", s.RateOrder)

	g.PUT("/drivers/me", s.UpsertDriverProfile, driverOnly)
	g.POST("/drivers/me/location", s.UpdateDriverLocation, driverOnly)
	g.POST("/drivers/me/online", s.SetDriverOnline, driverOnly)
	g.PATCH("/drivers/:id/state", s.SetDriverActive, admin)
}

// CreateOrder handles POST /api/orders.
func (s *Server) CreateOrder(c echo.Context) error {
	var req CreateOrderRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	details, err := req.details()
	if err != nil {
		return err
	}
	var customerID *kernel.UUID
	if req.CustomerID != nil {
		id, err := kernel.UUIDFromString(*req.CustomerID)
		if err != nil {
			return errs.NewValueIsInvalidErrorWithCause("customerId", err)
		}
		customerID = &id
	}

	cmd, err := commands.NewCreateOrderCommand(actorFrom(c), customerID, details)
	if err != nil {
		return err
	}
	o, err := s.h.CreateOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toOrderResponse(o))
}

// ListActiveOrders handles GET /api/orders/active.
func (s *Server) ListActiveOrders(c echo.Context) error {
	return s.listOrders(c, queries.NewListOrdersQuery)
}

// ListMyAssignedOrders handles GET /api/orders/assigned/me.
func (s *Server) ListMyAssignedOrders(c echo.Context) error {
	return s.listOrders(c, queries.NewListOrdersQuery)
}

// ListAllOrders handles GET /api/orders.
func (s *Server) ListAllOrders(c echo.Context) error {
	return s.listOrders(c, queries.NewListAllOrdersQuery)
}

// ListMyOrders handles GET /api/orders/my and its /my-orders alias.
func (s *Server) ListMyOrders(c echo.Context) error {
	return s.listOrders(c, func(actor kernel.Actor, limit int) (queries.ListOrdersQuery, error) {
		return queries.NewCustomerOrdersQuery(actor, actor.UserID(), limit)
	})
}

// ListCustomerOrders handles GET /api/orders/by-customer/:id.
func (s *Server) ListCustomerOrders(c echo.Context) error {
	customerID, err := pathID(c)
	if err != nil {
		return err
	}
	return s.listOrders(c, func(actor kernel.Actor, limit int) (queries.ListOrdersQuery, error) {
		return queries.NewCustomerOrdersQuery(actor, customerID, limit)
	})
}

func (s *Server) listOrders(c echo.Context, build func(kernel.Actor, int) (queries.ListOrdersQuery, error)) error {
	var limit int
	if err := runtime.BindQueryParameter("form", true, false, "limit", c.QueryParams(), &limit); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("limit", err)
	}

	query, err := build(actorFrom(c), limit)
	if err != nil {
		return err
	}
	orders, err := s.h.ListOrders.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderList(orders))
}

// GetOrder handles GET /api/orders/:id.
func (s *Server) GetOrder(c echo.Context) error {
	query, err := s.orderQuery(c)
	if err != nil {
		return err
	}
	o, err := s.h.GetOrder.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponse(o))
}

// GetFareBreakdown handles GET /api/orders/:id/fare.
func (s *Server) GetFareBreakdown(c echo.Context) error {
	query, err := s.orderQuery(c)
	if err != nil {
		return err
	}
	breakdown, err := s.h.GetOrder.FareBreakdown(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, breakdown)
}

// GetTracking handles GET /api/orders/:id/tracking.
func (s *Server) GetTracking(c echo.Context) error {
	query, err := s.orderQuery(c)
	if err != nil {
		return err
	}
	tracking, err := s.h.GetOrder.Tracking(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTrackingResponse(tracking))
}

// ChangeOrderStatus handles PATCH /api/orders/:id/status.
func (s *Server) ChangeOrderStatus(c echo.Context) error {
	orderID, err := pathID(c)
	if err != nil {
		return err
	}
	var req ChangeStatusRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		return err
	}

	cmd, err := commands.NewChangeOrderStatusCommand(orderID, actorFrom(c), status, req.Note, req.ActualDistanceKm)
	if err != nil {
		return err
	}
	return s.respondOrder(c, http.StatusOK)(s.h.ChangeOrderStatus.Handle(c.Request().Context(), cmd))
}

// CancelOrder handles POST /api/orders/:id/cancel.
func (s *Server) CancelOrder(c echo.Context) error {
	orderID, err := pathID(c)
	if err != nil {
		return err
	}
	var req CancelRequest
	if c.Request().ContentLength != 0 {
		if err := bindBody(c, &req); err != nil {
			return err
		}
	}

	cmd, err := commands.NewCancelOrderCommand(orderID, actorFrom(c), req.Reason)
	if err != nil {
		return err
	}
	return s.respondOrder(c, http.StatusOK)(s.h.ChangeOrderStatus.Handle(c.Request().Context(), cmd))
}

// AssignDriver handles POST /api/orders/:id/assign.
func (s *Server) AssignDriver(c echo.Context) error {
	orderID, err := pathID(c)
	if err != nil {
		return err
	}
	var req AssignRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	driverID, err := kernel.UUIDFromString(req.DriverID)
	if err != nil {
		return errs.NewValueIsInvalidErrorWithCause("driverId", err)
	}

	cmd, err := commands.NewAssignDriverCommand(orderID, driverID, actorFrom(c), req.Note)
	if err != nil {
		return err
	}
	return s.respondOrder(c, http.StatusOK)(s.h.AssignDriver.Handle(c.Request().Context(), cmd))
}

// AutoAssignDriver handles POST /api/orders/:id/auto-assign.
func (s *Server) AutoAssignDriver(c echo.Context) error {
	orderID, err := pathID(c)
	if err != nil {
		return err
	}

	cmd, err := commands.NewAutoAssignDriverCommand(orderID, actorFrom(c))
	if err != nil {
		return err
	}
	return s.respondOrder(c, http.StatusOK)(s.h.AutoAssignDriver.Handle(c.Request().Context(), cmd))
}

// SetActualDistance handles PATCH /api/orders/:id/actuals.
func (s *Server) SetActualDistance(c echo.Context) error {
	orderID, err := pathID(c)
	if err != nil {
		return err
	}
	var req ActualsRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	cmd, err := commands.NewSetActualDistanceCommand(orderID, actorFrom(c), req.ActualDistanceKm)
	if err != nil {
		return err
	}
	return s.respondOrder(c, http.StatusOK)(s.h.SetActualDistance.Handle(c.Request().Context(), cmd))
}

// AddProof handles POST /api/orders/:id/proofs.
func (s *Server) AddProof(c echo.Context) error {
	orderID, err := pathID(c)
	if err != nil {
		return err
	}
	var req ProofRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	kind, err := order.ParseProofKind(req.Kind)
	if err != nil {
		return err
	}

	cmd, err := commands.NewAddProofCommand(orderID, actorFrom(c), kind, req.URL, req.Note)
	if err != nil {
		return err
	}
	return s.respondOrder(c, http.StatusCreated)(s.h.AddProof.Handle(c.Request().Context(), cmd))
}

// RateOrder handles POST /api/orders/:id/rate.
func (s *Server) RateOrder(c echo.Context) error {
	orderID, err := pathID(c)
	if err != nil {
		return err
	}
	var req RateRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	cmd, err := commands.NewRateOrderCommand(orderID, actorFrom(c), req.Score, req.Review)
	if err != nil {
		return err
	}
	return s.respondOrder(c, http.StatusOK)(s.h.RateOrder.Handle(c.Request().Context(), cmd))
}

// UpsertDriverProfile handles PUT /api/drivers/me.
func (s *Server) UpsertDriverProfile(c echo.Context) error {
	var req ProfileRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	vehicleType := kernel.VehicleUnknown
	if req.VehicleType != "" {
		vt, err := kernel.ParseVehicleType(req.VehicleType)
		if err != nil {
			return err
		}
		vehicleType = vt
	}

	cmd, err := commands.NewUpsertDriverProfileCommand(actorFrom(c), vehicleType, req.CapacityKg)
	if err != nil {
		return err
	}
	d, err := s.h.UpsertDriverProfile.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDriverResponse(d))
}

// UpdateDriverLocation handles POST /api/drivers/me/location.
func (s *Server) UpdateDriverLocation(c echo.Context) error {
	var req LocationRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	point, err := kernel.NewGeoPoint(req.Lng, req.Lat)
	if err != nil {
		return err
	}

	cmd, err := commands.NewUpdateDriverLocationCommand(actorFrom(c), point, req.Heading, req.Speed)
	if err != nil {
		return err
	}
	d, err := s.h.UpdateDriverLocation.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDriverResponse(d))
}

// SetDriverOnline handles POST /api/drivers/me/online.
func (s *Server) SetDriverOnline(c echo.Context) error {
	var req OnlineRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	cmd, err := commands.NewSetDriverOnlineCommand(actorFrom(c), req.IsOnline)
	if err != nil {
		return err
	}
	d, err := s.h.SetDriverOnline.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDriverResponse(d))
}

// SetDriverActive handles PATCH /api/drivers/:id/state.
func (s *Server) SetDriverActive(c echo.Context) error {
	driverID, err := pathID(c)
	if err != nil {
		return err
	}
	var req DriverStateRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	cmd, err := commands.NewSetDriverActiveCommand(driverID, actorFrom(c), req.IsActive)
	if err != nil {
		return err
	}
	d, err := s.h.SetDriverActive.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDriverResponse(d))
}

func (s *Server) orderQuery(c echo.Context) (queries.GetOrderQuery, error) {
	orderID, err := pathID(c)
	if err != nil {
		return queries.GetOrderQuery{}, err
	}
	return queries.NewGetOrderQuery(orderID, actorFrom(c))
}

func (s *Server) respondOrder(c echo.Context, status int) func(*order.Order, error) error {
	return func(o *order.Order, err error) error {
		if err != nil {
			return err
		}
		return c.JSON(status, toOrderResponse(o))
	}
}

func pathID(c echo.Context) (kernel.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", c.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("id", err)
	}
	return kernel.UUIDFromGoogle(id), nil
}

func bindBody(c echo.Context, dest any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dest); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("body", err)
	}
	return nil
}

func (r CreateOrderRequest) details() (order.Details, error) {
	vehicleType, err := kernel.ParseVehicleType(r.VehicleType)
	if err != nil {
		return order.Details{}, err
	}
	from, err := r.From.toDomain("from")
	if err != nil {
		return order.Details{}, err
	}
	to, err := r.To.toDomain("to")
	if err != nil {
		return order.Details{}, err
	}
	return order.Details{
		VehicleType: vehicleType,
		From:        from,
		To:          to,
		DistanceKm:  r.DistanceKm,
		Price:       r.Price,
		WeightKg:    r.WeightKg,
	}, nil
}

func (e Endpoint) toDomain(name string) (kernel.Endpoint, error) {
	var point *kernel.GeoPoint
	if e.Location != nil {
		p, err := kernel.NewGeoPoint(e.Location.Lng, e.Location.Lat)
		if err != nil {
			return kernel.Endpoint{}, errs.NewValueIsInvalidErrorWithCause(name+".location", err)
		}
		point = &p
	}
	return kernel.NewEndpoint(name, e.Address, point)
}
