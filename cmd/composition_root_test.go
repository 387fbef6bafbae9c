package cmd_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bharathakku/delivery-backend/cmd"
	httpin "github.com/bharathakku/delivery-backend/internal/adapters/in/http"
	"github.com/bharathakku/delivery-backend/internal/adapters/in/ws"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/ports"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type DeliveryFlowSuite struct {
	suite.Suite
	app    *cmd.CompositionRoot
	server *httptest.Server

	customerToken string
	adminToken    string
}

func TestDeliveryFlowSuite(t *testing.T) {
	suite.Run(t, new(DeliveryFlowSuite))
}

func (s *DeliveryFlowSuite) SetupTest() {
	cfg := cmd.Config{
		Storage:             cmd.StorageMemory,
		GeoBackend:          cmd.GeoBackendMemory,
		JWTSecret:           "flow-secret",
		JWTTTL:              time.Hour,
		DriverSweepSchedule: "@every 1h",
		DriverStaleAfter:    time.Minute,
		AutoAssignRadiusM:   15000,
		ExternalCallTimeout: 2 * time.Second,
	}

	app, err := cmd.NewCompositionRoot(s.T().Context(), cfg, nil, nil)
	s.Require().NoError(err)
	s.app = app

	router, err := app.CreateRouter(s.T().Context())
	s.Require().NoError(err)
	s.server = httptest.NewServer(router)

	s.customerToken = s.token(kernel.NewUUID(), kernel.RoleCustomer)
	s.adminToken = s.token(kernel.NewUUID(), kernel.RoleAdmin)
}

func (s *DeliveryFlowSuite) TearDownTest() {
	s.server.Close()
	s.Require().NoError(s.app.Close())
}

func (s *DeliveryFlowSuite) token(userID kernel.UUID, role kernel.Role) string {
	token, err := s.app.Tokens().Issue(userID, role)
	s.Require().NoError(err)
	return token
}

func (s *DeliveryFlowSuite) call(method, path, token string, body any, out any) int {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(s.T().Context(), method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// onlineDriver registers a driver at the given point and returns its token and id.
func (s *DeliveryFlowSuite) onlineDriver(lat, lng float64) (string, string) {
	token := s.token(kernel.NewUUID(), kernel.RoleDriver)

	var profile httpin.DriverResponse
	s.Require().Equal(http.StatusOK, s.call(http.MethodPut, "/api/drivers/me", token,
		httpin.ProfileRequest{VehicleType: "two-wheeler", CapacityKg: 20}, &profile))

	var located httpin.DriverResponse
	s.Require().Equal(http.StatusOK, s.call(http.MethodPost, "/api/drivers/me/location", token,
		httpin.LocationRequest{Lat: lat, Lng: lng}, &located))
	s.Require().True(located.IsOnline)

	return token, profile.ID
}

func (s *DeliveryFlowSuite) createOrder() httpin.OrderResponse {
	var created httpin.OrderResponse
	s.Require().Equal(http.StatusCreated, s.call(http.MethodPost, "/api/orders", s.customerToken,
		httpin.CreateOrderRequest{
			VehicleType: "two-wheeler",
			From:        httpin.Endpoint{Address: "MG Road", Location: &httpin.Location{Lat: 12.9750, Lng: 77.6050}},
			To:          httpin.Endpoint{Address: "Indiranagar"},
			DistanceKm:  5,
			Price:       200,
		}, &created))
	s.Require().Equal("created", created.Status)
	return created
}

func (s *DeliveryFlowSuite) dial(token string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	_ = resp.Body.Close()
	s.T().Cleanup(func() { _ = conn.Close() })
	return conn
}

func (s *DeliveryFlowSuite) readEvent(conn *websocket.Conn, kind string) ws.Envelope {
	for {
		s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
		var env ws.Envelope
		s.Require().NoError(conn.ReadJSON(&env))
		if env.Type == kind {
			return env
		}
	}
}

func (s *DeliveryFlowSuite) TestFullDelivery() {
	driverToken, driverID := s.onlineDriver(12.9716, 77.5946)
	created := s.createOrder()
	orderPath := "/api/orders/" + created.ID

	customerConn := s.dial(s.customerToken)
	s.Require().NoError(customerConn.WriteJSON(map[string]any{
		"type": ws.EventJoinOrder,
		"data": map[string]string{"orderId": created.ID},
	}))
	s.readEvent(customerConn, ws.EventJoined)

	var assigned httpin.OrderResponse
	s.Require().Equal(http.StatusOK, s.call(http.MethodPost, orderPath+"/auto-assign", s.adminToken, nil, &assigned))
	s.Equal("assigned", assigned.Status)
	s.Require().NotNil(assigned.DriverID)
	s.Equal(driverID, *assigned.DriverID)

	var status struct {
		Status   string `json:"status"`
		DriverID string `json:"driverId"`
	}
	s.Require().NoError(json.Unmarshal(s.readEvent(customerConn, ports.EventOrderStatus).Data, &status))
	s.Equal("assigned", status.Status)
	s.Equal(driverID, status.DriverID)

	for _, next := range []string{"accepted", "picked_up"} {
		var resp httpin.OrderResponse
		s.Require().Equal(http.StatusOK, s.call(http.MethodPatch, orderPath+"/status", driverToken,
			httpin.ChangeStatusRequest{Status: next}, &resp))
		s.Equal(next, resp.Status)
	}

	actual := 7.0
	var inTransit httpin.OrderResponse
	s.Require().Equal(http.StatusOK, s.call(http.MethodPatch, orderPath+"/status", driverToken,
		httpin.ChangeStatusRequest{Status: "in_transit", ActualDistanceKm: &actual}, &inTransit))
	s.Require().NotNil(inTransit.AdjustedPrice)
	s.InDelta(280.0, *inTransit.AdjustedPrice, 1e-9)

	var delivered httpin.OrderResponse
	s.Require().Equal(http.StatusOK, s.call(http.MethodPatch, orderPath+"/status", driverToken,
		httpin.ChangeStatusRequest{Status: "delivered"}, &delivered))
	s.Equal("delivered", delivered.Status)
	s.Len(delivered.StatusHistory, 6)

	var fare kernel.FareBreakdown
	s.Require().Equal(http.StatusOK, s.call(http.MethodGet, orderPath+"/fare", s.customerToken, nil, &fare))
	s.InDelta(40.0, fare.PerKmRate, 1e-9)
	s.InDelta(2.0, fare.ExtraDistanceKm, 1e-9)
	s.InDelta(280.0, fare.AdjustedPrice, 1e-9)

	var tracking httpin.TrackingResponse
	s.Require().Equal(http.StatusOK, s.call(http.MethodGet, orderPath+"/tracking", s.customerToken, nil, &tracking))
	s.Equal("delivered", tracking.Status)
	s.Len(tracking.Timeline, 6)
	s.Require().NotNil(tracking.Driver)
	s.Equal(driverID, tracking.Driver.DriverID)

	var rated httpin.OrderResponse
	s.Require().Equal(http.StatusOK, s.call(http.MethodPost, orderPath+"/rate", s.customerToken,
		httpin.RateRequest{Score: 5, Review: "quick"}, &rated))
	s.Require().NotNil(rated.Rating)
	s.Equal(5, rated.Rating.Score)

	s.Equal(http.StatusConflict, s.call(http.MethodPatch, orderPath+"/status", driverToken,
		httpin.ChangeStatusRequest{Status: "in_transit"}, nil))
}

func (s *DeliveryFlowSuite) TestAccessRules() {
	driverToken, _ := s.onlineDriver(12.9716, 77.5946)
	created := s.createOrder()
	orderPath := "/api/orders/" + created.ID

	stranger := s.token(kernel.NewUUID(), kernel.RoleCustomer)
	s.Equal(http.StatusForbidden, s.call(http.MethodGet, orderPath, stranger, nil, nil))
	s.Equal(http.StatusForbidden, s.call(http.MethodGet, orderPath, driverToken, nil, nil))
	s.Equal(http.StatusForbidden, s.call(http.MethodPost, orderPath+"/auto-assign", s.customerToken, nil, nil))
	s.Equal(http.StatusForbidden, s.call(http.MethodGet, "/api/orders/active", s.customerToken, nil, nil))
	s.Equal(http.StatusUnauthorized, s.call(http.MethodGet, orderPath, "bogus", nil, nil))
	s.Equal(http.StatusNotFound, s.call(http.MethodGet, "/api/orders/"+kernel.NewUUID().String(), s.adminToken, nil, nil))
	s.Equal(http.StatusBadRequest, s.call(http.MethodGet, "/api/orders/not-a-uuid", s.adminToken, nil, nil))

	var active []httpin.OrderResponse
	s.Require().Equal(http.StatusOK, s.call(http.MethodGet, "/api/orders/active", s.adminToken, nil, &active))
	s.Len(active, 1)

	var cancelled httpin.OrderResponse
	s.Require().Equal(http.StatusOK, s.call(http.MethodPost, orderPath+"/cancel", s.customerToken,
		httpin.CancelRequest{Reason: "changed my mind"}, &cancelled))
	s.Equal("cancelled", cancelled.Status)
	s.Equal(http.StatusConflict, s.call(http.MethodPost, orderPath+"/auto-assign", s.adminToken, nil, nil))
}

func (s *DeliveryFlowSuite) TestAutoAssignWithoutDrivers() {
	created := s.createOrder()

	s.Equal(http.StatusConflict, s.call(http.MethodPost, "/api/orders/"+created.ID+"/auto-assign", s.adminToken, nil, nil))
}

func (s *DeliveryFlowSuite) TestConcurrentAssignmentHasOneWinner() {
	_, firstID := s.onlineDriver(12.9716, 77.5946)
	_, secondID := s.onlineDriver(12.9720, 77.5950)
	created := s.createOrder()

	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i, driverID := range []string{firstID, secondID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes[i] = s.call(http.MethodPost, "/api/orders/"+created.ID+"/assign", s.adminToken,
				httpin.AssignRequest{DriverID: driverID}, nil)
		}()
	}
	wg.Wait()

	s.ElementsMatch([]int{http.StatusOK, http.StatusConflict}, codes)

	var got httpin.OrderResponse
	s.Require().Equal(http.StatusOK, s.call(http.MethodGet, "/api/orders/"+created.ID, s.adminToken, nil, &got))
	s.Equal("assigned", got.Status)
	s.Len(got.StatusHistory, 2)
}

func (s *DeliveryFlowSuite) TestPresenceSweep() {
	driverToken, driverID := s.onlineDriver(12.9716, 77.5946)
	sweep := s.app.CreateMarkStaleDriversOfflineCommandHandler()

	swept, err := sweep.Handle(s.T().Context())
	s.Require().NoError(err)
	s.Empty(swept)

	var offline httpin.DriverResponse
	s.Require().Equal(http.StatusOK, s.call(http.MethodPost, "/api/drivers/me/online", driverToken,
		httpin.OnlineRequest{IsOnline: false}, &offline))
	s.False(offline.IsOnline)
	s.Equal(driverID, offline.ID)

	created := s.createOrder()
	s.Equal(http.StatusConflict, s.call(http.MethodPost, "/api/orders/"+created.ID+"/auto-assign", s.adminToken, nil, nil))
}

func (s *DeliveryFlowSuite) TestOrderHistoryListings() {
	first := s.createOrder()
	time.Sleep(time.Millisecond)
	second := s.createOrder()

	otherCustomer := s.token(kernel.NewUUID(), kernel.RoleCustomer)
	var foreign httpin.OrderResponse
	s.Require().Equal(http.StatusCreated, s.call(http.MethodPost, "/api/orders", otherCustomer,
		httpin.CreateOrderRequest{
			VehicleType: "two-wheeler",
			From:        httpin.Endpoint{Address: "Koramangala"},
			To:          httpin.Endpoint{Address: "HSR Layout"},
			DistanceKm:  3,
			Price:       90,
		}, &foreign))

	var mine []httpin.OrderResponse
	s.Require().Equal(http.StatusOK, s.call(http.MethodGet, "/api/orders/my", s.customerToken, nil, &mine))
	s.Require().Len(mine, 2)
	s.Equal(second.ID, mine[0].ID)
	s.Equal(first.ID, mine[1].ID)

	var alias []httpin.OrderResponse
	s.Require().Equal(http.StatusOK, s.call(http.MethodGet, "/api/orders/my-orders?limit=1", s.customerToken, nil, &alias))
	s.Require().Len(alias, 1)
	s.Equal(second.ID, alias[0].ID)

	var byCustomer []httpin.OrderResponse
	s.Require().Equal(http.StatusOK, s.call(http.MethodGet, "/api/orders/by-customer/"+first.CustomerID, s.adminToken, nil, &byCustomer))
	s.Len(byCustomer, 2)

	var all []httpin.OrderResponse
	s.Require().Equal(http.StatusOK, s.call(http.MethodGet, "/api/orders", s.adminToken, nil, &all))
	s.Require().Len(all, 3)
	s.Equal(foreign.ID, all[0].ID)

	s.Equal(http.StatusForbidden, s.call(http.MethodGet, "/api/orders", s.customerToken, nil, nil))
	s.Equal(http.StatusForbidden, s.call(http.MethodGet, "/api/orders/by-customer/"+first.CustomerID, s.customerToken, nil, nil))
	s.Equal(http.StatusForbidden, s.call(http.MethodGet, "/api/orders/my", s.adminToken, nil, nil))
	s.Equal(http.StatusBadRequest, s.call(http.MethodGet, "/api/orders/by-customer/not-a-uuid", s.adminToken, nil, nil))
}

func (s *DeliveryFlowSuite) TestDeactivatedDriverIsNotAutoAssigned() {
	driverToken, driverID := s.onlineDriver(12.9716, 77.5946)

	var state httpin.DriverResponse
	s.Require().Equal(http.StatusOK, s.call(http.MethodPatch, "/api/drivers/"+driverID+"/state", s.adminToken,
		httpin.DriverStateRequest{IsActive: false}, &state))

	// a later heartbeat keeps the driver online but not active
	var located httpin.DriverResponse
	s.Require().Equal(http.StatusOK, s.call(http.MethodPost, "/api/drivers/me/location", driverToken,
		httpin.LocationRequest{Lat: 12.9716, Lng: 77.5946}, &located))
	s.True(located.IsOnline)
	s.False(located.IsActive)

	created := s.createOrder()
	s.Equal(http.StatusConflict, s.call(http.MethodPost, "/api/orders/"+created.ID+"/auto-assign", s.adminToken, nil, nil))
}
