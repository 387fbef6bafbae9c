package http

import (
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/application/usecases/queries"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/driver"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
)

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Endpoint struct {
	Address  string    `json:"address,omitempty"`
	Location *Location `json:"location,omitempty"`
}

type CreateOrderRequest struct {
	CustomerID  *string  `json:"customerId,omitempty"`
	VehicleType string   `json:"vehicleType"`
	From        Endpoint `json:"from"`
	To          Endpoint `json:"to"`
	DistanceKm  float64  `json:"distanceKm"`
	Price       float64  `json:"price"`
	WeightKg    float64  `json:"weightKg,omitempty"`
}

type ChangeStatusRequest struct {
	Status           string   `json:"status"`
	Note             string   `json:"note,omitempty"`
	ActualDistanceKm *float64 `json:"actualDistanceKm,omitempty"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

type AssignRequest struct {
	DriverID string `json:"driverId"`
	Note     string `json:"note,omitempty"`
}

type ActualsRequest struct {
	ActualDistanceKm float64 `json:"actualDistanceKm"`
}

type ProofRequest struct {
	URL  string `json:"url"`
	Kind string `json:"kind,omitempty"`
	Note string `json:"note,omitempty"`
}

type RateRequest struct {
	Score  int    `json:"score"`
	Review string `json:"review,omitempty"`
}

type LocationRequest struct {
	Lat     float64  `json:"lat"`
	Lng     float64  `json:"lng"`
	Heading *float64 `json:"heading,omitempty"`
	Speed   *float64 `json:"speed,omitempty"`
}

type OnlineRequest struct {
	IsOnline bool `json:"isOnline"`
}

type ProfileRequest struct {
	VehicleType string  `json:"vehicleType,omitempty"`
	CapacityKg  float64 `json:"capacityKg,omitempty"`
}

type DriverStateRequest struct {
	IsActive bool `json:"isActive"`
}

type HistoryEntry struct {
	Status string    `json:"status"`
	At     time.Time `json:"at"`
	By     string    `json:"by,omitempty"`
	Role   string    `json:"role"`
	Note   string    `json:"note,omitempty"`
}

type Proof struct {
	URL  string    `json:"url"`
	Kind string    `json:"kind"`
	By   string    `json:"by"`
	Note string    `json:"note,omitempty"`
	At   time.Time `json:"at"`
}

type Rating struct {
	Score  int       `json:"score"`
	Review string    `json:"review,omitempty"`
	At     time.Time `json:"at"`
}

type OrderResponse struct {
	ID               string                `json:"id"`
	CustomerID       string                `json:"customerId"`
	DriverID         *string               `json:"driverId,omitempty"`
	VehicleType      string                `json:"vehicleType"`
	From             Endpoint              `json:"from"`
	To               Endpoint              `json:"to"`
	DistanceKm       float64               `json:"distanceKm"`
	Price            float64               `json:"price"`
	WeightKg         float64               `json:"weightKg"`
	ActualDistanceKm *float64              `json:"actualDistanceKm,omitempty"`
	AdjustedPrice    *float64              `json:"adjustedPrice,omitempty"`
	FareBreakdown    *kernel.FareBreakdown `json:"fareBreakdown,omitempty"`
	Status           string                `json:"status"`
	StatusHistory    []HistoryEntry        `json:"statusHistory"`
	Proofs           []Proof               `json:"proofs"`
	Rating           *Rating               `json:"rating,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
	Version          int                   `json:"version"`
}

type DriverResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	VehicleType string     `json:"vehicleType,omitempty"`
	CapacityKg  float64    `json:"capacityKg"`
	IsOnline    bool       `json:"isOnline"`
	IsActive    bool       `json:"isActive"`
	Location    *Location  `json:"location,omitempty"`
	LastSeenAt  *time.Time `json:"lastSeenAt,omitempty"`
}

type DriverPosition struct {
	DriverID   string     `json:"driverId"`
	Location   *Location  `json:"location,omitempty"`
	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
	IsOnline   bool       `json:"isOnline"`
}

type TrackingResponse struct {
	OrderID  string          `json:"orderId"`
	Status   string          `json:"status"`
	Timeline []HistoryEntry  `json:"timeline"`
	Driver   *DriverPosition `json:"driver,omitempty"`
}

func toEndpoint(e kernel.Endpoint) Endpoint {
	out := Endpoint{Address: e.Address()}
	if p, ok := e.Point(); ok {
		out.Location = toLocation(p)
	}
	return out
}

func toLocation(p kernel.GeoPoint) *Location {
	return &Location{Lat: p.Lat(), Lng: p.Lng()}
}

func toHistory(entries []order.HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, h := range entries {
		entry := HistoryEntry{
			Status: h.Status().String(),
			At:     h.At(),
			Role:   string(h.Role()),
			Note:   h.Note(),
		}
		if !h.By().IsNil() {
			entry.By = h.By().String()
		}
		out = append(out, entry)
	}
	return out
}

func toOrderResponse(o *order.Order) OrderResponse {
	resp := OrderResponse{
		ID:            o.ID().String(),
		CustomerID:    o.CustomerID().String(),
		VehicleType:   string(o.VehicleType()),
		From:          toEndpoint(o.From()),
		To:            toEndpoint(o.To()),
		DistanceKm:    o.DistanceKm(),
		Price:         o.Price(),
		WeightKg:      o.WeightKg(),
		Status:        o.Status().String(),
		StatusHistory: toHistory(o.History()),
		Proofs:        make([]Proof, 0, len(o.Proofs())),
		CreatedAt:     o.CreatedAt(),
		UpdatedAt:     o.UpdatedAt(),
		Version:       o.Version(),
	}
	if id, ok := o.DriverID(); ok {
		s := id.String()
		resp.DriverID = &s
	}
	if v, ok := o.ActualDistanceKm(); ok {
		resp.ActualDistanceKm = &v
	}
	if v, ok := o.AdjustedPrice(); ok {
		resp.AdjustedPrice = &v
	}
	if fb, ok := o.FareBreakdown(); ok {
		resp.FareBreakdown = &fb
	}
	for _, p := range o.Proofs() {
		resp.Proofs = append(resp.Proofs, Proof{
			URL:  p.URL(),
			Kind: string(p.Kind()),
			By:   p.By().String(),
			Note: p.Note(),
			At:   p.At(),
		})
	}
	if r, ok := o.Rating(); ok {
		resp.Rating = &Rating{Score: r.Score(), Review: r.Review(), At: r.At()}
	}
	return resp
}

func toOrderList(orders []*order.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}

func toDriverResponse(d *driver.Driver) DriverResponse {
	resp := DriverResponse{
		ID:          d.ID().String(),
		UserID:      d.UserID().String(),
		VehicleType: string(d.VehicleType()),
		CapacityKg:  d.CapacityKg(),
		IsOnline:    d.IsOnline(),
		IsActive:    d.IsActive(),
	}
	if p, ok := d.Location(); ok {
		resp.Location = toLocation(p)
	}
	if seen := d.LastSeenAt(); !seen.IsZero() {
		resp.LastSeenAt = &seen
	}
	return resp
}

func toTrackingResponse(t queries.OrderTracking) TrackingResponse {
	resp := TrackingResponse{
		OrderID:  t.OrderID.String(),
		Status:   t.Status.String(),
		Timeline: toHistory(t.Timeline),
	}
	if t.Driver != nil {
		pos := &DriverPosition{DriverID: t.Driver.DriverID.String(), IsOnline: t.Driver.IsOnline}
		if t.Driver.Location != nil {
			pos.Location = toLocation(*t.Driver.Location)
		}
		if !t.Driver.LastSeenAt.IsZero() {
			seen := t.Driver.LastSeenAt
			pos.LastSeenAt = &seen
		}
		resp.Driver = pos
	}
	return resp
}
