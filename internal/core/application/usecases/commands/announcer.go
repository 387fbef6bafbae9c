package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
	"github.com/bharathakku/delivery-backend/internal/core/ports"
)

// OrderStatusPayload is the data of order-status and order-assigned events.
type OrderStatusPayload struct {
	OrderID       string    `json:"orderId"`
	Status        string    `json:"status"`
	DriverID      string    `json:"driverId,omitempty"`
	Note          string    `json:"note,omitempty"`
	AdjustedPrice *float64  `json:"adjustedPrice,omitempty"`
	At            time.Time `json:"at"`
}

// DriverLocationPayload is the data of driver-location events.
type DriverLocationPayload struct {
	OrderID  string    `json:"orderId"`
	DriverID string    `json:"driverId"`
	Lat      float64   `json:"lat"`
	Lng      float64   `json:"lng"`
	Heading  *float64  `json:"heading,omitempty"`
	Speed    *float64  `json:"speed,omitempty"`
	At       time.Time `json:"at"`
}

// OrderAnnouncer publishes committed changes to realtime subscribers and to the
// notification collaborator. Failures are logged; they never undo the change.
type OrderAnnouncer struct {
	publisher ports.EventPublisher
	notifier  ports.Notifier
	logger    *slog.Logger
	timeout   time.Duration
}

func NewOrderAnnouncer(
	publisher ports.EventPublisher,
	notifier ports.Notifier,
	logger *slog.Logger,
	timeout time.Duration,
) *OrderAnnouncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderAnnouncer{
		publisher: publisher,
		notifier:  notifier,
		logger:    logger.With("component", "order_announcer"),
		timeout:   timeout,
	}
}

// StatusChanged announces the latest status of o.
func (a *OrderAnnouncer) StatusChanged(ctx context.Context, o *order.Order) {
	if a == nil || o == nil {
		return
	}

	history := o.History()
	last := history[len(history)-1]
	payload := OrderStatusPayload{
		OrderID: o.ID().String(),
		Status:  last.Status().String(),
		Note:    last.Note(),
		At:      last.At(),
	}
	driverID, hasDriver := o.DriverID()
	if hasDriver {
		payload.DriverID = driverID.String()
	}
	if price, ok := o.AdjustedPrice(); ok {
		payload.AdjustedPrice = &price
	}

	a.publish(ctx, ports.OrderTopic(o.ID()), ports.EventOrderStatus, payload, last.At())

	switch last.Status() {
	case order.Assigned:
		if hasDriver {
			a.publish(ctx, ports.DriverTopic(driverID), ports.EventOrderAssigned, payload, last.At())
		}
		a.notify(ctx, ports.NotificationOrderAssigned, o, payload)
	case order.Delivered:
		a.notify(ctx, ports.NotificationOrderDelivered, o, payload)
	default:
	}
}

// DriverMoved relays a driver position to the rooms of the orders the driver is working on.
func (a *OrderAnnouncer) DriverMoved(
	ctx context.Context,
	driverID kernel.UUID,
	point kernel.GeoPoint,
	heading, speed *float64,
	at time.Time,
	orders []*order.Order,
) {
	if a == nil {
		return
	}
	for _, o := range orders {
		a.publish(ctx, ports.OrderTopic(o.ID()), ports.EventDriverLocation, DriverLocationPayload{
			OrderID:  o.ID().String(),
			DriverID: driverID.String(),
			Lat:      point.Lat(),
			Lng:      point.Lng(),
			Heading:  heading,
			Speed:    speed,
			At:       at,
		}, at)
	}
}

func (a *OrderAnnouncer) publish(ctx context.Context, topic, eventType string, data any, at time.Time) {
	if a.publisher == nil {
		return
	}
	a.publisher.Publish(ctx, topic, ports.Event{Type: eventType, Topic: topic, Data: data, At: at})
}

func (a *OrderAnnouncer) notify(ctx context.Context, kind string, o *order.Order, payload OrderStatusPayload) {
	if a.notifier == nil {
		return
	}

	notifyCtx := context.WithoutCancel(ctx)
	if a.timeout > 0 {
		var cancel context.CancelFunc
		notifyCtx, cancel = context.WithTimeout(notifyCtx, a.timeout)
		defer cancel()
	}

	err := a.notifier.Notify(notifyCtx, ports.Notification{
		Kind:       kind,
		OrderID:    payload.OrderID,
		CustomerID: o.CustomerID().String(),
		DriverID:   payload.DriverID,
		Status:     payload.Status,
		At:         payload.At,
	})
	if err != nil {
		a.logger.Warn("notification failed", "kind", kind, "order_id", payload.OrderID, "error", err)
	}
}
