package ports

import (
	"context"
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
)

const (
	EventOrderStatus    = "order-status"
	EventOrderAssigned  = "order-assigned"
	EventDriverLocation = "driver-location"
	EventChatMessage    = "chat:message"
	EventChatRead       = "chat:read"
)

func OrderTopic(id kernel.UUID) string {
	return "order:" + id.String()
}

func DriverTopic(id kernel.UUID) string {
	return "driver:" + id.String()
}

func ThreadTopic(threadID string) string {
	return "thread:" + threadID
}

// Event is pushed to realtime subscribers of a topic.
type Event struct {
	Type  string    `json:"type"`
	Topic string    `json:"topic"`
	Data  any       `json:"data"`
	At    time.Time `json:"at"`
}

// EventPublisher fans events out to live subscribers. Delivery is best effort and
// never reports failure to the caller.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event Event)
}

const (
	NotificationOrderAssigned  = "order.assigned"
	NotificationOrderDelivered = "order.delivered"
)

// Notification is handed to the user messaging collaborator.
type Notification struct {
	Kind       string    `json:"kind"`
	OrderID    string    `json:"orderId"`
	CustomerID string    `json:"customerId"`
	DriverID   string    `json:"driverId,omitempty"`
	Status     string    `json:"status"`
	At         time.Time `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Locker provides short exclusive leases, used to keep background jobs from
// running on several replicas at once.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}
