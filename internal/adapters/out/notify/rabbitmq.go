// Package notify hands order notifications to the user messaging collaborator.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	ErrNotAcknowledged = errors.New("rabbitmq: publish not acknowledged")
	ErrChannelClosed   = errors.New("rabbitmq: publish channel is not open")
)

var _ ports.Notifier = (*RabbitNotifier)(nil)

// Channel is the part of *amqp.Channel the notifier publishes through.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
}

// RabbitNotifier publishes notifications as persistent JSON to a topic exchange,
// routed by notification kind, and waits for the broker confirm.
type RabbitNotifier struct {
	exchange string
	timeout  time.Duration

	mu       sync.Mutex
	ch       Channel
	confirms <-chan amqp.Confirmation
	closer   func() error
}

func NewRabbitNotifier(ch Channel, confirms <-chan amqp.Confirmation, exchange string, timeout time.Duration) *RabbitNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RabbitNotifier{
		exchange: exchange,
		timeout:  timeout,
		ch:       ch,
		confirms: confirms,
		closer:   func() error { return nil },
	}
}

// DialRabbitNotifier connects to url, declares the exchange and switches the
// channel to confirm mode.
func DialRabbitNotifier(url, exchange string, timeout time.Duration) (*RabbitNotifier, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(30 * time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq confirms: %w", err)
	}

	n := NewRabbitNotifier(ch, ch.NotifyPublish(make(chan amqp.Confirmation, 1)), exchange, timeout)
	n.closer = conn.Close
	return n, nil
}

func (n *RabbitNotifier) Notify(ctx context.Context, notification ports.Notification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	// Confirms arrive in publish order, one publish in flight at a time.
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ch == nil || n.ch.IsClosed() {
		return ErrChannelClosed
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	err = n.ch.PublishWithContext(ctx, n.exchange, notification.Kind, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    notification.At,
		Body:         body,
	})
	if err != nil {
		return err
	}

	select {
	case c, ok := <-n.confirms:
		if !ok {
			return ErrChannelClosed
		}
		if !c.Ack {
			return ErrNotAcknowledged
		}
		return nil
	case <-ctx.Done():
		// Consume the late confirm so the next publish reads its own.
		select {
		case <-n.confirms:
		case <-time.After(2 * time.Second):
		}
		return ctx.Err()
	}
}

func (n *RabbitNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.closer()
}
