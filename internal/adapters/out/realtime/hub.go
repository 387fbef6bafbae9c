// Package realtime fans events out to live connections by topic.
//
// The hub only routes. It does not persist, acknowledge or retry: an event
// published to a topic nobody listens to is dropped, and a subscriber whose
// buffer is full misses the event.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	"github.com/bharathakku/delivery-backend/internal/core/ports"
)

var _ ports.EventPublisher = (*Hub)(nil)

// Subscriber is one live connection. Deliver must not block and reports
// whether the payload was accepted.
type Subscriber interface {
	ID() string
	Deliver(payload []byte) bool
}

type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[string]Subscriber
	member map[string]map[string]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		topics: make(map[string]map[string]Subscriber),
		member: make(map[string]map[string]struct{}),
		logger: logger.With("component", "realtime_hub"),
	}
}

func (h *Hub) Subscribe(sub Subscriber, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[string]Subscriber)
		h.topics[topic] = subs
	}
	subs[sub.ID()] = sub

	joined, ok := h.member[sub.ID()]
	if !ok {
		joined = make(map[string]struct{})
		h.member[sub.ID()] = joined
	}
	joined[topic] = struct{}{}
}

func (h *Hub) Unsubscribe(sub Subscriber, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.remove(sub.ID(), topic)
}

// UnsubscribeAll drops every membership of sub. Called when a connection closes.
func (h *Hub) UnsubscribeAll(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for topic := range h.member[sub.ID()] {
		h.remove(sub.ID(), topic)
	}
}

// Topics lists the topics sub is currently subscribed to, sorted.
func (h *Hub) Topics(sub Subscriber) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, 0, len(h.member[sub.ID()]))
	for topic := range h.member[sub.ID()] {
		out = append(out, topic)
	}
	slices.Sort(out)
	return out
}

func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.topics[topic])
}

// Publish encodes event once and hands it to every current subscriber of topic.
func (h *Hub) Publish(_ context.Context, topic string, event ports.Event) {
	h.mu.RLock()
	subs := make([]Subscriber, 0, len(h.topics[topic]))
	for _, sub := range h.topics[topic] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	event.Topic = topic
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event", "topic", topic, "type", event.Type, "error", err)
		return
	}

	for _, sub := range subs {
		if !sub.Deliver(payload) {
			h.logger.Warn("subscriber buffer full, event dropped",
				"topic", topic, "type", event.Type, "subscriber", sub.ID())
		}
	}
}

func (h *Hub) remove(id, topic string) {
	if subs, ok := h.topics[topic]; ok {
		delete(subs, id)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	if joined, ok := h.member[id]; ok {
		delete(joined, topic)
		if len(joined) == 0 {
			delete(h.member, id)
		}
	}
}
