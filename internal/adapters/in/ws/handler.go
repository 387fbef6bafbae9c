// Package ws serves the realtime socket: clients join order, driver and chat
// topics and receive the events published to them.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bharathakku/delivery-backend/internal/adapters/out/realtime"
	"github.com/bharathakku/delivery-backend/internal/core/application/usecases/commands"
	"github.com/bharathakku/delivery-backend/internal/core/application/usecases/queries"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/driver"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
	"github.com/bharathakku/delivery-backend/internal/core/ports"
	"github.com/bharathakku/delivery-backend/internal/pkg/auth"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 5 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 30 * time.Second
	maxFrameSize = 1 << 16
)

// Client to server events.
const (
	EventJoinOrder      = "join-order"
	EventLeaveOrder     = "leave-order"
	EventJoinDriver     = "join-driver"
	EventLeaveDriver    = "leave-driver"
	EventDriverLocation = ports.EventDriverLocation
	EventChatJoin       = "chat:join"
	EventChatLeave      = "chat:leave"
	EventChatMessage    = ports.EventChatMessage
	EventChatRead       = ports.EventChatRead
)

// Server to client replies.
const (
	EventJoined = "joined"
	EventLeft   = "left"
	EventError  = "error"
)

var ErrThreadForbidden = errs.NewForbiddenError("join thread", "not a participant")

// Envelope is the frame format in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type Hub interface {
	Subscribe(sub realtime.Subscriber, topic string)
	Unsubscribe(sub realtime.Subscriber, topic string)
	UnsubscribeAll(sub realtime.Subscriber)
	ports.EventPublisher
}

type ActorResolver interface {
	Handle(ctx context.Context, userID kernel.UUID, role kernel.Role) (kernel.Actor, error)
}

type OrderViewer interface {
	Handle(ctx context.Context, query queries.GetOrderQuery) (*order.Order, error)
}

type LocationUpdater interface {
	Handle(ctx context.Context, cmd commands.UpdateDriverLocationCommand) (*driver.Driver, error)
}

// Handler upgrades authenticated requests and routes their frames.
type Handler struct {
	hub      Hub
	tokens   *auth.Manager
	resolver ActorResolver
	orders   OrderViewer
	location LocationUpdater
	logger   *slog.Logger
	upgrader websocket.Upgrader
	buffer   int
}

func NewHandler(
	hub Hub,
	tokens *auth.Manager,
	resolver ActorResolver,
	orders OrderViewer,
	location LocationUpdater,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		hub:      hub,
		tokens:   tokens,
		resolver: resolver,
		orders:   orders,
		location: location,
		logger:   logger.With("component", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		buffer: realtime.DefaultSendBuffer,
	}
}

// ServeHTTP authenticates with the bearer header or the token query parameter
// before upgrading.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	actor, err := h.authenticate(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "error", err)
		return
	}

	client := realtime.NewClient(kernel.NewUUID().String(), h.buffer)
	s := &session{
		handler: h,
		conn:    conn,
		client:  client,
		actor:   actor,
		logger:  h.logger.With("connection", client.ID(), "user_id", actor.UserID().String(), "role", string(actor.Role())),
	}
	s.run(r.Context())
}

func (h *Handler) authenticate(r *http.Request) (kernel.Actor, error) {
	raw, err := auth.TokenFromRequest(r)
	if err != nil {
		return kernel.Actor{}, err
	}
	identity, err := h.tokens.Parse(raw)
	if err != nil {
		return kernel.Actor{}, err
	}
	return h.resolver.Handle(r.Context(), identity.UserID(), identity.Role())
}

type session struct {
	handler *Handler
	conn    *websocket.Conn
	client  *realtime.Client
	actor   kernel.Actor
	logger  *slog.Logger
}

func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writeLoop()
	}()

	s.logger.Info("connected")
	s.readLoop(ctx)

	s.handler.hub.UnsubscribeAll(s.client)
	s.client.Close()
	<-done
	_ = s.conn.Close()
	s.logger.Info("disconnected")
}

func (s *session) readLoop(ctx context.Context) {
	s.conn.SetReadLimit(maxFrameSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("read failed", "error", err)
			}
			return
		}

		var in Envelope
		if err := json.Unmarshal(frame, &in); err != nil {
			s.reply(EventError, errorData{Message: "malformed frame"})
			continue
		}
		if err := s.dispatch(ctx, in); err != nil {
			s.reply(EventError, errorData{Event: in.Type, Message: err.Error()})
		}
	}
}

// writeLoop owns all writes to the connection.
func (s *session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	send := s.client.Send()
	for {
		select {
		case payload, ok := <-send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				_ = s.conn.Close()
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				_ = s.conn.Close()
				return
			}
		}
	}
}

type errorData struct {
	Event   string `json:"event,omitempty"`
	Message string `json:"message"`
}

type topicData struct {
	Topic string `json:"topic"`
}

type orderRef struct {
	OrderID string `json:"orderId"`
}

type driverRef struct {
	DriverID string `json:"driverId"`
}

type locationData struct {
	Lat     float64  `json:"lat"`
	Lng     float64  `json:"lng"`
	Heading *float64 `json:"heading,omitempty"`
	Speed   *float64 `json:"speed,omitempty"`
}

type threadRef struct {
	ThreadID string `json:"threadId"`
}

type chatMessageIn struct {
	ThreadID string `json:"threadId"`
	Message  string `json:"message"`
}

type chatReadIn struct {
	ThreadID string     `json:"threadId"`
	At       *time.Time `json:"at,omitempty"`
}

// ChatMessage is the data of chat:message events.
type ChatMessage struct {
	ThreadID string    `json:"threadId"`
	Message  string    `json:"message"`
	From     string    `json:"from"`
	Role     string    `json:"role"`
	At       time.Time `json:"at"`
}

// ChatRead is the data of chat:read events.
type ChatRead struct {
	ThreadID string    `json:"threadId"`
	By       string    `json:"by"`
	At       time.Time `json:"at"`
}

func (s *session) dispatch(ctx context.Context, in Envelope) error {
	switch in.Type {
	case EventJoinOrder, EventLeaveOrder:
		var ref orderRef
		if err := decode(in.Data, &ref); err != nil {
			return err
		}
		id, err := kernel.UUIDFromString(ref.OrderID)
		if err != nil {
			return errs.NewValueIsInvalidErrorWithCause("orderId", err)
		}
		topic := ports.OrderTopic(id)
		if in.Type == EventLeaveOrder {
			return s.leave(topic)
		}
		query, err := queries.NewGetOrderQuery(id, s.actor)
		if err != nil {
			return err
		}
		if _, err := s.handler.orders.Handle(ctx, query); err != nil {
			return err
		}
		return s.join(topic)

	case EventJoinDriver, EventLeaveDriver:
		var ref driverRef
		if err := decode(in.Data, &ref); err != nil {
			return err
		}
		id, err := kernel.UUIDFromString(ref.DriverID)
		if err != nil {
			return errs.NewValueIsInvalidErrorWithCause("driverId", err)
		}
		topic := ports.DriverTopic(id)
		if in.Type == EventLeaveDriver {
			return s.leave(topic)
		}
		if !s.actor.Is(kernel.RoleAdmin) {
			own, ok := s.actor.DriverID()
			if !ok || !own.IsEqual(id) {
				return errs.NewForbiddenError("join driver", "not this driver")
			}
		}
		return s.join(topic)

	case EventDriverLocation:
		if !s.actor.Is(kernel.RoleDriver) {
			return errs.NewForbiddenError("driver location", "drivers only")
		}
		var loc locationData
		if err := decode(in.Data, &loc); err != nil {
			return err
		}
		point, err := kernel.NewGeoPoint(loc.Lng, loc.Lat)
		if err != nil {
			return err
		}
		cmd, err := commands.NewUpdateDriverLocationCommand(s.actor, point, loc.Heading, loc.Speed)
		if err != nil {
			return err
		}
		_, err = s.handler.location.Handle(ctx, cmd)
		return err

	case EventChatJoin, EventChatLeave:
		var ref threadRef
		if err := decode(in.Data, &ref); err != nil {
			return err
		}
		if err := s.checkThread(ref.ThreadID); err != nil {
			return err
		}
		topic := ports.ThreadTopic(ref.ThreadID)
		if in.Type == EventChatLeave {
			return s.leave(topic)
		}
		return s.join(topic)

	case EventChatMessage:
		var msg chatMessageIn
		if err := decode(in.Data, &msg); err != nil {
			return err
		}
		if err := s.checkThread(msg.ThreadID); err != nil {
			return err
		}
		if strings.TrimSpace(msg.Message) == "" {
			return errs.NewValueIsRequiredError("message")
		}
		now := time.Now().UTC()
		s.handler.hub.Publish(ctx, ports.ThreadTopic(msg.ThreadID), ports.Event{
			Type: EventChatMessage,
			Data: ChatMessage{
				ThreadID: msg.ThreadID,
				Message:  msg.Message,
				From:     s.actor.UserID().String(),
				Role:     string(s.actor.Role()),
				At:       now,
			},
			At: now,
		})
		return nil

	case EventChatRead:
		var read chatReadIn
		if err := decode(in.Data, &read); err != nil {
			return err
		}
		if err := s.checkThread(read.ThreadID); err != nil {
			return err
		}
		now := time.Now().UTC()
		at := now
		if read.At != nil {
			at = read.At.UTC()
		}
		s.handler.hub.Publish(ctx, ports.ThreadTopic(read.ThreadID), ports.Event{
			Type: EventChatRead,
			Data: ChatRead{ThreadID: read.ThreadID, By: s.actor.UserID().String(), At: at},
			At:   now,
		})
		return nil

	default:
		return errs.NewValueIsInvalidError("type")
	}
}

// checkThread allows admins into any thread and everyone else into their own.
func (s *session) checkThread(threadID string) error {
	if threadID == "" {
		return errs.NewValueIsRequiredError("threadId")
	}
	if s.actor.Is(kernel.RoleAdmin) || threadID == ThreadFor(s.actor.UserID()) {
		return nil
	}
	return ErrThreadForbidden
}

func (s *session) join(topic string) error {
	s.handler.hub.Subscribe(s.client, topic)
	s.reply(EventJoined, topicData{Topic: topic})
	return nil
}

func (s *session) leave(topic string) error {
	s.handler.hub.Unsubscribe(s.client, topic)
	s.reply(EventLeft, topicData{Topic: topic})
	return nil
}

func (s *session) reply(kind string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("encode reply", "error", err)
		return
	}
	payload, err := json.Marshal(Envelope{Type: kind, Data: raw})
	if err != nil {
		s.logger.Error("encode reply", "error", err)
		return
	}
	if !s.client.Deliver(payload) {
		s.logger.Warn("reply dropped", "type", kind)
	}
}

// ThreadFor returns the support thread between a user and the admins.
func ThreadFor(userID kernel.UUID) string {
	return "admin:" + userID.String()
}

func decode(raw json.RawMessage, dest any) error {
	if len(raw) == 0 {
		return errs.NewValueIsRequiredError("data")
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("data", err)
	}
	return nil
}
