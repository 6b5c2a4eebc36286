package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"FundFlow/internal/domain/models"
	drepo "FundFlow/internal/domain/repository"
	applogger "FundFlow/pkg/logger"
)

// Conn is the transport side of one client session. The hub only needs text
// frames and close; the gorilla adapter lives in handler.go and tests plug in
// fakes.
type Conn interface {
	WriteText(data []byte) error
	Close() error
}

type session struct {
	conn Conn

	mu    sync.Mutex
	topic string
}

func (s *session) subscribe(topic string) {
	s.mu.Lock()
	s.topic = topic
	s.mu.Unlock()
}

func (s *session) subscribedTo(topic string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topic == topic
}

func (s *session) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.conn.WriteText(data)
}

// Hub tracks connected sessions and fans results out to subscribers. All
// registry mutation goes through the mutex; broadcasts snapshot the subscriber
// set and write concurrently so one slow client cannot stall the rest.
type Hub struct {
	repo    drepo.FlowRepository
	metrics drepo.Metrics
	log     *applogger.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewHub creates an empty hub.
func NewHub(repo drepo.FlowRepository, metrics drepo.Metrics, log *applogger.Logger) *Hub {
	return &Hub{
		repo:     repo,
		metrics:  metrics,
		log:      log,
		sessions: make(map[string]*session),
	}
}

// Register adds a connection and greets it with the protocol description plus
// the latest stored result when one exists. The new session receives no
// broadcasts until it subscribes.
func (h *Hub) Register(ctx context.Context, id string, conn Conn) {
	s := &session{conn: conn}

	h.mu.Lock()
	h.sessions[id] = s
	n := len(h.sessions)
	h.mu.Unlock()
	h.metrics.RecordClients(n)

	if err := s.send(newWelcome()); err != nil {
		h.log.Warn("welcome send failed", applogger.String("session", id), applogger.Error(err))
		h.Unregister(id)
		return
	}
	h.sendLatest(ctx, id, s)

	h.log.Info("websocket session opened",
		applogger.String("session", id),
		applogger.Int("sessions", n))
}

// Unregister removes a session and closes its connection. Safe to call for
// ids that are already gone.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	s, ok := h.sessions[id]
	if ok {
		delete(h.sessions, id)
	}
	n := len(h.sessions)
	h.mu.Unlock()

	if !ok {
		return
	}
	_ = s.conn.Close()
	h.metrics.RecordClients(n)
	h.log.Info("websocket session closed",
		applogger.String("session", id),
		applogger.Int("sessions", n))
}

// ClientCount reports the number of registered sessions.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Broadcast sends the result to every session subscribed to the live topic.
// The payload is marshalled once; sessions whose write fails are evicted.
func (h *Hub) Broadcast(result *models.FlowResult) {
	msg := updateMessage{
		Type:      "spy_update",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      result,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("broadcast marshal failed", applogger.Error(err))
		return
	}

	h.mu.RLock()
	targets := make(map[string]*session, len(h.sessions))
	for id, s := range h.sessions {
		if s.subscribedTo(TopicSpyUpdates) {
			targets[id] = s
		}
	}
	h.mu.RUnlock()

	var wg sync.WaitGroup
	for id, s := range targets {
		wg.Add(1)
		go func(id string, s *session) {
			defer wg.Done()
			if err := s.conn.WriteText(data); err != nil {
				h.log.Warn("broadcast write failed",
					applogger.String("session", id),
					applogger.Error(err))
				h.Unregister(id)
			}
		}(id, s)
	}
	wg.Wait()
}

// HandleMessage processes one inbound client frame. Protocol errors are
// answered on the same connection and never close it.
func (h *Hub) HandleMessage(ctx context.Context, id string, payload []byte) {
	h.mu.RLock()
	s, ok := h.sessions[id]
	h.mu.RUnlock()
	if !ok {
		return
	}

	var msg clientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.reply(id, s, newError("message format error"))
		return
	}

	switch msg.Action {
	case actionSubscribe:
		if msg.Type != TopicSpyUpdates {
			h.reply(id, s, newError(fmt.Sprintf("unsupported subscription type: %s", msg.Type)))
			return
		}
		s.subscribe(TopicSpyUpdates)
		h.reply(id, s, subscriptionConfirmedMessage{
			Type:             "subscription_confirmed",
			SubscriptionType: TopicSpyUpdates,
			Message:          "subscribed to SPY flow updates",
		})
	case actionUnsubscribe:
		s.subscribe("")
		h.reply(id, s, unsubscribedMessage{
			Type:    "unsubscribed",
			Message: "unsubscribed from SPY flow updates",
		})
	case actionGetLatest:
		h.sendLatest(ctx, id, s)
	default:
		h.reply(id, s, newError(fmt.Sprintf("unknown action: %s", msg.Action)))
	}
}

// sendLatest pushes the most recent stored result, or a null payload when the
// store is still empty.
func (h *Hub) sendLatest(ctx context.Context, id string, s *session) {
	result, err := h.repo.FindLatestResult(ctx)
	if err != nil && !errors.Is(err, models.ErrNoData) {
		h.log.Warn("latest result lookup failed", applogger.Error(err))
		h.reply(id, s, newError("latest data unavailable"))
		return
	}
	h.reply(id, s, latestDataMessage{Type: "latest_data", Data: result})
}

func (h *Hub) reply(id string, s *session, v any) {
	if err := s.send(v); err != nil {
		h.log.Warn("websocket write failed",
			applogger.String("session", id),
			applogger.Error(err))
		h.Unregister(id)
	}
}
