// Package realtime implements the channel based publish/subscribe hub used to
// push shipment changes to dashboards.
//
// Delivery is synchronous and in subscription order: first to the subscribers
// of the event's channel, then to wildcard subscribers. Every callback runs in
// isolation, so a panicking subscriber never prevents delivery to the others.
// A bounded history keeps the most recent events in arrival order.
package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"courier-portal/internal/core/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// Wildcard receives every event regardless of channel.
	Wildcard = "*"
	// DefaultHistoryLimit is the number of events retained when no limit is configured.
	DefaultHistoryLimit = 1000

	relayBuffer  = 256
	relayTimeout = 5 * time.Second
)

// Event is the envelope delivered to subscribers.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Channel   string    `json:"channel"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler receives broadcast events.
type Handler func(Event)

// Sink relays events outside the process (Redis, Kafka).
type Sink interface {
	Name() string
	Relay(ctx context.Context, e Event) error
	Close() error
}

type subscription struct {
	id      uint64
	handler Handler
}

// Hub is the in-process broadcaster.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string][]subscription
	nextID      uint64

	history *ring

	sinks []Sink
	relay chan Event

	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Hub.
type Option func(*Hub)

// WithHistoryLimit bounds the event history. Non-positive values use DefaultHistoryLimit.
func WithHistoryLimit(limit int) Option {
	return func(h *Hub) {
		if limit > 0 {
			h.history = newRing(limit)
		}
	}
}

// WithSinks registers external relays. Events reach them through Run.
func WithSinks(sinks ...Sink) Option {
	return func(h *Hub) {
		h.sinks = append(h.sinks, sinks...)
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Hub) {
		h.logger = l
	}
}

// WithMetrics records broadcasts and failures.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) {
		h.metrics = m
	}
}

// WithClock overrides time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) {
		h.now = now
	}
}

// NewHub creates a Hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subscribers: make(map[string][]subscription),
		history:     newRing(DefaultHistoryLimit),
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	if len(h.sinks) > 0 {
		h.relay = make(chan Event, relayBuffer)
	}
	return h
}

// Subscribe registers fn on channel and returns a function removing it.
// The returned function is safe to call more than once.
func (h *Hub) Subscribe(channel string, fn Handler) func() {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subscribers[channel] = append(h.subscribers[channel], subscription{id: id, handler: fn})
	h.mu.Unlock()

	h.metrics.SubscribersChanged(1)
	h.logger.Debug("subscriber registered", zap.String("channel", channel), zap.Uint64("subscription", id))

	var once sync.Once
	return func() {
		once.Do(func() {
			h.unsubscribe(channel, id)
		})
	}
}

func (h *Hub) unsubscribe(channel string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[channel]
	for i, s := range subs {
		if s.id != id {
			continue
		}
		// copy so in-flight deliveries keep iterating their own snapshot
		next := make([]subscription, 0, len(subs)-1)
		next = append(next, subs[:i]...)
		next = append(next, subs[i+1:]...)
		if len(next) == 0 {
			delete(h.subscribers, channel)
		} else {
			h.subscribers[channel] = next
		}
		h.metrics.SubscribersChanged(-1)
		return
	}
}

// SubscriberCount returns the number of subscribers on channel.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[channel])
}

// Broadcast stamps e with a fresh id and timestamp, records it in the history
// and delivers it. The stamped event is returned.
func (h *Hub) Broadcast(channel string, e Event) Event {
	e.ID = uuid.NewString()
	e.Channel = channel
	e.Timestamp = h.now()

	h.mu.Lock()
	h.history.push(e)
	direct := h.subscribers[channel]
	var wildcard []subscription
	if channel != Wildcard {
		wildcard = h.subscribers[Wildcard]
	}
	h.mu.Unlock()

	h.metrics.BroadcastSent(channel)

	for _, s := range direct {
		h.deliver(s, e)
	}
	for _, s := range wildcard {
		h.deliver(s, e)
	}

	h.enqueueRelay(e)
	return e
}

// History returns up to limit of the most recent events, oldest first.
// A non-positive limit returns the whole history.
func (h *Hub) History(limit int) []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.history.last(limit)
}

// HistoryLimit returns the configured history capacity.
func (h *Hub) HistoryLimit() int {
	return h.history.capacity()
}

func (h *Hub) deliver(s subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			h.metrics.SubscriberFailed()
			h.logger.Error("subscriber panicked",
				zap.String("channel", e.Channel),
				zap.String("event_type", e.Type),
				zap.String("event_id", e.ID),
				zap.Any("panic", r),
			)
		}
	}()
	s.handler(e)
}

func (h *Hub) enqueueRelay(e Event) {
	if h.relay == nil {
		return
	}
	select {
	case h.relay <- e:
	default:
		for _, s := range h.sinks {
			h.metrics.SinkFailed(s.Name())
		}
		h.logger.Warn("relay buffer full, event dropped for sinks",
			zap.String("channel", e.Channel),
			zap.String("event_id", e.ID),
		)
	}
}

// Run relays queued events to the sinks until ctx is cancelled, then drains
// what is left in the queue. It returns immediately when no sinks are configured.
func (h *Hub) Run(ctx context.Context) error {
	if h.relay == nil {
		return nil
	}
	for {
		select {
		case e := <-h.relay:
			h.relayToSinks(ctx, e)
		case <-ctx.Done():
			h.drain()
			return nil
		}
	}
}

func (h *Hub) drain() {
	for {
		select {
		case e := <-h.relay:
			h.relayToSinks(context.Background(), e)
		default:
			return
		}
	}
}

func (h *Hub) relayToSinks(ctx context.Context, e Event) {
	for _, s := range h.sinks {
		rctx, cancel := context.WithTimeout(ctx, relayTimeout)
		err := s.Relay(rctx, e)
		cancel()
		if err != nil {
			h.metrics.SinkFailed(s.Name())
			h.logger.Error("failed to relay event",
				zap.String("sink", s.Name()),
				zap.String("channel", e.Channel),
				zap.String("event_id", e.ID),
				zap.Error(err),
			)
		}
	}
}

// Close closes every sink.
func (h *Hub) Close() error {
	var errs []error
	for _, s := range h.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
