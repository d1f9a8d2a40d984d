package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"courier-portal/internal/core/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) got() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestHub_BroadcastRouting(t *testing.T) {
	hub := NewHub()

	var x, y, all recorder
	hub.Subscribe("package:X", x.handle)
	hub.Subscribe("package:Y", y.handle)
	hub.Subscribe(Wildcard, all.handle)

	sent := hub.Broadcast("package:X", Event{Type: "package_status_changed", Data: "payload"})

	require.Len(t, x.got(), 1)
	assert.Empty(t, y.got())
	require.Len(t, all.got(), 1)

	assert.Equal(t, sent, x.got()[0])
	assert.Equal(t, sent, all.got()[0])
	assert.Equal(t, "package:X", sent.Channel)
	assert.NotEmpty(t, sent.ID)
	assert.False(t, sent.Timestamp.IsZero())
}

func TestHub_WildcardBroadcastDeliveredOnce(t *testing.T) {
	hub := NewHub()

	var all recorder
	hub.Subscribe(Wildcard, all.handle)
	hub.Broadcast(Wildcard, Event{Type: "announcement"})

	assert.Len(t, all.got(), 1)
}

func TestHub_DeliveryOrder(t *testing.T) {
	hub := NewHub()

	var order []string
	hub.Subscribe(Wildcard, func(Event) { order = append(order, "wildcard") })
	hub.Subscribe("admin:packages", func(Event) { order = append(order, "first") })
	hub.Subscribe("admin:packages", func(Event) { order = append(order, "second") })

	hub.Broadcast("admin:packages", Event{Type: "package_event_added"})

	assert.Equal(t, []string{"first", "second", "wildcard"}, order)
}

func TestHub_SubscriberPanicIsolated(t *testing.T) {
	m := metrics.New()
	hub := NewHub(WithMetrics(m))

	var after recorder
	hub.Subscribe("package:X", func(Event) { panic("boom") })
	hub.Subscribe("package:X", after.handle)

	assert.NotPanics(t, func() {
		hub.Broadcast("package:X", Event{Type: "package_status_changed"})
	})
	assert.Len(t, after.got(), 1)
	assert.Len(t, hub.History(0), 1)
	assert.Equal(t, 1.0, counterValue(t, m, metrics.MetricSubscriberFailuresTotal, ""))
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub()

	var r recorder
	unsubscribe := hub.Subscribe("package:X", r.handle)
	assert.Equal(t, 1, hub.SubscriberCount("package:X"))

	hub.Broadcast("package:X", Event{Type: "a"})
	unsubscribe()
	unsubscribe()
	hub.Broadcast("package:X", Event{Type: "b"})

	assert.Len(t, r.got(), 1)
	assert.Equal(t, 0, hub.SubscriberCount("package:X"))
}

func TestHub_UnsubscribeDuringDelivery(t *testing.T) {
	hub := NewHub()

	var second recorder
	var unsubscribe func()
	unsubscribe = hub.Subscribe("c", func(Event) { unsubscribe() })
	hub.Subscribe("c", second.handle)

	hub.Broadcast("c", Event{Type: "a"})
	hub.Broadcast("c", Event{Type: "b"})

	assert.Len(t, second.got(), 2)
	assert.Equal(t, 1, hub.SubscriberCount("c"))
}

func TestHub_HistoryBound(t *testing.T) {
	hub := NewHub(WithHistoryLimit(5))

	for i := 0; i < 12; i++ {
		hub.Broadcast("c", Event{Type: fmt.Sprintf("e%d", i)})
	}

	history := hub.History(0)
	require.Len(t, history, 5)
	for i, e := range history {
		assert.Equal(t, fmt.Sprintf("e%d", i+7), e.Type)
	}

	recent := hub.History(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "e10", recent[0].Type)
	assert.Equal(t, "e11", recent[1].Type)

	assert.Len(t, hub.History(50), 5)
}

func TestHub_DefaultHistoryBound(t *testing.T) {
	hub := NewHub(WithHistoryLimit(0))
	assert.Equal(t, DefaultHistoryLimit, hub.HistoryLimit())

	for i := 0; i < DefaultHistoryLimit+250; i++ {
		hub.Broadcast("c", Event{Type: "tick"})
	}
	assert.Len(t, hub.History(0), DefaultHistoryLimit)
}

func TestHub_Clock(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hub := NewHub(WithClock(func() time.Time { return fixed }))

	e := hub.Broadcast("c", Event{Type: "tick"})
	assert.Equal(t, fixed, e.Timestamp)
}

type fakeSink struct {
	mu     sync.Mutex
	name   string
	err    error
	events []Event
	closed bool
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) Relay(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestHub_RunRelaysToSinks(t *testing.T) {
	m := metrics.New()
	ok := &fakeSink{name: "ok"}
	failing := &fakeSink{name: "failing", err: errors.New("unreachable")}
	hub := NewHub(WithSinks(ok, failing), WithMetrics(m))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()

	hub.Broadcast("package:X", Event{Type: "package_status_changed"})
	hub.Broadcast("admin:packages", Event{Type: "package_status_changed"})

	assert.Eventually(t, func() bool { return ok.count() == 2 && failing.count() == 2 },
		2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, 2.0, counterValue(t, m, metrics.MetricSinkFailuresTotal, "failing"))
	assert.Equal(t, 0.0, counterValue(t, m, metrics.MetricSinkFailuresTotal, "ok"))

	require.NoError(t, hub.Close())
	assert.True(t, ok.closed)
	assert.True(t, failing.closed)
}

func TestHub_RunWithoutSinksReturns(t *testing.T) {
	hub := NewHub()
	assert.NoError(t, hub.Run(context.Background()))
}

// counterValue reads a counter from the registry; label filters on the first label when non-empty.
func counterValue(t *testing.T, m *metrics.Metrics, name, label string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			if label == "" {
				return metric.GetCounter().GetValue()
			}
			for _, l := range metric.GetLabel() {
				if l.GetValue() == label {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
