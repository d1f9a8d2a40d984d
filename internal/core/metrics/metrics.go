// Package metrics exposes Prometheus collectors for the realtime store.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Prometheus metric names.
const (
	MetricBroadcastsTotal         = "courier_realtime_broadcasts_total"
	MetricSubscriberFailuresTotal = "courier_realtime_subscriber_failures_total"
	MetricSinkFailuresTotal       = "courier_realtime_sink_failures_total"
	MetricActiveSubscribers       = "courier_realtime_active_subscribers"
	MetricSnapshotFailuresTotal   = "courier_snapshot_write_failures_total"
)

// Metrics groups the collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	broadcasts         *prometheus.CounterVec
	subscriberFailures prometheus.Counter
	sinkFailures       *prometheus.CounterVec
	activeSubscribers  prometheus.Gauge
	snapshotFailures   prometheus.Counter
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricBroadcastsTotal,
			Help: "Events broadcast, labelled by channel kind (prefix before ':').",
		}, []string{"kind"}),
		subscriberFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSubscriberFailuresTotal,
			Help: "Subscriber callbacks that panicked.",
		}),
		sinkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSinkFailuresTotal,
			Help: "Failed relays to external sinks.",
		}, []string{"sink"}),
		activeSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricActiveSubscribers,
			Help: "Currently registered subscribers across all channels.",
		}),
		snapshotFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSnapshotFailuresTotal,
			Help: "Snapshot writes that failed and were swallowed.",
		}),
	}

	m.registry.MustRegister(
		m.broadcasts,
		m.subscriberFailures,
		m.sinkFailures,
		m.activeSubscribers,
		m.snapshotFailures,
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format for fasthttp/fiber.
func (m *Metrics) Handler() fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// BroadcastSent counts one broadcast on channel.
func (m *Metrics) BroadcastSent(channel string) {
	if m == nil {
		return
	}
	m.broadcasts.WithLabelValues(ChannelKind(channel)).Inc()
}

// SubscriberFailed counts one failed subscriber callback.
func (m *Metrics) SubscriberFailed() {
	if m == nil {
		return
	}
	m.subscriberFailures.Inc()
}

// SinkFailed counts one failed relay to the named sink.
func (m *Metrics) SinkFailed(sink string) {
	if m == nil {
		return
	}
	m.sinkFailures.WithLabelValues(sink).Inc()
}

// SubscribersChanged moves the active subscriber gauge by delta.
func (m *Metrics) SubscribersChanged(delta int) {
	if m == nil {
		return
	}
	m.activeSubscribers.Add(float64(delta))
}

// SnapshotFailed counts one failed snapshot write.
func (m *Metrics) SnapshotFailed() {
	if m == nil {
		return
	}
	m.snapshotFailures.Inc()
}

// ChannelKind keeps label cardinality low: "package:SC1" -> "package".
func ChannelKind(channel string) string {
	if i := strings.IndexByte(channel, ':'); i > 0 {
		return channel[:i]
	}
	return channel
}
