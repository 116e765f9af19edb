package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "overlay"

// Metrics bundles the Prometheus collectors for the overlay service. All methods are
// safe to call on a nil *Metrics, which records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	messagesIngested  prometheus.Counter
	messagesRejected  *prometheus.CounterVec
	bufferSize        prometheus.Gauge
	visibleMessages   prometheus.Gauge
	chatConnected     prometheus.Gauge
	sseClients        prometheus.Gauge
	sseDrops          prometheus.Counter
	badgeFetchErrors  *prometheus.CounterVec
	moderationActions *prometheus.CounterVec
}

// New registers all collectors in a fresh registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests received",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		messagesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_ingested_total",
			Help:      "Number of chat messages accepted into the message buffer",
		}),
		messagesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_events_rejected_total",
			Help:      "Number of chat events discarded by the ingest, by reason",
		}, []string{"reason"}),
		bufferSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chat_buffer_messages",
			Help:      "Current number of messages held in the message buffer",
		}),
		visibleMessages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chat_visible_messages",
			Help:      "Number of messages in the most recently computed visible window",
		}),
		chatConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chat_connected",
			Help:      "1 if the chat transport is currently connected, otherwise 0",
		}),
		sseClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sse_clients",
			Help:      "Current connected SSE clients",
		}),
		sseDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sse_drops_total",
			Help:      "Number of SSE messages dropped due to slow clients",
		}),
		badgeFetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "badge_fetch_errors_total",
			Help:      "Number of failed badge catalog requests, by scope",
		}, []string{"scope"}),
		moderationActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moderation_actions_total",
			Help:      "Number of moderation actions attempted, by action and result",
		}, []string{"action", "result"}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.messagesIngested,
		m.messagesRejected,
		m.bufferSize,
		m.visibleMessages,
		m.chatConnected,
		m.sseClients,
		m.sseDrops,
		m.badgeFetchErrors,
		m.moderationActions,
	)
	return m
}

// Handler returns an HTTP handler exposing the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records timing and status information for a handled HTTP request
func (m *Metrics) ObserveRequest(route, method string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(dur.Seconds())
}

func (m *Metrics) IncMessagesIngested() {
	if m == nil {
		return
	}
	m.messagesIngested.Inc()
}

// IncEventsRejected counts a chat event that the ingest discarded, e.g. as a
// duplicate or as belonging to a stale connection
func (m *Metrics) IncEventsRejected(reason string) {
	if m == nil {
		return
	}
	m.messagesRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) SetBufferSize(n int) {
	if m == nil {
		return
	}
	m.bufferSize.Set(float64(n))
}

func (m *Metrics) SetVisibleMessages(n int) {
	if m == nil {
		return
	}
	m.visibleMessages.Set(float64(n))
}

func (m *Metrics) SetChatConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.chatConnected.Set(1)
	} else {
		m.chatConnected.Set(0)
	}
}

// IncSSEClients adjusts the SSE client gauge by delta
func (m *Metrics) IncSSEClients(delta float64) {
	if m == nil {
		return
	}
	m.sseClients.Add(delta)
}

func (m *Metrics) IncSSEDrops() {
	if m == nil {
		return
	}
	m.sseDrops.Inc()
}

func (m *Metrics) IncBadgeFetchErrors(scope string) {
	if m == nil {
		return
	}
	m.badgeFetchErrors.WithLabelValues(scope).Inc()
}

func (m *Metrics) IncModerationActions(action string, result string) {
	if m == nil {
		return
	}
	m.moderationActions.WithLabelValues(action, result).Inc()
}
