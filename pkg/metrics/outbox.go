package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics counts order events pushed to Pub/Sub by the publisher.
type OutboxMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

// NewOutboxMetrics registers the publisher counters on reg. A nil registerer
// yields a no-op recorder.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events delivered to Pub/Sub by event type.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_failures_total",
		Help: "Outbox publish failures by event type; terminal failures went to the DLQ.",
	}, []string{"event_type", "terminal"})
	reg.MustRegister(published, failed)
	return &OutboxMetrics{published: published, failed: failed}
}

// Relayed counts one order event delivered to Pub/Sub.
func (m *OutboxMetrics) Relayed(eventType string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// Failed counts one failed delivery attempt.
func (m *OutboxMetrics) Failed(eventType string, terminal bool) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(eventType), strconv.FormatBool(terminal)).Inc()
}
