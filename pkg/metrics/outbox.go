package metrics

import "github.com/prometheus/client_golang/prometheus"

// OutboxMetrics records publish outcomes for outbox events.
type OutboxMetrics struct {
	published *prometheus.CounterVec
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_total",
		Help: "Outbox publish attempts, by event type and result.",
	}, []string{"event_type", "result"})
	reg.MustRegister(published)
	return &OutboxMetrics{published: published}
}

// ObserveOutboxPublish increments the publish counter for the event type.
func (m *OutboxMetrics) ObserveOutboxPublish(eventType string, ok bool) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType), resultLabel(ok)).Inc()
}
