package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics counts order lifecycle transitions.
type OrderMetrics struct {
	created       *prometheus.CounterVec
	statusChanges *prometheus.CounterVec
	cancelled     prometheus.Counter
	payments      *prometheus.CounterVec
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders placed, by payment method.",
	}, []string{"payment_method"})
	statusChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_changes_total",
		Help: "Administrative order status updates, by target status.",
	}, []string{"status"})
	cancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Orders cancelled by their owners.",
	})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Gateway payment verifications, by result.",
	}, []string{"result"})
	reg.MustRegister(created, statusChanges, cancelled, payments)
	return &OrderMetrics{
		created:       created,
		statusChanges: statusChanges,
		cancelled:     cancelled,
		payments:      payments,
	}
}

func (m *OrderMetrics) OrderCreated(paymentMethod string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

func (m *OrderMetrics) StatusChanged(status string) {
	if m == nil || m.statusChanges == nil {
		return
	}
	m.statusChanges.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *OrderMetrics) OrderCancelled() {
	if m == nil || m.cancelled == nil {
		return
	}
	m.cancelled.Inc()
}

// PaymentVerified records a verification attempt; ok=false means the signature was rejected.
func (m *OrderMetrics) PaymentVerified(ok bool) {
	if m == nil || m.payments == nil {
		return
	}
	m.payments.WithLabelValues(resultLabel(ok)).Inc()
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
