package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcomes.
const (
	CheckoutCreated        = "created"
	CheckoutRejected       = "rejected"
	CheckoutSessionFailed  = "session_failed"
	CheckoutInternalFailed = "error"
)

// StorefrontMetrics counts checkout and payment webhook outcomes.
type StorefrontMetrics struct {
	checkouts     *prometheus.CounterVec
	checkoutValue prometheus.Counter
	webhooks      *prometheus.CounterVec
}

// NewStorefrontMetrics registers the storefront counters on reg. A nil
// registerer yields a no-op recorder.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	checkoutValue := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_order_value_pence_total",
		Help: "Total value of orders sent to payment, in pence.",
	})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Payment webhook events by type and outcome.",
	}, []string{"type", "outcome"})
	reg.MustRegister(checkouts, checkoutValue, webhooks)
	return &StorefrontMetrics{
		checkouts:     checkouts,
		checkoutValue: checkoutValue,
		webhooks:      webhooks,
	}
}

// IncCheckout counts one checkout attempt with the given outcome.
func (m *StorefrontMetrics) IncCheckout(outcome string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// AddOrderValue adds a created order's total.
func (m *StorefrontMetrics) AddOrderValue(pence int64) {
	if m == nil || m.checkoutValue == nil || pence <= 0 {
		return
	}
	m.checkoutValue.Add(float64(pence))
}

// IncWebhook counts one webhook event.
func (m *StorefrontMetrics) IncWebhook(eventType, outcome string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
