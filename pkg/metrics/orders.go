package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records order lifecycle outcomes.
type OrderMetrics struct {
	created              *prometheus.CounterVec
	paymentsConfirmed    prometheus.Counter
	verificationFailures prometheus.Counter
	shortDecrements      prometheus.Counter
	checkoutDuration     prometheus.Histogram
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created, labelled by outcome.",
	}, []string{"outcome"})
	paymentsConfirmed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payments_confirmed_total",
		Help: "Payments confirmed after signature verification.",
	})
	verificationFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_verification_failures_total",
		Help: "Payment confirmations rejected for a bad signature.",
	})
	shortDecrements := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inventory_short_decrements_total",
		Help: "Inventory decrements skipped due to insufficient stock.",
	})
	checkoutDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of order creation including the gateway call.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(created, paymentsConfirmed, verificationFailures, shortDecrements, checkoutDuration)
	return &OrderMetrics{
		created:              created,
		paymentsConfirmed:    paymentsConfirmed,
		verificationFailures: verificationFailures,
		shortDecrements:      shortDecrements,
		checkoutDuration:     checkoutDuration,
	}
}

// IncCreated increments the created counter for the given outcome.
func (m *OrderMetrics) IncCreated(outcome string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncPaymentConfirmed increments the confirmed payment counter.
func (m *OrderMetrics) IncPaymentConfirmed() {
	if m == nil || m.paymentsConfirmed == nil {
		return
	}
	m.paymentsConfirmed.Inc()
}

// IncVerificationFailure increments the signature failure counter.
func (m *OrderMetrics) IncVerificationFailure() {
	if m == nil || m.verificationFailures == nil {
		return
	}
	m.verificationFailures.Inc()
}

// IncShortDecrement increments the skipped inventory decrement counter.
func (m *OrderMetrics) IncShortDecrement() {
	if m == nil || m.shortDecrements == nil {
		return
	}
	m.shortDecrements.Inc()
}

// ObserveCheckoutDuration records how long order creation took.
func (m *OrderMetrics) ObserveCheckoutDuration(duration time.Duration) {
	if m == nil || m.checkoutDuration == nil {
		return
	}
	m.checkoutDuration.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
