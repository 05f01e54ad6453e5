package metrics

import "github.com/prometheus/client_golang/prometheus"

// MarketplaceMetrics tracks order and purchase outcomes.
type MarketplaceMetrics struct {
	ordersCreated        *prometheus.CounterVec
	orderAttempts        prometheus.Histogram
	purchases            *prometheus.CounterVec
	verificationFailures *prometheus.CounterVec
	relayMessages        *prometheus.CounterVec
}

func NewMarketplaceMetrics(reg prometheus.Registerer) *MarketplaceMetrics {
	if reg == nil {
		return &MarketplaceMetrics{}
	}
	m := &MarketplaceMetrics{
		ordersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Gateway orders created, by currency and outcome.",
		}, []string{"currency", "result"}),
		orderAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_create_attempts",
			Help:      "Gateway calls needed per create-order request.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}),
		purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchases_recorded_total",
			Help:      "Purchases stored, by currency. Idempotent replays count as replay.",
		}, []string{"currency", "result"}),
		verificationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_verification_failures_total",
			Help:      "Purchase attempts rejected by payment verification.",
		}, []string{"reason"}),
		relayMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_messages_total",
			Help:      "Inbound requests forwarded to the operations inbox.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.ordersCreated, m.orderAttempts, m.purchases, m.verificationFailures, m.relayMessages)
	return m
}

func (m *MarketplaceMetrics) OrderCreated(currency string, attempts int, ok bool) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(currency), outcome(ok)).Inc()
	m.orderAttempts.Observe(float64(attempts))
}

func (m *MarketplaceMetrics) PurchaseRecorded(currency string, replay bool) {
	if m == nil || m.purchases == nil {
		return
	}
	result := "stored"
	if replay {
		result = "replay"
	}
	m.purchases.WithLabelValues(normalizeLabel(currency), result).Inc()
}

func (m *MarketplaceMetrics) VerificationFailed(reason string) {
	if m == nil || m.verificationFailures == nil {
		return
	}
	m.verificationFailures.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *MarketplaceMetrics) RelayMessage(ok bool) {
	if m == nil || m.relayMessages == nil {
		return
	}
	m.relayMessages.WithLabelValues(outcome(ok)).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
