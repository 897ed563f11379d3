package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics counts business outcomes of the order and inventory services.
// A nil *DomainMetrics is a valid no-op recorder.
type DomainMetrics struct {
	ordersCreated     prometheus.Counter
	orderTransitions  *prometheus.CounterVec
	stockRejections   *prometheus.CounterVec
	stockAdjustments  *prometheus.CounterVec
	ledgerDrift       prometheus.Gauge
	outboxPublished   *prometheus.CounterVec
	outboxPublishFail *prometheus.CounterVec
}

// NewDomainMetrics registers the domain metrics on the provided registerer.
func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	m := &DomainMetrics{
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Orders committed.",
		}),
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "transitions_total",
			Help:      "Order status transitions by target status.",
		}, []string{"status"}),
		stockRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "stock_rejections_total",
			Help:      "Operations rejected for insufficient stock.",
		}, []string{"operation"}),
		stockAdjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "adjustments_total",
			Help:      "Ledger entries written by transaction type.",
		}, []string{"type"}),
		ledgerDrift: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "ledger_drift_products",
			Help:      "Products whose on-hand quantity disagrees with their transaction history.",
		}),
		outboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "published_total",
			Help:      "Outbox events published.",
		}, []string{"event_type"}),
		outboxPublishFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "publish_failures_total",
			Help:      "Outbox publish attempts that failed.",
		}, []string{"event_type"}),
	}
	reg.MustRegister(
		m.ordersCreated,
		m.orderTransitions,
		m.stockRejections,
		m.stockAdjustments,
		m.ledgerDrift,
		m.outboxPublished,
		m.outboxPublishFail,
	)
	return m
}

func (m *DomainMetrics) IncOrderCreated() {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.Inc()
}

func (m *DomainMetrics) IncOrderTransition(status string) {
	if m == nil || m.orderTransitions == nil {
		return
	}
	m.orderTransitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncStockRejection counts an InsufficientStock outcome for operation
// ("order" or "adjustment").
func (m *DomainMetrics) IncStockRejection(operation string) {
	if m == nil || m.stockRejections == nil {
		return
	}
	m.stockRejections.WithLabelValues(normalizeLabel(operation)).Inc()
}

func (m *DomainMetrics) IncStockAdjustment(txType string) {
	if m == nil || m.stockAdjustments == nil {
		return
	}
	m.stockAdjustments.WithLabelValues(normalizeLabel(txType)).Inc()
}

func (m *DomainMetrics) SetLedgerDrift(products int) {
	if m == nil || m.ledgerDrift == nil {
		return
	}
	m.ledgerDrift.Set(float64(products))
}

func (m *DomainMetrics) IncOutboxPublished(eventType string) {
	if m == nil || m.outboxPublished == nil {
		return
	}
	m.outboxPublished.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *DomainMetrics) IncOutboxPublishFailure(eventType string) {
	if m == nil || m.outboxPublishFail == nil {
		return
	}
	m.outboxPublishFail.WithLabelValues(normalizeLabel(eventType)).Inc()
}
