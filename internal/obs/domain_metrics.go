package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartMutationsTotal counts cart mutation outcomes by operation.
	CartMutationsTotal *prometheus.CounterVec
	// ValidationRejectionsTotal counts per-item validation rejections by reason.
	ValidationRejectionsTotal *prometheus.CounterVec
	// OrdersPlacedTotal counts successfully created orders.
	OrdersPlacedTotal prometheus.Counter
	// OrderSettlementTotal counts post-payment settlement outcomes.
	OrderSettlementTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Count of cart mutation outcomes by operation.",
		}, []string{"op", "result"})
		ValidationRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_validation_rejections_total",
			Help:      "Count of per-item cart validation rejections by reason.",
		}, []string{"reason"})
		OrdersPlacedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Total number of orders created.",
		})
		OrderSettlementTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_settlement_total",
			Help:      "Count of order settlement outcomes.",
		}, []string{"result"})
		reg.MustRegister(
			CartMutationsTotal,
			ValidationRejectionsTotal,
			OrdersPlacedTotal,
			OrderSettlementTotal,
		)
	})
}

// ObserveCartMutation records a cart mutation outcome when metrics are registered.
func ObserveCartMutation(op, result string) {
	if CartMutationsTotal != nil {
		CartMutationsTotal.WithLabelValues(op, result).Inc()
	}
}

// ObserveValidationRejection records a per-item rejection reason when metrics are registered.
func ObserveValidationRejection(reason string) {
	if ValidationRejectionsTotal != nil {
		ValidationRejectionsTotal.WithLabelValues(reason).Inc()
	}
}
