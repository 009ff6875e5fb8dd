package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderFlowMetrics records the counters of the order pipeline.
type OrderFlowMetrics struct {
	created    prometheus.Counter
	collisions prometheus.Counter
	rejected   prometheus.Counter
}

// NewOrderFlowMetrics registers the order flow metrics on the provided
// registerer. A nil registerer yields a no-op collector.
func NewOrderFlowMetrics(reg prometheus.Registerer) *OrderFlowMetrics {
	if reg == nil {
		return &OrderFlowMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders successfully created.",
	})
	collisions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_id_collisions_total",
		Help: "Order identifier collisions resolved by a create retry.",
	})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_transitions_rejected_total",
		Help: "Status transitions rejected by the state machine or a concurrent writer.",
	})
	reg.MustRegister(created, collisions, rejected)
	return &OrderFlowMetrics{
		created:    created,
		collisions: collisions,
		rejected:   rejected,
	}
}

// OrderCreated increments the created-orders counter.
func (m *OrderFlowMetrics) OrderCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}

// IdentifierCollision increments the collision counter.
func (m *OrderFlowMetrics) IdentifierCollision() {
	if m == nil || m.collisions == nil {
		return
	}
	m.collisions.Inc()
}

// TransitionRejected increments the rejected-transitions counter.
func (m *OrderFlowMetrics) TransitionRejected() {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.Inc()
}
