package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CoreMetrics counts the domain events the warehouse cares about. All
// methods are nil-safe so tests can pass a zero value.
type CoreMetrics struct {
	movements        *prometheus.CounterVec
	orderTransitions *prometheus.CounterVec
	assignments      prometheus.Counter
}

// NewCoreMetrics registers the core counters on the provided registerer.
func NewCoreMetrics(reg prometheus.Registerer) *CoreMetrics {
	if reg == nil {
		return &CoreMetrics{}
	}
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movements_recorded_total",
		Help: "Stock movement ledger rows appended, by movement type.",
	}, []string{"movement_type"})
	orderTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order status transitions committed, by target status.",
	}, []string{"status"})
	assignments := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cylinder_assignments_created_total",
		Help: "Cylinder-to-order-item assignments created.",
	})
	reg.MustRegister(movements, orderTransitions, assignments)
	return &CoreMetrics{
		movements:        movements,
		orderTransitions: orderTransitions,
		assignments:      assignments,
	}
}

// IncMovement counts one appended ledger row.
func (m *CoreMetrics) IncMovement(movementType string) {
	if m == nil || m.movements == nil {
		return
	}
	m.movements.WithLabelValues(normalizeLabel(movementType)).Inc()
}

// IncOrderTransition counts one committed order transition.
func (m *CoreMetrics) IncOrderTransition(status string) {
	if m == nil || m.orderTransitions == nil {
		return
	}
	m.orderTransitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncAssignments counts n created assignments.
func (m *CoreMetrics) IncAssignments(n int) {
	if m == nil || m.assignments == nil {
		return
	}
	m.assignments.Add(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
