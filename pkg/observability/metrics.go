package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the collection runtime.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	DocumentsWritten   *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	OperatorCalls      *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DocumentsWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "warehouse",
				Name:      "documents_written_total",
				Help:      "Total number of documents written, by operation",
			},
			[]string{"collection", "op"},
		),
		ValidationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "warehouse",
				Name:      "validation_failures_total",
				Help:      "Total number of documents rejected by validation, by path",
			},
			[]string{"collection", "path"},
		),
		OperatorCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "warehouse",
				Name:      "operator_calls_total",
				Help:      "Total number of query and update operator invocations",
			},
			[]string{"collection", "operator"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "warehouse",
				Name:      "operation_duration_seconds",
				Help:      "Duration of collection operations in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"collection", "op"},
		),
	}
}

// DocumentWritten counts one document written by op.
func (m *Metrics) DocumentWritten(collection, op string) {
	if m == nil {
		return
	}
	m.DocumentsWritten.WithLabelValues(collection, op).Inc()
}

// ValidationFailed counts one validation failure at path.
func (m *Metrics) ValidationFailed(collection, path string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(collection, path).Inc()
}

// OperatorCalled counts one operator invocation.
func (m *Metrics) OperatorCalled(collection, operator string) {
	if m == nil {
		return
	}
	m.OperatorCalls.WithLabelValues(collection, operator).Inc()
}

// ObserveDuration records the time elapsed since start for op.
func (m *Metrics) ObserveDuration(collection, op string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(collection, op).Observe(time.Since(start).Seconds())
}
