package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Kerhoff/GroceryboT/internal/repository"
)

// Operation results used as the "result" label.
const (
	ResultOK       = "ok"
	ResultInvalid  = "invalid"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Metrics holds the Prometheus collectors for list operations and sessions.
type Metrics struct {
	registry        *prometheus.Registry
	operations      *prometheus.CounterVec
	sessionsActive  prometheus.Gauge
	sessionsEvicted prometheus.Counter
}

// New creates the collectors on a private registry, together with the
// standard Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grocery",
			Name:      "operations_total",
			Help:      "Grocery list operations by operation and result.",
		}, []string{"operation", "result"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "grocery",
			Name:      "sessions_active",
			Help:      "Sessions currently holding a grocery list.",
		}),
		sessionsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "grocery",
			Name:      "sessions_evicted_total",
			Help:      "Sessions dropped after being idle too long.",
		}),
	}

	m.registry.MustRegister(
		m.operations,
		m.sessionsActive,
		m.sessionsEvicted,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Result maps an operation error onto a result label.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, repository.ErrValidation):
		return ResultInvalid
	case errors.Is(err, repository.ErrNotFound):
		return ResultNotFound
	default:
		return ResultError
	}
}

// ObserveOperation counts one call of operation.
func (m *Metrics) ObserveOperation(operation string, err error) {
	m.operations.WithLabelValues(operation, Result(err)).Inc()
}

func (m *Metrics) SessionOpened() {
	m.sessionsActive.Inc()
}

// SessionClosed decrements the active gauge; evicted sessions are also
// counted separately.
func (m *Metrics) SessionClosed(evicted bool) {
	m.sessionsActive.Dec()
	if evicted {
		m.sessionsEvicted.Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
