package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the binding service. All methods
// are nil-safe so tests can pass a nil *Metrics without registering anything.
type Metrics struct {
	BindingsCreated     prometheus.Counter
	AutoSearchDepth     prometheus.Histogram
	AutoSearchExhausted prometheus.Counter
}

// New creates and registers the binding metrics.
func New() *Metrics {
	return &Metrics{
		BindingsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustbind_bindings_created_total",
			Help: "Total number of account-credential bindings created",
		}),
		AutoSearchDepth: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustbind_auto_search_depth",
			Help:    "Partners probed before an auto registration found a credential",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		}),
		AutoSearchExhausted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustbind_auto_search_exhausted_total",
			Help: "Auto registrations that hit the partner search cap without a match",
		}),
	}
}

func (m *Metrics) IncBindingsCreated() {
	if m != nil {
		m.BindingsCreated.Inc()
	}
}

func (m *Metrics) ObserveAutoSearchDepth(depth int) {
	if m != nil {
		m.AutoSearchDepth.Observe(float64(depth))
	}
}

func (m *Metrics) IncAutoSearchExhausted() {
	if m != nil {
		m.AutoSearchExhausted.Inc()
	}
}
