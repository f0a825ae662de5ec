package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the reconciliation loop. Methods
// are nil-safe so tests can pass a nil *Metrics.
type Metrics struct {
	EventsHandled  *prometheus.CounterVec
	BackfillPasses prometheus.Counter
	Resubscribes   prometheus.Counter
}

// New creates and registers the reconciliation metrics.
func New() *Metrics {
	return &Metrics{
		EventsHandled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustbind_reconcile_events_total",
			Help: "Credential lifecycle events processed, by kind and outcome",
		}, []string{"kind", "outcome"}),
		BackfillPasses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustbind_reconcile_backfill_passes_total",
			Help: "Completed periodic backfill passes over the binding set",
		}),
		Resubscribes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustbind_reconcile_resubscribes_total",
			Help: "Times the oracle event subscription was re-established",
		}),
	}
}

func (m *Metrics) IncEvent(kind, outcome string) {
	if m != nil {
		m.EventsHandled.WithLabelValues(kind, outcome).Inc()
	}
}

func (m *Metrics) IncBackfillPass() {
	if m != nil {
		m.BackfillPasses.Inc()
	}
}

func (m *Metrics) IncResubscribe() {
	if m != nil {
		m.Resubscribes.Inc()
	}
}
