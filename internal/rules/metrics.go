package rules

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports engine activity to Prometheus. Unlike Statistics these
// counters are never reset.
type Metrics struct {
	MessagesProcessed  prometheus.Counter
	RulesTriggered     prometheus.Counter
	EvaluationErrors   prometheus.Counter
	EvaluationDuration prometheus.Histogram
	RulesRegistered    prometheus.Gauge
}

// NewMetrics creates the engine metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer for the process-wide /metrics endpoint
// or a fresh prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	const namespace = "tripwire"

	return &Metrics{
		MessagesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_processed_total",
			Help:      "Total number of messages evaluated against the rule set",
		}),
		RulesTriggered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_triggered_total",
			Help:      "Total number of rule matches across all messages",
		}),
		EvaluationErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluation_errors_total",
			Help:      "Total number of rules skipped because they could not be evaluated",
		}),
		EvaluationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Time to evaluate one message against the full rule set",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
		}),
		RulesRegistered: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rules_registered",
			Help:      "Number of rules seen in the store by the last processed message",
		}),
	}
}

// observe records one message. Safe on a nil receiver.
func (m *Metrics) observe(rules, triggered, errs int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.MessagesProcessed.Inc()
	m.RulesTriggered.Add(float64(triggered))
	m.EvaluationErrors.Add(float64(errs))
	m.EvaluationDuration.Observe(elapsed.Seconds())
	m.RulesRegistered.Set(float64(rules))
}
