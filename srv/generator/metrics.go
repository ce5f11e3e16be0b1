package generator

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	bookwriter "github.com/opd-ai/bookwriter/src"
)

const namespace = "bookwriter"

// Metrics are the workflow's Prometheus collectors.
type Metrics struct {
	CompletionRequests *prometheus.CounterVec
	CompletionDuration *prometheus.HistogramVec
	StageTransitions   *prometheus.CounterVec
	CompiledPages      prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CompletionRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "completion",
				Name:      "requests_total",
				Help:      "Completion service requests by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		CompletionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "completion",
				Name:      "duration_seconds",
				Help:      "Completion service request duration in seconds",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"kind"},
		),
		StageTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workflow",
				Name:      "stage_transitions_total",
				Help:      "Workflow stage transitions by target stage",
			},
			[]string{"stage"},
		),
		CompiledPages: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "compile",
				Name:      "pages",
				Help:      "Pages in each compiled document",
				Buckets:   prometheus.ExponentialBuckets(5, 2, 8),
			},
		),
	}
}

// observedClient records a metric sample for every completion request.
type observedClient struct {
	bookwriter.Client
	kind    string
	metrics *Metrics
}

func (o observedClient) SendMessage(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	start := time.Now()
	text, err := o.Client.SendMessage(ctx, systemPrompt, userPrompt)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	o.metrics.CompletionRequests.WithLabelValues(o.kind, outcome).Inc()
	o.metrics.CompletionDuration.WithLabelValues(o.kind).Observe(time.Since(start).Seconds())
	return text, err
}
