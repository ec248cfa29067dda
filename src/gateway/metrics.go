package gateway

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/raulisai/Gateway-IA/src/models"
)

type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CacheLookups    *prometheus.CounterVec
	Fallbacks       prometheus.Counter
	UpstreamCalls   *prometheus.CounterVec
	UpstreamLatency *prometheus.HistogramVec
	CostUSD         *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "generate",
				Name:      "requests_total",
				Help:      "Generation requests by strategy and outcome",
			},
			[]string{"strategy", "outcome"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gateway",
				Subsystem: "generate",
				Name:      "duration_seconds",
				Help:      "End to end generation latency",
				Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"strategy", "cache"},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Response cache lookups by result",
			},
			[]string{"result"},
		),
		Fallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "generate",
				Name:      "fallbacks_total",
				Help:      "Times a fallback model was tried after a transient failure",
			},
		),
		UpstreamCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "upstream",
				Name:      "calls_total",
				Help:      "Upstream provider calls by outcome",
			},
			[]string{"provider", "outcome"},
		),
		UpstreamLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gateway",
				Subsystem: "upstream",
				Name:      "latency_seconds",
				Help:      "Upstream provider call latency",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider"},
		),
		CostUSD: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "usage",
				Name:      "cost_usd_total",
				Help:      "Estimated upstream spend in USD",
			},
			[]string{"model"},
		),
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(models.KindOf(err))
}

// ObserveAttempt records one upstream call. It matches the executor's
// OnAttempt hook.
func (m *Metrics) ObserveAttempt(provider string, err error, latency time.Duration) {
	m.UpstreamCalls.WithLabelValues(provider, outcome(err)).Inc()
	m.UpstreamLatency.WithLabelValues(provider).Observe(latency.Seconds())
}
