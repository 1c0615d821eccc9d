package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	scoredTotal   *prometheus.CounterVec
	droppedTotal  *prometheus.CounterVec
	fallbackTotal *prometheus.CounterVec
	lastScore     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a recorder registered on reg (prometheus.DefaultRegisterer in production).
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		scoredTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volscreen_symbols_scored_total",
				Help: "Symbols that produced a metrics record",
			},
			[]string{"symbol"},
		),
		droppedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volscreen_symbols_dropped_total",
				Help: "Symbols dropped from a run, by cause",
			},
			[]string{"reason"},
		),
		fallbackTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volscreen_fallbacks_total",
				Help: "Fail-soft defaults applied, by data source",
			},
			[]string{"source"},
		),
		lastScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "volscreen_last_volatility_score",
				Help: "Most recent volatility score per symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "volscreen_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordScored(symbol string, score float64) {
	r.scoredTotal.WithLabelValues(symbol).Inc()
	r.lastScore.WithLabelValues(symbol).Set(score)
}

func (r *Recorder) RecordDropped(reason string) {
	r.droppedTotal.WithLabelValues(reason).Inc()
}

func (r *Recorder) RecordFallback(source string) {
	r.fallbackTotal.WithLabelValues(source).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards every observation.
type Nop struct{}

func (Nop) RecordScored(string, float64)  {}
func (Nop) RecordDropped(string)          {}
func (Nop) RecordFallback(string)         {}
func (Nop) RecordLatency(string, float64) {}
