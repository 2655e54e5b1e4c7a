package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	trendsCollected *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	forecastTopics  prometheus.Gauge
	forecastSkipped prometheus.Gauge
	latency         *prometheus.HistogramVec
}

// New registers the collectors on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		trendsCollected: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trendpulse_trends_collected_total",
				Help: "Trends collected per platform",
			},
			[]string{"platform"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trendpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		forecastTopics: f.NewGauge(prometheus.GaugeOpts{
			Name: "trendpulse_forecast_topics",
			Help: "Topics forecast in the last run",
		}),
		forecastSkipped: f.NewGauge(prometheus.GaugeOpts{
			Name: "trendpulse_forecast_skipped_topics",
			Help: "Topics skipped in the last forecast run",
		}),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trendpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordTrendsCollected(platform string, n int) {
	r.trendsCollected.WithLabelValues(platform).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordForecast stores the size of the last forecast run.
func (r *Recorder) RecordForecast(topics, skipped int) {
	r.forecastTopics.Set(float64(topics))
	r.forecastSkipped.Set(float64(skipped))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards everything. Useful in tests and when metrics are disabled.
type Nop struct{}

func (Nop) RecordTrendsCollected(string, int) {}
func (Nop) RecordError(string)                {}
func (Nop) RecordForecast(int, int)           {}
func (Nop) RecordLatency(string, float64)     {}
