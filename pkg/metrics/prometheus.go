package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	loadsTotal  *prometheus.CounterVec
	loadLatency *prometheus.HistogramVec
	generation  prometheus.Gauge
	rows        *prometheus.GaugeVec
	cacheTotal  *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
}

// New registers the recorder on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the recorder on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		loadsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oilpulse_snapshot_loads_total",
				Help: "Snapshot load attempts by source and outcome",
			},
			[]string{"source", "result"},
		),
		loadLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oilpulse_snapshot_load_duration_seconds",
				Help:    "Duration of snapshot loads in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		generation: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "oilpulse_snapshot_generation",
				Help: "Generation of the currently installed snapshot",
			},
		),
		rows: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "oilpulse_snapshot_rows",
				Help: "Rows held by the installed snapshot",
			},
			[]string{"artifact"},
		),
		cacheTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oilpulse_response_cache_total",
				Help: "Response cache lookups by endpoint and outcome",
			},
			[]string{"endpoint", "result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oilpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordLoad records one snapshot load attempt.
func (r *Recorder) RecordLoad(source string, ok bool, seconds float64) {
	result := "success"
	if !ok {
		result = "failure"
	}
	r.loadsTotal.WithLabelValues(source, result).Inc()
	r.loadLatency.WithLabelValues(source).Observe(seconds)
}

// RecordSnapshot records the shape of a newly installed snapshot.
func (r *Recorder) RecordSnapshot(generation uint64, prices, events int) {
	r.generation.Set(float64(generation))
	r.rows.WithLabelValues("prices").Set(float64(prices))
	r.rows.WithLabelValues("events").Set(float64(events))
}

// RecordCache records a response cache hit or miss.
func (r *Recorder) RecordCache(endpoint string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheTotal.WithLabelValues(endpoint, result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// Nop discards every observation.
type Nop struct{}

func (Nop) RecordLoad(string, bool, float64) {}
func (Nop) RecordSnapshot(uint64, int, int) {}
func (Nop) RecordCache(string, bool) {}
func (Nop) RecordError(string) {}
