package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels successful publications.
	OutcomeSuccess = "success"
	// OutcomeError labels failed publications.
	OutcomeError = "error"
)

var (
	cpuUsagePercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clusterview",
			Name:      "cpu_usage_percent",
			Help:      "Current sampled cluster CPU usage.",
		},
	)

	memoryUsagePercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clusterview",
			Name:      "memory_usage_percent",
			Help:      "Current sampled cluster memory usage.",
		},
	)

	samplerTicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clusterview",
			Name:      "sampler_ticks_total",
			Help:      "Total number of sampler ticks applied to the store.",
		},
	)

	invalidSamplesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clusterview",
			Name:      "sampler_invalid_samples_total",
			Help:      "Ticks whose random delta was replaced by zero.",
		},
	)

	rejectedSnapshotsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clusterview",
			Name:      "store_rejected_snapshots_total",
			Help:      "Snapshots rejected at ingestion for violating invariants.",
		},
	)

	projectionDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clusterview",
			Name:      "projection_seconds",
			Help:      "Time spent building chart projections.",
			Buckets:   []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01},
		},
		[]string{"view"},
	)

	publicationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clusterview",
			Name:      "publications_total",
			Help:      "Dashboard publications to the cache, partitioned by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register attaches clusterview collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		cpuUsagePercent,
		memoryUsagePercent,
		samplerTicksTotal,
		invalidSamplesTotal,
		rejectedSnapshotsTotal,
		projectionDurationSeconds,
		publicationsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveSample records the metric values produced by a tick.
func ObserveSample(cpu, memory float64) {
	samplerTicksTotal.Inc()
	cpuUsagePercent.Set(cpu)
	memoryUsagePercent.Set(memory)
}

// ObserveInvalidSample counts a tick that fell back to a zero delta.
func ObserveInvalidSample() {
	invalidSamplesTotal.Inc()
}

// ObserveRejectedSnapshot counts a snapshot refused at ingestion.
func ObserveRejectedSnapshot() {
	rejectedSnapshotsTotal.Inc()
}

// ObserveProjection records how long a projection took to build.
func ObserveProjection(view string, duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	projectionDurationSeconds.WithLabelValues(view).Observe(duration.Seconds())
}

// ObservePublish records a cache publication outcome.
func ObservePublish(outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	publicationsTotal.WithLabelValues(label).Inc()
}
