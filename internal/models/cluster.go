package models

import (
	"math"
	"time"
)

// ClusterMetrics is the live resource snapshot of the cluster.
type ClusterMetrics struct {
	CPUUsage      float64 `json:"cpuUsage" yaml:"cpuUsage" validate:"gte=0,lte=100"`
	MemoryUsage   float64 `json:"memoryUsage" yaml:"memoryUsage" validate:"gte=0,lte=100"`
	PodCount      int     `json:"podCount" yaml:"podCount" validate:"gte=0"`
	NodeCount     int     `json:"nodeCount" yaml:"nodeCount" validate:"gte=0"`
	HealthyPods   int     `json:"healthyPods" yaml:"healthyPods" validate:"gte=0"`
	UnhealthyPods int     `json:"unhealthyPods" yaml:"unhealthyPods" validate:"gte=0"`
}

// Range bounds a sampled metric.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Operating ranges of the scalar metrics. The sampler walks inside them and ingestion
// rejects values outside them.
var (
	DefaultCPURange    = Range{Min: 5, Max: 95}
	DefaultMemoryRange = Range{Min: 10, Max: 90}
)

// Clamp pins v into [Min, Max]. NaN clamps to Min.
func (r Range) Clamp(v float64) float64 {
	if math.IsNaN(v) || v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Sample is one sampler tick worth of change for the scalar metrics.
type Sample struct {
	CPUDelta    float64
	MemoryDelta float64
	CPURange    Range
	MemoryRange Range
}

// Apply returns m with the sample applied and both scalars clamped.
// Every other field is carried over untouched.
func (s Sample) Apply(m ClusterMetrics) ClusterMetrics {
	m.CPUUsage = s.CPURange.Clamp(m.CPUUsage + finiteOrZero(s.CPUDelta))
	m.MemoryUsage = s.MemoryRange.Clamp(m.MemoryUsage + finiteOrZero(s.MemoryDelta))
	return m
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Snapshot is the full telemetry feed consumed by the store.
type Snapshot struct {
	Metrics    ClusterMetrics    `json:"metrics" yaml:"metrics"`
	Alerts     []SecurityAlert   `json:"alerts" yaml:"alerts" validate:"unique=ID,dive"`
	Compliance ComplianceResult  `json:"compliance" yaml:"compliance"`
	History    []HistoricalPoint `json:"history" yaml:"history" validate:"dive"`
	UpdatedAt  time.Time         `json:"updatedAt" yaml:"-"`
}
