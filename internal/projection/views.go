// Package projection derives chart-ready, renderer-agnostic records from store state.
// Nothing in this package mutates its inputs.
package projection

import (
	"math"
	"time"

	"github.com/miradorstack/mirador-clusterview/internal/classify"
	"github.com/miradorstack/mirador-clusterview/internal/models"
)

// Compliance segment labels, in legend order.
const (
	SegmentPassed  = "Passed"
	SegmentFailed  = "Failed"
	SegmentWarning = "Warning"
)

// PieSegment is one wedge of a pie chart.
type PieSegment struct {
	Label string        `json:"label"`
	Value int           `json:"value"`
	Tier  classify.Tier `json:"tier"`
	Color string        `json:"color"`
}

// CompliancePie always returns Passed, Failed and Warning in that order, zero counts included.
func CompliancePie(c models.ComplianceResult, palette Palette) []PieSegment {
	return []PieSegment{
		{Label: SegmentPassed, Value: c.Passed, Tier: classify.TierHealthy, Color: palette.Color(classify.TierHealthy)},
		{Label: SegmentFailed, Value: c.Failed, Tier: classify.TierDanger, Color: palette.Color(classify.TierDanger)},
		{Label: SegmentWarning, Value: c.Warning, Tier: classify.TierWarning, Color: palette.Color(classify.TierWarning)},
	}
}

// AxisDomain is the numeric range of one chart axis.
type AxisDomain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SeriesMeta describes one line of a chart.
type SeriesMeta struct {
	Key    string     `json:"key"`
	Name   string     `json:"name"`
	Color  string     `json:"color"`
	Domain AxisDomain `json:"domain"`
}

// DualAxisPoint is one x position with independently scaled left and right values.
type DualAxisPoint struct {
	Period          string  `json:"period"`
	Incidents       int     `json:"incidents"`
	ComplianceScore float64 `json:"complianceScore"`
}

// DualAxisChart is the historical trend projection.
type DualAxisChart struct {
	Points []DualAxisPoint `json:"points"`
	Left   SeriesMeta      `json:"left"`
	Right  SeriesMeta      `json:"right"`
}

// ComplianceScoreDomain is the fixed domain of the right axis.
var ComplianceScoreDomain = AxisDomain{Min: 0, Max: 100}

// HistoryChart keeps input order and count. The left axis is scaled to the incident
// counts alone; the right axis is fixed to [0, 100].
func HistoryChart(points []models.HistoricalPoint, palette Palette) DualAxisChart {
	out := make([]DualAxisPoint, 0, len(points))
	maxIncidents := 0
	for _, p := range points {
		if p.Incidents > maxIncidents {
			maxIncidents = p.Incidents
		}
		out = append(out, DualAxisPoint{
			Period:          p.Period,
			Incidents:       p.Incidents,
			ComplianceScore: p.ComplianceScore,
		})
	}
	return DualAxisChart{
		Points: out,
		Left: SeriesMeta{
			Key:    "incidents",
			Name:   "Security Incidents",
			Color:  palette.Color(classify.TierDanger),
			Domain: AxisDomain{Min: 0, Max: float64(maxIncidents)},
		},
		Right: SeriesMeta{
			Key:    "complianceScore",
			Name:   "Compliance Score (%)",
			Color:  palette.Color(classify.TierHealthy),
			Domain: ComplianceScoreDomain,
		},
	}
}

// Gauge is a usage metric with its progress tier and badge tier.
type Gauge struct {
	Label      string        `json:"label"`
	Value      float64       `json:"value"`
	Tier       classify.Tier `json:"tier"`
	Color      string        `json:"color"`
	BadgeTier  classify.Tier `json:"badgeTier"`
	BadgeColor string        `json:"badgeColor"`
}

// UtilizationGauge classifies a CPU or memory percentage for display.
func UtilizationGauge(label string, usage float64, palette Palette) Gauge {
	tier := classify.Utilization(usage)
	badge := classify.Badge(usage)
	return Gauge{
		Label:      label,
		Value:      usage,
		Tier:       tier,
		Color:      palette.Color(tier),
		BadgeTier:  badge,
		BadgeColor: palette.Color(badge),
	}
}

// PodStatus splits the pod count by health.
type PodStatus struct {
	Total     int `json:"total"`
	Healthy   int `json:"healthy"`
	Unhealthy int `json:"unhealthy"`
	Other     int `json:"other"`
}

// Pods projects pod health counts. Other covers pods reported as neither healthy nor unhealthy.
func Pods(m models.ClusterMetrics) PodStatus {
	other := m.PodCount - m.HealthyPods - m.UnhealthyPods
	if other < 0 {
		other = 0
	}
	return PodStatus{Total: m.PodCount, Healthy: m.HealthyPods, Unhealthy: m.UnhealthyPods, Other: other}
}

// AlertView is an alert decorated with its display tiers.
type AlertView struct {
	models.SecurityAlert
	SeverityTier     classify.Tier `json:"severityTier"`
	SeverityColor    string        `json:"severityColor"`
	IntensityTier    classify.Tier `json:"intensityTier"`
	IntensityColor   string        `json:"intensityColor"`
	IntensityPercent int           `json:"intensityPercent"`
	Recommendations  []string      `json:"recommendations,omitempty"`
}

// AlertViews classifies alerts, preserving input order.
func AlertViews(alerts []models.SecurityAlert, palette Palette) []AlertView {
	out := make([]AlertView, 0, len(alerts))
	for _, a := range alerts {
		sev := classify.Severity(a.Severity)
		intensity := classify.Anomaly(a.AnomalyScore)
		out = append(out, AlertView{
			SecurityAlert:    a,
			SeverityTier:     sev,
			SeverityColor:    palette.Color(sev),
			IntensityTier:    intensity,
			IntensityColor:   palette.Color(intensity),
			IntensityPercent: int(math.Round(a.AnomalyScore * 100)),
		})
	}
	return out
}

// ComplianceView pairs the raw tally with its pie projection.
type ComplianceView struct {
	models.ComplianceResult
	Total    int          `json:"total"`
	Segments []PieSegment `json:"segments"`
}

// Compliance projects the compliance tally.
func Compliance(c models.ComplianceResult, palette Palette) ComplianceView {
	return ComplianceView{ComplianceResult: c, Total: c.Total(), Segments: CompliancePie(c, palette)}
}

// MetricsView is the live cluster status panel.
type MetricsView struct {
	Raw    models.ClusterMetrics `json:"raw"`
	CPU    Gauge                 `json:"cpu"`
	Memory Gauge                 `json:"memory"`
	Pods   PodStatus             `json:"pods"`
	Nodes  int                   `json:"nodes"`
}

// Metrics projects the cluster metrics panel.
func Metrics(m models.ClusterMetrics, palette Palette) MetricsView {
	return MetricsView{
		Raw:    m,
		CPU:    UtilizationGauge("CPU Usage", m.CPUUsage, palette),
		Memory: UtilizationGauge("Memory Usage", m.MemoryUsage, palette),
		Pods:   Pods(m),
		Nodes:  m.NodeCount,
	}
}

// Dashboard bundles every projection built from one snapshot.
type Dashboard struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Metrics     MetricsView    `json:"metrics"`
	Alerts      []AlertView    `json:"alerts"`
	Compliance  ComplianceView `json:"compliance"`
	History     DualAxisChart  `json:"history"`
}
