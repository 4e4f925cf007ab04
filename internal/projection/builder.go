package projection

import (
	"time"

	"github.com/miradorstack/mirador-clusterview/internal/metrics"
	"github.com/miradorstack/mirador-clusterview/internal/models"
)

// Source is the read side of the aggregate store.
type Source interface {
	CurrentMetrics() models.ClusterMetrics
	Alerts() []models.SecurityAlert
	ComplianceSnapshot() models.ComplianceResult
	HistoricalSeries() []models.HistoricalPoint
	Snapshot() models.Snapshot
}

// Advisor suggests remediation steps for an alert.
type Advisor interface {
	Recommend(alert models.SecurityAlert) []string
}

// Builder computes projections from a Source on every call.
type Builder struct {
	source  Source
	palette Palette
	advisor Advisor
	now     func() time.Time
}

// BuilderOption customises a Builder.
type BuilderOption func(*Builder)

// WithAdvisor attaches recommendations to every projected alert.
func WithAdvisor(a Advisor) BuilderOption {
	return func(b *Builder) { b.advisor = a }
}

// NewBuilder constructs a Builder. Empty palette entries fall back to the defaults.
func NewBuilder(source Source, palette Palette, opts ...BuilderOption) *Builder {
	b := &Builder{source: source, palette: palette.WithDefaults(), now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Palette returns the colours in use.
func (b *Builder) Palette() Palette {
	return b.palette
}

// Metrics projects the live metrics panel.
func (b *Builder) Metrics() MetricsView {
	defer observe("metrics", time.Now())
	return Metrics(b.source.CurrentMetrics(), b.palette)
}

// Alerts projects the alert list.
func (b *Builder) Alerts() []AlertView {
	defer observe("alerts", time.Now())
	return b.alerts(b.source.Alerts())
}

// Compliance projects the compliance panel.
func (b *Builder) Compliance() ComplianceView {
	defer observe("compliance", time.Now())
	return Compliance(b.source.ComplianceSnapshot(), b.palette)
}

// History projects the dual-axis trend chart.
func (b *Builder) History() DualAxisChart {
	defer observe("history", time.Now())
	return HistoryChart(b.source.HistoricalSeries(), b.palette)
}

// Dashboard projects everything from a single consistent snapshot.
func (b *Builder) Dashboard() Dashboard {
	defer observe("dashboard", time.Now())
	return b.FromSnapshot(b.source.Snapshot())
}

// FromSnapshot projects a snapshot that did not come from the builder's source.
func (b *Builder) FromSnapshot(snap models.Snapshot) Dashboard {
	return Dashboard{
		GeneratedAt: b.now().UTC(),
		UpdatedAt:   snap.UpdatedAt.UTC(),
		Metrics:     Metrics(snap.Metrics, b.palette),
		Alerts:      b.alerts(snap.Alerts),
		Compliance:  Compliance(snap.Compliance, b.palette),
		History:     HistoryChart(snap.History, b.palette),
	}
}

func (b *Builder) alerts(alerts []models.SecurityAlert) []AlertView {
	views := AlertViews(alerts, b.palette)
	if b.advisor == nil {
		return views
	}
	for i := range views {
		views[i].Recommendations = b.advisor.Recommend(views[i].SecurityAlert)
	}
	return views
}

func observe(view string, start time.Time) {
	metrics.ObserveProjection(view, time.Since(start))
}
