// Package classify maps raw telemetry values onto display tiers.
//
// All functions are pure and evaluated at read time; nothing here is cached.
package classify

import (
	"math"

	"github.com/miradorstack/mirador-clusterview/internal/models"
)

// Tier is a discrete status bucket used by renderers to pick colours and icons.
type Tier string

const (
	TierInfo    Tier = "info"
	TierHealthy Tier = "healthy"
	TierWarning Tier = "warning"
	TierDanger  Tier = "danger"
)

// Operational thresholds, in percent. The anomaly policy reuses them scaled by PercentScale.
const (
	DangerAbove  = 80.0
	WarningAbove = 60.0
	PercentScale = 100.0
)

// Threshold assigns Tier to values in the half-open interval (Lower, Upper].
type Threshold struct {
	Tier  Tier
	Lower float64
	Upper float64
}

// Policy is an ordered threshold table with a floor tier for anything below every band.
type Policy struct {
	Name  string
	Bands []Threshold
	Floor Tier
}

// Classify returns the tier of v under the policy.
func (p Policy) Classify(v float64) Tier {
	for _, band := range p.Bands {
		if v > band.Lower && v <= band.Upper {
			return band.Tier
		}
	}
	return p.Floor
}

// Clone returns a copy whose bands do not alias p's.
func (p Policy) Clone() Policy {
	p.Bands = append([]Threshold(nil), p.Bands...)
	return p
}

var utilizationPolicy = Policy{
	Name: "utilization",
	Bands: []Threshold{
		{Tier: TierDanger, Lower: DangerAbove, Upper: math.Inf(1)},
		{Tier: TierWarning, Lower: WarningAbove, Upper: DangerAbove},
	},
	Floor: TierHealthy,
}

var anomalyPolicy = Policy{
	Name: "anomaly",
	Bands: []Threshold{
		{Tier: TierDanger, Lower: DangerAbove / PercentScale, Upper: math.Inf(1)},
		{Tier: TierWarning, Lower: WarningAbove / PercentScale, Upper: DangerAbove / PercentScale},
	},
	Floor: TierInfo,
}

var badgePolicy = Policy{
	Name: "badge",
	Bands: []Threshold{
		{Tier: TierDanger, Lower: DangerAbove, Upper: math.Inf(1)},
	},
	Floor: TierHealthy,
}

// UtilizationPolicy returns the policy for CPU and memory usage percentages.
func UtilizationPolicy() Policy { return utilizationPolicy.Clone() }

// AnomalyPolicy returns the policy for anomaly scores in [0, 1].
func AnomalyPolicy() Policy { return anomalyPolicy.Clone() }

// BadgePolicy returns the two-state numeric badge policy shown next to a usage value.
func BadgePolicy() Policy { return badgePolicy.Clone() }

// Utilization classifies a CPU or memory usage percentage.
func Utilization(usage float64) Tier {
	return utilizationPolicy.Classify(usage)
}

// Badge classifies the numeric usage badge.
func Badge(usage float64) Tier {
	return badgePolicy.Classify(usage)
}

// Anomaly classifies the intensity of an anomaly score, independently of severity.
func Anomaly(score float64) Tier {
	return anomalyPolicy.Classify(score)
}

// Severity maps an alert's own severity 1:1 onto a tier.
func Severity(sev models.Severity) Tier {
	switch sev {
	case models.SeverityHigh:
		return TierDanger
	case models.SeverityMedium:
		return TierWarning
	default:
		return TierInfo
	}
}
