package projection

import "github.com/miradorstack/mirador-clusterview/internal/classify"

// Palette maps tiers to display colours.
type Palette struct {
	Healthy string `yaml:"healthy"`
	Warning string `yaml:"warning"`
	Danger  string `yaml:"danger"`
	Info    string `yaml:"info"`
	Gray    string `yaml:"gray"`
}

// DefaultPalette returns the reference colour set.
func DefaultPalette() Palette {
	return Palette{
		Healthy: "#10B981",
		Warning: "#F59E0B",
		Danger:  "#EF4444",
		Info:    "#3B82F6",
		Gray:    "#6B7280",
	}
}

// Color returns the colour for tier, falling back to gray for unknown tiers.
func (p Palette) Color(tier classify.Tier) string {
	switch tier {
	case classify.TierHealthy:
		return p.Healthy
	case classify.TierWarning:
		return p.Warning
	case classify.TierDanger:
		return p.Danger
	case classify.TierInfo:
		return p.Info
	default:
		return p.Gray
	}
}

// WithDefaults fills empty entries from DefaultPalette.
func (p Palette) WithDefaults() Palette {
	def := DefaultPalette()
	if p.Healthy == "" {
		p.Healthy = def.Healthy
	}
	if p.Warning == "" {
		p.Warning = def.Warning
	}
	if p.Danger == "" {
		p.Danger = def.Danger
	}
	if p.Info == "" {
		p.Info = def.Info
	}
	if p.Gray == "" {
		p.Gray = def.Gray
	}
	return p
}
