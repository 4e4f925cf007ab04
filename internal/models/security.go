package models

import "time"

// Severity captures the alerting collaborator's impact level.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SecurityAlert is an anomaly alert raised by the external detector.
type SecurityAlert struct {
	ID           string    `json:"id" yaml:"id" validate:"required"`
	Timestamp    time.Time `json:"timestamp" yaml:"timestamp" validate:"required"`
	Severity     Severity  `json:"severity" yaml:"severity" validate:"oneof=low medium high"`
	Message      string    `json:"message" yaml:"message"`
	AnomalyScore float64   `json:"anomalyScore" yaml:"anomalyScore" validate:"gte=0,lte=1"`
}

// ComplianceResult tallies the latest policy-compliance run.
type ComplianceResult struct {
	Passed  int       `json:"passed" yaml:"passed" validate:"gte=0"`
	Failed  int       `json:"failed" yaml:"failed" validate:"gte=0"`
	Warning int       `json:"warning" yaml:"warning" validate:"gte=0"`
	LastRun time.Time `json:"lastRun" yaml:"lastRun"`
}

// Total returns the number of checks in the run.
func (c ComplianceResult) Total() int {
	return c.Passed + c.Failed + c.Warning
}

// HistoricalPoint is one period of the trend series.
type HistoricalPoint struct {
	Period          string  `json:"period" yaml:"period" validate:"required"`
	Incidents       int     `json:"incidents" yaml:"incidents" validate:"gte=0"`
	ComplianceScore float64 `json:"complianceScore" yaml:"complianceScore" validate:"gte=0,lte=100"`
}
