// Package feed decodes telemetry snapshots supplied by the external collaborator.
//
// Documents are YAML; JSON bodies decode through the same path.
package feed

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/miradorstack/mirador-clusterview/internal/models"
	"github.com/miradorstack/mirador-clusterview/internal/utils"
)

// Document is the on-disk/over-the-wire shape of a snapshot. Metrics must be
// present; the other sections may be empty.
type Document struct {
	Metrics    *models.ClusterMetrics `yaml:"metrics"`
	Alerts     []AlertDocument        `yaml:"alerts"`
	Compliance ComplianceDocument     `yaml:"compliance"`
	History    []HistoryDocument      `yaml:"history"`
}

// AlertDocument is a security alert with a textual timestamp.
type AlertDocument struct {
	ID           string  `yaml:"id"`
	Timestamp    string  `yaml:"timestamp"`
	Severity     string  `yaml:"severity"`
	Message      string  `yaml:"message"`
	AnomalyScore float64 `yaml:"anomalyScore"`
}

// ComplianceDocument is a compliance tally with a textual lastRun.
type ComplianceDocument struct {
	Passed  int    `yaml:"passed"`
	Failed  int    `yaml:"failed"`
	Warning int    `yaml:"warning"`
	LastRun string `yaml:"lastRun"`
}

// HistoryDocument is one trend period. Month is accepted as an alias of Period.
type HistoryDocument struct {
	Period          string  `yaml:"period"`
	Month           string  `yaml:"month"`
	Incidents       int     `yaml:"incidents"`
	ComplianceScore float64 `yaml:"complianceScore"`
}

// Load reads and decodes a feed file.
func Load(path string) (models.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.Snapshot{}, utils.NewKindError(utils.KindNotFound, "feed.load", fmt.Sprintf("feed file %s not found", path), err)
		}
		return models.Snapshot{}, utils.NewAppError("feed.load", "read feed", err)
	}
	return Parse(data)
}

// Parse decodes a YAML or JSON feed document. Structural invariants are left to the
// store; Parse only rejects documents it cannot read or that carry no metrics section.
func Parse(data []byte) (models.Snapshot, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return models.Snapshot{}, utils.NewKindError(utils.KindInvalid, "feed.parse", "decode document", err)
	}
	return doc.Snapshot()
}

// Snapshot converts the document into the data model. Alerts without an id get a random one.
func (d Document) Snapshot() (models.Snapshot, error) {
	if d.Metrics == nil {
		return models.Snapshot{}, utils.NewKindError(utils.KindInvalid, "feed.parse", "metrics: required", nil)
	}

	snap := models.Snapshot{
		Metrics: *d.Metrics,
		Alerts:  make([]models.SecurityAlert, 0, len(d.Alerts)),
		History: make([]models.HistoricalPoint, 0, len(d.History)),
	}

	for i, a := range d.Alerts {
		alert := models.SecurityAlert{
			ID:           strings.TrimSpace(a.ID),
			Severity:     models.Severity(strings.ToLower(strings.TrimSpace(a.Severity))),
			Message:      a.Message,
			AnomalyScore: a.AnomalyScore,
		}
		if alert.ID == "" {
			alert.ID = uuid.NewString()
		}
		if a.Timestamp != "" {
			ts, err := utils.ParseTimestamp(a.Timestamp)
			if err != nil {
				return models.Snapshot{}, utils.NewKindError(utils.KindInvalid, "feed.parse", fmt.Sprintf("alerts[%d].timestamp", i), err)
			}
			alert.Timestamp = ts
		}
		snap.Alerts = append(snap.Alerts, alert)
	}

	snap.Compliance = models.ComplianceResult{
		Passed:  d.Compliance.Passed,
		Failed:  d.Compliance.Failed,
		Warning: d.Compliance.Warning,
	}
	if d.Compliance.LastRun != "" {
		ts, err := utils.ParseTimestamp(d.Compliance.LastRun)
		if err != nil {
			return models.Snapshot{}, utils.NewKindError(utils.KindInvalid, "feed.parse", "compliance.lastRun", err)
		}
		snap.Compliance.LastRun = ts
	}

	for _, h := range d.History {
		period := h.Period
		if period == "" {
			period = h.Month
		}
		snap.History = append(snap.History, models.HistoricalPoint{
			Period:          period,
			Incidents:       h.Incidents,
			ComplianceScore: h.ComplianceScore,
		})
	}
	return snap, nil
}
