package feed

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/miradorstack/mirador-clusterview/internal/models"
	"github.com/miradorstack/mirador-clusterview/internal/store"
	"github.com/miradorstack/mirador-clusterview/internal/utils"
)

func TestDefaultSnapshotIsValid(t *testing.T) {
	snap := Default()
	if err := store.Validate(snap); err != nil {
		t.Fatalf("default snapshot invalid: %v", err)
	}
	if len(snap.Alerts) != 3 || len(snap.History) != 3 {
		t.Fatalf("unexpected default sizes: %d alerts, %d history", len(snap.Alerts), len(snap.History))
	}
	if snap.Alerts[0].Severity != models.SeverityHigh || snap.Alerts[0].AnomalyScore != 0.89 {
		t.Fatalf("unexpected first alert: %+v", snap.Alerts[0])
	}
	want := time.Date(2024, 3, 17, 8, 30, 0, 0, time.UTC)
	if !snap.Compliance.LastRun.Equal(want) {
		t.Fatalf("expected lastRun %v, got %v", want, snap.Compliance.LastRun)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.yaml")
	if err := os.WriteFile(path, []byte(`metrics:
  cpuUsage: 10
  memoryUsage: 20
  podCount: 5
  healthyPods: 5
alerts:
  - timestamp: "2024-03-18T09:23:45Z"
    severity: HIGH
    message: no id here
    anomalyScore: 0.9
history:
  - month: Apr
    incidents: 2
    complianceScore: 97
`), 0644); err != nil {
		t.Fatalf("write feed: %v", err)
	}

	snap, err := Load(path)
	if err != nil {
		t.Fatalf("load feed: %v", err)
	}
	if snap.Alerts[0].ID == "" {
		t.Fatalf("expected generated alert id")
	}
	if snap.Alerts[0].Severity != models.SeverityHigh {
		t.Fatalf("expected severity to be normalised, got %q", snap.Alerts[0].Severity)
	}
	if snap.History[0].Period != "Apr" {
		t.Fatalf("expected month alias to populate period, got %q", snap.History[0].Period)
	}
}

func TestParseJSONBody(t *testing.T) {
	snap, err := Parse([]byte(`{"metrics":{"cpuUsage":50,"memoryUsage":40,"podCount":3,"healthyPods":5,"unhealthyPods":5},"alerts":[{"id":7,"timestamp":"2024-03-18T09:23:45","severity":"low","anomalyScore":0.1}]}`))
	if err != nil {
		t.Fatalf("parse json: %v", err)
	}
	if snap.Alerts[0].ID != "7" {
		t.Fatalf("expected numeric id to decode as string, got %q", snap.Alerts[0].ID)
	}
	if err := store.Validate(snap); !errors.Is(err, store.ErrMalformedSnapshot) {
		t.Fatalf("expected pod invariant violation, got %v", err)
	}
}

func TestParseBadTimestamp(t *testing.T) {
	_, err := Parse([]byte("alerts:\n  - id: a\n    timestamp: last tuesday\n"))
	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if utils.KindOf(err) != utils.KindInvalid {
		t.Fatalf("expected invalid kind, got %v", utils.KindOf(err))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	} else if utils.KindOf(err) != utils.KindNotFound {
		t.Fatalf("expected not-found kind, got %v", utils.KindOf(err))
	}
}

func TestParseRequiresMetricsSection(t *testing.T) {
	for _, body := range []string{`{}`, `alerts: []`, `{"compliance": {"passed": 3}}`} {
		_, err := Parse([]byte(body))
		if err == nil {
			t.Fatalf("expected %q to be rejected", body)
		}
		if utils.KindOf(err) != utils.KindInvalid {
			t.Fatalf("expected invalid kind for %q, got %v", body, err)
		}
	}

	if _, err := Parse([]byte(`{"metrics": {"cpuUsage": 20, "memoryUsage": 20}}`)); err != nil {
		t.Fatalf("expected document with metrics to parse, got %v", err)
	}
}
