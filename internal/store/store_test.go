package store

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/miradorstack/mirador-clusterview/internal/models"
)

func seedSnapshot() models.Snapshot {
	return models.Snapshot{
		Metrics: models.ClusterMetrics{CPUUsage: 42, MemoryUsage: 38, PodCount: 24, NodeCount: 3, HealthyPods: 23, UnhealthyPods: 1},
		Alerts: []models.SecurityAlert{
			{ID: "1", Timestamp: time.Date(2024, 3, 18, 9, 23, 45, 0, time.UTC), Severity: models.SeverityHigh, Message: "Unusual pod activity detected", AnomalyScore: 0.89},
			{ID: "2", Timestamp: time.Date(2024, 3, 17, 14, 12, 30, 0, time.UTC), Severity: models.SeverityMedium, Message: "Potential privilege escalation", AnomalyScore: 0.72},
		},
		Compliance: models.ComplianceResult{Passed: 37, Failed: 4, Warning: 8, LastRun: time.Date(2024, 3, 17, 8, 30, 0, 0, time.UTC)},
		History: []models.HistoricalPoint{
			{Period: "Jan", Incidents: 12, ComplianceScore: 92},
			{Period: "Feb", Incidents: 8, ComplianceScore: 94},
		},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(seedSnapshot())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestNewRejectsMalformedSeed(t *testing.T) {
	seed := seedSnapshot()
	seed.Metrics.HealthyPods = 30
	if _, err := New(seed); !errors.Is(err, ErrMalformedSnapshot) {
		t.Fatalf("expected malformed snapshot error, got %v", err)
	}
}

func TestIngestMalformedKeepsPrevious(t *testing.T) {
	s := newTestStore(t)
	before := s.Snapshot()

	bad := seedSnapshot()
	bad.Metrics = models.ClusterMetrics{CPUUsage: 50, MemoryUsage: 50, PodCount: 3, HealthyPods: 5, UnhealthyPods: 5}
	err := s.Ingest(bad)
	if !errors.Is(err, ErrMalformedSnapshot) {
		t.Fatalf("expected malformed snapshot error, got %v", err)
	}
	if !strings.Contains(err.Error(), "exceeds podCount") {
		t.Fatalf("expected pod count message, got %v", err)
	}

	after := s.Snapshot()
	if after.Metrics != before.Metrics {
		t.Fatalf("metrics changed after rejected ingest: %+v", after.Metrics)
	}
	if len(after.Alerts) != len(before.Alerts) || after.Compliance != before.Compliance {
		t.Fatalf("snapshot changed after rejected ingest")
	}
}

func TestIngestRejectsInvalidAlerts(t *testing.T) {
	s := newTestStore(t)

	dup := seedSnapshot()
	dup.Alerts[1].ID = dup.Alerts[0].ID
	if err := s.Ingest(dup); !errors.Is(err, ErrMalformedSnapshot) {
		t.Fatalf("expected duplicate id rejection, got %v", err)
	}

	score := seedSnapshot()
	score.Alerts[0].AnomalyScore = 1.2
	if err := s.Ingest(score); !errors.Is(err, ErrMalformedSnapshot) {
		t.Fatalf("expected anomaly score rejection, got %v", err)
	}

	sev := seedSnapshot()
	sev.Alerts[0].Severity = "critical"
	if err := s.Ingest(sev); !errors.Is(err, ErrMalformedSnapshot) {
		t.Fatalf("expected severity rejection, got %v", err)
	}

	stamp := seedSnapshot()
	stamp.Alerts[0].Timestamp = time.Time{}
	if err := s.Ingest(stamp); !errors.Is(err, ErrMalformedSnapshot) {
		t.Fatalf("expected timestamp rejection, got %v", err)
	}
}

func TestIngestRejectsNegativeCounts(t *testing.T) {
	s := newTestStore(t)
	bad := seedSnapshot()
	bad.Compliance.Failed = -1
	if err := s.Ingest(bad); !errors.Is(err, ErrMalformedSnapshot) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if s.ComplianceSnapshot().Failed != 4 {
		t.Fatalf("compliance changed after rejection")
	}
}

func TestIngestRejectsOutOfRangeUsage(t *testing.T) {
	s := newTestStore(t)
	before := s.CurrentMetrics()

	bad := seedSnapshot()
	bad.Metrics.CPUUsage = 99
	bad.Metrics.MemoryUsage = 2
	err := s.Ingest(bad)
	if !errors.Is(err, ErrMalformedSnapshot) {
		t.Fatalf("expected malformed snapshot error, got %v", err)
	}
	if !strings.Contains(err.Error(), "metrics.cpuUsage") || !strings.Contains(err.Error(), "metrics.memoryUsage") {
		t.Fatalf("expected both usage fields named, got %v", err)
	}
	if s.CurrentMetrics() != before {
		t.Fatalf("metrics changed after rejected ingest: %+v", s.CurrentMetrics())
	}
}

func TestIngestRejectsEmptySnapshot(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ingest(models.Snapshot{}); !errors.Is(err, ErrMalformedSnapshot) {
		t.Fatalf("expected empty snapshot rejection, got %v", err)
	}
	if _, err := New(models.Snapshot{}); !errors.Is(err, ErrMalformedSnapshot) {
		t.Fatalf("expected empty seed rejection, got %v", err)
	}
	if s.CurrentMetrics().CPUUsage != 42 {
		t.Fatalf("store changed after rejected ingest")
	}
}

func TestWithBoundsOverridesRanges(t *testing.T) {
	s, err := New(seedSnapshot(), WithBounds(models.Range{Min: 40, Max: 50}, models.Range{Min: 30, Max: 40}))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if got := s.Bounds(); got.CPU.Min != 40 || got.Memory.Max != 40 {
		t.Fatalf("unexpected bounds: %+v", got)
	}

	inside := seedSnapshot()
	inside.Metrics.CPUUsage = 50
	if err := s.Ingest(inside); err != nil {
		t.Fatalf("expected inclusive upper bound, got %v", err)
	}

	outside := seedSnapshot()
	outside.Metrics.CPUUsage = 60
	if err := s.Ingest(outside); !errors.Is(err, ErrMalformedSnapshot) {
		t.Fatalf("expected cpu 60 outside [40, 50] to be rejected, got %v", err)
	}

	if _, err := New(seedSnapshot(), WithBounds(models.Range{Min: 50, Max: 60}, models.DefaultMemoryRange)); !errors.Is(err, ErrMalformedSnapshot) {
		t.Fatalf("expected seed outside custom bounds to be rejected, got %v", err)
	}
}

func TestIngestAcceptsPartialSnapshot(t *testing.T) {
	s := newTestStore(t)
	partial := models.Snapshot{Metrics: models.ClusterMetrics{CPUUsage: 20, MemoryUsage: 20}}
	if err := s.Ingest(partial); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alerts := s.Alerts(); alerts == nil || len(alerts) != 0 {
		t.Fatalf("expected empty non-nil alerts, got %#v", alerts)
	}
	if history := s.HistoricalSeries(); history == nil || len(history) != 0 {
		t.Fatalf("expected empty non-nil history, got %#v", history)
	}
}

func TestApplySampleOnlyTouchesScalars(t *testing.T) {
	s := newTestStore(t)
	got := s.ApplySample(models.Sample{
		CPUDelta:    100,
		MemoryDelta: -100,
		CPURange:    models.Range{Min: 5, Max: 95},
		MemoryRange: models.Range{Min: 10, Max: 90},
	})
	if got.CPUUsage != 95 || got.MemoryUsage != 10 {
		t.Fatalf("unexpected metrics: %+v", got)
	}
	m := s.CurrentMetrics()
	if m.PodCount != 24 || m.HealthyPods != 23 || m.UnhealthyPods != 1 || m.NodeCount != 3 {
		t.Fatalf("counts changed: %+v", m)
	}
	if len(s.Alerts()) != 2 || len(s.HistoricalSeries()) != 2 {
		t.Fatalf("collections changed by sample")
	}
}

func TestReadsReturnCopies(t *testing.T) {
	s := newTestStore(t)
	alerts := s.Alerts()
	alerts[0].Message = "mutated"
	history := s.HistoricalSeries()
	history[0].Incidents = 999

	if s.Alerts()[0].Message == "mutated" {
		t.Fatalf("alert mutation leaked into store")
	}
	if s.HistoricalSeries()[0].Incidents == 999 {
		t.Fatalf("history mutation leaked into store")
	}
}

func TestAlertsPreserveInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	alerts := s.Alerts()
	if alerts[0].ID != "1" || alerts[1].ID != "2" {
		t.Fatalf("unexpected order: %s, %s", alerts[0].ID, alerts[1].ID)
	}
}

func TestConcurrentSampleAndReadNeverTear(t *testing.T) {
	s := newTestStore(t)
	sample := models.Sample{
		CPUDelta:    1,
		MemoryDelta: 1,
		CPURange:    models.Range{Min: 0, Max: 1e9},
		MemoryRange: models.Range{Min: 0, Max: 1e9},
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s.ApplySample(sample)
		}
	}()

	// cpu and memory start 4 apart and move together, so any torn read breaks the gap.
	for i := 0; i < 1000; i++ {
		m := s.CurrentMetrics()
		if m.CPUUsage-m.MemoryUsage != 4 {
			t.Fatalf("observed half-applied sample: %+v", m)
		}
	}
	wg.Wait()
}
