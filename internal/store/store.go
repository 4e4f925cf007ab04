// Package store holds the process's single source of truth for dashboard telemetry.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/miradorstack/mirador-clusterview/internal/metrics"
	"github.com/miradorstack/mirador-clusterview/internal/models"
)

// ErrMalformedSnapshot marks an ingested snapshot that violates the data model.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// Store owns the current telemetry snapshot. Readers load an immutable value and never
// block; writers serialise on mu and publish a replacement in a single swap.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[models.Snapshot]
	logger  *slog.Logger
	now     func() time.Time
	bounds  Bounds
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBounds sets the operating ranges ingested cpu and memory values must fall in.
// Pass the sampler's walk ranges so both agree.
func WithBounds(cpu, memory models.Range) Option {
	return func(s *Store) {
		s.bounds = Bounds{CPU: cpu, Memory: memory}
	}
}

// WithClock overrides the clock used to stamp updates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a store seeded with the given snapshot. The seed must satisfy the same
// invariants as any later ingestion.
func New(seed models.Snapshot, opts ...Option) (*Store, error) {
	s := &Store{logger: slog.Default(), now: time.Now, bounds: DefaultBounds()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.bounds.Validate(seed); err != nil {
		return nil, err
	}
	s.swap(seed)
	return s, nil
}

// CurrentMetrics returns the latest cluster metrics.
func (s *Store) CurrentMetrics() models.ClusterMetrics {
	return s.current.Load().Metrics
}

// ApplySample applies one sampler tick to the scalar metrics. Counts and every
// other part of the snapshot are carried over unchanged.
func (s *Store) ApplySample(sample models.Sample) models.ClusterMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := *s.current.Load()
	next.Metrics = sample.Apply(next.Metrics)
	next.UpdatedAt = s.now()
	s.current.Store(&next)
	return next.Metrics
}

// Alerts returns the alert sequence in insertion order.
func (s *Store) Alerts() []models.SecurityAlert {
	return cloneSlice(s.current.Load().Alerts)
}

// ComplianceSnapshot returns the latest compliance tally.
func (s *Store) ComplianceSnapshot() models.ComplianceResult {
	return s.current.Load().Compliance
}

// HistoricalSeries returns the trend points in chronological order.
func (s *Store) HistoricalSeries() []models.HistoricalPoint {
	return cloneSlice(s.current.Load().History)
}

// Bounds returns the operating ranges enforced on ingestion.
func (s *Store) Bounds() Bounds {
	return s.bounds
}

// Snapshot returns a consistent copy of everything the store holds.
func (s *Store) Snapshot() models.Snapshot {
	snap := *s.current.Load()
	snap.Alerts = cloneSlice(snap.Alerts)
	snap.History = cloneSlice(snap.History)
	return snap
}

// Ingest replaces the held snapshot with one supplied by the telemetry feed. A snapshot
// that fails validation is rejected and the previous one is kept.
func (s *Store) Ingest(snap models.Snapshot) error {
	if err := s.bounds.Validate(snap); err != nil {
		metrics.ObserveRejectedSnapshot()
		s.logger.Warn("snapshot rejected", slog.Any("error", err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.swap(snap)
	s.logger.Debug("snapshot ingested",
		slog.Int("alerts", len(snap.Alerts)),
		slog.Int("history", len(snap.History)),
	)
	return nil
}

func (s *Store) swap(snap models.Snapshot) {
	snap.Alerts = cloneSlice(snap.Alerts)
	snap.History = cloneSlice(snap.History)
	if snap.UpdatedAt.IsZero() {
		snap.UpdatedAt = s.now()
	}
	s.current.Store(&snap)
}

func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func malformed(err error) error {
	return fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
}
