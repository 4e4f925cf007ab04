package publish

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/miradorstack/mirador-clusterview/internal/cache"
	"github.com/miradorstack/mirador-clusterview/internal/feed"
	"github.com/miradorstack/mirador-clusterview/internal/models"
	"github.com/miradorstack/mirador-clusterview/internal/projection"
	"github.com/miradorstack/mirador-clusterview/internal/store"
)

type stubCache struct {
	mu     sync.Mutex
	store  map[string][]byte
	ttls   map[string]time.Duration
	setErr error
}

func newStubCache() *stubCache {
	return &stubCache{store: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (s *stubCache) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.store[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return append([]byte(nil), value...), nil
}

func (s *stubCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.store[key] = append([]byte(nil), value...)
	s.ttls[key] = ttl
	return nil
}

func (s *stubCache) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.store, key)
	return nil
}

func (s *stubCache) Close() error { return nil }

func newBuilder(t *testing.T) (*store.Store, *projection.Builder) {
	t.Helper()
	st, err := store.New(feed.Default())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return st, projection.NewBuilder(st, projection.DefaultPalette())
}

func TestPublishAndReadBack(t *testing.T) {
	stub := newStubCache()
	_, builder := newBuilder(t)
	p := NewPublisher(nil, stub, builder, "dash", time.Minute)

	if err := p.Publish(context.Background()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if stub.ttls["dash"] != time.Minute {
		t.Fatalf("expected ttl to be forwarded, got %v", stub.ttls["dash"])
	}

	d, err := p.Latest(context.Background())
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(d.Alerts) != 3 || len(d.Compliance.Segments) != 3 || len(d.History.Points) != 3 {
		t.Fatalf("unexpected published dashboard: %+v", d)
	}
	if d.Alerts[0].ID != "1" || d.Compliance.Passed != 37 {
		t.Fatalf("embedded fields lost in round trip: %+v", d.Alerts[0])
	}
}

func TestOnTickRepublishes(t *testing.T) {
	stub := newStubCache()
	st, builder := newBuilder(t)
	p := NewPublisher(nil, stub, builder, "dash", 0)

	m := st.ApplySample(models.Sample{
		CPUDelta:    40,
		CPURange:    models.Range{Min: 5, Max: 95},
		MemoryRange: models.Range{Min: 10, Max: 90},
	})
	p.OnTick(m)

	d, err := p.Latest(context.Background())
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if d.Metrics.CPU.Value != 82 || d.Metrics.CPU.Tier != "danger" {
		t.Fatalf("expected republished cpu 82/danger, got %+v", d.Metrics.CPU)
	}
}

func TestPublishError(t *testing.T) {
	stub := newStubCache()
	stub.setErr = errors.New("down")
	_, builder := newBuilder(t)
	p := NewPublisher(nil, stub, builder, "dash", 0)

	if err := p.Publish(context.Background()); err == nil {
		t.Fatalf("expected publish error")
	}
	p.OnTick(models.ClusterMetrics{})
}

func TestCloseRetractsKey(t *testing.T) {
	stub := newStubCache()
	_, builder := newBuilder(t)
	p := NewPublisher(nil, stub, builder, "dash", 0)
	if err := p.Publish(context.Background()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := p.Latest(context.Background()); !errors.Is(err, cache.ErrCacheMiss) {
		t.Fatalf("expected cache miss after close, got %v", err)
	}
}

func TestNilProviderIsNoop(t *testing.T) {
	_, builder := newBuilder(t)
	p := NewPublisher(nil, nil, builder, "dash", 0)
	if err := p.Publish(context.Background()); err != nil {
		t.Fatalf("publish: %v", err)
	}
}
