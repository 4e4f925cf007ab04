package feed

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/miradorstack/mirador-clusterview/internal/models"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func respond(code int, body string) *http.Response {
	return &http.Response{
		StatusCode: code,
		Status:     http.StatusText(code),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestClientFetch(t *testing.T) {
	client := NewClient("https://feed.example.com/base/", "api/v1/snapshot", time.Second)
	client.httpClient.Transport = roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/base/api/v1/snapshot" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		return respond(http.StatusOK, `{"metrics": {"cpuUsage": 12, "podCount": 4, "healthyPods": 4}, "compliance": {"passed": 2}}`), nil
	})

	snap, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Metrics.CPUUsage != 12 || snap.Compliance.Passed != 2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestClientFetchStatusError(t *testing.T) {
	client := NewClient("https://feed.example.com", "/snapshot", time.Second)
	client.httpClient.Transport = roundTripFunc(func(*http.Request) (*http.Response, error) {
		return respond(http.StatusBadGateway, ""), nil
	})

	if _, err := client.Fetch(context.Background()); err == nil {
		t.Fatalf("expected error for 502")
	}
}

func TestClientUnconfigured(t *testing.T) {
	client := NewClient("", "/snapshot", time.Second)
	if client.Endpoint() != "" {
		t.Fatalf("expected empty endpoint")
	}
	if _, err := client.Fetch(context.Background()); err == nil {
		t.Fatalf("expected error without a URL")
	}
}

type fetcherFunc func(ctx context.Context) (models.Snapshot, error)

func (f fetcherFunc) Fetch(ctx context.Context) (models.Snapshot, error) { return f(ctx) }

type recordingIngester struct {
	mu   sync.Mutex
	got  []models.Snapshot
	err  error
	seen chan struct{}
}

func (r *recordingIngester) Ingest(snap models.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen != nil {
		select {
		case r.seen <- struct{}{}:
		default:
		}
	}
	if r.err != nil {
		return r.err
	}
	r.got = append(r.got, snap)
	return nil
}

func TestPollerPollRunsHooks(t *testing.T) {
	target := &recordingIngester{}
	poller := NewPoller(nil, fetcherFunc(func(context.Context) (models.Snapshot, error) {
		return Default(), nil
	}), target, time.Minute)
	hooked := 0
	poller.OnIngest(func() { hooked++ })

	if err := poller.Poll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(target.got) != 1 || hooked != 1 {
		t.Fatalf("expected one ingest and one hook, got %d/%d", len(target.got), hooked)
	}
}

func TestPollerRejectedSnapshotSkipsHooks(t *testing.T) {
	target := &recordingIngester{err: errors.New("malformed")}
	poller := NewPoller(nil, fetcherFunc(func(context.Context) (models.Snapshot, error) {
		return Default(), nil
	}), target, time.Minute)
	hooked := 0
	poller.OnIngest(func() { hooked++ })

	if err := poller.Poll(context.Background()); err == nil {
		t.Fatalf("expected rejection error")
	}
	if hooked != 0 {
		t.Fatalf("hooks must not run on rejection")
	}
}

func TestPollerStartPollsImmediately(t *testing.T) {
	target := &recordingIngester{seen: make(chan struct{}, 1)}
	poller := NewPoller(nil, fetcherFunc(func(context.Context) (models.Snapshot, error) {
		return Default(), nil
	}), target, time.Hour)

	poller.Start(context.Background())
	poller.Start(context.Background())
	select {
	case <-target.seen:
	case <-time.After(5 * time.Second):
		t.Fatalf("poller did not poll on start")
	}
	poller.Stop()
	poller.Stop()
}
