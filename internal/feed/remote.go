package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/miradorstack/mirador-clusterview/internal/models"
	"github.com/miradorstack/mirador-clusterview/internal/utils"
)

const maxRemoteBytes = 1 << 20

// Client fetches feed documents from an HTTP endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient targets baseURL joined with snapshotPath.
func NewClient(baseURL, snapshotPath string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   resolvePath(strings.TrimRight(baseURL, "/"), snapshotPath),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Endpoint returns the resolved snapshot URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Fetch retrieves and decodes the current feed document.
func (c *Client) Fetch(ctx context.Context) (models.Snapshot, error) {
	if c == nil || c.endpoint == "" {
		return models.Snapshot{}, utils.NewAppError("feed.fetch", "feed URL not configured", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return models.Snapshot{}, utils.NewAppError("feed.fetch", "build request", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Snapshot{}, utils.NewKindError(utils.KindUnavailable, "feed.fetch", "request feed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Snapshot{}, utils.NewKindError(utils.KindUnavailable, "feed.fetch", fmt.Sprintf("feed returned %s", resp.Status), nil)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteBytes))
	if err != nil {
		return models.Snapshot{}, utils.NewAppError("feed.fetch", "read feed", err)
	}
	return Parse(body)
}

func resolvePath(baseURL, p string) string {
	if baseURL == "" {
		return ""
	}
	cleaned := "/" + strings.TrimLeft(p, "/")
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL + cleaned
	}
	u.Path = path.Join(u.Path, cleaned)
	return u.String()
}

// Fetcher retrieves snapshots. *Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context) (models.Snapshot, error)
}

// Ingester accepts fetched snapshots. *store.Store satisfies it.
type Ingester interface {
	Ingest(models.Snapshot) error
}

// Poller periodically pulls the remote feed into the store. A failed fetch or a
// rejected snapshot leaves the store on its previous snapshot.
type Poller struct {
	fetcher  Fetcher
	target   Ingester
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	onIngest []func()
}

// NewPoller constructs a stopped poller.
func NewPoller(logger *slog.Logger, fetcher Fetcher, target Ingester, interval time.Duration) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{fetcher: fetcher, target: target, interval: interval, logger: logger}
}

// OnIngest registers fn to run after every accepted snapshot.
func (p *Poller) OnIngest(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onIngest = append(p.onIngest, fn)
}

// Poll performs one fetch and ingest.
func (p *Poller) Poll(ctx context.Context) error {
	snap, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	if err := p.target.Ingest(snap); err != nil {
		return err
	}

	p.mu.Lock()
	hooks := append([]func(){}, p.onIngest...)
	p.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
	return nil
}

// Start polls immediately and then every interval until Stop or ctx cancellation.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(ctx, p.done)
}

// Stop halts polling and waits for an in-flight poll to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.Poll(ctx); err != nil && ctx.Err() == nil {
			p.logger.Warn("feed poll failed", slog.Any("error", err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
