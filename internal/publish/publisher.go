// Package publish writes the latest dashboard projection to a shared cache so external
// renderers can read it without talking to this process.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/miradorstack/mirador-clusterview/internal/cache"
	"github.com/miradorstack/mirador-clusterview/internal/metrics"
	"github.com/miradorstack/mirador-clusterview/internal/models"
	"github.com/miradorstack/mirador-clusterview/internal/projection"
)

const publishTimeout = 2 * time.Second

// DashboardBuilder produces the projection to publish.
type DashboardBuilder interface {
	Dashboard() projection.Dashboard
}

// Publisher stores the dashboard projection under a single key.
type Publisher struct {
	cache   cache.Provider
	builder DashboardBuilder
	key     string
	ttl     time.Duration
	logger  *slog.Logger
}

// NewPublisher constructs a Publisher; a nil provider publishes nowhere.
func NewPublisher(logger *slog.Logger, provider cache.Provider, builder DashboardBuilder, key string, ttl time.Duration) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if provider == nil {
		provider = cache.NoopProvider{}
	}
	return &Publisher{cache: provider, builder: builder, key: key, ttl: ttl, logger: logger}
}

// Publish builds and stores the current dashboard.
func (p *Publisher) Publish(ctx context.Context) error {
	payload, err := json.Marshal(p.builder.Dashboard())
	if err != nil {
		metrics.ObservePublish(metrics.OutcomeError)
		return fmt.Errorf("encode dashboard: %w", err)
	}
	if err := p.cache.Set(ctx, p.key, payload, p.ttl); err != nil {
		metrics.ObservePublish(metrics.OutcomeError)
		return fmt.Errorf("publish dashboard: %w", err)
	}
	metrics.ObservePublish(metrics.OutcomeSuccess)
	return nil
}

// Latest reads back the last published dashboard.
func (p *Publisher) Latest(ctx context.Context) (projection.Dashboard, error) {
	payload, err := p.cache.Get(ctx, p.key)
	if err != nil {
		return projection.Dashboard{}, err
	}
	var d projection.Dashboard
	if err := json.Unmarshal(payload, &d); err != nil {
		return projection.Dashboard{}, fmt.Errorf("decode dashboard: %w", err)
	}
	return d, nil
}

// OnTick is a sampler listener that republishes after every tick.
func (p *Publisher) OnTick(models.ClusterMetrics) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.Publish(ctx); err != nil {
		p.logger.Warn("dashboard publish failed", slog.String("key", p.key), slog.Any("error", err))
	}
}

// Close removes the published key so readers do not see a discarded dashboard.
func (p *Publisher) Close(ctx context.Context) error {
	if err := p.cache.Del(ctx, p.key); err != nil {
		return fmt.Errorf("retract dashboard: %w", err)
	}
	return nil
}
