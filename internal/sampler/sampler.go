// Package sampler drives the bounded random walk that refreshes cluster metrics.
package sampler

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/miradorstack/mirador-clusterview/internal/metrics"
	"github.com/miradorstack/mirador-clusterview/internal/models"
)

const (
	// DefaultInterval is the reference tick cadence.
	DefaultInterval = 5 * time.Second
	minInterval     = 100 * time.Millisecond
)

// Walk configures one random-walk metric: results stay inside Range and each tick
// moves by at most Step in either direction.
type Walk struct {
	Range models.Range
	Step  float64
}

// Policy holds the walk settings for both tracked metrics.
type Policy struct {
	CPU    Walk
	Memory Walk
}

// DefaultPolicy mirrors the reference dashboard.
func DefaultPolicy() Policy {
	return Policy{
		CPU:    Walk{Range: models.DefaultCPURange, Step: 5},
		Memory: Walk{Range: models.DefaultMemoryRange, Step: 4},
	}
}

// RandSource yields uniform values in [0, 1).
type RandSource interface {
	Float64() float64
}

// Ticker is the subset of time.Ticker the sampler depends on.
type Ticker interface {
	C() <-chan time.Time
	Reset(d time.Duration)
	Stop()
}

// TickerFactory creates a Ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

// Applier receives samples. *store.Store satisfies it.
type Applier interface {
	ApplySample(sample models.Sample) models.ClusterMetrics
}

// Listener is notified with the metrics produced by each tick.
type Listener func(models.ClusterMetrics)

// Sampler periodically applies bounded random deltas to the store.
type Sampler struct {
	target    Applier
	policy    Policy
	rand      RandSource
	newTicker TickerFactory
	logger    *slog.Logger

	mu        sync.Mutex
	interval  time.Duration
	ticker    Ticker
	cancel    context.CancelFunc
	done      chan struct{}
	listeners []Listener
}

// Option customises a Sampler.
type Option func(*Sampler)

// WithRandSource replaces the random source. A nil source makes every tick a no-op.
func WithRandSource(src RandSource) Option {
	return func(s *Sampler) { s.rand = src }
}

// WithTickerFactory injects the tick source, letting tests drive ticks by hand.
func WithTickerFactory(f TickerFactory) Option {
	return func(s *Sampler) {
		if f != nil {
			s.newTicker = f
		}
	}
}

// WithInterval sets the tick cadence.
func WithInterval(d time.Duration) Option {
	return func(s *Sampler) { s.interval = normaliseInterval(d) }
}

// WithLogger sets the sampler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sampler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSeededSource returns a deterministic RandSource.
func NewSeededSource(seed uint64) RandSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// New constructs a stopped sampler writing into target.
func New(target Applier, policy Policy, opts ...Option) *Sampler {
	s := &Sampler{
		target:    target,
		policy:    policy,
		rand:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		newTicker: newTimeTicker,
		logger:    slog.Default(),
		interval:  DefaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn to run after every tick.
func (s *Sampler) Subscribe(fn Listener) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Tick applies one random-walk step. It never fails: an unusable delta degrades to zero.
func (s *Sampler) Tick() models.ClusterMetrics {
	sample := models.Sample{
		CPUDelta:    s.delta(s.policy.CPU.Step),
		MemoryDelta: s.delta(s.policy.Memory.Step),
		CPURange:    s.policy.CPU.Range,
		MemoryRange: s.policy.Memory.Range,
	}
	current := s.target.ApplySample(sample)
	metrics.ObserveSample(current.CPUUsage, current.MemoryUsage)

	s.mu.Lock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(current)
	}
	return current
}

func (s *Sampler) delta(step float64) float64 {
	if s.rand == nil {
		metrics.ObserveInvalidSample()
		return 0
	}
	d := (s.rand.Float64()*2 - 1) * step
	if math.IsNaN(d) || math.IsInf(d, 0) {
		metrics.ObserveInvalidSample()
		s.logger.Debug("invalid sample replaced with zero delta", slog.Float64("step", step))
		return 0
	}
	return d
}

// Start begins ticking on the configured interval. Calling Start on a running sampler
// does nothing.
func (s *Sampler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.ticker = s.newTicker(s.interval)
	s.logger.Info("sampler started", slog.Duration("interval", s.interval))

	go s.loop(ctx, s.ticker, s.done)
}

// Stop cancels the loop, waits for it to exit and releases the ticker. Safe to call repeatedly.
func (s *Sampler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("sampler stopped")
}

// Running reports whether the tick loop is active.
func (s *Sampler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Interval returns the current tick cadence.
func (s *Sampler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// SetInterval changes the cadence, resetting the ticker if the sampler is running.
func (s *Sampler) SetInterval(d time.Duration) {
	d = normaliseInterval(d)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = d
	if s.cancel != nil && s.ticker != nil {
		s.ticker.Reset(d)
	}
	s.logger.Info("sampler interval updated", slog.Duration("interval", d))
}

func (s *Sampler) loop(ctx context.Context, ticker Ticker, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			ticker.Stop()
			s.release(done)
			return
		case <-ticker.C():
			s.Tick()
		}
	}
}

// release clears the run state when the loop ends because the parent context was
// cancelled rather than through Stop, so Running reports false and Start works again.
func (s *Sampler) release(done chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != done {
		return
	}
	s.cancel()
	s.cancel, s.done, s.ticker = nil, nil, nil
	s.logger.Info("sampler stopped", slog.String("reason", "context cancelled"))
}

func normaliseInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultInterval
	}
	if d < minInterval {
		return minInterval
	}
	return d
}

type timeTicker struct {
	t *time.Ticker
}

func newTimeTicker(d time.Duration) Ticker {
	return &timeTicker{t: time.NewTicker(d)}
}

func (t *timeTicker) C() <-chan time.Time { return t.t.C }

func (t *timeTicker) Reset(d time.Duration) { t.t.Reset(d) }

func (t *timeTicker) Stop() { t.t.Stop() }
