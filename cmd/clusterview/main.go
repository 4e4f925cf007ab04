package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/miradorstack/mirador-clusterview/internal/advice"
	"github.com/miradorstack/mirador-clusterview/internal/config"
	"github.com/miradorstack/mirador-clusterview/internal/feed"
	"github.com/miradorstack/mirador-clusterview/internal/models"
	"github.com/miradorstack/mirador-clusterview/internal/projection"
	"github.com/miradorstack/mirador-clusterview/internal/sampler"
	"github.com/miradorstack/mirador-clusterview/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "clusterview",
		Short:         "Kubernetes security dashboard telemetry service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")

	rootCmd.AddCommand(
		newServeCmd(&configPath),
		newRenderCmd(&configPath),
		newValidateCmd(&configPath),
	)
	return rootCmd
}

// core is the state shared by every command: one store and the projections over it.
type core struct {
	store   *store.Store
	builder *projection.Builder
	sampler *sampler.Sampler
}

func newCore(cfg *config.Config, logger *slog.Logger) (*core, error) {
	seed, err := loadSeed(cfg.Feed.Path)
	if err != nil {
		return nil, err
	}
	bounds := ingestBounds(cfg)
	st, err := store.New(seed,
		store.WithLogger(logger),
		store.WithBounds(bounds.CPU, bounds.Memory),
	)
	if err != nil {
		return nil, fmt.Errorf("seed snapshot: %w", err)
	}

	opts := []sampler.Option{
		sampler.WithInterval(cfg.Sampler.Interval),
		sampler.WithLogger(logger),
	}
	if cfg.Sampler.Seed != 0 {
		opts = append(opts, sampler.WithRandSource(sampler.NewSeededSource(cfg.Sampler.Seed)))
	}

	rules, err := advice.NewRuleEngine(cfg.Advice.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("load advice rules: %w", err)
	}
	var builderOpts []projection.BuilderOption
	if rules != nil {
		builderOpts = append(builderOpts, projection.WithAdvisor(rules))
	}

	return &core{
		store:   st,
		builder: projection.NewBuilder(st, cfg.Palette, builderOpts...),
		sampler: sampler.New(st, cfg.SamplerPolicy(), opts...),
	}, nil
}

// ingestBounds keeps fed snapshots inside the same ranges the sampler walks.
func ingestBounds(cfg *config.Config) store.Bounds {
	policy := cfg.SamplerPolicy()
	return store.Bounds{CPU: policy.CPU.Range, Memory: policy.Memory.Range}
}

func loadSeed(path string) (models.Snapshot, error) {
	if path == "" {
		return feed.Default(), nil
	}
	return feed.Load(path)
}
