package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/miradorstack/mirador-clusterview/internal/models"
	"github.com/miradorstack/mirador-clusterview/internal/projection"
	"github.com/miradorstack/mirador-clusterview/internal/sampler"
)

// Config captures the settings required to boot the dashboard service.
type Config struct {
	Server  ServerConfig       `yaml:"server"`
	Logging LoggingConfig      `yaml:"logging"`
	Sampler SamplerConfig      `yaml:"sampler"`
	Feed    FeedConfig         `yaml:"feed"`
	Palette projection.Palette `yaml:"palette"`
	Advice  AdviceConfig       `yaml:"advice"`
	Cache   CacheConfig        `yaml:"cache"`
}

// ServerConfig controls the gRPC, HTTP and metrics listeners.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	HTTPAddress     string        `yaml:"httpAddress"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// SamplerConfig controls the metric random walk.
type SamplerConfig struct {
	Interval time.Duration `yaml:"interval"`
	Seed     uint64        `yaml:"seed"`
	CPU      WalkConfig    `yaml:"cpu"`
	Memory   WalkConfig    `yaml:"memory"`
}

// WalkConfig bounds one sampled metric.
type WalkConfig struct {
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	Step float64 `yaml:"step"`
}

// FeedConfig points at the telemetry feed. Path seeds the store (empty uses the built-in
// seed); URL, when set, is polled for replacement snapshots.
type FeedConfig struct {
	Path         string        `yaml:"path"`
	URL          string        `yaml:"url"`
	SnapshotPath string        `yaml:"snapshotPath"`
	PollInterval time.Duration `yaml:"pollInterval"`
	Timeout      time.Duration `yaml:"timeout"`
}

// AdviceConfig points at the alert recommendation rule pack.
type AdviceConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig controls Redis publication of the latest dashboard projection.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
	Key          string        `yaml:"key"`
	TTL          time.Duration `yaml:"ttl"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CLUSTERVIEW_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects walk bounds the sampler cannot honour.
func (c *Config) Validate() error {
	for name, w := range map[string]WalkConfig{"cpu": c.Sampler.CPU, "memory": c.Sampler.Memory} {
		if w.Min > w.Max {
			return fmt.Errorf("sampler.%s: min %.2f exceeds max %.2f", name, w.Min, w.Max)
		}
		if w.Step < 0 {
			return fmt.Errorf("sampler.%s: step must not be negative", name)
		}
	}
	return nil
}

// SamplerPolicy converts the walk settings for the sampler.
func (c *Config) SamplerPolicy() sampler.Policy {
	return sampler.Policy{
		CPU:    c.Sampler.CPU.walk(),
		Memory: c.Sampler.Memory.walk(),
	}
}

func (w WalkConfig) walk() sampler.Walk {
	return sampler.Walk{Range: models.Range{Min: w.Min, Max: w.Max}, Step: w.Step}
}

func defaultConfig() Config {
	policy := sampler.DefaultPolicy()
	return Config{
		Server: ServerConfig{
			Address:         ":50061",
			HTTPAddress:     ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Sampler: SamplerConfig{
			Interval: sampler.DefaultInterval,
			CPU:      WalkConfig{Min: policy.CPU.Range.Min, Max: policy.CPU.Range.Max, Step: policy.CPU.Step},
			Memory:   WalkConfig{Min: policy.Memory.Range.Min, Max: policy.Memory.Range.Max, Step: policy.Memory.Step},
		},
		Feed: FeedConfig{
			SnapshotPath: "/api/v1/snapshot",
			PollInterval: 30 * time.Second,
			Timeout:      5 * time.Second,
		},
		Palette: projection.DefaultPalette(),
		Cache: CacheConfig{
			Enabled:      false,
			Key:          "clusterview:dashboard",
			TTL:          time.Minute,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CLUSTERVIEW_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("CLUSTERVIEW_HTTP_ADDRESS"); v != "" {
		cfg.Server.HTTPAddress = v
	}
	if v := os.Getenv("CLUSTERVIEW_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("CLUSTERVIEW_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CLUSTERVIEW_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("CLUSTERVIEW_SAMPLER_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sampler.Interval = d
		}
	}
	if v := os.Getenv("CLUSTERVIEW_SAMPLER_SEED"); v != "" {
		if seed, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Sampler.Seed = seed
		}
	}
	if v := os.Getenv("CLUSTERVIEW_FEED_PATH"); v != "" {
		cfg.Feed.Path = v
	}
	if v := os.Getenv("CLUSTERVIEW_ADVICE_PATH"); v != "" {
		cfg.Advice.Path = v
	}
	if v := os.Getenv("CLUSTERVIEW_FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}
	if v := os.Getenv("CLUSTERVIEW_FEED_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Feed.PollInterval = d
		}
	}
	if v := os.Getenv("CLUSTERVIEW_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("CLUSTERVIEW_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("CLUSTERVIEW_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("CLUSTERVIEW_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("CLUSTERVIEW_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("CLUSTERVIEW_CACHE_TLS"); strings.EqualFold(v, "true") || strings.EqualFold(v, "1") {
		cfg.Cache.TLS = true
	}
	if v := os.Getenv("CLUSTERVIEW_CACHE_KEY"); v != "" {
		cfg.Cache.Key = v
	}
	if v := os.Getenv("CLUSTERVIEW_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
}
