package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/miradorstack/mirador-clusterview/internal/api"
	"github.com/miradorstack/mirador-clusterview/internal/cache"
	"github.com/miradorstack/mirador-clusterview/internal/config"
	"github.com/miradorstack/mirador-clusterview/internal/feed"
	"github.com/miradorstack/mirador-clusterview/internal/metrics"
	"github.com/miradorstack/mirador-clusterview/internal/publish"
	"github.com/miradorstack/mirador-clusterview/internal/services"
	"github.com/miradorstack/mirador-clusterview/internal/utils"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the sampler and serve dashboards over gRPC, HTTP and websocket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, stop, cfg, logger)
		},
	}
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting clusterview", slog.String("address", cfg.Server.Address), slog.String("http", cfg.Server.HTTPAddress))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return err
	}

	c, err := newCore(cfg, logger)
	if err != nil {
		return err
	}

	var cacheProvider cache.Provider = cache.NoopProvider{}
	if cfg.Cache.Enabled && cfg.Cache.Addr != "" {
		provider, err := cache.NewRedisProvider(cache.RedisConfig{
			Addr:         cfg.Cache.Addr,
			Username:     cfg.Cache.Username,
			Password:     cfg.Cache.Password,
			DB:           cfg.Cache.DB,
			DialTimeout:  cfg.Cache.DialTimeout,
			ReadTimeout:  cfg.Cache.ReadTimeout,
			WriteTimeout: cfg.Cache.WriteTimeout,
			MaxRetries:   cfg.Cache.MaxRetries,
			TLS:          cfg.Cache.TLS,
		})
		if err != nil {
			logger.Warn("redis cache unavailable", slog.Any("error", err))
		} else {
			cacheProvider = provider
		}
	}
	defer cacheProvider.Close()

	publisher := publish.NewPublisher(logger, cacheProvider, c.builder, cfg.Cache.Key, cfg.Cache.TTL)
	hub := api.NewHub(logger, c.builder)
	c.sampler.Subscribe(publisher.OnTick)
	c.sampler.Subscribe(hub.OnTick)

	grpcServer, err := api.NewServer(cfg.Server, logger, services.NewDashboardService(logger, c.builder))
	if err != nil {
		return err
	}

	router := api.NewRouter(logger, c.builder, c.store,
		api.WithStream(hub),
		api.WithReadiness(c.sampler.Running),
		api.WithIngestHook(hub.Broadcast),
		api.WithIngestHook(func() { publisher.OnTick(c.store.CurrentMetrics()) }),
	)

	httpServers := []*http.Server{}
	if cfg.Server.HTTPAddress != "" {
		httpServers = append(httpServers, &http.Server{
			Addr:              cfg.Server.HTTPAddress,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		})
	}
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		httpServers = append(httpServers, &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		})
	}
	for _, srv := range httpServers {
		go func(srv *http.Server) {
			logger.Info("http server listening", slog.String("address", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server exited", slog.String("address", srv.Addr), slog.Any("error", err))
				stop()
			}
		}(srv)
	}

	go func() {
		if serveErr := grpcServer.Start(); serveErr != nil {
			logger.Error("gRPC server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	var poller *feed.Poller
	if cfg.Feed.URL != "" {
		client := feed.NewClient(cfg.Feed.URL, cfg.Feed.SnapshotPath, cfg.Feed.Timeout)
		poller = feed.NewPoller(logger, client, c.store, cfg.Feed.PollInterval)
		poller.OnIngest(hub.Broadcast)
		poller.OnIngest(func() { publisher.OnTick(c.store.CurrentMetrics()) })
		logger.Info("polling telemetry feed", slog.String("url", client.Endpoint()), slog.Duration("interval", cfg.Feed.PollInterval))
		poller.Start(ctx)
	}

	c.sampler.Start(ctx)
	grpcServer.SetServing(true)
	if err := publisher.Publish(ctx); err != nil {
		logger.Warn("initial dashboard publish failed", slog.Any("error", err))
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")

	if poller != nil {
		poller.Stop()
	}
	c.sampler.Stop()
	grpcServer.SetServing(false)
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	if err := publisher.Close(shutdownCtx); err != nil {
		logger.Warn("dashboard retract failed", slog.Any("error", err))
	}
	grpcServer.Shutdown(shutdownCtx)
	for _, srv := range httpServers {
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("http server shutdown", slog.String("address", srv.Addr), slog.Any("error", err))
		}
	}

	logger.Info("clusterview stopped")
	return nil
}
