package main

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/i474232898/hko-weather-proxy/internal/config"
	"github.com/i474232898/hko-weather-proxy/internal/logging"
	"github.com/i474232898/hko-weather-proxy/internal/metrics"
	"github.com/i474232898/hko-weather-proxy/internal/scheduler"
	"github.com/i474232898/hko-weather-proxy/internal/store"
	"github.com/i474232898/hko-weather-proxy/internal/weather"
	"github.com/i474232898/hko-weather-proxy/internal/weather/providers"
)

func newRootCmd() *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:           "hko-weather-proxy",
		Short:         "Caching proxy for the Hong Kong Observatory open weather API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load before reading the environment")

	serveCmd := newServeCmd(&envFiles)
	root.AddCommand(serveCmd, newFetchCmd(&envFiles))

	// Bare invocation serves.
	root.Args = cobra.NoArgs
	root.RunE = serveCmd.RunE
	return root
}

// components is the wired object graph shared by every subcommand.
type components struct {
	cfg       *config.AppConfig
	logger    *logrus.Logger
	metrics   *metrics.Collector
	store     *store.MemoryStore
	service   *weather.Service
	scheduler *scheduler.Scheduler
}

func loadComponents(envFiles []string) (*components, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return buildComponents(cfg, logger), nil
}

func buildComponents(cfg *config.AppConfig, logger *logrus.Logger) *components {
	// Shared HTTP client for outbound upstream calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	collector := metrics.New()
	memStore := store.NewMemoryStore()

	upstream := providers.NewHKOClient(httpClient, cfg.HKOBaseURL, cfg.Breaker(), logger)
	retrier := weather.NewRetrier(upstream, cfg.RetryAttempts, cfg.RetryDelay, logger, weather.WithObserver(collector))

	service := weather.NewService(memStore, retrier, weather.ServiceConfig{
		TTL:             cfg.CacheTTL,
		DefaultLanguage: cfg.DefaultLanguage,
	}, collector, logger)

	sched := scheduler.New(scheduler.Config{
		Enabled:   cfg.AutomationEnabled,
		Interval:  cfg.AutomationInterval,
		DataTypes: cfg.AutomationDataTypes,
		Language:  cfg.DefaultLanguage,
	}, service, collector, logger)

	return &components{
		cfg:       cfg,
		logger:    logger,
		metrics:   collector,
		store:     memStore,
		service:   service,
		scheduler: sched,
	}
}
