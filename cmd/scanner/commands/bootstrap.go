package commands

import (
	"context"
	"fmt"

	"github.com/wonny/insight/internal/api/feed"
	"github.com/wonny/insight/internal/cache"
	"github.com/wonny/insight/internal/contracts"
	"github.com/wonny/insight/internal/data"
	"github.com/wonny/insight/internal/detectorconfig"
	"github.com/wonny/insight/internal/metrics"
	"github.com/wonny/insight/internal/s2_signals"
	"github.com/wonny/insight/internal/scheduler/jobs"
	"github.com/wonny/insight/pkg/config"
	"github.com/wonny/insight/pkg/logger"
	"github.com/wonny/insight/pkg/redis"
)

// app holds the wired dependencies shared by every command
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	detectors *detectorconfig.Config
	store     contracts.Store
	redis     *redis.Client
	metrics   *metrics.Recorder
	hub       *feed.Hub
	registry  *s2_signals.Registry
	scanner   *s2_signals.Scanner
	batch     *s2_signals.BatchScanner
	daily     *jobs.DailyScanJob
}

// loadSettings reads env config, builds the logger and loads detector settings
func loadSettings() (*config.Config, *logger.Logger, *detectorconfig.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if detectorConfigPath != "" {
		cfg.Scan.DetectorConfigPath = detectorConfigPath
	}

	log := logger.New(cfg)

	det, err := detectorconfig.Load(cfg.Scan.DetectorConfigPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load detector config: %w", err)
	}
	return cfg, log, det, nil
}

// bootstrap wires the store, cache, metrics and scanner
func bootstrap(ctx context.Context) (*app, error) {
	cfg, log, det, err := loadSettings()
	if err != nil {
		return nil, err
	}

	hash, err := detectorconfig.Hash(det)
	if err != nil {
		return nil, fmt.Errorf("hash detector config: %w", err)
	}
	log.WithFields(map[string]interface{}{
		"path": cfg.Scan.DetectorConfigPath,
		"hash": hash,
	}).Info("Detector config loaded")

	store, err := data.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	rc, err := redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		rc = redis.NewFromRedis(nil)
	}

	registry, err := s2_signals.NewDefaultRegistry(det)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("build detector registry: %w", err)
	}

	rec := metrics.New()
	hub := feed.NewHub(log)
	catalog := cache.NewCatalogCache(store.Insights(), rc, cfg.Redis.CatalogTTL, log)

	scanner := s2_signals.NewScanner(
		registry,
		store.Candles(),
		store.Insights(),
		store.Insights(),
		catalog,
		det.Weights,
		log,
		s2_signals.WithWindowBars(cfg.Scan.WindowBars),
		s2_signals.WithMetrics(rec),
		s2_signals.WithPublisher(hub),
	)
	batch := s2_signals.NewBatchScanner(scanner, cfg.Scan.Workers, cfg.Scan.FetchRPS, log)
	daily := jobs.NewDailyScanJob(store.Symbols(), batch, cfg.Scan.Schedule, rec, log)

	return &app{
		cfg:       cfg,
		log:       log,
		detectors: det,
		store:     store,
		redis:     rc,
		metrics:   rec,
		hub:       hub,
		registry:  registry,
		scanner:   scanner,
		batch:     batch,
		daily:     daily,
	}, nil
}

// Close releases every connection
func (a *app) Close() {
	a.hub.Close()
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
	if err := a.store.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close store")
	}
}
