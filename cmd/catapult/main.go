// cmd/catapult/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/FairForge/catapult/internal/api"
	"github.com/FairForge/catapult/internal/archive"
	"github.com/FairForge/catapult/internal/config"
	"github.com/FairForge/catapult/internal/feed"
	"github.com/FairForge/catapult/internal/initiator"
	"github.com/FairForge/catapult/internal/journal"
	"github.com/FairForge/catapult/internal/metrics"
	"github.com/FairForge/catapult/internal/monitor"
	"github.com/FairForge/catapult/internal/pipelinecache"
)

func main() {
	cfg, err := config.Load(os.Getenv("CATAPULT_CONFIG"))
	if err != nil {
		// No logger yet; this is the one place stderr has to do.
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	logger := newLogger(cfg.Server.LogLevel)
	defer func() { _ = logger.Sync() }()

	collector := metrics.NewCollector()

	store, err := newJournalStore(cfg)
	if err != nil {
		logger.Fatal("open journal store", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	var archiver api.Archiver
	if cfg.Archive.Enabled {
		a, err := archive.New(context.Background(), archive.Config{
			Bucket:      cfg.Archive.Bucket,
			Prefix:      cfg.Archive.Prefix,
			Region:      cfg.Archive.Region,
			Endpoint:    cfg.Archive.Endpoint,
			AccessKey:   cfg.Archive.AccessKey,
			SecretKey:   cfg.Archive.SecretKey,
			Compression: cfg.Archive.Compression,
		}, collector, logger)
		if err != nil {
			logger.Fatal("create event archive", zap.Error(err))
		}
		archiver = a
		logger.Info("event archive enabled", zap.String("bucket", cfg.Archive.Bucket))
	}

	cache := pipelinecache.New(newPipelineSource(cfg, logger),
		cfg.Definitions.RefreshInterval, collector, logger)
	if err := cache.Start(context.Background()); err != nil {
		logger.Fatal("start pipeline cache", zap.Error(err))
	}
	defer cache.Stop()

	launcher := newLauncher(cfg, logger)
	starter := journal.NewRecordingInitiator(launcher, store, collector, logger)

	dispatcher := monitor.NewDispatcher(collector, logger)
	if err := dispatcher.Register(monitor.NewDockerMonitor(cache, starter, collector, logger)); err != nil {
		logger.Fatal("register docker monitor", zap.Error(err))
	}

	eventFeed := feed.New(feed.Config{
		QueueSize: cfg.Feed.QueueSize,
		Workers:   cfg.Feed.Workers,
	}, dispatcher, collector, logger)

	ingest := api.NewServer(cfg, eventFeed, archiver, collector, logger)
	admin := api.NewAdminServer(cfg.Admin.Port, store, cache, eventFeed, logger)

	errCh := make(chan error, 2)
	go func() { errCh <- ingest.Start() }()
	go func() { errCh <- admin.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop accepting first, then drain what was already accepted.
	if err := ingest.Shutdown(shutdownCtx); err != nil {
		logger.Error("ingest shutdown", zap.Error(err))
	}
	eventFeed.Close()
	if err := admin.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin shutdown", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

func newJournalStore(cfg *config.Config) (journal.Store, error) {
	switch cfg.Journal.Backend {
	case "postgres":
		store, err := journal.NewPostgresStore(cfg.Journal.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(context.Background()); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	default:
		return journal.NewMemoryStore(cfg.Journal.MemorySize), nil
	}
}

func newPipelineSource(cfg *config.Config, logger *zap.Logger) pipelinecache.Source {
	if cfg.Definitions.URL == "" && cfg.Definitions.PipelineFile == "" {
		logger.Fatal("no pipeline source configured: set definitions.url or definitions.pipeline_file")
	}
	if cfg.Definitions.URL != "" {
		var opts []pipelinecache.HTTPSourceOption
		if oauth := cfg.Definitions.OAuth; oauth.Enabled() {
			opts = append(opts, pipelinecache.WithClientCredentials(
				oauth.TokenURL, oauth.ClientID, oauth.ClientSecret, oauth.Scopes))
		}
		logger.Info("loading pipelines from definition service", zap.String("url", cfg.Definitions.URL))
		return pipelinecache.NewHTTPSource(cfg.Definitions.URL, opts...)
	}
	logger.Info("loading pipelines from file", zap.String("path", cfg.Definitions.PipelineFile))
	return pipelinecache.NewFileSource(cfg.Definitions.PipelineFile)
}

func newLauncher(cfg *config.Config, logger *zap.Logger) *initiator.Client {
	var opts []initiator.Option
	if oauth := cfg.Orchestrator.OAuth; oauth.Enabled() {
		opts = append(opts, initiator.WithClientCredentials(
			oauth.TokenURL, oauth.ClientID, oauth.ClientSecret, oauth.Scopes))
	}
	return initiator.New(initiator.Config{
		BaseURL:        cfg.Orchestrator.URL,
		RequestTimeout: cfg.Orchestrator.RequestTimeout,
		MaxRetries:     cfg.Orchestrator.MaxRetries,
		RetryInterval:  cfg.Orchestrator.RetryInterval,
	}, logger, opts...)
}
