package main

import (
	"context"
	"fmt"

	"github.com/easeaico/scenecraft/internal/artifact"
	"github.com/easeaico/scenecraft/internal/config"
	"github.com/easeaico/scenecraft/internal/llm"
	"github.com/easeaico/scenecraft/internal/logging"
	"github.com/easeaico/scenecraft/internal/memory"
	"github.com/easeaico/scenecraft/internal/pipeline"
	"github.com/easeaico/scenecraft/internal/stub"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// app holds the components shared by every command.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	store    memory.Store
	registry *config.Registry
	metrics  *prometheus.Registry
	pipeline *pipeline.Pipeline
}

// newApp loads configuration and wires the store, completion engine and pipeline.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	registry, err := config.LoadRegistry(cfg.AppsFile)
	if err != nil {
		store.Close()
		_ = logger.Sync()
		return nil, err
	}

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engine := llm.NewEngine(llm.EngineConfig{APIKey: cfg.APIKey, Model: cfg.CompletionModel}, logger)
	stubCfg := stub.HTTPConfig{Scheme: cfg.StubScheme}

	p := pipeline.New(pipeline.Options{
		Retriever:   store,
		Recorder:    store,
		Expander:    llm.NewExpander(engine),
		Apps:        registry,
		DefaultApps: cfg.DefaultApps().AppIDs,
		NewStub: func(appIDs []string) stub.Client {
			return stub.NewHTTPClient(appIDs, stubCfg, logger)
		},
		Writer:         artifact.NewWriter(cfg.OutputDir),
		TextToImageApp: cfg.TextToImageApp,
		ImageTo3DApp:   cfg.ImageTo3DApp,
		Timeouts:       cfg.Timeouts,
		Metrics:        pipeline.NewMetrics(metrics),
		Logger:         logger,
	})

	logger.Info("scenecraft initialized",
		zap.String("db_type", cfg.DBType),
		zap.String("output_dir", cfg.OutputDir),
		zap.Strings("configured_users", registry.Users()),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		registry: registry,
		metrics:  metrics,
		pipeline: p,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func openStore(ctx context.Context, cfg config.Config) (memory.Store, error) {
	var (
		store memory.Store
		err   error
	)
	switch cfg.DBType {
	case "postgres":
		store, err = memory.NewPostgresStore(ctx, cfg.DatabaseURL)
	default:
		store, err = memory.NewSQLiteStore(ctx, cfg.DatabaseURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := store.InitSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
