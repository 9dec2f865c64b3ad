// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-roster-reconciliation/internal/bootstrap"
	"github.com/AccelByte/extend-roster-reconciliation/internal/config"
	"github.com/AccelByte/extend-roster-reconciliation/internal/server"
)

// App holds all application dependencies and manages the application lifecycle.
type App struct {
	cfg               *config.Config
	httpServer        *server.HTTPServer
	metricsServer     *server.MetricsServer
	storage           *bootstrap.Storage
	shutdownTelemetry func(context.Context) error
}

// New creates and initializes a new application instance.
//
// ============================================================
// Application initialization order
// ============================================================
// Components are initialized in dependency order:
// 1. Storage (Redis or SQLite, selected by STORE)
// 2. Reconciliation config (YAML, defaults when absent)
// 3. Pipeline manager (segment → classify → resolve → commit)
// 4. Servers (HTTP API, metrics)
// 5. Telemetry (OpenTelemetry tracing, optional)
// ============================================================
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg}

	// ============================================================
	// Step 1: Initialize storage
	// ============================================================
	storage, err := bootstrap.InitStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init %s storage: %w", cfg.Store, err)
	}
	app.storage = storage

	// ============================================================
	// Step 2: Load reconciliation configuration
	// ============================================================
	reconCfg, err := bootstrap.LoadReconciliationConfig(cfg.ConfigPath)
	if err != nil {
		app.closeStorage()
		return nil, fmt.Errorf("failed to load reconciliation config from %s: %w", cfg.ConfigPath, err)
	}

	// ============================================================
	// Step 3: Bootstrap the pipeline
	// ============================================================
	pipelineManager, err := bootstrap.InitPipeline(cfg, reconCfg, storage)
	if err != nil {
		app.closeStorage()
		return nil, fmt.Errorf("failed to init pipeline: %w", err)
	}

	// ============================================================
	// Step 4: Setup servers
	// ============================================================
	app.httpServer = server.NewHTTPServer(cfg.HTTPPort, pipelineManager, storage.Health)
	if err := app.httpServer.Setup(); err != nil {
		app.closeStorage()
		return nil, fmt.Errorf("failed to setup http server: %w", err)
	}

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics")
	if err := app.metricsServer.Setup(); err != nil {
		app.closeStorage()
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	// ============================================================
	// Step 5: Setup telemetry
	// ============================================================
	if cfg.OtelEnabled {
		shutdownTelemetry, err := server.SetupTelemetry(ctx, cfg.ServiceName, cfg.Environment, 0, cfg.ZipkinEndpoint)
		if err != nil {
			app.closeStorage()
			return nil, fmt.Errorf("failed to setup telemetry: %w", err)
		}
		app.shutdownTelemetry = shutdownTelemetry
	} else {
		logrus.Info("telemetry disabled")
	}

	logrus.Info("application initialized successfully")

	return app, nil
}

func (a *App) closeStorage() {
	if a.storage == nil || a.storage.Close == nil {
		return
	}
	if err := a.storage.Close(); err != nil {
		logrus.Errorf("%s storage close error: %v", a.cfg.Store, err)
	}
	a.storage = nil
}
