// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/handler"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/pipeline"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/service"
)

// HTTPServer manages the reconciliation API server lifecycle.
type HTTPServer struct {
	server  *http.Server
	port    int
	manager *pipeline.Manager
	health  service.HealthChecker
}

// NewHTTPServer creates a new HTTP server instance.
func NewHTTPServer(port int, manager *pipeline.Manager, health service.HealthChecker) *HTTPServer {
	return &HTTPServer{
		port:    port,
		manager: manager,
		health:  health,
	}
}

// Setup builds the router and wraps it with OpenTelemetry instrumentation. Each request
// becomes a server span named after the service.
func (s *HTTPServer) Setup() error {
	if s.manager == nil {
		return errors.New("pipeline manager is required")
	}

	h := handler.NewHandler(s.manager, s.health)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           otelhttp.NewHandler(h.Router(), "roster-reconciliation"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return nil
}

// Handler returns the configured root handler. Setup must have been called.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving on the configured port.
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		logrus.Infof("http server listening on port %d", s.port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("http server failed: %v", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down http server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	logrus.Info("http server stopped")
	return nil
}
