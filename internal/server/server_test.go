// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/pipeline"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/service/mock"
)

func TestMetricsServer_ExposesReconciliationMetrics(t *testing.T) {
	m := NewMetricsServer(0, "/metrics")
	if err := m.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	ts := httptest.NewServer(m.server.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("expected go runtime metrics in scrape output")
	}
}

func TestMetricsServer_SetupTwice(t *testing.T) {
	// Each server owns its registry, so a second setup must not collide.
	for i := 0; i < 2; i++ {
		if err := NewMetricsServer(0, "/metrics").Setup(); err != nil {
			t.Fatalf("Setup() #%d error = %v", i+1, err)
		}
	}
}

func TestHTTPServer_Setup(t *testing.T) {
	if err := NewHTTPServer(0, nil, nil).Setup(); err == nil {
		t.Fatal("expected error without a pipeline manager")
	}

	store := mock.NewStore()
	manager, err := pipeline.NewManager(nil, store, store, nil)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	s := NewHTTPServer(0, manager, store)
	if err := s.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestSetupTelemetry(t *testing.T) {
	shutdown, err := SetupTelemetry(context.Background(), "test", "dev", 0, "")
	if err != nil {
		t.Fatalf("SetupTelemetry() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown error = %v", err)
	}
}
