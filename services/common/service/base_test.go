package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestHealthHandler(t *testing.T) {
	healthy := true
	b := NewBase(BaseConfig{
		ID:      "svc",
		Name:    "Test Service",
		Version: "1.0.0",
		Checks: map[string]HealthCheck{
			"backend": func(ctx context.Context) error {
				if healthy {
					return nil
				}
				return errors.New("dial tcp 10.1.2.3:443: connect: connection refused")
			},
		},
	})
	b.RegisterStandardRoutes()

	rec := httptest.NewRecorder()
	b.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" || resp.Service != "Test Service" {
		t.Errorf("resp = %+v", resp)
	}

	healthy = false
	rec = httptest.NewRecorder()
	b.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	checks := b.HealthDetails()["checks"].(map[string]string)
	if checks["backend"] != "unreachable" {
		t.Errorf("checks[backend] = %q, want unreachable", checks["backend"])
	}
	if strings.Contains(rec.Body.String(), "10.1.2.3") {
		t.Errorf("health body leaks dependency error: %s", rec.Body.String())
	}
}

func TestInfoHandlerStatistics(t *testing.T) {
	b := NewBase(BaseConfig{ID: "svc", Name: "svc", Version: "1"})
	b.WithStats(func() map[string]any { return map[string]any{"streams": 2} })
	b.RegisterStandardRoutes()

	rec := httptest.NewRecorder()
	b.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/info", nil))
	var resp InfoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Statistics["streams"] != float64(2) {
		t.Errorf("statistics = %v", resp.Statistics)
	}
}

func TestTickerWorkerStopsOnStop(t *testing.T) {
	b := NewBase(BaseConfig{ID: "svc"})
	var runs atomic.Int32
	b.AddTickerWorker(5*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	})
	if b.WorkerCount() != 1 {
		t.Fatalf("WorkerCount() = %d, want 1", b.WorkerCount())
	}

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if runs.Load() == 0 {
		t.Fatal("worker never ran")
	}

	if err := b.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := b.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if err := b.Start(context.Background()); err == nil {
		t.Error("Start after Stop error = nil, want error")
	}
}
