package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okCheck(context.Context) error { return nil }

func TestHealthHandler(t *testing.T) {
	handler := NewHandler("bom-service", "v1.0.0", 0)
	handler.RegisterChecker("storage", NewFuncChecker("storage", okCheck))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var response Response
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != StatusHealthy {
		t.Errorf("expected status healthy, got %s", response.Status)
	}
	if response.Version != "v1.0.0" || response.Service != "bom-service" {
		t.Errorf("unexpected service/version: %s/%s", response.Service, response.Version)
	}
	if len(response.Checks) != 1 {
		t.Errorf("expected 1 check, got %d", len(response.Checks))
	}
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	handler := NewHandler("bom-service", "v1.0.0", 0)
	handler.RegisterChecker("storage", NewFuncChecker("storage", func(context.Context) error {
		return errors.New("connection refused")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}

	var response Response
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Checks["storage"].Message != "connection refused" {
		t.Errorf("expected failure message, got %q", response.Checks["storage"].Message)
	}
}

func TestHealthHandler_OptionalFailureDegrades(t *testing.T) {
	handler := NewHandler("bom-service", "dev", 0)
	handler.RegisterChecker("storage", NewFuncChecker("storage", okCheck))
	handler.RegisterChecker("kafka", NewOptionalChecker("kafka", func(context.Context) error {
		return errors.New("no brokers")
	}))

	status, checks := handler.Run(context.Background())
	if status != StatusDegraded {
		t.Errorf("expected degraded, got %s", status)
	}
	if checks["kafka"].Status != StatusDegraded {
		t.Errorf("expected kafka degraded, got %s", checks["kafka"].Status)
	}

	w := httptest.NewRecorder()
	handler.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("degraded service should stay ready, got %d", w.Code)
	}
}

func TestHealthHandler_CheckTimeout(t *testing.T) {
	handler := NewHandler("bom-service", "dev", 20*time.Millisecond)
	handler.RegisterChecker("slow", NewFuncChecker("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	start := time.Now()
	status, checks := handler.Run(context.Background())
	if time.Since(start) > time.Second {
		t.Fatal("check timeout was not applied")
	}
	if status != StatusUnhealthy {
		t.Errorf("expected unhealthy, got %s", status)
	}
	if !strings.Contains(checks["slow"].Message, "deadline") {
		t.Errorf("expected deadline message, got %q", checks["slow"].Message)
	}
}

func TestLivenessHandler(t *testing.T) {
	w := httptest.NewRecorder()
	LivenessHandler(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "ok" {
		t.Errorf("expected body 'ok', got %s", w.Body.String())
	}
}

func TestReadinessHandler(t *testing.T) {
	handler := NewHandler("bom-service", "dev", 0)
	handler.RegisterChecker("storage", NewFuncChecker("storage", okCheck))

	w := httptest.NewRecorder()
	handler.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "ready" {
		t.Errorf("expected body 'ready', got %s", w.Body.String())
	}
}

func TestReadinessHandler_NotReady(t *testing.T) {
	handler := NewHandler("bom-service", "dev", 0)
	handler.RegisterChecker("storage", NewFuncChecker("storage", func(context.Context) error {
		return errors.New("down")
	}))

	w := httptest.NewRecorder()
	handler.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
	if w.Body.String() != "not ready storage" {
		t.Errorf("expected failed component in body, got %q", w.Body.String())
	}
}

func TestFuncChecker(t *testing.T) {
	check := NewFuncChecker("test", okCheck).Check(context.Background())

	if check.Name != "test" {
		t.Errorf("expected name 'test', got %s", check.Name)
	}
	if check.Status != StatusHealthy {
		t.Errorf("expected status healthy, got %s", check.Status)
	}
	if check.Message != "" {
		t.Errorf("expected empty message, got %s", check.Message)
	}
}
