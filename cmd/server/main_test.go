package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/iho/partyledger/internal/adapter/http/middleware"
	"github.com/iho/partyledger/internal/infrastructure/config"
)

func testConfig(driver string) *config.Config {
	return &config.Config{
		StoreDriver:    driver,
		StatsCacheTTL:  30 * time.Second,
		IdempotencyTTL: time.Hour,
		EventsChannel:  "partyledger.events",
	}
}

func buildTestApp(t *testing.T, cfg *config.Config) *app {
	t.Helper()

	reg := prometheus.NewRegistry()
	a, err := build(context.Background(), cfg, zerolog.Nop(), reg, reg)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	t.Cleanup(a.close)
	return a
}

func call(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBuildWithMemoryStore(t *testing.T) {
	a := buildTestApp(t, testConfig(config.DriverMemory))

	if rec := call(t, a.router, http.MethodGet, "/ready", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d: %s", rec.Code, rec.Body.String())
	}

	rec := call(t, a.router, http.MethodPost, "/api/v1/parties/", `{"name":"Acme","type":"customer"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected party to be created, got %d: %s", rec.Code, rec.Body.String())
	}

	if a.limiter != nil {
		t.Fatalf("expected no rate limiter when RATE_LIMIT_RPS is 0")
	}
}

func TestBuildWithSQLiteStore(t *testing.T) {
	cfg := testConfig(config.DriverSQLite)
	cfg.SQLitePath = filepath.Join(t.TempDir(), "ledger.db")
	a := buildTestApp(t, cfg)

	if rec := call(t, a.router, http.MethodGet, "/ready", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d: %s", rec.Code, rec.Body.String())
	}

	rec := call(t, a.router, http.MethodPost, "/api/v1/parties/", `{"name":"Acme","type":"supplier"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected party to be created, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = call(t, a.router, http.MethodGet, "/api/v1/parties/?type=supplier", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"total":1`) {
		t.Fatalf("expected one supplier, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBuildWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(config.DriverMemory)
	cfg.RedisURL = "redis://" + mr.Addr()
	a := buildTestApp(t, cfg)

	if rec := call(t, a.router, http.MethodGet, "/ready", "", nil); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"redis":"ok"`) {
		t.Fatalf("expected redis to be reported healthy, got %d: %s", rec.Code, rec.Body.String())
	}

	headers := map[string]string{middleware.IdempotencyKeyHeader: "create-1"}
	first := call(t, a.router, http.MethodPost, "/api/v1/parties/", `{"name":"Acme","type":"customer"}`, headers)
	second := call(t, a.router, http.MethodPost, "/api/v1/parties/", `{"name":"Acme","type":"customer"}`, headers)

	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("expected both calls to report 201, got %d and %d", first.Code, second.Code)
	}
	if second.Header().Get(middleware.IdempotencyReplayHeader) != "true" {
		t.Fatalf("expected second call to be a replay")
	}

	rec := call(t, a.router, http.MethodGet, "/api/v1/parties/stats", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"total_count":1`) {
		t.Fatalf("expected a single party in stats, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBuildWithAuthAndRateLimit(t *testing.T) {
	cfg := testConfig(config.DriverMemory)
	cfg.AuthEnabled = true
	cfg.JWTSecret = "secret"
	cfg.JWTExpiration = time.Hour
	cfg.RateLimitRPS = 100
	cfg.RateLimitBurst = 10
	a := buildTestApp(t, cfg)

	if a.limiter == nil {
		t.Fatalf("expected rate limiter to be configured")
	}
	if rec := call(t, a.router, http.MethodGet, "/api/v1/parties/", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestBuildRejectsUnknownDriver(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := build(context.Background(), testConfig("oracle"), zerolog.Nop(), reg, reg); err == nil {
		t.Fatalf("expected unknown driver to fail")
	}
}
