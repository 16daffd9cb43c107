package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AnTengye/projectbrief/config"
	"github.com/AnTengye/projectbrief/handler"
	"github.com/AnTengye/projectbrief/middleware"
	"github.com/AnTengye/projectbrief/service"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type nopArtifacts struct{}

func (nopArtifacts) Upload(_ context.Context, path string, _ []byte, _ string) (service.Reference, error) {
	return service.Reference{Bucket: "pdfs", Path: path, URL: "http://minio.test/pdfs/" + path}, nil
}

func (nopArtifacts) PublicURL(path string) string { return "http://minio.test/pdfs/" + path }

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("dial tcp: connection refused") }

func newTestServer(t *testing.T, checks map[string]handler.Pinger) *gin.Engine {
	t.Helper()
	cfg := &config.Config{
		Admin:     config.AdminConfig{Secret: "s3cret", QueryKey: "admin"},
		Session:   config.SessionConfig{Secret: "session-secret", TTLHours: 1},
		RateLimit: config.RateLimitConfig{Requests: 1, Window: time.Minute},
	}
	records := service.NewMemoryRecordStore(&cfg.Store)
	a := &app{
		cfg:      cfg,
		pipeline: service.NewPipeline(service.NewPDFRenderer(), nopArtifacts{}, records, &service.StubEnricher{}),
		drafts:   service.NewDraftCache(8, time.Hour),
		gate:     service.NewAdminGate(cfg.Admin.Secret, records),
		checks:   checks,
	}
	return a.router()
}

func TestRouterHealth(t *testing.T) {
	tests := []struct {
		name           string
		checks         map[string]handler.Pinger
		expectedStatus int
	}{
		{"healthy", nil, http.StatusOK},
		{"store down", map[string]handler.Pinger{"store": downPinger{}}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestServer(t, tt.checks)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if w.Header().Get(middleware.RequestIDHeader) == "" {
				t.Error("Expected X-Request-ID header")
			}
		})
	}
}

func TestRouterMetrics(t *testing.T) {
	router := newTestServer(t, nil)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/drafts", nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "projectbrief_http_requests_total") {
		t.Error("Expected request counter in metrics output")
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestServer(t, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/submissions", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), middleware.SessionHeader) {
		t.Errorf("Expected session header to be allowed, got %q", w.Header().Get("Access-Control-Allow-Headers"))
	}
}

func TestRouterNoCacheOnAPI(t *testing.T) {
	router := newTestServer(t, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/drafts", nil))

	if got := w.Header().Get("Cache-Control"); got != "no-cache, no-store, must-revalidate" {
		t.Errorf("Expected no-cache header, got %q", got)
	}
}

func TestRouterRateLimitsLLMRoutes(t *testing.T) {
	router := newTestServer(t, nil)
	token, _, err := middleware.IssueSessionToken("s1", &config.SessionConfig{Secret: "session-secret", TTLHours: 1})
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	post := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"project_name":"Acme"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.SessionHeader, token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	if code := post("/api/drafts/summary"); code != http.StatusOK {
		t.Fatalf("Expected first call 200, got %d", code)
	}
	if code := post("/api/drafts/use-cases"); code != http.StatusTooManyRequests {
		t.Errorf("Expected second LLM call 429, got %d", code)
	}
	// submissions do not call the LLM and stay unlimited
	if code := post("/api/submissions"); code == http.StatusTooManyRequests {
		t.Error("Expected submissions outside the LLM limiter")
	}
}
