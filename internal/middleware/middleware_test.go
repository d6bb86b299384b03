package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watxaut/FontsReviewerApp/internal/logging"
	"github.com/watxaut/FontsReviewerApp/internal/metrics"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{"exact", []string{"https://fonts.app"}, "https://fonts.app", "https://fonts.app"},
		{"wildcard all", []string{"*"}, "https://x.dev", "https://x.dev"},
		{"subdomain", []string{"*.fonts.app"}, "https://admin.fonts.app", "https://admin.fonts.app"},
		{"suffix lookalike", []string{"*.fonts.app"}, "https://evilfonts.app", ""},
		{"not listed", []string{"https://fonts.app"}, "https://other.app", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCORSMiddleware(tt.allowed).Handler(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/v1/fountains", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	h := NewCORSMiddleware([]string{"*"}).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight reached handler")
	}))
	req := httptest.NewRequest(http.MethodOptions, "/v1/me", nil)
	req.Header.Set("Origin", "https://fonts.app")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestRateLimiter(t *testing.T) {
	logger := logging.New("test", "error", "json")
	rl := NewRateLimiter(1, 2, logger)
	h := rl.Handler(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/fountains", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	// A different client has its own bucket, even from another port.
	req := httptest.NewRequest(http.MethodGet, "/v1/fountains", nil)
	req.RemoteAddr = "10.0.0.2:1"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterReportsFractionalRate(t *testing.T) {
	rl := NewRateLimiter(0.5, 1, logging.New("test", "error", "json"))
	h := rl.Handler(okHandler())

	var rec *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/fountains", nil)
		req.RemoteAddr = "10.0.0.3:1"
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
	}
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body struct {
		Error struct {
			Details map[string]interface{} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0.5, body.Error.Details["limit"])
	assert.Equal(t, "1s", body.Error.Details["window"])
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(10, 10, logging.New("test", "error", "json"))
	base := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return base }
	rl.getLimiter("old")
	rl.now = func() time.Time { return base.Add(time.Hour) }
	rl.getLimiter("fresh")

	rl.Cleanup(time.Minute)

	_, oldKept := rl.limiters["old"]
	_, freshKept := rl.limiters["fresh"]
	assert.False(t, oldKept)
	assert.True(t, freshKept)
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	m := metrics.New("mw")
	r := mux.NewRouter()
	r.Use(MetricsMiddleware("reviewer", m))
	r.HandleFunc("/v1/fountains/{codi}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/fountains/abc-123", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	hrec := httptest.NewRecorder()
	m.Handler().ServeHTTP(hrec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	out := hrec.Body.String()
	assert.True(t, strings.Contains(out, `path="/v1/fountains/{codi}"`), out)
	assert.False(t, strings.Contains(out, "abc-123"))
}

func TestTracingMiddleware(t *testing.T) {
	logger := logging.New("test", "error", "json")
	var seen string
	h := NewTracingMiddleware(logger).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.GetTraceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Trace-ID", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get("X-Trace-ID"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
}
