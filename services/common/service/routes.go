package service

import (
	"net/http"
	"time"

	"github.com/watxaut/FontsReviewerApp/internal/httputil"
)

// HealthResponse is the standard response for /health endpoint.
type HealthResponse struct {
	Status    string         `json:"status"`
	Service   string         `json:"service"`
	Version   string         `json:"version"`
	Timestamp string         `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// InfoResponse is the standard response for /info endpoint.
type InfoResponse struct {
	Status     string         `json:"status"`
	Service    string         `json:"service"`
	Version    string         `json:"version"`
	Timestamp  string         `json:"timestamp"`
	Statistics map[string]any `json:"statistics,omitempty"`
}

// HealthHandler returns a standardized /health handler. An unhealthy
// service answers 503 so load balancers stop routing to it.
func HealthHandler(s *BaseService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := s.HealthStatus(r.Context())
		resp := HealthResponse{
			Status:    status,
			Service:   s.Name(),
			Version:   s.Version(),
			Timestamp: time.Now().Format(time.RFC3339),
			Details:   s.HealthDetails(),
		}
		code := http.StatusOK
		if status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, code, resp)
	}
}

// InfoHandler returns a standardized /info handler including statistics
// from the registered stats function.
func InfoHandler(s *BaseService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := InfoResponse{
			Status:    "active",
			Service:   s.Name(),
			Version:   s.Version(),
			Timestamp: time.Now().Format(time.RFC3339),
		}
		if s.statsFn != nil {
			resp.Statistics = s.statsFn()
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}

// RegisterStandardRoutes registers /health and /info.
func (b *BaseService) RegisterStandardRoutes() {
	b.router.HandleFunc("/health", HealthHandler(b)).Methods(http.MethodGet)
	b.router.HandleFunc("/info", InfoHandler(b)).Methods(http.MethodGet)
}
