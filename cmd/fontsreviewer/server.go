package main

import (
	"net/http"

	"github.com/watxaut/FontsReviewerApp/internal/logging"
	"github.com/watxaut/FontsReviewerApp/internal/middleware"
)

// publicPaths skip token verification entirely.
var publicPaths = []string{"/health", "/info", "/metrics"}

// newHandler wraps router in the request middleware, outermost first:
// tracing, CORS, auth, rate limiting. The limiter sits inside auth so it
// can key signed-in callers by user id instead of by IP.
func newHandler(router http.Handler, auth *middleware.AuthMiddleware, limiter *middleware.RateLimiter, origins []string, logger *logging.Logger) http.Handler {
	handler := limiter.Handler(router)
	handler = auth.Handler(handler)
	handler = middleware.NewCORSMiddleware(origins).Handler(handler)
	return middleware.NewTracingMiddleware(logger).Handler(handler)
}
