// Package service provides the HTTP service scaffolding shared by the
// backend services: a router, background workers, stop handling and health.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/watxaut/FontsReviewerApp/internal/logging"
)

const healthCheckTimeout = 5 * time.Second

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// BaseConfig contains shared configuration for all services.
type BaseConfig struct {
	ID      string
	Name    string
	Version string
	Logger  *logging.Logger
	// Checks are probed on every /health request, keyed by dependency name.
	Checks map[string]HealthCheck
}

// BaseService owns the router and the lifecycle of a service:
//   - stop channel management (sync.Once prevents double-close panic)
//   - background workers started with the service
//   - statistics provider for /info
type BaseService struct {
	id      string
	name    string
	version string
	logger  *logging.Logger
	router  *mux.Router

	stopCh   chan struct{}
	stopOnce sync.Once

	statsFn func() map[string]any
	workers []func(context.Context)

	checks          map[string]HealthCheck
	healthMu        sync.RWMutex
	checkResults    map[string]string
	lastHealthCheck time.Time
	startTime       time.Time
}

// NewBase constructs a BaseService from shared config.
func NewBase(cfg BaseConfig) *BaseService {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	checks := make(map[string]HealthCheck, len(cfg.Checks))
	for name, fn := range cfg.Checks {
		if fn != nil {
			checks[name] = fn
		}
	}
	return &BaseService{
		id:           cfg.ID,
		name:         cfg.Name,
		version:      cfg.Version,
		logger:       logger,
		router:       mux.NewRouter(),
		stopCh:       make(chan struct{}),
		checks:       checks,
		checkResults: make(map[string]string, len(checks)),
	}
}

func (b *BaseService) ID() string              { return b.id }
func (b *BaseService) Name() string            { return b.name }
func (b *BaseService) Version() string         { return b.version }
func (b *BaseService) Logger() *logging.Logger { return b.logger }
func (b *BaseService) Router() *mux.Router     { return b.router }

// WithStats sets a statistics provider function for the /info endpoint.
func (b *BaseService) WithStats(fn func() map[string]any) *BaseService {
	b.statsFn = fn
	return b
}

// AddWorker registers a background worker started with the service.
// Workers should return when ctx is cancelled or StopChan() closes.
func (b *BaseService) AddWorker(fn func(context.Context)) *BaseService {
	b.workers = append(b.workers, fn)
	return b
}

// AddTickerWorker registers a periodic background worker that runs fn at
// every interval until Stop is called.
func (b *BaseService) AddTickerWorker(interval time.Duration, fn func(context.Context) error) *BaseService {
	worker := func(ctx context.Context) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-b.stopCh:
				return
			case <-ticker.C:
				if err := fn(ctx); err != nil {
					b.logger.WithContext(ctx).WithError(err).Warn("worker error")
				}
			}
		}
	}
	b.workers = append(b.workers, worker)
	return b
}

// StopChan exposes the stop channel for worker goroutines.
func (b *BaseService) StopChan() <-chan struct{} {
	return b.stopCh
}

// Start records the start time and spins the registered workers.
func (b *BaseService) Start(ctx context.Context) error {
	select {
	case <-b.stopCh:
		return fmt.Errorf("%s: already stopped", b.id)
	default:
	}

	b.healthMu.Lock()
	if b.startTime.IsZero() {
		b.startTime = time.Now()
	}
	b.healthMu.Unlock()

	for _, w := range b.workers {
		go w(ctx)
	}
	b.logger.WithContext(ctx).WithField("workers", len(b.workers)).Info("service started")
	return nil
}

// Stop signals workers. It is idempotent.
func (b *BaseService) Stop() error {
	b.stopOnce.Do(func() {
		close(b.stopCh)
	})
	return nil
}

// WorkerCount returns the number of registered workers.
func (b *BaseService) WorkerCount() int {
	return len(b.workers)
}

// CheckHealth refreshes the cached health state by probing every check.
// Failures are reported as "unreachable"; the cause only goes to the log.
func (b *BaseService) CheckHealth(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	results := make(map[string]string, len(b.checks))
	for name, fn := range b.checks {
		if err := fn(ctx); err != nil {
			b.logger.WithContext(ctx).WithError(err).WithField("check", name).Warn("health check failed")
			results[name] = "unreachable"
			continue
		}
		results[name] = "ok"
	}

	b.healthMu.Lock()
	b.checkResults = results
	b.lastHealthCheck = time.Now()
	b.healthMu.Unlock()
}

// HealthStatus probes the dependencies and returns "healthy" or "unhealthy".
func (b *BaseService) HealthStatus(ctx context.Context) string {
	b.CheckHealth(ctx)
	b.healthMu.RLock()
	defer b.healthMu.RUnlock()
	for _, res := range b.checkResults {
		if res != "ok" {
			return "unhealthy"
		}
	}
	return "healthy"
}

// HealthDetails describes the most recent health state.
func (b *BaseService) HealthDetails() map[string]any {
	b.healthMu.RLock()
	defer b.healthMu.RUnlock()

	checks := make(map[string]string, len(b.checkResults))
	for k, v := range b.checkResults {
		checks[k] = v
	}
	details := map[string]any{"checks": checks}

	if !b.lastHealthCheck.IsZero() {
		details["last_check"] = b.lastHealthCheck.Format(time.RFC3339)
	} else {
		details["last_check"] = ""
	}

	uptime := time.Duration(0)
	if !b.startTime.IsZero() {
		uptime = time.Since(b.startTime)
	}
	details["uptime"] = uptime.String()
	return details
}
