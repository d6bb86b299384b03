// Package main runs the Fonts Reviewer HTTP API on top of a Supabase project.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/watxaut/FontsReviewerApp/internal/config"
	"github.com/watxaut/FontsReviewerApp/internal/connectivity"
	"github.com/watxaut/FontsReviewerApp/internal/database"
	"github.com/watxaut/FontsReviewerApp/internal/logging"
	"github.com/watxaut/FontsReviewerApp/internal/metrics"
	"github.com/watxaut/FontsReviewerApp/internal/middleware"
	"github.com/watxaut/FontsReviewerApp/services/reviewer"
	"github.com/watxaut/FontsReviewerApp/supabase/client"
)

const (
	limiterCleanupPeriod = 5 * time.Minute
	shutdownTimeout      = 30 * time.Second
)

func main() {
	envFile := flag.String("env", ".env", "Path to an optional .env file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(reviewer.ServiceID, cfg.LogLevel, cfg.LogFormat)
	m := metrics.New("")

	sb, err := client.New(client.Config{
		URL:      cfg.SupabaseURL,
		APIKey:   cfg.SupabaseAnonKey,
		Timeout:  cfg.SupabaseTimeout,
		Observer: m.ObserveSupabaseCall,
	})
	if err != nil {
		log.Fatalf("Failed to create Supabase client: %v", err)
	}

	conn, err := connectivity.New(cfg.SupabaseURL, 0)
	if err != nil {
		log.Fatalf("Failed to create connectivity checker: %v", err)
	}

	var reader reviewer.Reader
	if cfg.HasDatabase() {
		pg, pgErr := database.OpenPostgresReader(ctx, cfg.DatabaseURL)
		if pgErr != nil {
			logger.WithError(pgErr).Warn("direct Postgres reads disabled")
		} else {
			defer pg.Close()
			reader = pg
		}
	}

	svc, err := reviewer.New(reviewer.Config{
		Store:              database.NewRepository(sb, logger),
		Auth:               database.NewAuthRepository(sb, logger),
		Reader:             reader,
		Connectivity:       conn,
		Watcher:            reviewer.NewRealtimeWatcher(sb),
		Metrics:            m,
		Logger:             logger,
		ReviewRadiusMeters: cfg.ReviewRadiusMeters,
		LeaderboardLimit:   cfg.LeaderboardLimit,
	})
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	svc.AddTickerWorker(limiterCleanupPeriod, func(context.Context) error {
		limiter.Cleanup(2 * limiterCleanupPeriod)
		return nil
	})

	router := svc.Router()
	router.Use(middleware.MetricsMiddleware(reviewer.ServiceID, m))

	auth := middleware.NewAuthMiddleware(cfg.SupabaseJWTSecret, logger, publicPaths).Optional()
	handler := newHandler(router, auth, limiter, cfg.AllowedOrigins(), logger)

	if err := svc.Start(ctx); err != nil {
		log.Fatalf("Failed to start service: %v", err)
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.WithContext(ctx).WithField("addr", cfg.HTTPAddr).Info("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.WithContext(ctx).Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("shutdown error")
	}
	if err := svc.Stop(); err != nil {
		logger.WithError(err).Warn("service stop error")
	}
	logger.WithContext(ctx).Info("service stopped")
}
