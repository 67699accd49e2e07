// Package main provides the entrypoint for the index refresh worker.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/breatheroute/irceline/internal/api/handler"
	"github.com/breatheroute/irceline/internal/api/response"
	"github.com/breatheroute/irceline/internal/app"
	"github.com/breatheroute/irceline/internal/config"
	"github.com/breatheroute/irceline/internal/telemetry"
	"github.com/breatheroute/irceline/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "irceline-worker"

	// The configured level is unknown until the configuration is loaded.
	bootLog := app.NewLogger(serviceName, Version, "info")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := app.NewLogger(serviceName, Version, cfg.LogLevel)
	log.Info().
		Str("build_time", BuildTime).
		Dur("interval", cfg.Worker.Interval).
		Msg("starting refresh worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.Endpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	upstreamMetrics, err := telemetry.NewUpstreamMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize upstream metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	clients := app.NewClients(*cfg, log, upstreamMetrics)
	service := app.NewService(*cfg, clients, log)

	refreshConfig := worker.DefaultRefreshConfig()
	refreshConfig.Concurrency = cfg.Worker.Concurrency
	if len(cfg.Worker.Points) > 0 {
		refreshConfig.Points = make([]worker.Point, 0, len(cfg.Worker.Points))
		for _, p := range cfg.Worker.Points {
			refreshConfig.Points = append(refreshConfig.Points, worker.Point(p))
		}
	}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:  refreshConfig,
		Logger:  log.With().Str("component", "refresh").Logger(),
		Service: service,
	})

	var files handler.FileCache
	if clients.Files != nil {
		files = clients.Files
	}
	ops := handler.NewOpsHandler(Version, BuildTime, clients.Registry, files)

	// The worker exposes health endpoints for Cloud Run.
	r := chi.NewRouter()
	r.Get("/health", ops.HealthCheck)
	r.Get("/ready", ops.ReadinessCheck)
	r.Get("/status", ops.SystemStatus)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, job.MetricsSnapshot())
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		job.Start(gctx, cfg.Worker.Interval)
		return nil
	})

	if cfg.Worker.PubSubProjectID != "" {
		pubsubHandler, err := worker.NewPubSubHandler(gctx, worker.PubSubConfig{
			ProjectID:        cfg.Worker.PubSubProjectID,
			SubscriptionName: cfg.Worker.PubSubSubscription,
			RefreshJob:       job,
			Logger:           log.With().Str("component", "pubsub").Logger(),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer pubsubHandler.Close()

		g.Go(func() error {
			return pubsubHandler.Start(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down worker")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("worker stopped with error")
		os.Exit(1)
	}

	log.Info().Msg("worker stopped")
}
