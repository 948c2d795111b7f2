// Package main runs the sunset bot worker: the HTTP trigger API and, when
// configured, a Pub/Sub subscription for scheduled runs.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sunsetbot/sunsetbot/internal/api"
	"github.com/sunsetbot/sunsetbot/internal/api/middleware"
	"github.com/sunsetbot/sunsetbot/internal/app"
	"github.com/sunsetbot/sunsetbot/internal/auth"
	"github.com/sunsetbot/sunsetbot/internal/config"
	"github.com/sunsetbot/sunsetbot/internal/telemetry"
	"github.com/sunsetbot/sunsetbot/internal/worker"
)

const serviceName = "sunsetbot-worker"

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := config.LoadEnvFile(os.Getenv("ENV_FILE")); err != nil {
		bootLogger().Fatal().Err(err).Msg("failed to load env file")
	}

	cfg, err := config.Load()
	if err != nil {
		bootLogger().Fatal().Err(err).Msg("invalid configuration")
	}

	log := app.NewLogger(os.Stdout, app.LogConfig{
		Service: serviceName,
		Version: Version,
		Level:   cfg.LogLevel,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	log.Info().
		Str("build_time", BuildTime).
		Str("environment", cfg.Environment).
		Msg("starting sunset bot worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	runMetrics, err := tp.RunMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize run metrics")
	}
	httpMetrics, err := middleware.NewMetrics(tp.Meter)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize http metrics")
	}

	a := app.New(cfg, app.Options{
		Metrics: runMetrics,
		Logger:  log,
	})

	routerCfg := api.RouterConfig{
		Version:   Version,
		BuildTime: BuildTime,
		Logger:    log,
		Metrics:   httpMetrics,
		Runner:    a.Runner,
		Upstreams: a.Registry,
		TriggerRateLimit: &middleware.RateLimitConfig{
			RequestLimit: cfg.TriggerRatePerMinute,
			WindowLength: time.Minute,
		},
	}
	if cfg.TriggerSigningKey != "" {
		routerCfg.Tokens = auth.NewTokenService(auth.TokenConfig{SigningKey: cfg.TriggerSigningKey})
	} else if cfg.IsProduction() {
		log.Warn().Msg("TRIGGER_SIGNING_KEY not set - POST /v1/run is unauthenticated")
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	if cfg.PubSubEnabled() {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSubProjectID,
			SubscriptionName: cfg.PubSubSubscription,
			Dispatcher:       worker.NewDispatcher(a.Runner, a.Registry, log),
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil {
				log.Error().Err(err).Msg("pubsub receive stopped")
				stop()
			}
		}()
	} else {
		log.Info().Msg("pubsub not configured - HTTP trigger only")
	}

	<-ctx.Done()
	log.Info().Msg("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

// bootLogger logs failures that happen before the configured logger exists.
func bootLogger() *zerolog.Logger {
	l := app.NewLogger(os.Stderr, app.LogConfig{Service: serviceName, Version: Version, Level: zerolog.InfoLevel})
	return &l
}
