package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/suar-net/leadintake/internal/config"
	"github.com/suar-net/leadintake/internal/handler"
	"github.com/suar-net/leadintake/internal/metrics"
	"github.com/suar-net/leadintake/internal/ratelimit"
	"github.com/suar-net/leadintake/internal/service"
	"github.com/suar-net/leadintake/pkg/logging"
)

type sweeper interface {
	StartSweeper(ctx context.Context, every time.Duration)
}

func main() {
	envErr := godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Default().Fatalw("failed to load configuration", "error", err)
	}

	logger := logging.New(cfg.LogLevel)
	defer logger.Sync()
	if envErr != nil {
		logger.Infow("no .env file found, using environment variables from OS")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter, err := ratelimit.New(cfg.RateLimit)
	if err != nil {
		logger.Fatalw("failed to build rate limiter", "error", err)
	}
	if s, ok := limiter.(sweeper); ok && cfg.RateLimit.SweepInterval > 0 {
		s.StartSweeper(ctx, cfg.RateLimit.SweepInterval)
	}
	var retryAfter time.Duration
	if ra, ok := limiter.(ratelimit.RetryAfterer); ok {
		retryAfter = ra.RetryAfter()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	intakeMetrics := metrics.NewIntakeMetrics(registry)

	sinks, err := buildSinks(ctx, cfg, logger)
	if err != nil {
		logger.Fatalw("failed to set up lead sinks", "error", err)
	}
	defer sinks.Close()

	dispatcher := service.NewDispatcher(sinks.Acceptor, cfg.Intake.QueueSize, cfg.Intake.Workers, logger, intakeMetrics)

	leadService := service.NewLeadService(limiter, dispatcher, logger,
		service.WithMetrics(intakeMetrics), service.WithStats(sinks.Stats))

	leadHandler := handler.NewLeadHandler(leadService,
		ratelimit.IdentityFromHeader(cfg.RateLimit.IdentityHeader),
		retryAfter, cfg.Intake.MaxBodyBytes, logger)
	healthHandler := handler.NewHealthHandler(sinks.DB, logger)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	router := handler.SetupRouter(leadHandler, healthHandler, metricsHandler, cfg.CORS, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Infow("server starting", "port", cfg.Server.Port,
			"rate_limit_policy", cfg.RateLimit.Policy,
			"rate_limit_requests", cfg.RateLimit.Requests,
			"rate_limit_window", cfg.RateLimit.Window.String())
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("cannot run server", "port", cfg.Server.Port, "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Infow("shutting down the server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("server shutdown failed", "error", err)
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Errorw("lead queue did not drain", "error", err)
	}
	if ms, ok := sinks.Stats.(*ratelimit.MemoryStats); ok {
		totals := ms.Totals()
		logger.Infow("rate limit decisions", "allowed", totals.Allowed, "denied", totals.Denied)
	}
	cancel()
	logger.Infow("server successfully shut down")
}
