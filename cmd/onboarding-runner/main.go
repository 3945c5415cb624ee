package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"onboarding/internal/app"
	"onboarding/internal/config"
	"onboarding/internal/httpserver"
	"onboarding/internal/repository"
	"onboarding/internal/runner"
	"onboarding/pkg/circuitbreaker"
	"onboarding/pkg/db"
	"onboarding/pkg/logger"
	"onboarding/pkg/mq"
	"onboarding/pkg/otel"
	"onboarding/pkg/outbox"
)

func main() {
	log := logger.NewLogger()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.Store.Driver != config.DriverPostgres {
		log.Fatal("onboarding-runner requires the postgres store", zap.String("driver", cfg.Store.Driver))
	}

	log.Info("Starting onboarding-runner...",
		zap.String("db_host", cfg.DB.Host),
		zap.Duration("overdue_interval", cfg.Runner.OverdueInterval()),
	)

	shutdownOTel, err := otel.Init(otel.Config{
		ServiceName: cfg.ServiceName + "-runner",
		Endpoint:    cfg.OTel.Endpoint,
		Enabled:     cfg.OTel.Enabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to init OpenTelemetry", zap.Error(err))
	}
	defer shutdownOTel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewConnection(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer pool.Close()

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	services, err := app.NewServices(repository.NewStore(pool, log), cfg, log)
	if err != nil {
		log.Fatal("Failed to build services", zap.Error(err))
	}

	// Outbox dispatcher
	dispatcher := outbox.NewDispatcher(outbox.NewRepository(pool), publisher, log).
		WithBatchSize(cfg.Runner.OutboxBatchSize).
		WithMaxRetries(cfg.Runner.OutboxMaxRetries).
		WithInterval(cfg.Runner.OutboxInterval()).
		WithBreaker(circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig()))
	go dispatcher.Start(ctx)

	// Overdue scanner
	scanner := runner.NewOverdueScanner(services.Todos, log).
		WithPublisher(publisher).
		WithInterval(cfg.Runner.OverdueInterval())
	go scanner.Start(ctx)

	// HTTP Server (for health checks)
	router := httpserver.NewHealthRouter(log,
		httpserver.ReadinessCheck{Name: "db", Check: pool.Ping},
		httpserver.ReadinessCheck{Name: "mq", Check: func(context.Context) error {
			if !publisher.IsConnected() {
				return errors.New("publisher disconnected")
			}
			return nil
		}},
	)
	srv := &http.Server{
		Addr:              cfg.Runner.HealthPort,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Runner.HealthPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("onboarding-runner is fully initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down onboarding-runner gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	log.Info("onboarding-runner shutdown complete")
}
