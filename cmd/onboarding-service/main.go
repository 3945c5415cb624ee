package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	mqcontracts "onboarding/contracts/mq"
	"onboarding/internal/app"
	"onboarding/internal/config"
	"onboarding/internal/httpserver"
	"onboarding/internal/mqhandler"
	"onboarding/internal/repository"
	"onboarding/internal/repository/memory"
	"onboarding/internal/runner"
	"onboarding/internal/store"
	"onboarding/pkg/db"
	"onboarding/pkg/logger"
	"onboarding/pkg/mq"
	"onboarding/pkg/otel"
	"onboarding/pkg/redis"
	"onboarding/pkg/util"
)

const overdueQueue = "onboarding.todo.overdue.q"

func main() {
	log := logger.NewLogger()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Starting onboarding-service...",
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("port", cfg.Server.Port),
	)

	shutdownOTel, err := otel.Init(otel.Config{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.OTel.Endpoint,
		Enabled:     cfg.OTel.Enabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to init OpenTelemetry", zap.Error(err))
	}
	defer shutdownOTel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		st     store.Store
		checks []httpserver.ReadinessCheck
	)
	switch cfg.Store.Driver {
	case config.DriverMemory:
		mem := memory.New()
		if cfg.Store.SeedFile != "" {
			seed, err := memory.LoadSeedFile(cfg.Store.SeedFile)
			if err != nil {
				log.Fatal("Failed to load seed file", zap.Error(err))
			}
			if err := seed.Apply(mem); err != nil {
				log.Fatal("Failed to apply seed", zap.Error(err))
			}
		}
		st = mem
		log.Warn("Using in-memory store, data is lost on restart")
	default:
		pool, err := db.NewConnection(ctx, cfg.DB, log)
		if err != nil {
			log.Fatal("DB initialization failed", zap.Error(err))
		}
		defer pool.Close()
		st = repository.NewStore(pool, log)
		checks = append(checks, httpserver.ReadinessCheck{Name: "db", Check: pool.Ping})
	}

	services, err := app.NewServices(st, cfg, log)
	if err != nil {
		log.Fatal("Failed to build services", zap.Error(err))
	}

	// 逾期处理：postgres 由 runner 发布 todo.overdue 到 MQ；memory 在进程内扫描
	var consumer *mq.Consumer
	if cfg.Store.Driver == config.DriverMemory {
		scanner := runner.NewOverdueScanner(services.Todos, log).
			WithEscalator(services.Todos).
			WithInterval(cfg.Runner.OverdueInterval())
		go scanner.Start(ctx)
	} else {
		var rdb *goredis.Client
		if cfg.Redis.Addr != "" {
			rdb, err = redis.NewRedisClient(ctx, cfg.Redis)
			if err != nil {
				log.Warn("Redis unavailable, consumer dedup disabled", zap.Error(err))
				rdb = nil
			} else {
				defer rdb.Close()
			}
		}

		dlq, err := mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Fatal("Failed to init MQ publisher", zap.Error(err))
		}
		defer dlq.Close()

		consumer, err = mq.NewConsumer(cfg.MQ.URL, overdueQueue, mqcontracts.RoutingTodoOverdue, log)
		if err != nil {
			log.Fatal("Failed to init todo.overdue consumer", zap.Error(err))
		}
		defer consumer.Close()
		if err := consumer.SetDeadLetter(dlq); err != nil {
			log.Fatal("Failed to declare DLQ", zap.Error(err))
		}

		var (
			deduper *util.Deduper
			retries *util.RetryCounter
		)
		if rdb != nil {
			deduper = util.NewDeduper(rdb, cfg.Consumer.DedupTTL(), log)
			retries = util.NewRetryCounter(rdb, cfg.Consumer.DedupTTL())
		}
		overdue := mqhandler.NewTodoOverdueHandler(services.Todos, deduper, retries, cfg.Consumer.MaxRetries, log)
		consumer.SetHandler(overdue.Handle)
		go func() {
			if err := consumer.StartConsuming(); err != nil {
				log.Error("todo.overdue consumer failed", zap.Error(err))
			}
		}()

		checks = append(checks, httpserver.ReadinessCheck{Name: "mq", Check: func(context.Context) error {
			if !consumer.IsConnected() {
				return errors.New("consumer disconnected")
			}
			return nil
		}})
	}

	router := httpserver.NewRouter(services.Handlers(log), cfg.JWT.Secret, log, checks...)
	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("onboarding-service is fully initialized and running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down onboarding-service gracefully...")
	cancel()
	if consumer != nil {
		consumer.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	log.Info("onboarding-service shutdown complete")
}
