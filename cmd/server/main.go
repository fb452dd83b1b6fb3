package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restaurant-ops/config"
	"restaurant-ops/internal/api"
	"restaurant-ops/internal/broker"
	"restaurant-ops/internal/redisclient"
	"restaurant-ops/internal/service"
	"restaurant-ops/internal/store"
	"restaurant-ops/internal/util"
	"restaurant-ops/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting restaurant-ops",
		zap.String("env", cfg.Server.Env),
		zap.String("data_source", cfg.Database.DataSource),
		zap.String("timezone", cfg.Business.Location.String()))

	if cfg.Observ.JaegerEndpoint != "" {
		tp, err := util.InitTracer(cfg.Observ.JaegerEndpoint, cfg.Observ.TraceSampleRatio)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Error("Error shutting down tracer", zap.Error(err))
			}
		}()
	}

	checks := map[string]api.ReadinessCheck{}

	var ds store.DataSource
	switch cfg.Database.DataSource {
	case config.DataSourcePostgres:
		db, err := store.NewStore(cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := db.Migrate(context.Background()); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		checks["postgres"] = db.GetDB().PingContext
		ds = db
		logger.Info("Database connected")
	default:
		ds = store.NewMemoryStore(store.DemoSeed(time.Now()))
		logger.Info("Using volatile in-memory store")
	}
	defer ds.Close()

	opts := service.Options{
		Location:       cfg.Business.Location,
		IdempotencyTTL: cfg.Business.IdempotencyTTL,
		LockTTL:        cfg.Business.OrderLockTTL,
	}

	if cfg.Redis.Addr != "" {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		opts.Idempotency = redisClient
		opts.Locker = redisClient
		checks["redis"] = redisClient.Ping
		logger.Info("Redis connected")
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var notifier *worker.ReadyNotifier
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
		defer producer.Close()
		opts.Publisher = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))

		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
		notifier = worker.NewReadyNotifier(consumer)
		go func() {
			if err := notifier.Start(workerCtx); err != nil && err != context.Canceled {
				logger.Error("Ready notifier error", zap.Error(err))
			}
		}()
	}

	orderService := service.NewOrderService(ds, opts)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(orderService, checks)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if notifier != nil {
		if err := notifier.Stop(); err != nil {
			logger.Error("Failed to stop ready notifier", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
