package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/dairymilkyway/Artstr/internal/cache"
	h "github.com/dairymilkyway/Artstr/internal/http"
	"github.com/dairymilkyway/Artstr/internal/logging"
	"github.com/dairymilkyway/Artstr/internal/notifier"
	"github.com/dairymilkyway/Artstr/internal/observability"
	"github.com/dairymilkyway/Artstr/internal/publisher"
	"github.com/dairymilkyway/Artstr/internal/repository"
	"github.com/dairymilkyway/Artstr/internal/service"
)

type Config struct {
	HTTPPort        string
	MongoURI        string
	MongoDBName     string
	RedisAddr       string
	RedisPassword   string
	KafkaBrokers    []string
	JWTSecret       string
	SendGridAPIKey  string
	SenderEmail     string
	Env             string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "5000"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "artstr"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret"),
		SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		SenderEmail:     getEnv("SENDER_EMAIL", "orders@artstr.shop"),
		Env:             getEnv("APP_ENV", "development"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	logger := logging.MustNewLogger("artstr-checkout", cfg.Env)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoDB.Client().Disconnect(context.Background())
	logger.Info("connected to MongoDB", zap.String("uri", cfg.MongoURI))

	if err := repository.EnsureIndexes(ctx, mongoDB); err != nil {
		logger.Fatal("failed to create indexes", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("redis connection failed", zap.Error(err))
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	productRepo := repository.NewProductRepository(mongoDB)
	cartRepo := repository.NewCartRepository(mongoDB)
	orderRepo := repository.NewOrderRepository(mongoDB)
	outboxRepo := repository.NewOutboxRepository(mongoDB)

	cartCache := cache.NewRedisCache(redisClient)
	cartService := service.NewCartService(cartRepo, productRepo, cartCache, logger)
	checkoutService := service.NewCheckoutService(productRepo, orderRepo, cartService, metrics, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, logger)
	statusService := service.NewStatusService(orderRepo, metrics, logger)

	// Notification pipeline: outbox -> kafka -> notifier.
	poller := publisher.NewOutboxPoller(outboxRepo, metrics, logger, cfg.KafkaBrokers...)
	defer poller.Close()
	go poller.Run(ctx)

	var email notifier.EmailSender = notifier.NewSendGridEmailSender(cfg.SendGridAPIKey, cfg.SenderEmail)
	push := notifier.NewLogPushSender(logger)
	consumer := notifier.NewConsumer(push, email, metrics, logger, cfg.KafkaBrokers...)
	defer consumer.Close()
	go consumer.Run(ctx)

	router := h.NewRouter(
		h.RouterConfig{
			JWTSecret:      []byte(cfg.JWTSecret),
			RequestTimeout: cfg.RequestTimeout,
			Registry:       registry,
		},
		h.NewCheckoutHandler(checkoutService, logger),
		h.NewOrdersHandler(orderService, statusService, logger),
		h.NewCartHandler(cartService, logger),
		h.NewProductHandler(productRepo, logger),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "artstr-checkout"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
