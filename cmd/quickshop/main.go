package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/itadmit/quickshop3-sub006/internal/cache"
	h "github.com/itadmit/quickshop3-sub006/internal/http"
	"github.com/itadmit/quickshop3-sub006/internal/importer"
	"github.com/itadmit/quickshop3-sub006/internal/notify"
	"github.com/itadmit/quickshop3-sub006/internal/publisher"
	r "github.com/itadmit/quickshop3-sub006/internal/repository"
	"github.com/itadmit/quickshop3-sub006/internal/service"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	DBHost        string
	DBPort        int
	DBUser        string
	DBPassword    string
	DBName        string
	MigrationsDir string

	RedisAddr    string
	KafkaBrokers []string
	KafkaTopic   string

	NotifyBaseURL string
	NotifyAPIKey  string

	StorefrontBase string
}

func loadConfig() *Config {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		log.Fatalf("invalid DB_PORT: %v", err)
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,

		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        dbPort,
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "postgres"),
		DBName:        getEnv("DB_NAME", "quickshop"),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "internal/repository/migrations"),

		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "quickshop.events"),

		NotifyBaseURL: getEnv("NOTIFY_BASE_URL", "http://localhost:8090"),
		NotifyAPIKey:  getEnv("NOTIFY_API_KEY", ""),

		StorefrontBase: getEnv("STOREFRONT_BASE_URL", "https://shop.quickshop.co.il"),
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
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cred := &r.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsDir,
	}
	repo, err := r.NewRepository(cred)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(cred); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	feedCache := cache.NewRedisCache(redisClient)

	mailer := notify.NewMailer(notify.Config{
		BaseURL: cfg.NotifyBaseURL,
		APIKey:  cfg.NotifyAPIKey,
	})

	orderService := service.NewOrderService(repo, mailer, logger)
	inventoryImporter := importer.New(repo, logger)

	poller := publisher.NewOutboxPoller(repo, logger, cfg.KafkaTopic, cfg.KafkaBrokers...)
	defer poller.Close()

	pollerCtx, stopPoller := context.WithCancel(context.Background())
	defer stopPoller()
	go poller.Run(pollerCtx)

	router := h.NewRouter(h.RouterConfig{
		Orders:         h.NewOrdersHandler(orderService, repo, logger),
		Checkout:       h.NewCheckoutHandler(orderService, repo, logger),
		Feeds:          h.NewFeedsHandler(repo, feedCache, cfg.StorefrontBase, logger),
		Inventory:      h.NewInventoryHandler(inventoryImporter, logger),
		Contacts:       h.NewContactsHandler(repo, logger),
		Auth:           repo,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "quickshop"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("quickshop starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopPoller()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
