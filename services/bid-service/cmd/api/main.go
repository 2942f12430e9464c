package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/gigflow/gigflow/pkg/auth"
	pkgdb "github.com/gigflow/gigflow/pkg/database"
	pkgevents "github.com/gigflow/gigflow/pkg/events"
	"github.com/gigflow/gigflow/services/bid-service/internal/adapters/api"
	"github.com/gigflow/gigflow/services/bid-service/internal/adapters/cache"
	"github.com/gigflow/gigflow/services/bid-service/internal/adapters/database"
	"github.com/gigflow/gigflow/services/bid-service/internal/adapters/events"
	"github.com/gigflow/gigflow/services/bid-service/internal/adapters/projects"
	"github.com/gigflow/gigflow/services/bid-service/internal/domain/bids"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load environment variables (local overrides .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	ctx := context.Background()

	// 1. Initialize Postgres Connection Pool
	dbURL := os.Getenv("BID_DB_URL")
	if dbURL == "" {
		logger.Error("BID_DB_URL is not set")
		os.Exit(1)
	}

	pool, err := pkgdb.Connect(ctx, dbURL)
	if err != nil {
		logger.Error("Unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Postgres Connected")

	// 2. Connect to RabbitMQ for notifications
	rabbitURL := os.Getenv("RABBITMQ_URL")
	if rabbitURL == "" {
		logger.Error("RABBITMQ_URL is not set")
		os.Exit(1)
	}

	amqpConn, err := amqp.Dial(rabbitURL)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()
	logger.Info("RabbitMQ Connected")

	rabbitPublisher, err := pkgevents.NewRabbitMQPublisher(amqpConn)
	if err != nil {
		logger.Error("Failed to create RabbitMQ publisher", "error", err)
		os.Exit(1)
	}
	defer rabbitPublisher.Close()

	// 3. Redis cache is optional; the service runs without it.
	var bidCache bids.BidCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisURL})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis connection failed, running without cache", "error", err)
		} else {
			logger.Info("Redis Connected")
			bidCache = cache.NewRedisBidCache(rdb, logger)
		}
	}

	// 4. Project service gateway
	projectServiceURL := os.Getenv("PROJECT_SERVICE_URL")
	if projectServiceURL == "" {
		logger.Error("PROJECT_SERVICE_URL is not set")
		os.Exit(1)
	}
	gateway := projects.NewClient(projectServiceURL)

	// 5. Token validation against the identity service's public key
	publicKeyPath := os.Getenv("AUTH_PUBLIC_KEY_PATH")
	if publicKeyPath == "" {
		logger.Error("AUTH_PUBLIC_KEY_PATH is not set")
		os.Exit(1)
	}
	publicKeyPEM, err := os.ReadFile(publicKeyPath)
	if err != nil {
		logger.Error("Failed to read auth public key", "error", err)
		os.Exit(1)
	}
	issuer := os.Getenv("AUTH_ISSUER")
	if issuer == "" {
		issuer = "identity-service"
	}
	signer, err := auth.NewSignerFromPublicKey(publicKeyPEM, issuer)
	if err != nil {
		logger.Error("Failed to create token validator", "error", err)
		os.Exit(1)
	}

	// 6. Wire the domain service
	bidRepo := database.NewPostgresBidRepository(pool)
	notifier := events.NewRabbitMQNotifier(rabbitPublisher)
	service := bids.NewService(bidRepo, gateway, notifier, bidCache, logger)
	defer service.Wait()

	// 7. HTTP surface
	handler := api.NewHandler(service, logger)
	router := api.NewRouter(handler, signer, logger)

	addr := os.Getenv("BID_API_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	logger.Info("Starting Bid Service API", "addr", addr)

	if err := http.ListenAndServe(addr, router); err != nil && err != http.ErrServerClosed {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
