package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	pkgdb "github.com/gigflow/gigflow/pkg/database"
	"github.com/gigflow/gigflow/services/bid-service/internal/adapters/database"
	"github.com/gigflow/gigflow/services/bid-service/internal/adapters/projects"
	"github.com/gigflow/gigflow/services/bid-service/internal/reconciler"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load environment variables (local overrides .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutting down worker...")
		cancel()
	}()

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

	// 2. Project service gateway
	projectServiceURL := os.Getenv("PROJECT_SERVICE_URL")
	if projectServiceURL == "" {
		logger.Error("PROJECT_SERVICE_URL is not set")
		os.Exit(1)
	}
	gateway := projects.NewClient(projectServiceURL)

	// 3. Run the award reconciler
	bidRepo := database.NewPostgresBidRepository(pool)
	sweep := reconciler.NewAwardReconciler(
		bidRepo,
		gateway,
		50,             // batch size
		30*time.Second, // interval
		logger,
	)

	logger.Info("Starting Award Reconciler...")
	if runErr := sweep.Run(ctx); runErr != nil {
		logger.Error("Reconciler failed", "error", runErr)
		if ctx.Err() == nil {
			os.Exit(1)
		}
	}

	logger.Info("Worker stopped")
}
