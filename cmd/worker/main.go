package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/route-freshness/internal/config"
	"github.com/route-freshness/internal/grid"
	"github.com/route-freshness/internal/pkg/logger"
	"github.com/route-freshness/internal/repository/cache"
	"github.com/route-freshness/internal/repository/postgres"
	redisRepo "github.com/route-freshness/internal/repository/redis"
	"github.com/route-freshness/internal/usecase"
	"github.com/route-freshness/internal/worker"
	"github.com/route-freshness/internal/worker/activity"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Check if worker is enabled
	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Aggregate Rebuild Worker")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("max_retries", cfg.Worker.MaxRetries),
		zap.Float64("cell_size_km", cfg.Grid.CellSizeKm),
		zap.Int("recent_days", cfg.Freshness.RecentDays))

	// 3. Connect to PostgreSQL
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

	// 4. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 5. Initialize repositories
	routeRepo := postgres.NewRouteRepository(db)
	activityRepo := postgres.NewActivityRepository(db)
	cacheRepo := cache.NewCacheRepository(redisClient)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log)

	// 6. Initialize use cases
	gridCfg, err := cfg.GridConfig()
	if err != nil {
		log.Fatal("Invalid grid config", zap.Error(err))
	}
	policy, err := grid.ParseZeroCoveragePolicy(cfg.Freshness.ZeroCoveragePolicy)
	if err != nil {
		log.Fatal("Invalid zero coverage policy", zap.Error(err))
	}

	aggregates, err := usecase.NewAggregateCache(activityRepo, cacheRepo, usecase.AggregateCacheOptions{
		Grid:    gridCfg,
		Window:  cfg.RecentWindow(),
		TTL:     cfg.Cache.AggregateCacheTTL,
		Workers: cfg.Freshness.ScoringWorkers,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize aggregate cache", zap.Error(err))
	}

	freshnessUC := usecase.NewFreshnessUseCase(
		routeRepo,
		aggregates,
		gridCfg,
		grid.NewScorer(policy),
		cfg.Freshness.ScoringWorkers,
		log,
	)

	// 7. Initialize workers
	syncWorker := activity.NewSyncWorker(
		streamRepo,
		freshnessUC,
		cfg.Worker.ConsumerGroup,
		cfg.Worker.MaxRetries,
		log,
	)

	// 8. Create worker manager and register workers
	workerManager := worker.NewWorkerManager(worker.DefaultShutdownTimeout, log)
	workerManager.Register(syncWorker)

	// 9. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start workers
	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	// Stop worker manager first so in-flight batches finish and get acked
	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	cancel()

	log.Info("Worker shutdown complete")
}
