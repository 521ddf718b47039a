package main

// @title Route Freshness API
// @version 1.0.0
// @description Сервис ранжирования маршрутов по "свежести": насколько мало маршрут пересекается с недавними активностями пользователя.
// @description
// @description Основные возможности:
// @description - Оценка маршрутов-кандидатов относительно переданных активностей
// @description - Ранжирование сохранённых маршрутов пользователя
// @description - Тепловые карты активностей в JSON, GeoJSON и KML
// @description - Импорт и экспорт маршрутов в GPX

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/route-freshness/docs"
	"github.com/route-freshness/internal/config"
	httpDelivery "github.com/route-freshness/internal/delivery/http"
	"github.com/route-freshness/internal/delivery/http/handler"
	"github.com/route-freshness/internal/domain/repository"
	"github.com/route-freshness/internal/grid"
	"github.com/route-freshness/internal/pkg/logger"
	"github.com/route-freshness/internal/repository/cache"
	"github.com/route-freshness/internal/repository/postgres"
	redisRepo "github.com/route-freshness/internal/repository/redis"
	"github.com/route-freshness/internal/usecase"
	"github.com/route-freshness/internal/worker"
	"github.com/route-freshness/internal/worker/aggregate"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Route Freshness Service")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.Float64("cell_size_km", cfg.Grid.CellSizeKm),
		zap.Int("recent_days", cfg.Freshness.RecentDays),
		zap.String("zero_coverage_policy", cfg.Freshness.ZeroCoveragePolicy),
	)

	if cfg.Auth.JWTSecret == "" {
		log.Warn("JWT_SECRET is empty, /api/v1/me endpoints will reject every token")
	}

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
	log.Info("PostgreSQL connected")

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
	log.Info("Redis connected")

	// 5. Health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Health(ctx); err != nil {
		log.Fatal("PostgreSQL health check failed", zap.Error(err))
	}

	if err := redisClient.Health(ctx); err != nil {
		log.Fatal("Redis health check failed", zap.Error(err))
	}

	log.Info("All connections healthy")

	// 6. Initialize Repositories
	routeRepo := postgres.NewRouteRepository(db)
	activityRepo := postgres.NewActivityRepository(db)
	statsRepo := postgres.NewStatsRepository(db, log)
	cacheRepo := cache.NewCacheRepository(redisClient)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log)

	log.Info("Repositories initialized")

	// 7. Initialize Use Cases
	freshnessUC, aggregates, err := newFreshnessUseCase(cfg, routeRepo, activityRepo, cacheRepo, log)
	if err != nil {
		log.Fatal("Failed to initialize freshness use case", zap.Error(err))
	}

	statsUC := usecase.NewStatsUseCase(statsRepo, cacheRepo, cfg.Cache.StatsCacheTTL, log)

	log.Info("Use cases initialized")

	// Снимки, пересобранные воркером, сбрасываются из памяти API по событию
	listeners := worker.NewWorkerManager(worker.DefaultShutdownTimeout, log)
	listeners.Register(aggregate.NewRebuiltListener(streamRepo, aggregates, log))

	listenCtx, stopListening := context.WithCancel(context.Background())
	defer stopListening()

	if err := listeners.Start(listenCtx); err != nil {
		log.Fatal("Failed to start aggregate listener", zap.Error(err))
	}

	// 8. Initialize HTTP Handlers
	freshnessHandler := handler.NewFreshnessHandler(freshnessUC, log)
	heatmapHandler := handler.NewHeatmapHandler(freshnessUC, log)
	gpxHandler := handler.NewGPXHandler(freshnessUC, log)
	statsHandler := handler.NewStatsHandler(statsUC, log)

	log.Info("HTTP handlers initialized")

	// 9. Initialize HTTP Server
	server := httpDelivery.NewServer(
		cfg,
		log,
		freshnessHandler,
		heatmapHandler,
		gpxHandler,
		statsHandler,
	)

	log.Info("HTTP server initialized")

	// 10. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 11. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	if err := listeners.Stop(); err != nil {
		log.Error("Aggregate listener shutdown error", zap.Error(err))
	}
	stopListening()

	log.Info("Server stopped successfully")
}

// newFreshnessUseCase собирает кеш агрегатов и use case по конфигурации
func newFreshnessUseCase(
	cfg *config.Config,
	routeRepo repository.RouteRepository,
	activityRepo repository.ActivityRepository,
	cacheRepo repository.CacheRepository,
	log *zap.Logger,
) (*usecase.FreshnessUseCase, *usecase.AggregateCache, error) {
	gridCfg, err := cfg.GridConfig()
	if err != nil {
		return nil, nil, err
	}

	policy, err := grid.ParseZeroCoveragePolicy(cfg.Freshness.ZeroCoveragePolicy)
	if err != nil {
		return nil, nil, err
	}

	aggregates, err := usecase.NewAggregateCache(activityRepo, cacheRepo, usecase.AggregateCacheOptions{
		Grid:    gridCfg,
		Window:  cfg.RecentWindow(),
		TTL:     cfg.Cache.AggregateCacheTTL,
		Workers: cfg.Freshness.ScoringWorkers,
	}, log)
	if err != nil {
		return nil, nil, err
	}

	freshnessUC := usecase.NewFreshnessUseCase(
		routeRepo,
		aggregates,
		gridCfg,
		grid.NewScorer(policy),
		cfg.Freshness.ScoringWorkers,
		log,
	)
	return freshnessUC, aggregates, nil
}
