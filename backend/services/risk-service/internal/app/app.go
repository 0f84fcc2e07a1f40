package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libdb "driverisk/backend/libs/db"
	libredis "driverisk/backend/libs/redis"
	"driverisk/backend/services/risk-service/internal/clients"
	"driverisk/backend/services/risk-service/internal/config"
	httpserver "driverisk/backend/services/risk-service/internal/http"
	"driverisk/backend/services/risk-service/internal/http/handlers"
	"driverisk/backend/services/risk-service/internal/http/middleware"
	redisstore "driverisk/backend/services/risk-service/internal/redis"
	"driverisk/backend/services/risk-service/internal/repository"
	"driverisk/backend/services/risk-service/internal/service"
	"driverisk/backend/services/risk-service/internal/ws"
)

// App wires risk service dependencies.
type App struct {
	server      *httpserver.Server
	wsManager   *ws.Manager
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := libdb.NewPostgresDB(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	redisClient, err := libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	vehicleDataRepo := repository.NewVehicleDataRepository(sqlDB)
	eventRepo := repository.NewRiskEventRepository(sqlDB)
	scoreRepo := repository.NewPeriodicScoreRepository(sqlDB)
	userRepo := repository.NewUserRepository(sqlDB)

	predictor := clients.NewPredictorClient(cfg.Predictor.URL, cfg.Predictor.Timeout, logger)
	scoreCache := redisstore.NewScoreCache(redisClient, cfg.ScoreCacheTTL())
	aggregator := service.NewAggregator(eventRepo, scoreRepo, logger)

	riskService := service.NewRiskService(
		predictor,
		vehicleDataRepo,
		eventRepo,
		userRepo,
		scoreRepo,
		aggregator,
		scoreCache,
		cfg.Predictor.Fallback,
		logger,
	)

	wsManager := ws.NewManager(30 * time.Second)
	wsServer := ws.NewServer(wsManager, service.NewStreamProcessor(riskService), 10*time.Second, logger)

	routes := httpserver.Routes{
		Telemetry:   handlers.NewTelemetryHandler(riskService, logger),
		Stream:      wsServer.HandleWS,
		RiskScores:  handlers.NewRiskScoresHandler(riskService, logger),
		RiskEvents:  handlers.NewRiskEventsHandler(riskService, logger),
		VehicleData: handlers.NewVehicleDataHandler(riskService, logger),
		LatestScore: handlers.NewLatestScoreHandler(riskService, logger),
		Health:      handlers.NewHealthHandler(),
		Auth:        middleware.AuthMiddleware(cfg.Auth.JWTSecret),
	}

	router := httpserver.NewRouter(routes)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		wsManager:   wsManager,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts serving HTTP requests and the stream keepalive loop.
func (a *App) Run(ctx context.Context) error {
	go a.wsManager.Start(ctx)
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
