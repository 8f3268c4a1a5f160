package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "signal-forest/docs"
	"signal-forest/internal/cache"
	"signal-forest/internal/config"
	"signal-forest/internal/db"
	"signal-forest/internal/handler"
	"signal-forest/internal/job"
	"signal-forest/internal/logger"
	"signal-forest/internal/ml/training"
	"signal-forest/internal/provider"
	"signal-forest/internal/repository"
	"signal-forest/internal/service"
	"signal-forest/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc          = godotenv.Load
	initLoggerFunc       = logger.InitLogger
	loadConfigFunc       = config.Load
	initPostgresFunc     = db.InitPostgres
	initRedisFunc        = cache.InitRedis
	initTracerFunc       = tracing.InitTracer
	newDailyProviderFunc = func(tracer trace.Tracer) service.DailyProvider {
		return provider.NewStooqProvider(tracer)
	}
	startTrainingJobFunc   = func(j *job.TrainingJob, ctx context.Context) { go j.Start(ctx) }
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Signal Forest API
// @version         1.0
// @description     Daily Buy/Sell/Hold signals from bagged decision trees.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
func main() {
	_ = loadEnvFunc()
	initLoggerFunc(tracing.ServiceName)

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := initPostgresFunc(ctx, cfg.DatabaseURL); err != nil {
		logger.Warn().Err(err).Msg("postgres unavailable, running without persistence")
	}
	defer db.Close()
	if err := initRedisFunc(ctx, cfg.RedisURL); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, running without cache")
	}
	defer cache.Close()

	tp, tracer, err := initTracerFunc(ctx, tracing.ServiceName)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	// Interfaces stay nil, not typed-nil, when a backend is missing.
	var (
		candleRepo service.CandleRepository
		runStore   training.RunStore
		redisCache service.RedisClient
	)
	if db.Pool != nil {
		cr := repository.NewCandleRepository(db.Pool, tracer)
		rr := repository.NewRunRepository(db.Pool, tracer)
		if err := cr.RunMigrations(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to run candle migrations")
		}
		if err := rr.RunMigrations(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to run training run migrations")
		}
		candleRepo, runStore = cr, rr
	}
	if cache.Client != nil {
		redisCache = cache.Client
	}

	marketData := service.NewMarketDataService(tracer, newDailyProviderFunc(tracer), candleRepo, redisCache)
	trainer := training.NewService(tracer, marketData, runStore, training.FromAppConfig(cfg))

	if cfg.MLEnabled {
		trainingJob := job.NewTrainingJob(tracer, trainer, cfg.MLTrainHourUTC, true)
		startTrainingJobFunc(trainingJob, ctx)
	}

	h := handler.New(tracer, marketData, trainer, cfg.APIKey)

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))
	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()
	logger.Info().Str("addr", srv.Addr).Bool("ml_enabled", cfg.MLEnabled).Msg("server started")

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	logger.Info().Msg("shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exiting")
}
