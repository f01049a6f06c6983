package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sma-adp-api/api/swagger"
	internalhandler "github.com/noah-isme/sma-adp-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-adp-api/internal/middleware"
	"github.com/noah-isme/sma-adp-api/internal/repository"
	"github.com/noah-isme/sma-adp-api/internal/service"
	"github.com/noah-isme/sma-adp-api/internal/service/constraints"
	"github.com/noah-isme/sma-adp-api/internal/solver/csp"
	"github.com/noah-isme/sma-adp-api/internal/solver/genetic"
	"github.com/noah-isme/sma-adp-api/pkg/cache"
	"github.com/noah-isme/sma-adp-api/pkg/config"
	"github.com/noah-isme/sma-adp-api/pkg/database"
	"github.com/noah-isme/sma-adp-api/pkg/jobs"
	"github.com/noah-isme/sma-adp-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-adp-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-adp-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-adp-api/pkg/storage"
)

// @title Timetable & Substitution API
// @version 1.0.0
// @description CSP/GA-driven academic timetable generation with an
// @description automated substitute-teacher assignment engine.
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsSvc := service.NewMetricsService()
	metricsHandler := internalhandler.NewMetricsHandler(metricsSvc)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise database", "error", err)
	}
	defer db.Close()

	var cacheRepo service.CacheRepository
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("cache disabled", "error", err)
	} else {
		defer client.Close()
		cacheRepo = repository.NewCacheRepository(client, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Scheduler.VersionCacheTTL, logr, cacheRepo != nil)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	if cfg.APIKey.Enabled {
		api.Use(internalmiddleware.APIKey(cfg.APIKey.Header, cfg.APIKey.Value))
	}

	catalogRepo := repository.NewCatalogRepository(db)
	versionRepo := repository.NewVersionRepository(db)
	substitutionRepo := repository.NewSubstitutionRepository(db)
	scheduleConfigRepo := repository.NewScheduleConfigRepository(db)

	scorer := service.NewSubstituteScorer(service.SubstituteWeights{
		Availability: cfg.Weights.SubWeightAvailability,
		Subject:      cfg.Weights.SubWeightSubject,
		Workload:     cfg.Weights.SubWeightWorkload,
	}, cfg.Weights.SubDefaultMaxHoursThreshold)

	builderCfg := service.BuilderConfig{
		CSP: csp.Config{Timeout: cfg.Solver.CSPTimeout},
		Genetic: genetic.Config{
			PopulationSize: cfg.Solver.GAPopSize,
			Generations:    cfg.Solver.GAGenerations,
			MutationRate:   cfg.Solver.GAMutationRate,
			Rand:           rand.New(rand.NewSource(cfg.Solver.GARandomSeed)),
			Weights: constraints.Weights{
				GapPenalty:         cfg.Weights.GapPenalty,
				BalancePenalty:     cfg.Weights.BalancePenalty,
				ConsecutivePenalty: cfg.Weights.ConsecutivePenalty,
			},
		},
	}

	builder := service.NewScheduleBuilder(catalogRepo, catalogRepo, versionRepo, service.NewVersionCache(cacheSvc, cfg.Scheduler.VersionCacheTTL), nil, builderCfg, metricsSvc, logr)

	queueCtx, cancel := context.WithCancel(context.Background())
	generateQueue := jobs.NewQueue("generate_schedule", builder.HandleGenerateJob, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 4,
		MaxRetries: 1,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
	})
	generateQueue.Start(queueCtx)
	builder.SetQueue(generateQueue)
	defer func() {
		cancel()
		generateQueue.Stop()
	}()

	autoEngine := service.NewAutoAssignmentEngine(catalogRepo, versionRepo, substitutionRepo, scorer, metricsSvc, logr)
	manualSubs := service.NewSubstitutionService(versionRepo, catalogRepo, substitutionRepo, logr)
	scheduleConfigSvc := service.NewScheduleConfigService(scheduleConfigRepo, versionRepo, builder, logr)
	analyticsReporter := service.NewAnalyticsReporter(catalogRepo, versionRepo, cacheSvc)
	if cfg.Export.SigningKey != "" {
		if store, err := storage.NewLocalStorage(cfg.Export.StorageDir); err != nil {
			logr.Sugar().Warnw("export archiving disabled", "error", err)
		} else {
			signer := storage.NewSignedURLSigner(cfg.Export.SigningKey, cfg.Export.DownloadTTL)
			analyticsReporter.SetArchive(store, signer, cfg.APIPrefix)
		}
	}

	timetableHandler := internalhandler.NewTimetableHandler(builder, versionRepo)
	substitutionHandler := internalhandler.NewSubstitutionHandler(autoEngine, manualSubs)
	scheduleConfigHandler := internalhandler.NewScheduleConfigHandler(scheduleConfigSvc)
	analyticsHandler := internalhandler.NewAnalyticsHandler(analyticsReporter, metricsSvc)

	timetableGroup := api.Group("/timetable")
	timetableGroup.POST("/generate", timetableHandler.Generate)

	substitutionGroup := api.Group("/substitutions")
	substitutionGroup.POST("/auto-assign", substitutionHandler.AutoAssign)
	substitutionGroup.GET("/suggestions", substitutionHandler.RankedSuggestions)
	substitutionGroup.POST("/assign", substitutionHandler.AssignSubstitute)
	substitutionGroup.POST("/cancel", substitutionHandler.CancelClass)

	configGroup := api.Group("/schedule-config")
	configGroup.GET("", scheduleConfigHandler.Get)
	configGroup.PUT("", scheduleConfigHandler.Update)

	analyticsGroup := api.Group("/analytics")
	analyticsGroup.Use(internalmiddleware.WithResponseMeta())
	analyticsGroup.GET("", analyticsHandler.Report)
	analyticsGroup.GET("/export/pdf", analyticsHandler.ExportPDF)
	analyticsGroup.GET("/export/csv", analyticsHandler.ExportCSV)
	analyticsGroup.POST("/export/archive", analyticsHandler.ExportArchive)
	analyticsGroup.GET("/export/archive/:token", analyticsHandler.DownloadArchive)
	analyticsGroup.GET("/system", analyticsHandler.System)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
