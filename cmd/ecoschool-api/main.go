package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ecoschool/ecoschool-api/api/swagger"
	"github.com/ecoschool/ecoschool-api/internal/handler"
	"github.com/ecoschool/ecoschool-api/internal/middleware"
	"github.com/ecoschool/ecoschool-api/internal/repository"
	"github.com/ecoschool/ecoschool-api/internal/service"
	"github.com/ecoschool/ecoschool-api/pkg/cache"
	"github.com/ecoschool/ecoschool-api/pkg/config"
	"github.com/ecoschool/ecoschool-api/pkg/database"
	"github.com/ecoschool/ecoschool-api/pkg/jobs"
	"github.com/ecoschool/ecoschool-api/pkg/logger"
	corsmiddleware "github.com/ecoschool/ecoschool-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ecoschool/ecoschool-api/pkg/middleware/requestid"
	"github.com/ecoschool/ecoschool-api/pkg/storage"
)

// @title EcoSchool API
// @version 1.0.0
// @description School sustainability ledger: activity logging, carbon accounting, leaderboards and verification
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logr.Sugar().Fatalw("failed to run migrations", "error", err)
	}

	// Repositories.
	entryRepo := repository.NewEntryRepository(db)
	factorRepo := repository.NewFactorRepository(db)
	reportRepo := repository.NewReportRepository(db)

	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			repo := repository.NewCacheRepository(redisClient)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
		}
	}

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cacheRepo != nil)

	carbonSvc := service.NewCarbonService(service.CarbonServiceConfig{
		ScoringPolicy: cfg.Carbon.ScoringPolicy,
		Equivalents: service.EquivalentsConfig{
			TreeYearsKg: cfg.Carbon.TreeYearsKg,
			CarKmKg:     cfg.Carbon.CarKmKg,
			EnergyKwhKg: cfg.Carbon.EnergyKwhKg,
		},
	})

	factorSvc := service.NewFactorService(factorRepo, logr)
	if err := factorSvc.Seed(context.Background()); err != nil {
		logr.Sugar().Fatalw("failed to seed conversion factors", "error", err)
	}

	entrySvc := service.NewEntryService(entryRepo, factorRepo, carbonSvc, metricsSvc, cacheSvc, nil, logr, service.EntryServiceConfig{
		AllowUnknownCategory: cfg.Carbon.AllowUnknownCategory,
	})
	verificationSvc := service.NewVerificationService(entryRepo, cacheSvc, metricsSvc, logr)
	aggregationSvc := service.NewAggregationService(entryRepo, carbonSvc, cacheSvc, logr, service.AggregationServiceConfig{
		LeaderboardOrder:    cfg.Leaderboard.Order,
		DashboardCacheTTL:   cfg.Dashboard.CacheTTL,
		LeaderboardCacheTTL: cfg.Leaderboard.CacheTTL,
	})
	authSvc := service.NewAuthService(nil, logr, service.AuthConfig{
		Password:       cfg.Admin.Password,
		PasswordBcrypt: cfg.Admin.PasswordBcrypt,
		JWTSecret:      cfg.Admin.JWTSecret,
		SessionTTL:     cfg.Admin.SessionTTL,
	})

	exportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	reportSvc := service.NewReportService(reportRepo, entryRepo, nil, exportStore, signer, metricsSvc, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
	})

	reportQueue := jobs.NewQueue("reports", reportSvc.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	reportSvc.SetQueue(reportQueue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reportQueue.Start(ctx)
	defer reportQueue.Stop()
	reportSvc.StartCleanup(ctx)

	// Handlers.
	entryHandler := handler.NewEntryHandler(entrySvc)
	factorHandler := handler.NewFactorHandler(factorSvc)
	verificationHandler := handler.NewVerificationHandler(verificationSvc)
	dashboardHandler := handler.NewDashboardHandler(aggregationSvc)
	adminHandler := handler.NewAdminHandler(authSvc, entrySvc)
	reportHandler := handler.NewReportHandler(reportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Public routes.
	r.POST("/entries", entryHandler.Submit)
	r.GET("/entries", entryHandler.List)
	r.GET("/factors", factorHandler.List)
	r.GET("/dashboard", dashboardHandler.Dashboard)
	r.GET("/leaderboard/classes", dashboardHandler.ClassLeaderboard)
	r.GET("/leaderboard/students", dashboardHandler.StudentLeaderboard)
	r.GET("/challenge/weekly", dashboardHandler.WeeklyChallenge)
	r.POST("/admin/login", adminHandler.Login)
	r.GET("/export/:token", reportHandler.Download)

	// Admin routes.
	admin := r.Group("/", middleware.AdminOnly(authSvc))
	admin.PUT("/factors/:category", factorHandler.Set)
	admin.POST("/entries/:id/verify", verificationHandler.Verify)
	admin.POST("/entries/verify-all", verificationHandler.VerifyAll)
	admin.POST("/admin/clear", adminHandler.ProposeClear)
	admin.POST("/admin/clear/confirm", adminHandler.ConfirmClear)
	admin.POST("/admin/reports", reportHandler.Create)
	admin.GET("/admin/reports/:id", reportHandler.Status)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "scoring_policy", carbonSvc.Policy())
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
