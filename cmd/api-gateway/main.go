package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/school-records-api/api/swagger"
	"github.com/noah-isme/school-records-api/internal/handler"
	"github.com/noah-isme/school-records-api/internal/middleware"
	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/repository"
	"github.com/noah-isme/school-records-api/internal/service"
	"github.com/noah-isme/school-records-api/pkg/cache"
	"github.com/noah-isme/school-records-api/pkg/config"
	"github.com/noah-isme/school-records-api/pkg/database"
	"github.com/noah-isme/school-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-records-api/pkg/middleware/requestid"
)

// @title School Records API
// @version 0.1.0
// @description Grade aggregation and ranking service
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var cacheRepo *repository.CacheRepository
	if cfg.Grades.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, grade book cache disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	metricsSvc := service.NewMetricsService()

	assessmentRepo := repository.NewAssessmentRepository(db)
	cycleRepo := repository.NewGradingCycleRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	aggregateRepo := repository.NewAggregateRepository(db)
	gradeUow := repository.NewGradeUnitOfWork(db, cfg.Grades.BatchTxTimeout)

	rankSvc := service.NewRankService(aggregateRepo, cfg.Grades.RankChunkSize, logr)
	var gradeSvc *service.GradeService
	if cacheRepo != nil {
		gradeSvc = service.NewGradeService(assessmentRepo, cycleRepo, gradeUow, aggregateRepo, scoreRepo, rankSvc, cacheRepo, metricsSvc, cfg.Grades.CacheTTL, nil, logr)
	} else {
		gradeSvc = service.NewGradeService(assessmentRepo, cycleRepo, gradeUow, aggregateRepo, scoreRepo, rankSvc, nil, metricsSvc, cfg.Grades.CacheTTL, nil, logr)
	}
	exportSvc := service.NewExportService(aggregateRepo)
	authSvc := service.NewAuthService(cfg.JWT.Secret)

	gradeHandler := handler.NewGradeHandler(gradeSvc, exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	grades := r.Group(cfg.APIPrefix + "/grades")
	grades.Use(middleware.JWT(authSvc))
	grades.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher))
	{
		grades.POST("", gradeHandler.Submit)
		grades.GET("", gradeHandler.Query)
		grades.GET("/export", gradeHandler.Export)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
