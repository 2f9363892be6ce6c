package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/hemline/merchtrack/internal/config"
	"github.com/hemline/merchtrack/internal/engine/entity"
	"github.com/hemline/merchtrack/internal/engine/handler"
	"github.com/hemline/merchtrack/internal/engine/policy"
	"github.com/hemline/merchtrack/internal/engine/repository"
	"github.com/hemline/merchtrack/internal/engine/service"
	"github.com/hemline/merchtrack/internal/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting merchtrack service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.Vendor{},
		&entity.VendorAlias{},
		&entity.PurchaseOrder{},
		&entity.Shipment{},
		&entity.Inspection{},
		&entity.ComplianceRecord{},
		&entity.ActiveProjection{},
		&entity.PoTask{},
	); err != nil {
		zapLogger.Fatal("Failed to migrate tables", zap.Error(err))
	}

	cache := initRedis(cfg.Redis)

	pol := buildPolicy(cfg.Engine)
	repos := repository.NewRepositories(db)
	services := service.NewServices(pol, repos, cache, zapLogger)
	handlers := handler.NewHandlers(services)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(zapLogger))
	r.Use(middleware.CORS())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(r, handlers)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exited")
}

func registerRoutes(r *gin.Engine, h *handler.Handlers) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	v1 := r.Group("/api/v1")
	{
		otd := v1.Group("/otd")
		{
			otd.GET("/summary", h.OTD.Summary)
			otd.GET("/monthly", h.OTD.Monthly)
			otd.GET("/monthly/export", h.OTD.ExportMonthly)
		}

		pos := v1.Group("/pos")
		{
			pos.GET("/at-risk", h.Risk.ListAtRisk)
			pos.GET("/:poNumber/risk", h.Risk.Assess)
			pos.GET("/:poNumber/missing-inspections", h.Risk.MissingInspections)
			pos.GET("/:poNumber/tasks", h.Task.ListByPO)
			pos.POST("/:poNumber/tasks/generate", h.Task.Generate)
		}

		projections := v1.Group("/projections")
		{
			projections.POST("/match", h.Projection.MatchBatch)
			projections.GET("/due", h.Projection.Due)
			projections.POST("/:id/match", h.Projection.ForceMatch)
			projections.POST("/:id/unmatch", h.Projection.Unmatch)
			projections.POST("/:id/write-off", h.Projection.WriteOff)
		}

		imports := v1.Group("/import")
		{
			imports.POST("/orders", h.Import.Orders)
			imports.POST("/shipments", h.Import.Shipments)
			imports.POST("/projections", h.Import.Projections)
		}

		tasks := v1.Group("/tasks")
		{
			tasks.POST("", h.Task.CreateManual)
			tasks.POST("/generate-batch", h.Task.GenerateBatch)
			tasks.PUT("/:id/complete", h.Task.Complete)
			tasks.PUT("/:id/reopen", h.Task.Reopen)
		}
	}
}

// buildPolicy overlays configured values onto the built-in policy defaults.
func buildPolicy(cfg config.EngineConfig) policy.Policy {
	pol := policy.Default()
	if cfg.MinReportYear > 0 {
		pol.MinReportYear = cfg.MinReportYear
	}
	if cfg.ProjectionDueThresholdDays > 0 {
		pol.ProjectionDueThreshold = cfg.ProjectionDueThresholdDays
	}
	if cfg.SignificantVariancePct > 0 {
		pol.SignificantVariancePct = cfg.SignificantVariancePct
	}
	if cfg.FranchisePOPrefix != "" {
		pol.FranchisePOPrefix = cfg.FranchisePOPrefix
	}
	if len(cfg.KnownCollections) > 0 {
		pol.KnownCollections = cfg.KnownCollections
	}
	return pol
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}
