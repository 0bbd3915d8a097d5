package main

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"account-service/internal/handler"
	"account-service/internal/middleware"
	"account-service/internal/repository"
	"account-service/internal/search"
	"account-service/internal/service"
	"account-service/pkg/config"
	"account-service/pkg/database"
	"account-service/pkg/logger"
	"account-service/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load("account-service")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting account service...", zap.String("environment", cfg.Server.Env))

	// Initialize database and run migrations
	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed",
		zap.String("db_host", cfg.DB.Host),
		zap.String("db_name", cfg.DB.DBName))

	// Search sync publisher (best-effort, optional)
	var syncer search.Syncer = search.NopSyncer{}
	if cfg.Search.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Search.RedisAddr,
			Password: cfg.Search.RedisPassword,
			DB:       cfg.Search.RedisDB,
		})
		syncer = search.NewRedisSyncer(client, cfg.Search.Stream, log)
		log.Info("Search sync enabled",
			zap.String("redis_addr", cfg.Search.RedisAddr),
			zap.String("stream", cfg.Search.Stream))
	} else {
		log.Info("Search sync disabled")
	}

	// Wire services with explicit dependencies
	store := repository.NewGormStore(db)
	hierarchy := service.NewHierarchyService(store, log, cfg.Hierarchy.MaxDepth)
	accounts := service.NewAccountService(store, hierarchy, syncer, log)
	bulk := service.NewBulkService(accounts, log)

	accountHandler := handler.NewAccountHandler(accounts)
	hierarchyHandler := handler.NewHierarchyHandler(hierarchy, accounts)
	bulkHandler := handler.NewBulkHandler(bulk)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(middleware.TenantContext)

	// Request logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Process request
			err := next(c)

			// Calculate duration
			duration := time.Since(start).Seconds()
			status := c.Response().Status

			// Log request details
			log := logger.FromContext(c)
			log.Info("HTTP Request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Float64("duration_s", duration),
				zap.String("ip", c.RealIP()),
			)

			prometheus.HttpRequestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				strconv.Itoa(status),
			).Inc()

			prometheus.HttpRequestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
				strconv.Itoa(status),
			).Observe(duration)

			return err
		}
	})

	// Routes
	// Public routes that don't require tenant context
	e.GET("/", handler.Hello)
	e.GET("/health", handler.Hello)

	// Prometheus metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Account endpoints with tenant context requirement
	api := e.Group("/api")
	accountsGroup := api.Group("/accounts")
	accountsGroup.Use(middleware.RequireTenantContext)

	accountsGroup.POST("", accountHandler.Create)
	accountsGroup.GET("", accountHandler.List)
	accountsGroup.GET("/:id", accountHandler.Get)
	accountsGroup.PUT("/:id", accountHandler.Update)
	accountsGroup.DELETE("/:id", accountHandler.Delete)

	accountsGroup.GET("/:id/descendants", hierarchyHandler.Descendants)
	accountsGroup.GET("/:id/tree", hierarchyHandler.Tree)
	accountsGroup.PUT("/:id/parent", hierarchyHandler.Reparent)

	accountsGroup.POST("/bulk", bulkHandler.Apply)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
