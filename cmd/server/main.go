package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appledger "github.com/openbooks/backend/internal/application/ledger"
	apppos "github.com/openbooks/backend/internal/application/pos"
	"github.com/openbooks/backend/internal/domain/pos"
	"github.com/openbooks/backend/internal/infrastructure/config"
	"github.com/openbooks/backend/internal/infrastructure/logger"
	"github.com/openbooks/backend/internal/infrastructure/metrics"
	"github.com/openbooks/backend/internal/infrastructure/persistence"
	infrapos "github.com/openbooks/backend/internal/infrastructure/pos"
	"github.com/openbooks/backend/internal/infrastructure/scheduler"
	"github.com/openbooks/backend/internal/interfaces/http/handler"
	"github.com/openbooks/backend/internal/interfaces/http/middleware"
	"github.com/openbooks/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting OpenBooks backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}

	// Optional Redis connection for the cross-instance sync lease
	var locker *redislock.Client
	if cfg.Redis.Enabled {
		redisClient := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis client", zap.Error(err))
			}
		}()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis unreachable, sync lease degraded to local guard", zap.Error(err))
		} else {
			locker = redislock.New(redisClient)
			log.Info("Redis connected, cross-instance sync lease enabled")
		}
		cancel()
	}

	// Initialize repositories
	saleRepo := persistence.NewPosSaleRepository(db.DB)
	storeRepo := persistence.NewStoreLocationRepository(db.DB)
	cursorRepo := persistence.NewSyncCursorRepository(db.DB)
	postingRepo := persistence.NewLedgerPostingRepository(db.DB)

	// Metrics registry shared by services, scheduler and the system endpoints
	registry := metrics.NewRegistry()

	// Provider adapters. The Loyverse adapter starts with the process-level
	// credentials; per-tenant credentials are registered at runtime.
	var loyverseCfg *infrapos.LoyverseConfig
	if cfg.Loyverse.APIKey != "" {
		loyverseCfg = &infrapos.LoyverseConfig{
			APIKey:         cfg.Loyverse.APIKey,
			APIBaseURL:     cfg.Loyverse.APIBaseURL,
			TimeoutSeconds: cfg.Loyverse.TimeoutSeconds,
			PageSize:       cfg.Loyverse.PageSize,
		}
	}
	loyverseAdapter, err := infrapos.NewLoyverseAdapter(loyverseCfg)
	if err != nil {
		log.Fatal("Failed to initialize Loyverse adapter", zap.Error(err))
	}
	providers := infrapos.NewRegistry(loyverseAdapter)

	// Initialize application services
	syncService := apppos.NewSyncService(
		providers, saleRepo, storeRepo, cursorRepo,
		registry, log, cfg.PosSync.ErrorAlertThreshold,
	)
	postingService := appledger.NewDailyPostingService(saleRepo, postingRepo, registry, log)

	// Background sync scheduler
	posScheduler, err := scheduler.NewPosSyncScheduler(
		scheduler.PosSyncSchedulerConfig{
			Enabled:    cfg.PosSync.SchedulerEnabled,
			Interval:   cfg.PosSync.Interval,
			RunTimeout: cfg.PosSync.RunTimeout,
			MaxHistory: cfg.PosSync.MaxHistory,
		},
		scheduler.SyncFunc(func(ctx context.Context, tenantID uuid.UUID, provider pos.ProviderCode, full bool) (*pos.SyncResult, error) {
			return syncService.Sync(ctx, apppos.SyncRequest{TenantID: tenantID, Provider: provider, Full: full})
		}),
		registry,
		locker,
		log,
	)
	if err != nil {
		log.Fatal("Failed to initialize sync scheduler", zap.Error(err))
	}
	if cfg.PosSync.SchedulerEnabled {
		// The default tenant is synced on the ticker when process-level
		// credentials exist; further targets are registered at runtime.
		if loyverseCfg != nil {
			posScheduler.RegisterTarget(handler.DefaultTenantID, pos.ProviderCodeLoyverse)
		}
		if err := posScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
		defer func() {
			if err := posScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping sync scheduler", zap.Error(err))
			}
		}()
		log.Info("Sync scheduler started",
			zap.Duration("interval", cfg.PosSync.Interval),
			zap.Duration("run_timeout", cfg.PosSync.RunTimeout),
		)
	}

	// Initialize HTTP handlers
	posHandler := handler.NewPosHandler(syncService, postingService, posScheduler, log)
	systemHandler := handler.NewSystemHandler(registry, db, cfg.Metrics.PrometheusEnabled)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := handler.RegisterValidations(); err != nil {
		log.Fatal("Failed to register binding validators", zap.Error(err))
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID, panic recovery, request logging,
	// security headers, CORS, body limit
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint outside API versioning, for load balancers
	engine.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "ok"})
	})

	// Register API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(posHandler).Register(systemHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
