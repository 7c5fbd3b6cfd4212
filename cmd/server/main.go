package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	budgetapp "github.com/ficore/backend/internal/application/budget"
	creditapp "github.com/ficore/backend/internal/application/credit"
	"github.com/ficore/backend/internal/domain/shared"
	"github.com/ficore/backend/internal/infrastructure/auth"
	"github.com/ficore/backend/internal/infrastructure/cache"
	"github.com/ficore/backend/internal/infrastructure/config"
	"github.com/ficore/backend/internal/infrastructure/logger"
	"github.com/ficore/backend/internal/infrastructure/persistence"
	"github.com/ficore/backend/internal/infrastructure/telemetry"
	"github.com/ficore/backend/internal/interfaces/http/handler"
	"github.com/ficore/backend/internal/interfaces/http/middleware"
	"github.com/ficore/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log := logger.New(&cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Ficore credit ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Initialize tracing before anything that emits spans
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

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

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := db.EnableTracing(); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}

	// Initialize repositories
	balanceRepo := persistence.NewGormBalanceRepository(db.DB)
	transactionRepo := persistence.NewGormCreditTransactionRepository(db.DB)
	auditRepo := persistence.NewGormAuditLogRepository(db.DB)
	budgetRepo := persistence.NewGormBudgetRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Idempotency store: Redis when reachable, in-memory otherwise
	var idempotencyStore shared.IdempotencyStore
	redisStore, err := cache.NewRedisIdempotencyStore(&cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, falling back to in-memory idempotency store", zap.Error(err))
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
	} else {
		log.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr()))
		idempotencyStore = redisStore
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Initialize application services
	coordinator := creditapp.NewCoordinator(txScope, balanceRepo, transactionRepo, auditRepo, log)
	queryService := creditapp.NewQueryService(balanceRepo, transactionRepo, auditRepo)
	budgetService := budgetapp.NewService(coordinator, budgetRepo, actionCostsFromConfig(cfg.Credits), log)

	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize HTTP handlers
	creditHandler := handler.NewCreditHandler(coordinator, queryService, idempotencyStore, cfg.Credits.IdempotencyTTL)
	budgetHandler := handler.NewBudgetHandler(budgetService)
	systemHandler := handler.NewSystemHandler(handler.PingerFunc(db.PingContext), version)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing - Span per request (if enabled)
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.Enabled {
		engine.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health endpoints live outside API versioning and authentication
	systemHandler.RegisterRoutes(engine)

	// Setup authenticated API routes
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		Logger:     log,
	}
	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithMiddleware(middleware.JWTAuthMiddlewareWithConfig(jwtConfig)),
	)
	r.Register(creditHandler)
	r.Register(budgetHandler)
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

// actionCostsFromConfig converts the configured integer prices into decimals
func actionCostsFromConfig(cfg config.CreditsConfig) budgetapp.ActionCosts {
	return budgetapp.ActionCosts{
		CreateBudget:    decimal.NewFromInt(cfg.CreateBudget),
		DeleteBudget:    decimal.NewFromInt(cfg.DeleteBudget),
		DuplicateBudget: decimal.NewFromInt(cfg.DuplicateBudget),
		ExportBudget:    decimal.NewFromInt(cfg.ExportBudget),
		ExportHistory:   decimal.NewFromInt(cfg.ExportHistory),
	}
}
