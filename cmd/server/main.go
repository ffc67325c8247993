package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/primecut/pricing-service/config"
	_ "github.com/primecut/pricing-service/docs"
	"github.com/primecut/pricing-service/internal/database"
	"github.com/primecut/pricing-service/internal/handlers"
	"github.com/primecut/pricing-service/internal/middleware"
	"github.com/primecut/pricing-service/internal/preview"
	"github.com/primecut/pricing-service/internal/pricing"
	"github.com/primecut/pricing-service/internal/rules"
	"github.com/primecut/pricing-service/internal/sessions"
	"github.com/primecut/pricing-service/internal/telemetry"
)

// @title Pricing Service API
// @version 1.0
// @description Rule-based sell price calculation, rule authoring and session pricing.
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-Pricing-API-Key
func main() {
	cfg, err := config.Load(os.Getenv("PRICING_SERVICE_CONFIG"))
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.SetupLogger("pricing-service")

	logger.Info().Msg("Starting pricing service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.TelemetryInit())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, dbURL, "up"); err != nil {
			logger.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	if err := database.Connect(ctx, dbURL, cfg.Database.PoolConfig("pricing-service")); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("Database connected")

	engineCfg, err := cfg.PricingEngine()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid pricing configuration")
	}

	pool := database.Pool()
	ruleRepo := database.NewRuleRepository(pool)
	catalog := database.NewCatalogRepository(pool)
	lineItems := database.NewLineItemRepository(pool)
	snapshots := database.NewSnapshotRepository(pool)

	calc := pricing.NewCalculator(ruleRepo, engineCfg)
	pricer := pricing.NewBatchPricer(calc, engineCfg)
	handlers.InitPricing(
		ruleRepo,
		calc,
		catalog,
		preview.NewEngine(catalog, calc, cfg.Preview.MaxRows),
		sessions.NewService(lineItems, snapshots, ruleRepo, pricer),
	)

	checkDefaultRule(ctx, ruleRepo, &logger)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimitMiddleware(ctx, cfg.RateLimiter()))
	}
	{
		api.POST("/pricing/calculate", handlers.Calculate)

		ruleRoutes := api.Group("/rules")
		{
			ruleRoutes.GET("", handlers.ListRules)
			ruleRoutes.GET("/check", handlers.CheckRules)
			ruleRoutes.POST("/preview", handlers.PreviewRule)
			ruleRoutes.GET("/:id", handlers.GetRule)

			authoring := ruleRoutes.Group("")
			authoring.Use(middleware.RequireAPIKey(cfg.Server.APIKey))
			{
				authoring.POST("", handlers.CreateRule)
				authoring.PUT("/:id", handlers.UpdateRule)
				authoring.DELETE("/:id", handlers.DeleteRule)
			}
		}

		catalogRoutes := api.Group("/catalog")
		{
			catalogRoutes.GET("/categories", handlers.ListCategories)
			catalogRoutes.GET("/product-codes", handlers.ListProductCodes)
		}

		api.POST("/sessions/:id/apply-rules", handlers.ApplySessionRules)
		api.GET("/line-items/:id/pricing", handlers.GetLineItemPricing)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to flush telemetry")
	}

	logger.Info().Msg("Server exited")
}

// checkDefaultRule warns at startup when no rule can price every product.
// Pricing still runs; uncovered items fail with a configuration error.
func checkDefaultRule(ctx context.Context, provider rules.Provider, logger *zerolog.Logger) {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	all, err := provider.FindAll(checkCtx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load rules for startup check")
		return
	}
	if err := rules.CheckDefaultRule(all, time.Now()); err != nil {
		logger.Error().Err(err).Msg("Rule configuration has no default rule")
	}
	for _, r := range rules.BaseRuleConflicts(all, time.Now()) {
		logger.Warn().Int64("rule_id", r.ID).Str("rule", r.Name).Msg("Default rule overwrites the base price of an earlier default rule")
	}
}
