package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"papertrade/internal/config"
	"papertrade/internal/database"
	"papertrade/internal/handlers"
	"papertrade/internal/logger"
	"papertrade/internal/market"
	"papertrade/internal/middleware"
	"papertrade/internal/services"
	"papertrade/internal/stoploss"
	"papertrade/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "papertrade/internal/docs" // Import swagger docs
)

// @title           Papertrade API
// @version         1.0
// @description     Papertrade is a paper-trading platform where users buy and sell stocks with simulated cash at live market prices, with automatic stop-loss liquidation.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Quote sources. Execution and the stop-loss monitor use only real
	// providers; the display chain appends the mock provider as a final
	// fallback so quote and chart endpoints keep working without keys.
	httpClient := &http.Client{Timeout: appConfig.QuoteTimeout}
	finnhub := market.NewFinnhubProvider(httpClient, appConfig.FinnhubAPIKey)
	yahoo := market.NewYahooProvider(httpClient)

	executionQuotes := market.NewCache(market.NewChain(log, finnhub, yahoo), appConfig.QuoteCacheTTL)
	displayQuotes := market.NewCache(market.NewChain(log, finnhub, yahoo, market.NewMockProvider()), appConfig.QuoteCacheTTL)

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db, appConfig.StartingBalance)
	tradeService := services.NewTradeService(db, executionQuotes)
	stopLossService := services.NewStopLossService(db, executionQuotes)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	tradeHandler := handlers.NewTradeHandler(tradeService, stopLossService)
	marketHandler := handlers.NewMarketHandler(displayQuotes)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Trade routes
	trades := protected.Group("/trades")
	trades.POST("/buy", tradeHandler.Buy)
	trades.POST("/sell", tradeHandler.Sell)

	// Portfolio and transaction history
	protected.GET("/portfolio", tradeHandler.GetPortfolio)
	protected.GET("/transactions", tradeHandler.GetTransactions)

	// Stop-loss routes
	protected.POST("/stop-loss", tradeHandler.SetStopLoss)
	protected.DELETE("/stop-loss/:symbol", tradeHandler.ClearStopLoss)

	// Market data routes
	marketGroup := protected.Group("/market")
	marketGroup.GET("/quote/:symbol", marketHandler.GetQuote)
	marketGroup.GET("/candles/:symbol", marketHandler.GetCandles)

	// Start the stop-loss monitor
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if appConfig.StopLossEnabled {
		monitor := stoploss.NewMonitor(stopLossService, tradeService, executionQuotes, appConfig.StopLossInterval, log)
		monitor.Start(ctx)
	} else {
		log.Info("Stop-loss monitor disabled")
	}

	log.Infof("Starting Papertrade backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
