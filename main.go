package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"pricelens/config"
	"pricelens/handlers"
	"pricelens/middleware"
	"pricelens/services"
	"pricelens/utils"
)

func main() {
	// 1. Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Println("=== Configuration ===")
	log.Printf("Server: %s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Engine mode: %s", cfg.Engine.Mode)
	log.Printf("Redis: %s", cfg.Redis.Address)
	log.Printf("MongoDB: %s", cfg.MongoDB.Database)

	// 2. Core Services
	geo := utils.NewGeoResolver(cfg.GeoIP.DBPath)
	defer geo.Close()

	mongoService, err := services.NewMongoDBService(cfg)
	if err != nil {
		log.Printf("⚠️  MongoDB connection failed: %v", err)
		log.Println("Saved calculations and analytics will not persist")
		mongoService = nil
	}
	if mongoService != nil {
		defer mongoService.Close()
	}

	discordBot, err := services.NewDiscordService(cfg.Discord.BotToken, cfg.Discord.ChannelID)
	if err != nil {
		log.Printf("⚠️  Discord bot initialization failed: %v", err)
		log.Println("Analytics digests will be disabled")
		discordBot = nil
	} else if discordBot != nil {
		defer discordBot.Close()
		log.Println("✓ Discord Bot connected")
	}

	cache := services.NewCacheService(cfg)
	calculatorService := services.NewCalculatorService(services.EngineMode(cfg.Engine.Mode))
	libraryService := services.NewLibraryService(mongoService)
	shareService := services.NewShareService(cache)
	analyticsService := services.NewAnalyticsService(cfg, mongoService, geo, discordBot)
	collabService := services.NewCollabService(cfg.TypingTimeoutDuration(), cfg.Collab.MaxParticipants)

	// 3. Start Background Services
	log.Println("=== Starting Services ===")

	cache.Start()
	log.Println("✓ Cache Service started")
	log.Printf("   Mode: %s", cache.GetCacheMode())

	if err := libraryService.LoadFromDB(); err != nil {
		log.Printf("Warning: Failed to load saved calculations: %v", err)
	}

	analyticsService.Start()
	log.Println("✓ Analytics Service started")

	log.Println("=== All Services Running ===")

	// 4. Web Server
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.LoggerMiddleware())
	e.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Recovered from panic: %v", r)
					c.Error(fmt.Errorf("internal server error"))
				}
			}()
			return next(c)
		}
	})

	// 5. Handlers
	systemHandlers := handlers.NewSystemHandlers(cache, collabService)
	cacheHandlers := handlers.NewCacheHandlers(cache)
	calculatorHandlers := handlers.NewCalculatorHandlers(calculatorService, cache, analyticsService)
	libraryHandlers := handlers.NewLibraryHandlers(libraryService, calculatorService)
	shareHandlers := handlers.NewShareHandlers(shareService, calculatorService)
	analyticsHandlers := handlers.NewAnalyticsHandlers(analyticsService)
	checkoutHandlers := handlers.NewCheckoutHandlers(analyticsService, cfg)
	widgetHandlers := handlers.NewWidgetHandlers(cfg)
	collabHandlers := handlers.NewCollabHandlers(collabService)

	// 6. Routes
	// System
	e.GET("/health", systemHandlers.GetHealth)
	e.GET("/cache/status", cacheHandlers.GetCacheStatus)
	e.POST("/cache/clear", cacheHandlers.ClearCache)

	api := e.Group("/api")

	api.GET("/status", systemHandlers.GetStatus)

	// Calculator endpoints
	calculator := api.Group("/calculator")
	calculator.POST("/compute", calculatorHandlers.Compute)
	calculator.GET("/compute", calculatorHandlers.ComputeQuery)

	// Saved calculation library
	calculations := api.Group("/calculations")
	calculations.POST("", libraryHandlers.SaveCalculation)
	calculations.GET("", libraryHandlers.ListCalculations)
	calculations.GET("/export", libraryHandlers.ExportLibrary)
	calculations.GET("/:id", libraryHandlers.GetCalculation)
	calculations.PUT("/:id", libraryHandlers.RenameCalculation)
	calculations.DELETE("/:id", libraryHandlers.DeleteCalculation)

	// Share links
	api.POST("/share", shareHandlers.CreateShare)
	api.GET("/share/:token", shareHandlers.ResolveShare)

	// Analytics endpoints
	analytics := api.Group("/analytics")
	analytics.GET("/summary", analyticsHandlers.GetSummary)
	analytics.GET("/by-country", analyticsHandlers.GetByCountry)

	// Checkout + widget
	api.POST("/checkout/click", checkoutHandlers.RecordClick)
	api.GET("/widget/version", widgetHandlers.CheckVersion)

	// Collaborative sessions
	e.GET("/ws/calculator/:session", collabHandlers.HandleSession)
	api.GET("/sessions/:session/participants", collabHandlers.GetParticipants)

	// 7. Start Server with Graceful Shutdown
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	go func() {
		log.Printf("🚀 Server running on http://%s", serverAddr)

		if err := e.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("shutting down the server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("⏳ Graceful shutdown initiated...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop Background Services
	log.Println("Stopping services...")
	analyticsService.Stop()
	cache.Stop()
	log.Println("✓ All services stopped")

	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
	log.Println("✓ Server exited cleanly")
}
