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

	"github.com/gin-gonic/gin"

	"github.com/bikepool/bikepool/internal/api/handlers"
	"github.com/bikepool/bikepool/internal/api/routes"
	"github.com/bikepool/bikepool/internal/config"
	"github.com/bikepool/bikepool/internal/notify"
	"github.com/bikepool/bikepool/internal/repository/postgres"
	"github.com/bikepool/bikepool/internal/service/reservation"
	"github.com/bikepool/bikepool/internal/service/rides"
	"github.com/bikepool/bikepool/pkg/cache"
	"github.com/bikepool/bikepool/pkg/database"
	"github.com/bikepool/bikepool/pkg/logger"
	"github.com/bikepool/bikepool/pkg/mailer"
	"github.com/bikepool/bikepool/pkg/monitoring"
	"github.com/bikepool/bikepool/pkg/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting BikePool Application",
		logger.String("env", cfg.Server.Env),
		logger.String("port", cfg.Server.Port),
	)

	// Initialize New Relic
	nrApp, err := monitoring.New(monitoring.Config{
		LicenseKey: cfg.NewRelic.LicenseKey,
		AppName:    cfg.NewRelic.AppName,
		Enabled:    cfg.NewRelic.Enabled,
	})
	if err != nil {
		appLogger.Warn("Failed to initialize New Relic", logger.Err(err))
	} else if nrApp.IsEnabled() {
		appLogger.Info("New Relic APM initialized successfully",
			logger.String("app_name", cfg.NewRelic.AppName),
			logger.Bool("enabled", true))
	} else {
		appLogger.Info("New Relic APM disabled")
	}
	defer nrApp.Shutdown(10 * time.Second)

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cache.Config{
		Host:        cfg.Redis.Host,
		Port:        cfg.Redis.Port,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		MaxRetries:  cfg.Redis.MaxRetries,
		PoolSize:    cfg.Redis.PoolSize,
		MinIdleConn: cfg.Redis.MinIdleConn,
		DialTimeout: cfg.Redis.DialTimeout,
		ReadTimeout: cfg.Redis.ReadTimeout,
	})
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", logger.Err(err))
	}
	defer cache.Close(redisClient)

	appLogger.Info("Connected to Redis successfully")

	// Sample Redis pool statistics for APM while the server runs.
	if nrApp.IsEnabled() {
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				stats := redisClient.PoolStats()
				nrApp.RecordRedisPoolStats(map[string]interface{}{
					"hits":     stats.Hits,
					"misses":   stats.Misses,
					"timeouts": stats.Timeouts,
				})
			}
		}()
	}

	// Initialize PostgreSQL
	postgresDB, err := database.NewPostgresDB(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.MaxConns,
		MaxIdle:  cfg.Database.MaxIdle,
	})
	if err != nil {
		appLogger.Fatal("Failed to connect to PostgreSQL", logger.Err(err))
	}
	defer postgresDB.Close()

	appLogger.Info("Connected to PostgreSQL successfully")

	// Repositories
	repos := postgres.New(postgresDB)

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(appLogger)
	go wsHub.Run()

	// Outbound email dispatcher
	var send mailer.SendFunc = mailer.Discard
	if cfg.SMTP.Enabled {
		send = mailer.SMTPSender(mailer.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}
	dispatcher := mailer.NewDispatcher(send, cfg.SMTP.Workers, cfg.SMTP.QueueSize, appLogger)
	defer dispatcher.Close()

	// Services
	notifier := notify.NewService(repos.Notifications(), wsHub, appLogger)
	reservations := reservation.NewService(
		repos.Rides(), repos.Bookings(), notifier, dispatcher, repos.Users(),
		nrApp, appLogger, reservation.Config{
			MaxRetries:  cfg.Booking.MaxRetries,
			BackoffBase: cfg.Booking.BackoffBase,
		})
	rideSvc := rides.NewService(
		repos.Rides(), repos.Bookings(), repos.Ratings(), repos.Users(),
		notifier, appLogger)

	// Initialize handlers with dependencies
	h := handlers.NewHandlers(
		reservations, rideSvc,
		repos.Rides(), repos.Bookings(), repos.Users(), repos.Notifications(), repos.Messages(),
		redisClient, appLogger, wsHub, nrApp, cfg,
	)

	// Initialize Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Setup all routes
	if nrApp.IsEnabled() {
		routes.SetupRoutes(router, h, nrApp.Application)
	} else {
		routes.SetupRoutes(router, h, nil)
	}

	appLogger.Info("Routes configured successfully")

	// Create HTTP server
	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// Start server in a goroutine
	go func() {
		appLogger.Info("Server starting", logger.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", logger.Err(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", logger.Err(err))
	}

	appLogger.Info("Server stopped gracefully")
}
