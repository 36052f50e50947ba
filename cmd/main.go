package main

import (
	"context"
	"fmt"
	"log"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"flixstream/internal/caching"
	"flixstream/internal/config"
	"flixstream/internal/handlers"
	"flixstream/internal/jobs"
	"flixstream/internal/repositories"
	"flixstream/internal/services"
	"flixstream/pkg/database"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	cacheSvc := caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	subscriptionRepo := repositories.NewSubscriptionRepo(pool)

	provisioningSvc := services.NewProvisioningService(cfg.PanelAPIURL, cfg.PanelAPIKey, logger)
	mailerSvc := services.NewMailerService(services.SMTPConfig{
		Server:   cfg.SMTPServer,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		Sender:   cfg.SenderEmail,
	}, logger)
	subscriptionSvc := services.NewSubscriptionService(subscriptionRepo, provisioningSvc, mailerSvc, cacheSvc, logger)

	subscriptionHandlers := handlers.NewSubscriptionHandlers(subscriptionSvc, logger)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	reminderSvc := jobs.NewReminderService(subscriptionRepo, mailerSvc, cacheSvc, logger)
	sweepSvc := jobs.NewExpirySweepService(subscriptionRepo, cacheSvc, logger)
	scheduler, err := jobs.NewJobScheduler(reminderSvc, sweepSvc, logger)
	if err != nil {
		logger.Fatal("failed to create job scheduler", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	e := echo.New()

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	e.GET("/health", healthHandlers.HealthCheck)

	e.POST("/subscribe", subscriptionHandlers.Subscribe)
	e.GET("/subscriptions", subscriptionHandlers.ListSubscriptions)
	e.GET("/subscriptions/expiring", subscriptionHandlers.ListExpiringSubscriptions)
	e.GET("/subscriptions/:id", subscriptionHandlers.GetSubscription)
	e.POST("/subscriptions/:id/renew", subscriptionHandlers.RenewSubscription)
	e.GET("/stats", subscriptionHandlers.GetStats)

	logger.Info("flixstream server starting",
		zap.String("version", version),
		zap.Int("port", cfg.Port))

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", cfg.Port)))
}
