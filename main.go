package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/roomly/roomly-be/config"
	"github.com/roomly/roomly-be/controllers"
	"github.com/roomly/roomly-be/gateway"
	"github.com/roomly/roomly-be/push"
	"github.com/roomly/roomly-be/routes"
	"github.com/roomly/roomly-be/services"
	"github.com/roomly/roomly-be/store"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	// Connect to database and run migrations
	config.ConnectDatabase(cfg)
	sqlDB, err := config.GetSQLDB()
	if err != nil {
		log.Fatal("Failed to get database handle:", err)
	}
	if err := config.RunMigrations(sqlDB); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Start the WebSocket hub
	config.InitializeWebSocketHub()

	// External collaborators
	calendar := gateway.NewClient(cfg.CalendarBaseURL, cfg.CalendarToken)
	directory := gateway.NewDirectory(cfg.DirectoryBaseURL, cfg.DirectoryToken)
	userStore := store.NewUserStore()
	sender := push.NewWebPush(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubscriber)

	// Core services
	notifier := services.NewNotificationScheduler(userStore, sender, cfg.NotifyLead)
	if err := notifier.Rehydrate(context.Background()); err != nil {
		log.Fatal("Failed to rehydrate notification timers:", err)
	}
	resolver := services.NewAvailabilityResolver(calendar, directory)
	orchestrator := services.NewBookingOrchestrator(calendar, directory, notifier)
	mutator := services.NewBookingMutator(calendar, resolver, notifier, cfg.Timezone)
	authService := services.NewAuthService(cfg.JWTSecret)

	// Setup routes
	r := routes.SetupRoutes(
		cfg.JWTSecret,
		controllers.NewAuthController(authService),
		controllers.NewBookingController(orchestrator, mutator, resolver, cfg.Timezone),
		controllers.NewNotificationController(notifier),
	)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
