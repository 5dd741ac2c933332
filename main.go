package main

import (
	"context"
	"log"

	"hsedash/internal/config"
	"hsedash/internal/container"
	"hsedash/ui"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	// Warm the cache so the first page view does not pay for normalization
	if _, err := appContainer.Service.Reload(context.Background()); err != nil {
		log.Printf("Initial load failed: %v", err)
	}

	if err := appContainer.ScheduleReload(appConfig.Data.ReloadSchedule); err != nil {
		log.Fatalf("Failed to schedule reloads: %v", err)
	}

	server, err := ui.NewServer(appContainer.Service, appConfig.Server.GinMode, appContainer.Logger)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	if err := server.Start(":" + appConfig.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
