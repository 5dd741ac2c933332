package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hsedash/adapters/api"
	"hsedash/internal/config"
	"hsedash/internal/container"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	c, err := container.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	if err := c.ScheduleReload(cfg.Data.ReloadSchedule); err != nil {
		log.Fatalf("Failed to schedule reloads: %v", err)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.APIPort,
		Handler:           api.NewHandler(c.Service, c.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		c.Logger.Info("[API] listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		c.Logger.Error("[API] shutdown: %v", err)
	}
	if err := c.Shutdown(ctx); err != nil {
		c.Logger.Error("[API] container shutdown: %v", err)
	}
}
