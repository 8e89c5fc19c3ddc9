package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"game-pulse/internal/collector"
	"game-pulse/internal/config"
	"game-pulse/internal/database"
	steamService "game-pulse/internal/services/steam"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()
	if cfg.SteamAPIKey == "" {
		log.Fatal("STEAM_API_KEY environment variable not set")
	}

	db, err := database.Initialize(cfg.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	steamSvc := steamService.NewService(cfg.SteamAPIKey)

	c := collector.NewSteamCollector(db, steamSvc, collector.SteamConfig{
		Interval:     cfg.CollectInterval,
		TopGames:     cfg.TopGames,
		RequestDelay: cfg.RequestDelay,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c.Run(ctx)
}
