package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"game-pulse/internal/collector"
	"game-pulse/internal/config"
	"game-pulse/internal/database"
	fortniteService "game-pulse/internal/services/fortnite"
	uefnService "game-pulse/internal/services/uefn"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()
	if cfg.EpicClientID == "" {
		log.Println("EPIC_CLIENT_ID not set; using unauthenticated ecosystem API access")
	}

	db, err := database.Initialize(cfg.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	uefnSvc := uefnService.NewService(cfg.EpicClientID, cfg.EpicClientSecret)
	shopSvc := fortniteService.NewService()

	c := collector.NewUEFNCollector(db, uefnSvc, shopSvc, collector.UEFNConfig{
		Interval:     cfg.CollectInterval,
		TopGames:     cfg.TopGames,
		RequestDelay: cfg.RequestDelay,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c.Run(ctx)
}
