package main

import (
	"context"
	"log"

	"pcgstreams/adapters/postgres"
	"pcgstreams/adapters/rng"
	"pcgstreams/internal"
	"pcgstreams/internal/api"
	"pcgstreams/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	internal.DefaultLogger.SetLevel(appConfig.Level())

	// Initialize the plan ledger
	db, err := postgres.Open(context.Background(), appConfig.Database)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	planRepo := postgres.NewPlanRepository(db)
	rngPort := rng.NewPCGAdapter(nil)

	server := api.NewServer(planRepo, rngPort, appConfig.Streams)
	if err := server.Start(":" + appConfig.Server.Port); err != nil {
		log.Fatal("Server failed:", err)
	}
}
