package main

import (
	"context"
	"fmt"
	"os"

	"dompet/internal/config"
	"dompet/internal/database"
	"dompet/internal/logger"
	"dompet/internal/services"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Seed error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	created, err := services.NewCategoryService(dbManager.DB()).SeedDefaults(context.Background())
	if err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	logger.Get().Infow("Seeded default categories", "created", created)
	return nil
}
