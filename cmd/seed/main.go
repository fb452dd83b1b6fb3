package main

import (
	"context"
	"log"
	"time"

	"restaurant-ops/config"
	"restaurant-ops/internal/store"
	"restaurant-ops/internal/util"

	"go.uber.org/zap"
)

// seed applies the schema and upserts the starter menu into Postgres.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()
	logger := util.GetLogger()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	for _, item := range store.StarterMenu() {
		if err := db.UpsertMenuItem(ctx, item); err != nil {
			logger.Fatal("Failed to upsert menu item", zap.String("id", item.ID), zap.Error(err))
		}
		logger.Info("Menu item seeded", zap.String("id", item.ID), zap.String("name", item.Name))
	}
}
