package main

import (
	"context"
	"flag"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/alexivanou/placematch-api/internal/config"
	"github.com/alexivanou/placematch-api/internal/database"
	"github.com/alexivanou/placematch-api/internal/repository"
	"github.com/alexivanou/placematch-api/internal/seeder"
)

func main() {
	dataDir := flag.String("data", "", "GeoNames dump directory (overrides GAZETTEER_DATA_DIR)")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if *dataDir != "" {
		cfg.Seeder.DataDir = *dataDir
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Connected to database", zap.String("type", string(cfg.DB.Type)))

	// Memory gazetteers start without a schema
	if cfg.DB.IsMemory() {
		driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
		if err != nil {
			logger.Fatal("Failed to init migration driver", zap.Error(err))
		}
		m, err := migrate.NewWithDatabaseInstance("file://migrations/sqlite", "sqlite3", driver)
		if err != nil {
			logger.Fatal("Failed to init migration", zap.Error(err))
		}
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			logger.Fatal("Failed to run migration", zap.Error(err))
		}
	}

	repos := repository.NewRepositories(db, cfg.DB.Type)

	logger.Info("Starting gazetteer import...")
	res, err := seeder.Seed(ctx, repos, cfg.Seeder, logger)
	if err != nil {
		logger.Fatal("Gazetteer import failed", zap.Error(err))
	}

	logger.Info("Gazetteer import completed successfully!",
		zap.Int("countries", res.Countries),
		zap.Int("cities", res.Cities),
	)
}
