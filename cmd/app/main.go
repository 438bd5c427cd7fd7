package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/alexivanou/placematch-api/internal/api"
	"github.com/alexivanou/placematch-api/internal/config"
	"github.com/alexivanou/placematch-api/internal/database"
	"github.com/alexivanou/placematch-api/internal/enrich"
	"github.com/alexivanou/placematch-api/internal/geo"
	"github.com/alexivanou/placematch-api/internal/llm"
	"github.com/alexivanou/placematch-api/internal/matcher"
	"github.com/alexivanou/placematch-api/internal/news"
	"github.com/alexivanou/placematch-api/internal/repository"
	"github.com/alexivanou/placematch-api/internal/seeder"
	"github.com/alexivanou/placematch-api/internal/service"
	"github.com/alexivanou/placematch-api/internal/stats"
	"github.com/alexivanou/placematch-api/internal/wiki"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Server.LogFormat)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx := context.Background()

	db, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to gazetteer", zap.String("type", string(cfg.DB.Type)))

	if err := runMigrations(db, cfg); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	repos := repository.NewRepositories(db, cfg.DB.Type)

	// The gazetteer only backs up Nominatim, so a failed seed is not fatal
	isEmpty, err := repository.IsDatabaseEmpty(ctx, db)
	if err != nil {
		logger.Warn("Failed to check if gazetteer is empty", zap.Error(err))
	} else if isEmpty {
		logger.Info("Gazetteer is empty, auto-seeding data...")
		res, err := seeder.Seed(ctx, repos, cfg.Seeder, logger)
		if err != nil {
			logger.Warn("Gazetteer seed skipped, geocoding relies on Nominatim only", zap.Error(err))
		} else {
			logger.Info("Gazetteer seeded", zap.Int("countries", res.Countries), zap.Int("cities", res.Cities))
		}
	}

	wikiClient := wiki.NewClient(cfg.Enrich, logger)
	enricher := enrich.New(enrich.Sources{
		Images:   wikiClient,
		News:     news.NewClient(cfg.Enrich, cfg.Policy, logger),
		Maps:     geo.NewGeocoder(cfg.Enrich, repos, logger),
		Websites: wikiClient,
	}, cfg.Enrich.Timeout, logger)

	svcCfg := service.Config{Version: cfg.Server.Version}
	var m service.Matcher
	completer, err := llm.New(ctx, cfg.LLM)
	switch {
	case errors.Is(err, llm.ErrMissingCredential):
		logger.Warn("Completion provider not configured, match requests will fail",
			zap.String("provider", string(cfg.LLM.Provider)),
			zap.String("env", cfg.LLM.CredentialEnv()),
		)
		svcCfg.ConfigErr = err
	case err != nil:
		logger.Fatal("Failed to create completion provider", zap.Error(err))
	default:
		m = matcher.New(completer, cfg.LLM.MaxTokens, logger)
		svcCfg.Mode = completer.Name()
	}

	svc := service.NewService(m, enricher, svcCfg, logger)
	router := api.NewRouter(svc, api.RouterConfig{
		Name:    cfg.Server.Name,
		Version: cfg.Server.Version,
		Policy:  cfg.Policy,
		Stats:   stats.NewCollector(db, cfg.DB),
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Matching waits on up to two completions plus enrichment
		WriteTimeout: 2*cfg.LLM.Timeout + 2*cfg.Enrich.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("port", cfg.Server.Port),
			zap.String("mode", svc.Mode()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(format string) (*zap.Logger, error) {
	if format == "console" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runMigrations(db *sqlx.DB, cfg *config.Config) error {
	var m *migrate.Migrate
	var err error

	if cfg.DB.IsMemory() {
		// Use the open handle; a second connection would see a different memory database
		driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
		if err != nil {
			return fmt.Errorf("could not create sqlite driver: %w", err)
		}
		m, err = migrate.NewWithDatabaseInstance("file://migrations/sqlite", "sqlite3", driver)
		if err != nil {
			return fmt.Errorf("could not create migrate instance: %w", err)
		}
	} else {
		m, err = migrate.New("file://migrations/postgres", cfg.DB.DSN())
		if err != nil {
			return err
		}
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
