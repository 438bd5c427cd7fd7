package seeder

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/alexivanou/placematch-api/internal/config"
	"github.com/alexivanou/placematch-api/internal/repository"
)

// Result summarizes an import
type Result struct {
	Countries int
	Cities    int
}

// Seed imports countries and cities from the GeoNames dumps in cfg.DataDir.
func Seed(ctx context.Context, repos *repository.Container, cfg config.SeederConfig, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	parser := NewParser(cfg)

	logger.Info("Parsing countries...", zap.String("data_dir", cfg.DataDir))
	countries, err := parser.ParseCountries()
	if err != nil {
		return nil, fmt.Errorf("failed to parse countries: %w", err)
	}

	logger.Info("Parsing cities...", zap.Int("min_population", cfg.MinPopulation))
	cities, err := parser.ParseCities(CountryCodeSet(countries))
	if err != nil {
		return nil, fmt.Errorf("failed to parse cities: %w", err)
	}

	logger.Info("Inserting countries...", zap.Int("count", len(countries)))
	if err := repos.Country.BulkInsertCountries(ctx, countries); err != nil {
		return nil, fmt.Errorf("failed to insert countries: %w", err)
	}

	logger.Info("Inserting cities...", zap.Int("count", len(cities)))
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1000
	}
	for start := 0; start < len(cities); start += batchSize {
		end := min(start+batchSize, len(cities))
		if err := repos.City.BulkInsertCities(ctx, cities[start:end]); err != nil {
			return nil, fmt.Errorf("failed to insert cities %d-%d: %w", start, end, err)
		}
		logger.Debug("Inserted cities batch", zap.Int("done", end), zap.Int("total", len(cities)))
	}

	return &Result{Countries: len(countries), Cities: len(cities)}, nil
}
