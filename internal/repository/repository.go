package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/alexivanou/placematch-api/internal/config"
	"github.com/alexivanou/placematch-api/internal/model"
)

// CityRepository defines gazetteer city operations
type CityRepository interface {
	// SearchCities returns cities whose name or ASCII name equals name
	// (case-insensitive), most populous first. An empty countryCode
	// searches every country.
	SearchCities(ctx context.Context, name, countryCode string, limit int) ([]model.City, error)
	BulkInsertCities(ctx context.Context, cities []model.City) error
}

// CountryRepository defines gazetteer country operations
type CountryRepository interface {
	// FindCountry matches an ISO code or an English country name.
	FindCountry(ctx context.Context, nameOrCode string) (*model.Country, error)
	BulkInsertCountries(ctx context.Context, countries []model.Country) error
}

// Container holds all repositories
type Container struct {
	City    CityRepository
	Country CountryRepository
}

// NewRepositories creates repository implementations based on DB type
func NewRepositories(db *sqlx.DB, dbType config.DBType) *Container {
	if dbType == config.DBTypePostgreSQL {
		return &Container{
			City:    &pgCityRepository{db: db},
			Country: &pgCountryRepository{db: db},
		}
	}

	return &Container{
		City:    &sqliteCityRepository{db: db},
		Country: &sqliteCountryRepository{db: db},
	}
}

// IsDatabaseEmpty reports whether the gazetteer has no cities. A missing
// table counts as empty.
func IsDatabaseEmpty(ctx context.Context, db *sqlx.DB) (bool, error) {
	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM cities"); err != nil {
		return true, nil
	}
	return count == 0, nil
}

func chunks[T any](items []T, size int, fn func([]T) error) error {
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		if err := fn(items[i:end]); err != nil {
			return err
		}
	}
	return nil
}
