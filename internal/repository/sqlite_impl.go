package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/alexivanou/placematch-api/internal/model"
)

type sqliteCityRepository struct {
	db *sqlx.DB
}

func (r *sqliteCityRepository) SearchCities(ctx context.Context, name, countryCode string, limit int) ([]model.City, error) {
	q := `
		SELECT * FROM cities
		WHERE (LOWER(name) = LOWER(?) OR LOWER(ascii_name) = LOWER(?))
		  AND (? = '' OR country_code = UPPER(?))
		ORDER BY population DESC
		LIMIT ?
	`
	var cities []model.City
	if err := r.db.SelectContext(ctx, &cities, q, name, name, countryCode, countryCode, limit); err != nil {
		return nil, err
	}
	return cities, nil
}

func (r *sqliteCityRepository) BulkInsertCities(ctx context.Context, cities []model.City) error {
	// 100 rows * 8 columns stays under the SQLite variable limit
	return chunks(cities, 100, func(batch []model.City) error {
		_, err := r.db.NamedExecContext(ctx, `
		INSERT OR REPLACE INTO cities (id, country_code, name, ascii_name, population, lat, lon, timezone)
		VALUES (:id, :country_code, :name, :ascii_name, :population, :lat, :lon, :timezone)`,
			batch)
		return err
	})
}

type sqliteCountryRepository struct {
	db *sqlx.DB
}

func (r *sqliteCountryRepository) FindCountry(ctx context.Context, nameOrCode string) (*model.Country, error) {
	q := `
		SELECT * FROM countries
		WHERE code = UPPER(?) OR LOWER(name) = LOWER(?)
		LIMIT 1
	`
	var country model.Country
	if err := r.db.GetContext(ctx, &country, q, nameOrCode, nameOrCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &country, nil
}

func (r *sqliteCountryRepository) BulkInsertCountries(ctx context.Context, countries []model.Country) error {
	return chunks(countries, 200, func(batch []model.Country) error {
		_, err := r.db.NamedExecContext(ctx, `
		INSERT OR REPLACE INTO countries (code, name)
		VALUES (:code, :name)`,
			batch)
		return err
	})
}
