package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/alexivanou/placematch-api/internal/model"
)

type pgCityRepository struct {
	db *sqlx.DB
}

func (r *pgCityRepository) SearchCities(ctx context.Context, name, countryCode string, limit int) ([]model.City, error) {
	q := `
		SELECT * FROM cities
		WHERE (LOWER(name) = LOWER($1) OR LOWER(ascii_name) = LOWER($1))
		  AND ($2 = '' OR country_code = UPPER($2))
		ORDER BY population DESC
		LIMIT $3
	`
	var cities []model.City
	if err := r.db.SelectContext(ctx, &cities, q, name, countryCode, limit); err != nil {
		return nil, err
	}
	return cities, nil
}

func (r *pgCityRepository) BulkInsertCities(ctx context.Context, cities []model.City) error {
	return chunks(cities, 1000, func(batch []model.City) error {
		_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO cities (id, country_code, name, ascii_name, population, lat, lon, timezone)
		VALUES (:id, :country_code, :name, :ascii_name, :population, :lat, :lon, :timezone)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			ascii_name = EXCLUDED.ascii_name,
			population = EXCLUDED.population`,
			batch)
		return err
	})
}

type pgCountryRepository struct {
	db *sqlx.DB
}

func (r *pgCountryRepository) FindCountry(ctx context.Context, nameOrCode string) (*model.Country, error) {
	q := `
		SELECT * FROM countries
		WHERE code = UPPER($1) OR LOWER(name) = LOWER($1)
		LIMIT 1
	`
	var country model.Country
	if err := r.db.GetContext(ctx, &country, q, nameOrCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &country, nil
}

func (r *pgCountryRepository) BulkInsertCountries(ctx context.Context, countries []model.Country) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO countries (code, name)
		VALUES (:code, :name)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name`,
		countries)
	return err
}
