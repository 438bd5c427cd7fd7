package stats

import (
	"context"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexivanou/placematch-api/internal/config"
	"github.com/alexivanou/placematch-api/internal/database"
)

func setupTestDB(t *testing.T) (*sqlx.DB, config.DBConfig) {
	cfg := config.DBConfig{Type: config.DBTypeMemory, Name: "stats_" + t.Name()}
	db, err := database.Connect(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	require.NoError(t, err)

	m, err := migrate.NewWithDatabaseInstance("file://../../migrations/sqlite", "sqlite3", driver)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	return db, cfg
}

func tableRows(st *Stats, name string) int64 {
	for _, ts := range st.Gazetteer.Tables {
		if ts.Name == name {
			return ts.RowCount
		}
	}
	return -1
}

func TestCollector_Collect(t *testing.T) {
	db, cfg := setupTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, "INSERT INTO countries (code, name) VALUES ('GB', 'United Kingdom'), ('FR', 'France')")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO cities (id, country_code, name, ascii_name, population, lat, lon)
		VALUES (2643743, 'GB', 'London', 'London', 8961989, 51.50853, -0.12574),
		       (2988507, 'FR', 'Paris', 'Paris', 2138551, 48.85341, 2.3488),
		       (2644210, 'GB', 'Liverpool', 'Liverpool', 864122, 53.41058, -2.97794)`)
	require.NoError(t, err)

	collector := NewCollector(db, cfg)

	st, err := collector.Collect(ctx)
	require.NoError(t, err)

	assert.Equal(t, "memory", st.Gazetteer.Type)
	assert.Equal(t, int64(5), st.Gazetteer.TotalRecords)
	assert.Equal(t, int64(2), tableRows(st, "countries"))
	assert.Equal(t, int64(3), tableRows(st, "cities"))
	assert.Equal(t, 2, st.Gazetteer.CountriesCovered)
	assert.Equal(t, "London", st.Gazetteer.LargestCity)

	assert.Greater(t, st.Memory.Alloc, uint64(0))
	assert.GreaterOrEqual(t, st.Runtime.NumGoroutines, 1)

	// Memory stats are cached between calls
	st2, err := collector.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, st.Memory.Alloc, st2.Memory.Alloc)
}

func TestCollector_EmptyDB(t *testing.T) {
	db, cfg := setupTestDB(t)

	st, err := NewCollector(db, cfg).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(0), st.Gazetteer.TotalRecords)
	assert.Len(t, st.Gazetteer.Tables, 2)
	assert.Zero(t, st.Gazetteer.CountriesCovered)
	assert.Empty(t, st.Gazetteer.LargestCity)
}

func TestCollector_ClosedDB(t *testing.T) {
	db, cfg := setupTestDB(t)
	require.NoError(t, db.Close())

	_, err := NewCollector(db, cfg).Collect(context.Background())
	assert.Error(t, err)
}
