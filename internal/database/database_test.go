package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexivanou/placematch-api/internal/config"
)

func TestDriver(t *testing.T) {
	assert.Equal(t, "sqlite3", Driver(config.DBConfig{Type: config.DBTypeMemory}))
	assert.Equal(t, "pgx", Driver(config.DBConfig{Type: config.DBTypePostgreSQL}))
}

func TestConnect_Memory(t *testing.T) {
	db, err := Connect(context.Background(), config.DBConfig{Type: config.DBTypeMemory, Name: "conn_test"})
	require.NoError(t, err)
	defer db.Close()

	var fk int
	require.NoError(t, db.Get(&fk, "PRAGMA foreign_keys"))
	assert.Equal(t, 1, fk)
}
