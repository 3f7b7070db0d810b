package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempConfig(t *testing.T) Config {
	t.Helper()
	return Config{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "stage.db")}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle", DSN: "x"})
	assert.Error(t, err)
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	db, err := Open(tempConfig(t))
	require.NoError(t, err)
	defer db.Close()

	m := NewMigrationManager(db, DriverSQLite)
	ctx := context.Background()
	require.NoError(t, m.RunMigrations(ctx))
	require.NoError(t, m.RunMigrations(ctx))

	applied, err := m.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, len(Migrations))

	_, err = db.Exec("INSERT INTO "+PointsTable+" (store_name, company_name, store_address, longitude, latitude) VALUES (?, ?, ?, ?, ?)",
		"A", "統一超商股份有限公司", "addr", 121.5, 25.0)
	assert.NoError(t, err)
}

func TestRebind(t *testing.T) {
	q := "INSERT INTO t (a, b) VALUES (?, ?)"
	assert.Equal(t, q, Rebind(DriverSQLite, q))
	assert.Equal(t, "INSERT INTO t (a, b) VALUES ($1, $2)", Rebind(DriverPostgres, q))
}
