package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/jengzang/webgis-dashboard/internal/logger"
)

// Staging table names matching the default dataset queries
const (
	PointsTable = "aoc_major_supermart_202512"
	GridTable   = "gs_grid1000_taiwan_supermart_2025"
)

// Migration represents a schema migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrations creates the staging schema the query source reads from
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "create_points_table",
		SQL: `CREATE TABLE IF NOT EXISTS ` + PointsTable + ` (
			store_name TEXT NOT NULL,
			company_name TEXT NOT NULL,
			store_address TEXT NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			latitude DOUBLE PRECISION NOT NULL,
			store_status INTEGER NOT NULL DEFAULT 1
		)`,
	},
	{
		Version: 2,
		Name:    "create_grid_table",
		SQL: `CREATE TABLE IF NOT EXISTS ` + GridTable + ` (
			geometry_wkt TEXT NOT NULL,
			convenience_store_count INTEGER NOT NULL,
			county_name TEXT
		)`,
	},
}

// MigrationManager handles database migrations
type MigrationManager struct {
	db     *sql.DB
	driver string
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *sql.DB, driver string) *MigrationManager {
	return &MigrationManager{db: db, driver: driver}
}

// InitMigrationsTable creates the migrations tracking table
func (m *MigrationManager) InitMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := m.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// GetAppliedMigrations returns applied migration versions
func (m *MigrationManager) GetAppliedMigrations(ctx context.Context) (map[int]bool, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// ApplyMigration applies a single migration
func (m *MigrationManager) ApplyMigration(ctx context.Context, migration Migration) error {
	return Transaction(m.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		record := Rebind(m.driver, "INSERT INTO schema_migrations (version, name) VALUES (?, ?)")
		if _, err := tx.ExecContext(ctx, record, migration.Version, migration.Name); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
		return nil
	})
}

// RunMigrations runs all pending migrations
func (m *MigrationManager) RunMigrations(ctx context.Context) error {
	if err := m.InitMigrationsTable(ctx); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, migration := range Migrations {
		if applied[migration.Version] {
			continue
		}
		if err := m.ApplyMigration(ctx, migration); err != nil {
			return err
		}
		logger.L().Info("applied migration",
			zap.Int("version", migration.Version),
			zap.String("name", migration.Name))
	}

	return nil
}
