package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/webgis-dashboard/internal/database"
	"github.com/jengzang/webgis-dashboard/internal/models"
)

// StageResult counts rows copied into the staging tables
type StageResult struct {
	Points int `json:"points"`
	Cells  int `json:"cells"`
}

// Stage copies a point table and a grid table into the staging schema,
// replacing any previous contents. Both tables are written in one transaction.
func Stage(ctx context.Context, db *sql.DB, driver string, points []models.PointRecord, grid *models.GridTable) (*StageResult, error) {
	if err := database.NewMigrationManager(db, driver).RunMigrations(ctx); err != nil {
		return nil, err
	}

	insertPoint := database.Rebind(driver, "INSERT INTO "+database.PointsTable+
		" (store_name, company_name, store_address, longitude, latitude, store_status) VALUES (?, ?, ?, ?, ?, 1)")
	insertCell := database.Rebind(driver, "INSERT INTO "+database.GridTable+
		" (geometry_wkt, convenience_store_count, county_name) VALUES (?, ?, ?)")

	result := &StageResult{}
	err := database.Transaction(db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+database.PointsTable); err != nil {
			return fmt.Errorf("failed to clear points: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+database.GridTable); err != nil {
			return fmt.Errorf("failed to clear grid cells: %w", err)
		}

		for _, p := range points {
			if _, err := tx.ExecContext(ctx, insertPoint, p.StoreName, p.CompanyName, p.StoreAddress, p.Longitude, p.Latitude); err != nil {
				return fmt.Errorf("failed to insert point %q: %w", p.StoreName, err)
			}
			result.Points++
		}

		if grid == nil {
			return nil
		}
		for _, c := range grid.Cells {
			var county sql.NullString
			if grid.HasCounty {
				county = sql.NullString{String: c.CountyName, Valid: true}
			}
			if _, err := tx.ExecContext(ctx, insertCell, c.GeometryWKT, c.ConvenienceStoreCount, county); err != nil {
				return fmt.Errorf("failed to insert grid row %d: %w", c.Row, err)
			}
			result.Cells++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
