package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/webgis-dashboard/internal/models"
)

// PointRepository handles database reads of the point table
type PointRepository struct {
	db    *sql.DB
	query string
}

// NewPointRepository creates a new point repository
func NewPointRepository(db *sql.DB, query string) *PointRepository {
	return &PointRepository{db: db, query: query}
}

// GetPoints reads every point row returned by the configured statement
func (r *PointRepository) GetPoints(ctx context.Context) ([]models.PointRecord, error) {
	cols, rows, err := queryStrings(ctx, r.db, r.query)
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	return decodePoints("query", cols, rows)
}

// queryStrings runs a statement and returns its column names and every row as text
func queryStrings(ctx context.Context, db *sql.DB, query string) ([]string, [][]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	for rows.Next() {
		cells := make([]sql.NullString, len(cols))
		dest := make([]interface{}, len(cols))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make([]string, len(cols))
		for i, c := range cells {
			row[i] = c.String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return cols, out, nil
}
