package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/webgis-dashboard/internal/models"
)

// GridRepository handles database reads of the grid table
type GridRepository struct {
	db    *sql.DB
	query string
}

// NewGridRepository creates a new grid repository
func NewGridRepository(db *sql.DB, query string) *GridRepository {
	return &GridRepository{db: db, query: query}
}

// GetGridTable reads every grid row returned by the configured statement
func (r *GridRepository) GetGridTable(ctx context.Context) (*models.GridTable, error) {
	cols, rows, err := queryStrings(ctx, r.db, r.query)
	if err != nil {
		return nil, fmt.Errorf("failed to query grid cells: %w", err)
	}
	return decodeGrid("query", cols, rows)
}
