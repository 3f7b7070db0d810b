package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jengzang/webgis-dashboard/internal/models"
)

// Default statements for the remote tables. Only active stores are plotted.
const (
	DefaultPointsQuery = "SELECT * FROM aoc_major_supermart_202512 WHERE store_status = 1"
	DefaultGridQuery   = "SELECT * FROM gs_grid1000_taiwan_supermart_2025"
)

// QuerySource reads both tables from a SQL backend. It returns the same
// column shapes as FileSource.
type QuerySource struct {
	name   string
	points *PointRepository
	grid   *GridRepository
}

// NewQuerySource creates a query-backed source. name identifies the backend
// (driver and database) for caching.
func NewQuerySource(name string, db *sql.DB, pointsQuery, gridQuery string) *QuerySource {
	if pointsQuery == "" {
		pointsQuery = DefaultPointsQuery
	}
	if gridQuery == "" {
		gridQuery = DefaultGridQuery
	}
	return &QuerySource{
		name:   name,
		points: NewPointRepository(db, pointsQuery),
		grid:   NewGridRepository(db, gridQuery),
	}
}

// Identity implements Source
func (s *QuerySource) Identity() string {
	return "query:" + s.name
}

// ReadPoints implements Source
func (s *QuerySource) ReadPoints(ctx context.Context) ([]models.PointRecord, error) {
	points, err := s.points.GetPoints(ctx)
	if err != nil {
		return nil, s.wrap(DatasetPoints, err)
	}
	return points, nil
}

// ReadGrid implements Source
func (s *QuerySource) ReadGrid(ctx context.Context) (*models.GridTable, error) {
	table, err := s.grid.GetGridTable(ctx)
	if err != nil {
		return nil, s.wrap(DatasetGrid, err)
	}
	return table, nil
}

// wrap makes sure every failure surfaces as a DataLoadError naming this backend
func (s *QuerySource) wrap(dataset string, err error) error {
	var dle *DataLoadError
	if errors.As(err, &dle) {
		dle.Source = s.Identity()
		return dle
	}
	return &DataLoadError{Dataset: dataset, Source: s.Identity(), Err: fmt.Errorf("%w: %v", ErrUnreadable, err)}
}
