package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jengzang/webgis-dashboard/internal/models"
)

// Dataset names
const (
	DatasetPoints = "points"
	DatasetGrid   = "grid"
)

// Load failure causes
var (
	ErrUnreadable     = errors.New("source unreadable")
	ErrMissingColumn  = errors.New("missing required column")
	ErrMalformedValue = errors.New("malformed value")
)

// Source provides the point table and the grid table.
// Implementations must return every row or an error, never a partial table.
type Source interface {
	// Identity names the underlying data so loads can be cached per source
	Identity() string

	// ReadPoints reads the full point table
	ReadPoints(ctx context.Context) ([]models.PointRecord, error)

	// ReadGrid reads the full grid table
	ReadGrid(ctx context.Context) (*models.GridTable, error)
}

// DataLoadError reports a dataset that could not be loaded completely
type DataLoadError struct {
	Dataset string // DatasetPoints or DatasetGrid
	Source  string
	Row     int    // 1-based data row, 0 when not row specific
	Column  string // Offending column, empty when not column specific
	Err     error
}

func (e *DataLoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to load %s dataset from %s", e.Dataset, e.Source)
	if e.Row > 0 {
		fmt.Fprintf(&b, ": row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ": column %s", e.Column)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}
