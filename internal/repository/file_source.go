package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/jengzang/webgis-dashboard/internal/models"
)

// FileSource reads both tables from local CSV files
type FileSource struct {
	PointsPath string
	GridPath   string
}

// NewFileSource creates a new CSV file source
func NewFileSource(pointsPath, gridPath string) *FileSource {
	return &FileSource{PointsPath: pointsPath, GridPath: gridPath}
}

// Identity implements Source
func (s *FileSource) Identity() string {
	return fmt.Sprintf("file:%s|%s", absPath(s.PointsPath), absPath(s.GridPath))
}

// ReadPoints implements Source
func (s *FileSource) ReadPoints(ctx context.Context) ([]models.PointRecord, error) {
	cols, rows, err := readCSV(ctx, s.PointsPath)
	if err != nil {
		return nil, &DataLoadError{Dataset: DatasetPoints, Source: s.PointsPath, Err: err}
	}
	return decodePoints(s.PointsPath, cols, rows)
}

// ReadGrid implements Source
func (s *FileSource) ReadGrid(ctx context.Context) (*models.GridTable, error) {
	cols, rows, err := readCSV(ctx, s.GridPath)
	if err != nil {
		return nil, &DataLoadError{Dataset: DatasetGrid, Source: s.GridPath, Err: err}
	}
	return decodeGrid(s.GridPath, cols, rows)
}

// readCSV reads a whole CSV file as UTF-8. A leading byte-order mark is
// dropped. Cells may still hold invalid bytes after a UTF-8 BOM; the decode
// step replaces them with U+FFFD.
func readCSV(ctx context.Context, path string) ([]string, [][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	r := csv.NewReader(transform.NewReader(f, decoder))

	cols, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: empty file", ErrUnreadable)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read header: %v", ErrUnreadable, err)
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	return cols, rows, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
