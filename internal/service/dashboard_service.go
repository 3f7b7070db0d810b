package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/image/font/opentype"

	"github.com/jengzang/webgis-dashboard/internal/chart"
	"github.com/jengzang/webgis-dashboard/internal/colorscale"
	"github.com/jengzang/webgis-dashboard/internal/dataset"
	"github.com/jengzang/webgis-dashboard/internal/layer"
	"github.com/jengzang/webgis-dashboard/internal/models"
	"github.com/jengzang/webgis-dashboard/internal/render"
	"github.com/jengzang/webgis-dashboard/internal/repository"
	"github.com/jengzang/webgis-dashboard/internal/view"
)

// ErrInvalidCoordinate is returned by Pick for a lon/lat outside the globe
var ErrInvalidCoordinate = errors.New("coordinate out of range")

// PickResult is what lies under a map coordinate
type PickResult struct {
	Point *models.PointRecord `json:"point,omitempty"`
	Cell  *models.GridCell    `json:"cell,omitempty"`
}

// PointPage is one page of the linked table
type PointPage struct {
	Rows     []models.PointRow `json:"rows"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Info     view.FilterResult `json:"info"`
}

// DashboardService composes loaded datasets into render surfaces
type DashboardService struct {
	loader  *dataset.Loader
	source  repository.Source
	palette colorscale.BrandPalette
	face    *opentype.Font

	mu       sync.Mutex
	gridSnap *dataset.Snapshot
	gridLyr  *layer.PolygonLayer
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(loader *dataset.Loader, source repository.Source, palette colorscale.BrandPalette) *DashboardService {
	return &DashboardService{loader: loader, source: source, palette: palette}
}

// SetChartFace sets the font used for chart labels
func (s *DashboardService) SetChartFace(face *opentype.Font) {
	s.face = face
}

// Palette returns the brand palette
func (s *DashboardService) Palette() colorscale.BrandPalette {
	return s.palette
}

// Snapshot returns the current snapshot. The error reports failed datasets;
// the snapshot is still usable for the ones that loaded.
func (s *DashboardService) Snapshot(ctx context.Context) (*dataset.Snapshot, error) {
	return s.loader.Load(ctx, s.source)
}

// Reload reads the source again
func (s *DashboardService) Reload(ctx context.Context) (*dataset.Snapshot, error) {
	return s.loader.Reload(ctx, s.source)
}

// Datasets reports the status of both datasets
func (s *DashboardService) Datasets(ctx context.Context) []models.DatasetStatus {
	snap, _ := s.Snapshot(ctx)
	return snap.Status()
}

// Scene composes the layers for a state. The grid layer does not depend on
// the state and is built once per snapshot.
func (s *DashboardService) Scene(ctx context.Context, state view.State) *render.Scene {
	snap, _ := s.Snapshot(ctx)
	return render.Compose(snap, state, s.palette, s.gridLayer(snap))
}

func (s *DashboardService) gridLayer(snap *dataset.Snapshot) *layer.PolygonLayer {
	if snap.GridErr != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gridSnap != snap {
		s.gridLyr = layer.BuildPolygonLayer(snap.Grid.Cells)
		s.gridSnap = snap
	}
	return s.gridLyr
}

// GridLayer returns the grid layer of the current snapshot
func (s *DashboardService) GridLayer(ctx context.Context) (*layer.PolygonLayer, error) {
	snap, _ := s.Snapshot(ctx)
	if snap.GridErr != nil {
		return nil, snap.GridErr
	}
	return s.gridLayer(snap), nil
}

// Stats renders the county statistics surface
func (s *DashboardService) Stats(ctx context.Context) (render.StatsView, error) {
	snap, _ := s.Snapshot(ctx)
	if snap.GridErr != nil {
		return render.StatsView{}, snap.GridErr
	}
	return render.Stats(snap.Grid)
}

// CountyTotals returns county sums over the whole grid table
func (s *DashboardService) CountyTotals(ctx context.Context) ([]models.CountyTotal, error) {
	v, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return v.Table, nil
}

// WriteChart writes the county bar chart as PNG
func (s *DashboardService) WriteChart(ctx context.Context, w io.Writer) error {
	totals, err := s.CountyTotals(ctx)
	if err != nil {
		return err
	}
	return chart.CountyBars(w, totals, chart.DefaultOptions(s.face))
}

// Points returns one page of the filtered linked table
func (s *DashboardService) Points(ctx context.Context, f view.FilterState, page, pageSize int) (*PointPage, error) {
	snap, _ := s.Snapshot(ctx)
	if snap.PointsErr != nil {
		return nil, snap.PointsErr
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 100
	}

	result := view.FilterPoints(snap.Points.Points, f)
	start := (page - 1) * pageSize
	if start > len(result.Points) {
		start = len(result.Points)
	}
	end := start + pageSize
	if end > len(result.Points) {
		end = len(result.Points)
	}

	rows := make([]models.PointRow, 0, end-start)
	for _, p := range result.Points[start:end] {
		rows = append(rows, p.Row())
	}

	return &PointPage{Rows: rows, Total: result.Count, Page: page, PageSize: pageSize, Info: result}, nil
}

// Pick hit-tests the visible layers at a coordinate
func (s *DashboardService) Pick(ctx context.Context, state view.State, lon, lat float64) (PickResult, error) {
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return PickResult{}, fmt.Errorf("%w: (%v, %v)", ErrInvalidCoordinate, lon, lat)
	}

	sc := s.Scene(ctx, state)
	var res PickResult
	if state.Layers.Points && sc.PointLayer() != nil {
		if p, ok := sc.PointLayer().Pick(lon, lat); ok {
			res.Point = &p
		}
	}
	if state.Layers.Grid && sc.GridLayer() != nil {
		if c, ok := sc.GridLayer().Pick(lon, lat); ok {
			res.Cell = &c
		}
	}
	return res, nil
}

// IsDataLoadError reports whether err comes from a failed dataset load
func IsDataLoadError(err error) bool {
	var dle *repository.DataLoadError
	return errors.As(err, &dle)
}
