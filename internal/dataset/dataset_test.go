package dataset

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/webgis-dashboard/internal/colorscale"
	"github.com/jengzang/webgis-dashboard/internal/models"
	"github.com/jengzang/webgis-dashboard/internal/repository"
)

const (
	cellA = "POLYGON ((121.50 25.00, 121.51 25.00, 121.51 25.01, 121.50 25.01, 121.50 25.00))"
	cellB = "POLYGON ((121.51 25.00, 121.52 25.00, 121.52 25.01, 121.51 25.01, 121.51 25.00))"
)

// memorySource serves fixed tables and counts reads
type memorySource struct {
	id        string
	points    []models.PointRecord
	grid      *models.GridTable
	pointsErr error
	gridErr   error
	delay     time.Duration
	reads     atomic.Int32
}

func (s *memorySource) Identity() string { return s.id }

func (s *memorySource) ReadPoints(ctx context.Context) ([]models.PointRecord, error) {
	s.reads.Add(1)
	time.Sleep(s.delay)
	if s.pointsErr != nil {
		return nil, s.pointsErr
	}
	return append([]models.PointRecord(nil), s.points...), nil
}

func (s *memorySource) ReadGrid(ctx context.Context) (*models.GridTable, error) {
	if s.gridErr != nil {
		return nil, s.gridErr
	}
	cells := append([]models.GridCell(nil), s.grid.Cells...)
	return &models.GridTable{Cells: cells, HasCounty: s.grid.HasCounty}, nil
}

func samplePoints() []models.PointRecord {
	return []models.PointRecord{
		{StoreName: "A", CompanyName: "統一超商股份有限公司", StoreAddress: "addr 1", Longitude: 121.505, Latitude: 25.005},
		{StoreName: "B", CompanyName: "全家便利商店股份有限公司", StoreAddress: "addr 2", Longitude: 121.515, Latitude: 25.005},
		{StoreName: "C", CompanyName: "無名商行", StoreAddress: "addr 3", Longitude: 121.6, Latitude: 25.1},
	}
}

func sampleGrid() *models.GridTable {
	return &models.GridTable{
		HasCounty: true,
		Cells: []models.GridCell{
			{Row: 1, GeometryWKT: cellA, ConvenienceStoreCount: 2, CountyName: "臺北市"},
			{Row: 2, GeometryWKT: cellB, ConvenienceStoreCount: 10, CountyName: "臺北市"},
			{Row: 3, GeometryWKT: "POLYGON ((1 2, 3 4", ConvenienceStoreCount: 50, CountyName: "新北市"},
		},
	}
}

func newSource() *memorySource {
	return &memorySource{id: "mem", points: samplePoints(), grid: sampleGrid()}
}

func TestAnnotatePointsThreeCompanies(t *testing.T) {
	raw := samplePoints()
	ds := AnnotatePoints(raw, colorscale.DefaultPalette())

	require.Len(t, ds.Points, 3)
	assert.Equal(t, models.RGBA{235, 120, 35, 200}, ds.Points[0].Color)
	assert.Equal(t, models.RGBA{0, 100, 180, 200}, ds.Points[1].Color)
	assert.Equal(t, models.RGBA{150, 150, 150, 150}, ds.Points[2].Color)
	assert.Contains(t, ds.Points[0].Tooltip, "📍 A")
	assert.Contains(t, ds.Points[0].Tooltip, "品牌:</b> 統一超商股份有限公司")

	// input untouched
	assert.Empty(t, raw[0].Tooltip)
	assert.Equal(t, models.RGBA{}, raw[0].Color)
}

func TestPointTooltipEscapesMarkup(t *testing.T) {
	html := PointTooltip(models.PointRecord{StoreName: "<script>x</script>", CompanyName: "A&B", StoreAddress: `"q"`})
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "A&amp;B")
}

func TestGridTooltip(t *testing.T) {
	html := GridTooltip(models.GridCell{ConvenienceStoreCount: 7})
	assert.Contains(t, html, "▣ 1km 統計網格")
	assert.Contains(t, html, "區域總店數:</b> 7 筆")
}

func TestAnnotateGrid(t *testing.T) {
	raw := sampleGrid()
	ds := AnnotateGrid(raw)

	// range covers the excluded row too
	assert.Equal(t, models.CountRange{Min: 2, Max: 50}, ds.Range)
	assert.True(t, ds.HasCounty)
	require.Len(t, ds.Cells, 3)
	require.Len(t, ds.Excluded, 1)
	assert.Equal(t, 3, ds.Excluded[0].Row)
	assert.NotEmpty(t, ds.Excluded[0].Reason)

	assert.True(t, ds.Cells[0].Renderable())
	assert.False(t, ds.Cells[2].Renderable())
	assert.Len(t, ds.Renderable(), 2)

	assert.Equal(t, colorscale.ColorForCount(2, 2, 50), ds.Cells[0].FillColor)
	assert.Equal(t, models.RGBA{255, 255, 204, 160}, ds.Cells[0].FillColor)
	assert.Equal(t, cellA, ds.Cells[0].GeometryWKT)
	assert.Equal(t, "臺北市", ds.Cells[0].CountyName)

	assert.Nil(t, raw.Cells[0].Geometry)
	assert.Empty(t, raw.Cells[0].Tooltip)
}

func TestAnnotateGridEmpty(t *testing.T) {
	ds := AnnotateGrid(&models.GridTable{})
	assert.Empty(t, ds.Cells)
	assert.Equal(t, models.CountRange{}, ds.Range)
}

func TestLoaderCachesBySource(t *testing.T) {
	src := newSource()
	l := NewLoader(colorscale.DefaultPalette(), nil)
	ctx := context.Background()

	first, err := l.Load(ctx, src)
	require.NoError(t, err)
	second, err := l.Load(ctx, src)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.EqualValues(t, 1, src.reads.Load())
	assert.True(t, first.Complete())
	assert.False(t, first.LoadedAt.IsZero())
}

func TestLoaderDeduplicatesConcurrentLoads(t *testing.T) {
	src := newSource()
	src.delay = 20 * time.Millisecond
	l := NewLoader(colorscale.DefaultPalette(), nil)

	var wg sync.WaitGroup
	snaps := make([]*Snapshot, 8)
	for i := range snaps {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snaps[i], _ = l.Load(context.Background(), src)
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, src.reads.Load())
	for _, s := range snaps {
		assert.Same(t, snaps[0], s)
	}
}

func TestLoaderReloadSwapsSnapshot(t *testing.T) {
	src := newSource()
	l := NewLoader(colorscale.DefaultPalette(), nil)
	ctx := context.Background()

	old, err := l.Load(ctx, src)
	require.NoError(t, err)

	src.points = src.points[:1]
	fresh, err := l.Reload(ctx, src)
	require.NoError(t, err)
	assert.NotSame(t, old, fresh)
	assert.Len(t, fresh.Points.Points, 1)
	assert.Len(t, old.Points.Points, 3)

	cached, err := l.Load(ctx, src)
	require.NoError(t, err)
	assert.Same(t, fresh, cached)
}

func TestLoaderFailedReloadKeepsPrevious(t *testing.T) {
	src := newSource()
	l := NewLoader(colorscale.DefaultPalette(), nil)
	ctx := context.Background()

	old, err := l.Load(ctx, src)
	require.NoError(t, err)

	src.gridErr = &repository.DataLoadError{Dataset: repository.DatasetGrid, Source: "mem", Err: repository.ErrUnreadable}
	failed, err := l.Reload(ctx, src)
	require.Error(t, err)
	assert.False(t, failed.Complete())
	assert.Same(t, old, l.Cached(src.Identity()))
}

func TestLoaderIsolatesDatasetFailures(t *testing.T) {
	src := newSource()
	src.pointsErr = &repository.DataLoadError{Dataset: repository.DatasetPoints, Source: "mem", Column: "latitude", Err: repository.ErrMissingColumn}
	l := NewLoader(colorscale.DefaultPalette(), nil)

	snap, err := l.Load(context.Background(), src)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrMissingColumn)
	assert.Nil(t, snap.Points)
	require.NotNil(t, snap.Grid)
	assert.Len(t, snap.Grid.Cells, 3)

	var dle *repository.DataLoadError
	assert.True(t, errors.As(snap.PointsErr, &dle))

	// incomplete snapshots are not cached as complete, and are retried after the backoff
	assert.Nil(t, l.Cached(src.Identity()))
	src.pointsErr = nil
	l.now = func() time.Time { return time.Now().Add(DefaultRetryAfter) }
	snap, err = l.Load(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, snap.Complete())
}

func TestLoaderBacksOffAfterFailure(t *testing.T) {
	src := newSource()
	src.pointsErr = &repository.DataLoadError{Dataset: repository.DatasetPoints, Source: "mem", Err: repository.ErrUnreadable}
	l := NewLoader(colorscale.DefaultPalette(), nil)
	ctx := context.Background()

	clock := time.Now()
	l.now = func() time.Time { return clock }

	first, err := l.Load(ctx, src)
	require.ErrorIs(t, err, repository.ErrUnreadable)
	for i := 0; i < 5; i++ {
		again, err := l.Load(ctx, src)
		assert.ErrorIs(t, err, repository.ErrUnreadable)
		assert.Same(t, first, again)
	}
	assert.EqualValues(t, 1, src.reads.Load())

	// the grid stays usable from the backed-off snapshot
	require.NotNil(t, first.Grid)

	clock = clock.Add(l.RetryAfter)
	src.pointsErr = nil
	fresh, err := l.Load(ctx, src)
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.reads.Load())
	assert.True(t, fresh.Complete())
	assert.Same(t, fresh, l.Cached(src.Identity()))

	// an explicit invalidation retries at once
	l.Invalidate(src.Identity())
	src.gridErr = errors.New("gone")
	_, err = l.Load(ctx, src)
	require.Error(t, err)
	l.Invalidate(src.Identity())
	_, _ = l.Load(ctx, src)
	assert.EqualValues(t, 4, src.reads.Load())
}

func TestSnapshotStatus(t *testing.T) {
	src := newSource()
	src.pointsErr = errors.New("unreadable")
	snap, _ := NewLoader(colorscale.DefaultPalette(), nil).Load(context.Background(), src)

	status := snap.Status()
	require.Len(t, status, 2)
	assert.Equal(t, repository.DatasetPoints, status[0].Name)
	assert.False(t, status[0].Loaded)
	assert.Equal(t, "unreadable", status[0].Error)

	assert.True(t, status[1].Loaded)
	assert.Equal(t, 3, status[1].Rows)
	assert.Equal(t, &models.CountRange{Min: 2, Max: 50}, status[1].Range)
	assert.Len(t, status[1].Warnings, 1)
}
