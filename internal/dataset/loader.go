package dataset

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jengzang/webgis-dashboard/internal/colorscale"
	"github.com/jengzang/webgis-dashboard/internal/logger"
	"github.com/jengzang/webgis-dashboard/internal/metrics"
	"github.com/jengzang/webgis-dashboard/internal/models"
	"github.com/jengzang/webgis-dashboard/internal/repository"
)

// Snapshot is one load of a source. Each dataset carries its own result:
// a failed point table leaves the grid usable and the other way round.
// Snapshots are never modified after Load returns them.
type Snapshot struct {
	Source   string
	LoadedAt time.Time

	Points    *PointDataset
	PointsErr error

	Grid    *GridDataset
	GridErr error
}

// Complete reports whether both datasets loaded
func (s *Snapshot) Complete() bool {
	return s.PointsErr == nil && s.GridErr == nil
}

// Err joins the dataset errors, nil when the snapshot is complete
func (s *Snapshot) Err() error {
	return errors.Join(s.PointsErr, s.GridErr)
}

// Status summarizes both datasets
func (s *Snapshot) Status() []models.DatasetStatus {
	points := models.DatasetStatus{Name: repository.DatasetPoints}
	if s.PointsErr != nil {
		points.Error = s.PointsErr.Error()
	} else {
		points.Loaded = true
		points.Rows = len(s.Points.Points)
	}

	grid := models.DatasetStatus{Name: repository.DatasetGrid}
	if s.GridErr != nil {
		grid.Error = s.GridErr.Error()
	} else {
		grid.Loaded = true
		grid.Rows = len(s.Grid.Cells)
		grid.Warnings = s.Grid.Excluded
		r := s.Grid.Range
		grid.Range = &r
	}

	return []models.DatasetStatus{points, grid}
}

// DefaultRetryAfter is how long a failed load is served before the source is read again
const DefaultRetryAfter = 30 * time.Second

// Loader loads and annotates sources and caches complete snapshots by source
// identity. A snapshot with a failed dataset is kept for RetryAfter so a
// broken file is not re-read on every request.
type Loader struct {
	palette colorscale.BrandPalette
	metrics *metrics.Metrics

	RetryAfter time.Duration
	now        func() time.Time

	mu     sync.RWMutex
	cache  map[string]*Snapshot
	failed map[string]*Snapshot
	group  singleflight.Group
}

// NewLoader creates a new loader. m may be nil.
func NewLoader(palette colorscale.BrandPalette, m *metrics.Metrics) *Loader {
	return &Loader{
		palette:    palette,
		metrics:    m,
		RetryAfter: DefaultRetryAfter,
		now:        time.Now,
		cache:      make(map[string]*Snapshot),
		failed:     make(map[string]*Snapshot),
	}
}

// Load returns the cached snapshot of src, loading it on first use.
// Concurrent first loads of one source share a single read. The returned
// error is non-nil when either dataset failed; the snapshot is returned
// regardless so the healthy dataset can still be served. A failed load is
// retried once RetryAfter has passed.
func (l *Loader) Load(ctx context.Context, src repository.Source) (*Snapshot, error) {
	id := src.Identity()
	if snap := l.lookup(id); snap != nil {
		return snap, snap.Err()
	}

	v, err, _ := l.group.Do(id, func() (interface{}, error) {
		if snap := l.lookup(id); snap != nil {
			return snap, nil
		}
		snap := l.read(ctx, src)
		l.store(id, snap)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}

	snap := v.(*Snapshot)
	return snap, snap.Err()
}

// Reload reads src again and swaps the cached snapshot. A reload that fails
// for either dataset leaves the previous snapshot in place.
func (l *Loader) Reload(ctx context.Context, src repository.Source) (*Snapshot, error) {
	id := src.Identity()
	v, _, _ := l.group.Do("reload|"+id, func() (interface{}, error) {
		snap := l.read(ctx, src)
		if snap.Complete() || l.Cached(id) == nil {
			l.store(id, snap)
		}
		return snap, nil
	})

	snap := v.(*Snapshot)
	return snap, snap.Err()
}

// Cached returns the cached snapshot for a source identity, or nil
func (l *Loader) Cached(id string) *Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cache[id]
}

// Invalidate drops the cached snapshot for a source identity
func (l *Loader) Invalidate(id string) {
	l.mu.Lock()
	delete(l.cache, id)
	delete(l.failed, id)
	l.mu.Unlock()
}

// lookup returns the complete snapshot, or a failed one still inside its
// retry window
func (l *Loader) lookup(id string) *Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if snap := l.cache[id]; snap != nil {
		return snap
	}
	if snap := l.failed[id]; snap != nil && l.now().Sub(snap.LoadedAt) < l.RetryAfter {
		return snap
	}
	return nil
}

func (l *Loader) store(id string, snap *Snapshot) {
	l.mu.Lock()
	if snap.Complete() {
		l.cache[id] = snap
		delete(l.failed, id)
	} else {
		l.failed[id] = snap
	}
	l.mu.Unlock()
}

// read loads both tables in parallel and annotates whatever succeeded
func (l *Loader) read(ctx context.Context, src repository.Source) *Snapshot {
	log := logger.FromContext(ctx).With(zap.String("source", src.Identity()))
	snap := &Snapshot{Source: src.Identity()}

	var (
		wg     sync.WaitGroup
		points []models.PointRecord
		grid   *models.GridTable
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		points, snap.PointsErr = src.ReadPoints(ctx)
	}()
	go func() {
		defer wg.Done()
		grid, snap.GridErr = src.ReadGrid(ctx)
	}()
	wg.Wait()

	if snap.PointsErr == nil {
		snap.Points = AnnotatePoints(points, l.palette)
		log.Info("points dataset loaded", zap.Int("rows", len(snap.Points.Points)))
		l.metrics.ObserveLoad(repository.DatasetPoints, len(snap.Points.Points), nil)
	} else {
		log.Error("points dataset failed", zap.Error(snap.PointsErr))
		l.metrics.ObserveLoad(repository.DatasetPoints, 0, snap.PointsErr)
	}

	if snap.GridErr == nil {
		snap.Grid = AnnotateGrid(grid)
		log.Info("grid dataset loaded",
			zap.Int("rows", len(snap.Grid.Cells)),
			zap.Int("min", snap.Grid.Range.Min),
			zap.Int("max", snap.Grid.Range.Max))
		if n := len(snap.Grid.Excluded); n > 0 {
			rows := make([]int, n)
			for i, e := range snap.Grid.Excluded {
				rows[i] = e.Row
			}
			log.Warn("grid rows excluded for invalid geometry", zap.Int("count", n), zap.Ints("rows", rows))
		}
		l.metrics.ObserveLoad(repository.DatasetGrid, len(snap.Grid.Cells), nil)
		l.metrics.SetExcludedRows(len(snap.Grid.Excluded))
	} else {
		log.Error("grid dataset failed", zap.Error(snap.GridErr))
		l.metrics.ObserveLoad(repository.DatasetGrid, 0, snap.GridErr)
	}

	snap.LoadedAt = l.now()
	return snap
}
