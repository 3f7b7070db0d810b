package render

import (
	"errors"

	"github.com/jengzang/webgis-dashboard/internal/colorscale"
	"github.com/jengzang/webgis-dashboard/internal/dataset"
	"github.com/jengzang/webgis-dashboard/internal/layer"
	"github.com/jengzang/webgis-dashboard/internal/models"
	"github.com/jengzang/webgis-dashboard/internal/stats"
	"github.com/jengzang/webgis-dashboard/internal/view"
)

// ErrNoCountyColumn is returned by the statistics scene when the grid table has no county_name
var ErrNoCountyColumn = errors.New("grid table has no county_name column")

// Map style and pane captions
const (
	MapStyle          = "light"
	PointPaneCaption  = "圖層 A (超商點位)"
	GridPaneCaption   = "圖層 B (網格統計)"
	TooltipTemplate   = "{tooltip_html}"
	singleTooltipBack = "rgba(30,30,30,0.9)"
)

// Tooltip is the deck hover configuration
type Tooltip struct {
	HTML  string            `json:"html"`
	Style map[string]string `json:"style,omitempty"`
}

// InitialViewState is the deck camera. Controller enables pan and zoom.
type InitialViewState struct {
	view.ViewState
	Controller bool `json:"controller,omitempty"`
}

// Deck is a declarative map descriptor a deck.gl client can render
type Deck struct {
	InitialViewState InitialViewState `json:"initialViewState"`
	Layers           []layer.Layer    `json:"layers"`
	MapStyle         string           `json:"mapStyle"`
	Tooltip          Tooltip          `json:"tooltip"`
}

// Pane is one half of the dual map
type Pane struct {
	Caption string `json:"caption"`
	Deck    Deck   `json:"deck"`
}

// BrandButton is one quick-filter control
type BrandButton struct {
	Brand    string `json:"brand"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// DatasetError is the blocking payload shown in place of a dataset that failed to load
type DatasetError struct {
	Dataset string `json:"dataset"`
	Error   string `json:"error"`
}

// SingleView is the single map surface
type SingleView struct {
	Deck     Deck                 `json:"deck"`
	Info     view.FilterResult    `json:"info"`
	Brands   []BrandButton        `json:"brands"`
	Layers   view.LayerVisibility `json:"layers"`
	Warnings []models.ExcludedRow `json:"warnings,omitempty"`
	Errors   []DatasetError       `json:"errors,omitempty"`
}

// DualView is the synchronized side-by-side surface
type DualView struct {
	Left   Pane              `json:"left"`
	Right  Pane              `json:"right"`
	Info   view.FilterResult `json:"info"`
	Errors []DatasetError    `json:"errors,omitempty"`
}

// ChartDatum is one bar of the statistics chart
type ChartDatum struct {
	Category string `json:"category"`
	Value    int    `json:"value"`
}

// StatsView is the statistics surface
type StatsView struct {
	Chart   []ChartDatum         `json:"chart"`
	Table   []models.CountyTotal `json:"table"`
	Summary stats.Summary        `json:"summary"`
	Color   string               `json:"color"`
}

// Scene holds the layers built for one snapshot and state
type Scene struct {
	snap    *dataset.Snapshot
	state   view.State
	filter  view.FilterResult
	grid    *layer.PolygonLayer
	points  *layer.PointLayer
	palette colorscale.BrandPalette
}

// Compose builds the layers for a snapshot under the given state. Datasets
// that failed to load produce no layer.
func Compose(snap *dataset.Snapshot, state view.State, palette colorscale.BrandPalette, grid *layer.PolygonLayer) *Scene {
	sc := &Scene{snap: snap, state: state, palette: palette, grid: grid}
	if snap.PointsErr == nil {
		sc.filter = view.FilterPoints(snap.Points.Points, state.Filter)
		sc.points = layer.BuildPointLayer(sc.filter.Points)
	}
	if sc.grid == nil && snap.GridErr == nil {
		sc.grid = layer.BuildPolygonLayer(snap.Grid.Cells)
	}
	return sc
}

// Filter returns the point filter result
func (sc *Scene) Filter() view.FilterResult {
	return sc.filter
}

// GridLayer returns the polygon layer, nil when the grid failed to load
func (sc *Scene) GridLayer() *layer.PolygonLayer {
	return sc.grid
}

// PointLayer returns the point layer, nil when the points failed to load
func (sc *Scene) PointLayer() *layer.PointLayer {
	return sc.points
}

// Single renders the single map with every visible layer, grid below points
func (sc *Scene) Single() SingleView {
	v := SingleView{
		Deck: Deck{
			InitialViewState: InitialViewState{ViewState: sc.state.View},
			Layers:           layer.Stack(sc.grid, sc.points, sc.state.Layers.Grid, sc.state.Layers.Points),
			MapStyle:         MapStyle,
			Tooltip: Tooltip{
				HTML:  TooltipTemplate,
				Style: map[string]string{"backgroundColor": singleTooltipBack, "color": "white"},
			},
		},
		Info:   sc.filter,
		Brands: Brands(sc.palette, sc.state.Filter),
		Layers: sc.state.Layers,
		Errors: sc.errors(),
	}
	if sc.snap.GridErr == nil {
		v.Warnings = sc.snap.Grid.Excluded
	}
	return v
}

// Dual renders the point layer and the grid layer in two panes that share one pose
func (sc *Scene) Dual() DualView {
	pose := InitialViewState{ViewState: sc.state.View, Controller: true}
	pane := func(caption string, l layer.Layer) Pane {
		layers := []layer.Layer{}
		if l != nil {
			layers = append(layers, l)
		}
		return Pane{
			Caption: caption,
			Deck: Deck{
				InitialViewState: pose,
				Layers:           layers,
				MapStyle:         MapStyle,
				Tooltip:          Tooltip{HTML: TooltipTemplate},
			},
		}
	}

	var left, right layer.Layer
	if sc.points != nil {
		left = sc.points
	}
	if sc.grid != nil {
		right = sc.grid
	}
	return DualView{
		Left:   pane(PointPaneCaption, left),
		Right:  pane(GridPaneCaption, right),
		Info:   sc.filter,
		Errors: sc.errors(),
	}
}

func (sc *Scene) errors() []DatasetError {
	var errs []DatasetError
	if sc.snap.PointsErr != nil {
		errs = append(errs, DatasetError{Dataset: "points", Error: sc.snap.PointsErr.Error()})
	}
	if sc.snap.GridErr != nil {
		errs = append(errs, DatasetError{Dataset: "grid", Error: sc.snap.GridErr.Error()})
	}
	return errs
}

// Stats renders county totals over every grid row. It needs only the grid dataset.
func Stats(grid *dataset.GridDataset) (StatsView, error) {
	if !grid.HasCounty {
		return StatsView{}, ErrNoCountyColumn
	}

	totals := stats.CountyTotals(grid.Cells)
	chart := make([]ChartDatum, len(totals))
	for i, t := range totals {
		chart[i] = ChartDatum{Category: t.CountyName, Value: t.ConvenienceStoreCount}
	}

	return StatsView{
		Chart:   chart,
		Table:   totals,
		Summary: stats.Summarize(stats.Counts(grid.Cells)),
		Color:   "steelblue",
	}, nil
}

// Brands lists the quick-filter buttons: the all control first, then the palette in order
func Brands(palette colorscale.BrandPalette, f view.FilterState) []BrandButton {
	selected := f.Brand
	if f.All() {
		selected = view.AllBrands
	}

	buttons := []BrandButton{{Brand: view.AllBrands, Label: view.AllBrands, Selected: selected == view.AllBrands}}
	for _, name := range palette.Names() {
		buttons = append(buttons, BrandButton{
			Brand:    name,
			Label:    colorscale.DisplayName(name),
			Selected: selected == name,
		})
	}
	return buttons
}
