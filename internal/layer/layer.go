package layer

import (
	"math"

	"github.com/paulmach/orb/geojson"

	"github.com/jengzang/webgis-dashboard/internal/models"
	"github.com/jengzang/webgis-dashboard/internal/spatial"
)

// Layer identifiers and deck.gl layer classes
const (
	GridLayerID  = "grid-layer"
	PointLayerID = "point-layer"

	GeoJSONLayerType     = "GeoJsonLayer"
	ScatterplotLayerType = "ScatterplotLayer"
)

// Fixed layer styling
var GridLineColor = models.RGBA{255, 255, 255, 80}

const (
	GridLineWidthMinPixels  = 0.5
	PointLineWidthMinPixels = 0.5
	PointRadiusMeters       = 50
)

// Layer is a declarative layer descriptor
type Layer interface {
	LayerID() string
}

// PolygonLayer draws grid cells filled by their ramp color
type PolygonLayer struct {
	Type               string                     `json:"@@type"`
	ID                 string                     `json:"id"`
	Data               *geojson.FeatureCollection `json:"data"`
	Pickable           bool                       `json:"pickable"`
	Filled             bool                       `json:"filled"`
	Stroked            bool                       `json:"stroked"`
	GetFillColor       string                     `json:"getFillColor"`
	GetLineColor       models.RGBA                `json:"getLineColor"`
	LineWidthMinPixels float64                    `json:"lineWidthMinPixels"`

	cells   []models.GridCell
	regions []*spatial.Region
}

// PointLayer draws one circle per point in its brand color
type PointLayer struct {
	Type               string               `json:"@@type"`
	ID                 string               `json:"id"`
	Data               []models.PointRecord `json:"data"`
	Pickable           bool                 `json:"pickable"`
	GetPosition        string               `json:"getPosition"`
	GetFillColor       string               `json:"getFillColor"`
	GetRadius          float64              `json:"getRadius"`
	RadiusUnits        string               `json:"radiusUnits"`
	LineWidthMinPixels float64              `json:"lineWidthMinPixels"`
}

// LayerID implements Layer
func (l *PolygonLayer) LayerID() string { return l.ID }

// LayerID implements Layer
func (l *PointLayer) LayerID() string { return l.ID }

// BuildPolygonLayer builds the grid layer from annotated cells. Cells without
// a parsed geometry are skipped. The input slice is not retained.
func BuildPolygonLayer(cells []models.GridCell) *PolygonLayer {
	l := &PolygonLayer{
		Type:               GeoJSONLayerType,
		ID:                 GridLayerID,
		Data:               geojson.NewFeatureCollection(),
		Pickable:           true,
		Filled:             true,
		Stroked:            true,
		GetFillColor:       "@@=properties.fill_color",
		GetLineColor:       GridLineColor,
		LineWidthMinPixels: GridLineWidthMinPixels,
	}

	for _, c := range cells {
		if !c.Renderable() {
			continue
		}
		f := geojson.NewFeature(c.Geometry)
		f.Properties["row"] = c.Row
		f.Properties["convenience_store_count"] = c.ConvenienceStoreCount
		f.Properties["fill_color"] = c.FillColor
		f.Properties["tooltip_html"] = c.Tooltip
		if c.CountyName != "" {
			f.Properties["county_name"] = c.CountyName
		}
		l.Data.Append(f)
		l.cells = append(l.cells, c)
		l.regions = append(l.regions, spatial.NewRegion(c.Geometry))
	}

	return l
}

// Len returns the number of drawn cells
func (l *PolygonLayer) Len() int {
	return len(l.cells)
}

// Pick returns the topmost cell containing the lon/lat point
func (l *PolygonLayer) Pick(lon, lat float64) (models.GridCell, bool) {
	for i := len(l.regions) - 1; i >= 0; i-- {
		if l.regions[i].Contains(lon, lat) {
			return l.cells[i], true
		}
	}
	return models.GridCell{}, false
}

// BuildPointLayer builds the point layer from a filtered record set.
// The records are copied so later filtering cannot alias layer data.
func BuildPointLayer(points []models.PointRecord) *PointLayer {
	data := make([]models.PointRecord, len(points))
	copy(data, points)

	return &PointLayer{
		Type:               ScatterplotLayerType,
		ID:                 PointLayerID,
		Data:               data,
		Pickable:           true,
		GetPosition:        "@@=[longitude, latitude]",
		GetFillColor:       "@@=color",
		GetRadius:          PointRadiusMeters,
		RadiusUnits:        "meters",
		LineWidthMinPixels: PointLineWidthMinPixels,
	}
}

// Pick returns the nearest point whose marker covers the lon/lat point
func (l *PointLayer) Pick(lon, lat float64) (models.PointRecord, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, p := range l.Data {
		d := spatial.HaversineDistance(lat, lon, p.Latitude, p.Longitude)
		if d <= l.GetRadius && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return models.PointRecord{}, false
	}
	return l.Data[best], true
}

// Stack orders the visible layers bottom to top, grid below points.
// A nil layer is left out.
func Stack(grid *PolygonLayer, points *PointLayer, showGrid, showPoints bool) []Layer {
	layers := make([]Layer, 0, 2)
	if showGrid && grid != nil {
		layers = append(layers, grid)
	}
	if showPoints && points != nil {
		layers = append(layers, points)
	}
	return layers
}
