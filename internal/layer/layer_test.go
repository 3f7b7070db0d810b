package layer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/webgis-dashboard/internal/models"
	"github.com/jengzang/webgis-dashboard/internal/spatial"
)

func cell(t *testing.T, row int, wkt string, count int) models.GridCell {
	t.Helper()
	g, err := spatial.ParseGeometry(wkt)
	require.NoError(t, err)
	return models.GridCell{
		Row:                   row,
		GeometryWKT:           wkt,
		ConvenienceStoreCount: count,
		Geometry:              g,
		Tooltip:               "tip",
		FillColor:             models.RGBA{255, 0, 0, 160},
	}
}

func sampleCells(t *testing.T) []models.GridCell {
	return []models.GridCell{
		cell(t, 1, "POLYGON ((121.50 25.00, 121.51 25.00, 121.51 25.01, 121.50 25.01, 121.50 25.00))", 3),
		{Row: 2, GeometryWKT: "bad", ConvenienceStoreCount: 9},
		cell(t, 3, "POLYGON ((121.51 25.00, 121.52 25.00, 121.52 25.01, 121.51 25.01, 121.51 25.00))", 5),
	}
}

func samplePoints() []models.PointRecord {
	return []models.PointRecord{
		{StoreName: "A", CompanyName: "統一超商股份有限公司", Longitude: 121.5050, Latitude: 25.0050, Color: models.RGBA{235, 120, 35, 200}},
		{StoreName: "B", CompanyName: "全家便利商店股份有限公司", Longitude: 121.5053, Latitude: 25.0050, Color: models.RGBA{0, 100, 180, 200}},
	}
}

func TestBuildPolygonLayer(t *testing.T) {
	l := BuildPolygonLayer(sampleCells(t))

	assert.Equal(t, GeoJSONLayerType, l.Type)
	assert.Equal(t, 2, l.Len())
	require.Len(t, l.Data.Features, 2)
	assert.Equal(t, 1, l.Data.Features[0].Properties["row"])
	assert.Equal(t, 3, l.Data.Features[1].Properties["row"])
	assert.Equal(t, GridLineColor, l.GetLineColor)
	assert.True(t, l.Pickable)
}

func TestPolygonLayerJSON(t *testing.T) {
	raw, err := json.Marshal(BuildPolygonLayer(sampleCells(t)))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "GeoJsonLayer", decoded["@@type"])
	assert.Equal(t, []interface{}{255.0, 255.0, 255.0, 80.0}, decoded["getLineColor"])
	assert.Equal(t, 0.5, decoded["lineWidthMinPixels"])

	data := decoded["data"].(map[string]interface{})
	assert.Equal(t, "FeatureCollection", data["type"])
	feature := data["features"].([]interface{})[0].(map[string]interface{})
	props := feature["properties"].(map[string]interface{})
	assert.Equal(t, []interface{}{255.0, 0.0, 0.0, 160.0}, props["fill_color"])
	assert.Equal(t, "tip", props["tooltip_html"])
}

func TestPolygonLayerPick(t *testing.T) {
	l := BuildPolygonLayer(sampleCells(t))

	c, ok := l.Pick(121.515, 25.005)
	require.True(t, ok)
	assert.Equal(t, 3, c.Row)

	_, ok = l.Pick(121.6, 25.005)
	assert.False(t, ok)
}

func TestBuildPointLayerCopiesInput(t *testing.T) {
	points := samplePoints()
	l := BuildPointLayer(points)

	points[0].StoreName = "changed"
	assert.Equal(t, "A", l.Data[0].StoreName)
	assert.Equal(t, ScatterplotLayerType, l.Type)
	assert.Equal(t, float64(PointRadiusMeters), l.GetRadius)
}

func TestBuildIsDeterministic(t *testing.T) {
	a, err := json.Marshal(BuildPointLayer(samplePoints()))
	require.NoError(t, err)
	b, err := json.Marshal(BuildPointLayer(samplePoints()))
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))

	c, err := json.Marshal(BuildPolygonLayer(sampleCells(t)))
	require.NoError(t, err)
	d, err := json.Marshal(BuildPolygonLayer(sampleCells(t)))
	require.NoError(t, err)
	assert.JSONEq(t, string(c), string(d))
}

func TestPointLayerPickNearest(t *testing.T) {
	l := BuildPointLayer(samplePoints())

	// B is about 30m east of A
	p, ok := l.Pick(121.5052, 25.0050)
	require.True(t, ok)
	assert.Equal(t, "B", p.StoreName)

	p, ok = l.Pick(121.5049, 25.0050)
	require.True(t, ok)
	assert.Equal(t, "A", p.StoreName)

	_, ok = l.Pick(121.52, 25.0050)
	assert.False(t, ok)
}

func TestStackOrder(t *testing.T) {
	grid := BuildPolygonLayer(sampleCells(t))
	points := BuildPointLayer(samplePoints())

	layers := Stack(grid, points, true, true)
	require.Len(t, layers, 2)
	assert.Equal(t, GridLayerID, layers[0].LayerID())
	assert.Equal(t, PointLayerID, layers[1].LayerID())

	assert.Len(t, Stack(grid, points, false, true), 1)
	assert.Empty(t, Stack(grid, points, false, false))
	assert.Len(t, Stack(nil, points, true, true), 1)
}
