package dataset

import (
	"github.com/jengzang/webgis-dashboard/internal/colorscale"
	"github.com/jengzang/webgis-dashboard/internal/models"
	"github.com/jengzang/webgis-dashboard/internal/spatial"
)

// PointDataset is the annotated point table
type PointDataset struct {
	Points []models.PointRecord
}

// GridDataset is the annotated grid table. Cells keeps every source row in
// order; rows whose geometry failed to parse have a nil Geometry and are
// listed in Excluded.
type GridDataset struct {
	Cells     []models.GridCell
	Range     models.CountRange
	HasCounty bool
	Excluded  []models.ExcludedRow
}

// AnnotatePoints derives tooltip and color for every record. The input is not modified.
func AnnotatePoints(raw []models.PointRecord, palette colorscale.BrandPalette) *PointDataset {
	points := make([]models.PointRecord, len(raw))
	for i, p := range raw {
		p.Tooltip = PointTooltip(p)
		p.Color = colorscale.ColorForBrand(p.CompanyName, palette)
		points[i] = p
	}
	return &PointDataset{Points: points}
}

// AnnotateGrid derives geometry, tooltip and fill color for every cell.
// The count range is taken over the whole table before any color is assigned,
// so excluded rows still contribute to it. The input is not modified.
func AnnotateGrid(table *models.GridTable) *GridDataset {
	ds := &GridDataset{HasCounty: table.HasCounty}
	ds.Range = countRange(table.Cells)

	ds.Cells = make([]models.GridCell, len(table.Cells))
	for i, c := range table.Cells {
		geom, err := spatial.ParseGeometry(c.GeometryWKT)
		if err != nil {
			ds.Excluded = append(ds.Excluded, models.ExcludedRow{Row: c.Row, Reason: err.Error()})
			geom = nil
		}
		c.Geometry = geom
		c.Tooltip = GridTooltip(c)
		c.FillColor = colorscale.ColorForCount(c.ConvenienceStoreCount, ds.Range.Min, ds.Range.Max)
		ds.Cells[i] = c
	}

	return ds
}

// Renderable returns the cells that carry a parsed geometry
func (d *GridDataset) Renderable() []models.GridCell {
	cells := make([]models.GridCell, 0, len(d.Cells)-len(d.Excluded))
	for _, c := range d.Cells {
		if c.Renderable() {
			cells = append(cells, c)
		}
	}
	return cells
}

func countRange(cells []models.GridCell) models.CountRange {
	var r models.CountRange
	for i, c := range cells {
		if i == 0 || c.ConvenienceStoreCount < r.Min {
			r.Min = c.ConvenienceStoreCount
		}
		if i == 0 || c.ConvenienceStoreCount > r.Max {
			r.Max = c.ConvenienceStoreCount
		}
	}
	return r
}
