package models

import "github.com/paulmach/orb"

// GridCell represents one 1km aggregation cell from the grid table
type GridCell struct {
	// Row is the 1-based data row in the source table (header excluded)
	Row int `json:"row"`

	// Identity fields, read from the source table
	GeometryWKT           string `json:"geometry_wkt"`
	ConvenienceStoreCount int    `json:"convenience_store_count"`
	CountyName            string `json:"county_name,omitempty"`

	// Derived by the annotator. Geometry is nil when the WKT failed to parse.
	Geometry  orb.Geometry `json:"-"`
	Tooltip   string       `json:"tooltip_html"`
	FillColor RGBA         `json:"fill_color"`
}

// Renderable reports whether the cell carries a parsed geometry
func (c GridCell) Renderable() bool {
	return c.Geometry != nil
}

// GridTable is the raw grid table as read from a source
type GridTable struct {
	Cells     []GridCell
	HasCounty bool // Source carries the optional county_name column
}
