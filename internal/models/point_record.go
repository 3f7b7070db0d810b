package models

// PointRecord represents one retail location from the point table
type PointRecord struct {
	// Identity fields, read from the source table
	StoreName    string  `json:"store_name"`
	CompanyName  string  `json:"company_name"` // Brand legal name
	StoreAddress string  `json:"store_address"`
	Longitude    float64 `json:"longitude"`
	Latitude     float64 `json:"latitude"`

	// Derived by the annotator
	Tooltip string `json:"tooltip_html"`
	Color   RGBA   `json:"color"`
}

// PointRow is the linked-table projection of a point record
type PointRow struct {
	CompanyName  string  `json:"company_name"`
	StoreName    string  `json:"store_name"`
	StoreAddress string  `json:"store_address"`
	Longitude    float64 `json:"longitude"`
	Latitude     float64 `json:"latitude"`
}

// Row returns the linked-table projection of p
func (p PointRecord) Row() PointRow {
	return PointRow{
		CompanyName:  p.CompanyName,
		StoreName:    p.StoreName,
		StoreAddress: p.StoreAddress,
		Longitude:    p.Longitude,
		Latitude:     p.Latitude,
	}
}
