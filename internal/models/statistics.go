package models

// CountyTotal is one bar of the per-county statistics chart
type CountyTotal struct {
	CountyName            string `json:"county_name"`
	ConvenienceStoreCount int    `json:"convenience_store_count"`
}

// DatasetStatus summarizes one loaded dataset for the status endpoint
type DatasetStatus struct {
	Name     string        `json:"name"`
	Loaded   bool          `json:"loaded"`
	Rows     int           `json:"rows"`
	Error    string        `json:"error,omitempty"`
	Warnings []ExcludedRow `json:"warnings,omitempty"`
	Range    *CountRange   `json:"range,omitempty"`
}

// CountRange is the observed [min, max] of convenience_store_count
type CountRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// ExcludedRow describes a grid row dropped from the render set
type ExcludedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
