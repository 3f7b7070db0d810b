package models

// PickFilter represents query parameters for hit-testing the map layers
type PickFilter struct {
	Lon *float64 `form:"lon" binding:"required"`
	Lat *float64 `form:"lat" binding:"required"`
}

// PointTableFilter represents query parameters for the linked table
type PointTableFilter struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}
