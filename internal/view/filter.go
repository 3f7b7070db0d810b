package view

import (
	"fmt"

	"github.com/jengzang/webgis-dashboard/internal/models"
)

// FilterResult is the point subset selected by a FilterState
type FilterResult struct {
	Brand   string               `json:"brand"`
	Points  []models.PointRecord `json:"-"`
	Count   int                  `json:"count"`
	Empty   bool                 `json:"empty"`
	Message string               `json:"message"`
}

// FilterPoints selects the records whose company_name equals the selected
// brand exactly. The all sentinel selects every record. An empty match is a
// valid result, reported through Empty rather than an error.
func FilterPoints(points []models.PointRecord, f FilterState) FilterResult {
	brand := f.Brand
	if f.All() {
		brand = AllBrands
	}

	var selected []models.PointRecord
	if brand == AllBrands {
		selected = make([]models.PointRecord, len(points))
		copy(selected, points)
	} else {
		selected = make([]models.PointRecord, 0)
		for _, p := range points {
			if p.CompanyName == brand {
				selected = append(selected, p)
			}
		}
	}

	return FilterResult{
		Brand:   brand,
		Points:  selected,
		Count:   len(selected),
		Empty:   len(selected) == 0,
		Message: fmt.Sprintf("目前顯示：%s (共 %d 筆)", brand, len(selected)),
	}
}
