package stats

import (
	"sort"

	"github.com/jengzang/webgis-dashboard/internal/models"
)

// CountyTotals sums convenience_store_count per county over every grid row,
// sorted by total descending. Equal totals are ordered by county name so the
// result is stable. Rows without a county name are grouped under "".
func CountyTotals(cells []models.GridCell) []models.CountyTotal {
	sums := make(map[string]int)
	for _, c := range cells {
		sums[c.CountyName] += c.ConvenienceStoreCount
	}

	totals := make([]models.CountyTotal, 0, len(sums))
	for name, sum := range sums {
		totals = append(totals, models.CountyTotal{CountyName: name, ConvenienceStoreCount: sum})
	}

	sort.Slice(totals, func(i, j int) bool {
		if totals[i].ConvenienceStoreCount != totals[j].ConvenienceStoreCount {
			return totals[i].ConvenienceStoreCount > totals[j].ConvenienceStoreCount
		}
		return totals[i].CountyName < totals[j].CountyName
	})

	return totals
}

// Sum returns the sum of all counts
func Sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

// Mean calculates the arithmetic mean
func Mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	return float64(Sum(values)) / float64(len(values))
}

// Counts extracts convenience_store_count from grid cells
func Counts(cells []models.GridCell) []int {
	values := make([]int, len(cells))
	for i, c := range cells {
		values[i] = c.ConvenienceStoreCount
	}
	return values
}
