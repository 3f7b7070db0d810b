package stats

import (
	"math"
	"sort"
)

// Summary is the five-number summary of grid cell counts plus totals
type Summary struct {
	Cells  int     `json:"cells"`
	Total  int     `json:"total"`
	Mean   float64 `json:"mean"`
	Min    int     `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    int     `json:"max"`
}

// Summarize computes the distribution summary of counts
func Summarize(values []int) Summary {
	s := Summary{Cells: len(values), Total: Sum(values), Mean: Mean(values)}
	if len(values) == 0 {
		return s
	}

	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)

	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Q1 = quantileSorted(sorted, 0.25)
	s.Median = quantileSorted(sorted, 0.5)
	s.Q3 = quantileSorted(sorted, 0.75)
	return s
}

// Quantile calculates the q-th quantile (0 <= q <= 1) with linear interpolation
func Quantile(values []int, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)
	return quantileSorted(sorted, q)
}

func quantileSorted(sorted []int, q float64) float64 {
	if q < 0 {
		q = 0
	}
	if q > 1 {
		q = 1
	}

	index := q * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return float64(sorted[lower])
	}

	// Linear interpolation
	weight := index - float64(lower)
	return float64(sorted[lower])*(1-weight) + float64(sorted[upper])*weight
}
