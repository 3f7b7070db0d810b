package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jengzang/webgis-dashboard/internal/models"
)

func TestCountyTotals(t *testing.T) {
	cells := []models.GridCell{
		{CountyName: "臺北市", ConvenienceStoreCount: 3},
		{CountyName: "新北市", ConvenienceStoreCount: 10},
		{CountyName: "臺北市", ConvenienceStoreCount: 4},
		{CountyName: "基隆市", ConvenienceStoreCount: 7},
		{CountyName: "桃園市", ConvenienceStoreCount: 0},
	}

	got := CountyTotals(cells)
	assert.Equal(t, []models.CountyTotal{
		{CountyName: "新北市", ConvenienceStoreCount: 10},
		{CountyName: "基隆市", ConvenienceStoreCount: 7},
		{CountyName: "臺北市", ConvenienceStoreCount: 7},
		{CountyName: "桃園市", ConvenienceStoreCount: 0},
	}, got)
}

func TestCountyTotalsEmpty(t *testing.T) {
	assert.Empty(t, CountyTotals(nil))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]int{5, 1, 3, 2, 4})
	assert.Equal(t, Summary{Cells: 5, Total: 15, Mean: 3, Min: 1, Q1: 2, Median: 3, Q3: 4, Max: 5}, s)

	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestQuantileInterpolates(t *testing.T) {
	assert.InDelta(t, 2.5, Quantile([]int{4, 1, 2, 3}, 0.5), 1e-9)
	assert.Equal(t, 1.0, Quantile([]int{4, 1, 2, 3}, -1))
	assert.Equal(t, 4.0, Quantile([]int{4, 1, 2, 3}, 2))
}

func TestCounts(t *testing.T) {
	assert.Equal(t, []int{1, 2}, Counts([]models.GridCell{{ConvenienceStoreCount: 1}, {ConvenienceStoreCount: 2}}))
}
