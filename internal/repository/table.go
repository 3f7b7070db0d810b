package repository

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jengzang/webgis-dashboard/internal/models"
)

// Column names shared by the file and query sources
const (
	ColStoreName    = "store_name"
	ColCompanyName  = "company_name"
	ColStoreAddress = "store_address"
	ColLongitude    = "longitude"
	ColLatitude     = "latitude"

	ColGeometry    = "geometry"
	ColGeometryWKT = "geometry_wkt"
	ColStoreCount  = "convenience_store_count"
	ColCountyName  = "county_name"
)

var pointColumns = []string{ColStoreName, ColCompanyName, ColStoreAddress, ColLongitude, ColLatitude}

// header maps normalized column names to their index
type header map[string]int

func newHeader(names []string) header {
	h := make(header, len(names))
	for i, name := range names {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := h[key]; !dup {
			h[key] = i
		}
	}
	return h
}

// require returns the index of every named column or the first missing name
func (h header) require(names ...string) ([]int, string) {
	idx := make([]int, len(names))
	for i, name := range names {
		j, ok := h[name]
		if !ok {
			return nil, name
		}
		idx[i] = j
	}
	return idx, ""
}

// cleanText normalizes a text cell so brand and county names compare reliably.
// Invalid byte sequences become U+FFFD.
func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(validUTF8(s)))
}

func validUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// decodePoints turns raw rows into point records
func decodePoints(source string, cols []string, rows [][]string) ([]models.PointRecord, error) {
	h := newHeader(cols)
	idx, missing := h.require(pointColumns...)
	if missing != "" {
		return nil, &DataLoadError{Dataset: DatasetPoints, Source: source, Column: missing, Err: ErrMissingColumn}
	}

	points := make([]models.PointRecord, 0, len(rows))
	for i, row := range rows {
		rowNum := i + 1
		lon, err := parseCoordinate(row[idx[3]], 180)
		if err != nil {
			return nil, &DataLoadError{Dataset: DatasetPoints, Source: source, Row: rowNum, Column: ColLongitude, Err: err}
		}
		lat, err := parseCoordinate(row[idx[4]], 90)
		if err != nil {
			return nil, &DataLoadError{Dataset: DatasetPoints, Source: source, Row: rowNum, Column: ColLatitude, Err: err}
		}

		points = append(points, models.PointRecord{
			StoreName:    cleanText(row[idx[0]]),
			CompanyName:  cleanText(row[idx[1]]),
			StoreAddress: cleanText(row[idx[2]]),
			Longitude:    lon,
			Latitude:     lat,
		})
	}

	return points, nil
}

// decodeGrid turns raw rows into grid cells. The geometry column may be named
// either geometry or geometry_wkt; county_name is optional.
func decodeGrid(source string, cols []string, rows [][]string) (*models.GridTable, error) {
	h := newHeader(cols)

	geomIdx, ok := h[ColGeometryWKT]
	if !ok {
		if geomIdx, ok = h[ColGeometry]; !ok {
			return nil, &DataLoadError{Dataset: DatasetGrid, Source: source, Column: ColGeometry, Err: ErrMissingColumn}
		}
	}
	countIdx, ok := h[ColStoreCount]
	if !ok {
		return nil, &DataLoadError{Dataset: DatasetGrid, Source: source, Column: ColStoreCount, Err: ErrMissingColumn}
	}
	countyIdx, hasCounty := h[ColCountyName]

	table := &models.GridTable{
		Cells:     make([]models.GridCell, 0, len(rows)),
		HasCounty: hasCounty,
	}
	for i, row := range rows {
		rowNum := i + 1
		count, err := parseCount(row[countIdx])
		if err != nil {
			return nil, &DataLoadError{Dataset: DatasetGrid, Source: source, Row: rowNum, Column: ColStoreCount, Err: err}
		}

		cell := models.GridCell{
			Row:                   rowNum,
			GeometryWKT:           strings.TrimSpace(validUTF8(row[geomIdx])),
			ConvenienceStoreCount: count,
		}
		if hasCounty {
			cell.CountyName = cleanText(row[countyIdx])
		}
		table.Cells = append(table.Cells, cell)
	}

	return table, nil
}

func parseCoordinate(s string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrMalformedValue, s)
	}
	if math.IsNaN(v) || math.Abs(v) > limit {
		return 0, fmt.Errorf("%w: %q is out of range", ErrMalformedValue, s)
	}
	return v, nil
}

// maxCount bounds counts so they fit an int on every platform
const maxCount = math.MaxInt32

// parseCount accepts integral values, including the "12.0" form spreadsheet exports produce
func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("%w: negative count %d", ErrMalformedValue, n)
		}
		if n > maxCount {
			return 0, fmt.Errorf("%w: count %d is too large", ErrMalformedValue, n)
		}
		return int(n), nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %q is not a whole number", ErrMalformedValue, s)
	}
	if f < 0 {
		return 0, fmt.Errorf("%w: negative count %s", ErrMalformedValue, s)
	}
	if f > maxCount {
		return 0, fmt.Errorf("%w: count %s is too large", ErrMalformedValue, s)
	}
	return int(f), nil
}
