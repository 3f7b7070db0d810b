package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegion_Contains(t *testing.T) {
	g, err := ParseGeometry(cellWKT)
	require.NoError(t, err)
	r := NewRegion(g)

	assert.True(t, r.Contains(121.505, 25.035))
	assert.False(t, r.Contains(121.52, 25.035))
	assert.False(t, r.Contains(121.505, 25.05))
}

func TestRegion_ContainsIgnoresWinding(t *testing.T) {
	// Same square, clockwise
	g, err := ParseGeometry("POLYGON ((121.50 25.03, 121.50 25.04, 121.51 25.04, 121.51 25.03, 121.50 25.03))")
	require.NoError(t, err)
	r := NewRegion(g)

	assert.True(t, r.Contains(121.505, 25.035))
	assert.False(t, r.Contains(121.60, 25.035))
}

func TestRegion_Hole(t *testing.T) {
	g, err := ParseGeometry("POLYGON ((121.0 25.0, 121.1 25.0, 121.1 25.1, 121.0 25.1, 121.0 25.0), (121.04 25.04, 121.06 25.04, 121.06 25.06, 121.04 25.06, 121.04 25.04))")
	require.NoError(t, err)
	r := NewRegion(g)

	assert.True(t, r.Contains(121.02, 25.02))
	assert.False(t, r.Contains(121.05, 25.05))
}

func TestRegion_MultiPolygon(t *testing.T) {
	g, err := ParseGeometry("MULTIPOLYGON (((121.0 25.0, 121.1 25.0, 121.1 25.1, 121.0 25.0)), ((122.0 24.0, 122.1 24.0, 122.1 24.1, 122.0 24.0)))")
	require.NoError(t, err)
	r := NewRegion(g)

	assert.True(t, r.Contains(121.09, 25.01))
	assert.True(t, r.Contains(122.09, 24.01))
	assert.False(t, r.Contains(121.5, 24.5))
}

func TestRegion_Centroid(t *testing.T) {
	g, err := ParseGeometry(cellWKT)
	require.NoError(t, err)

	lon, lat := NewRegion(g).Centroid()
	assert.InDelta(t, 121.505, lon, 1e-9)
	assert.InDelta(t, 25.035, lat, 1e-9)
}

func TestHaversineDistance(t *testing.T) {
	assert.Equal(t, 0.0, HaversineDistance(25.04, 121.55, 25.04, 121.55))

	// One hundredth of a degree of latitude is about 1.11km
	d := HaversineDistance(25.00, 121.5, 25.01, 121.5)
	assert.InDelta(t, 1112, d, 5)
}
