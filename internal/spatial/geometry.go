package spatial

import (
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// Region is a hit-testable polygonal area built once from a parsed geometry
type Region struct {
	bound orb.Bound
	parts []regionPart
}

// regionPart is one polygon: an exterior loop and its holes
type regionPart struct {
	shell *s2.Loop
	holes []*s2.Loop
}

// NewRegion builds the spherical loops of a Polygon or MultiPolygon geometry.
// Rings are normalized so each loop covers the smaller of its two sides,
// which makes containment independent of ring winding order.
func NewRegion(g orb.Geometry) *Region {
	r := &Region{bound: g.Bound()}
	for _, poly := range Polygons(g) {
		if len(poly) == 0 {
			continue
		}
		part := regionPart{shell: loopFromRing(poly[0])}
		for _, hole := range poly[1:] {
			part.holes = append(part.holes, loopFromRing(hole))
		}
		r.parts = append(r.parts, part)
	}
	return r
}

// Bound returns the planar lon/lat bounding box of the region
func (r *Region) Bound() orb.Bound {
	return r.bound
}

// Contains reports whether the lon/lat point lies inside the region
func (r *Region) Contains(lon, lat float64) bool {
	if !r.bound.Contains(orb.Point{lon, lat}) {
		return false
	}

	p := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
	for _, part := range r.parts {
		if !part.shell.ContainsPoint(p) {
			continue
		}
		inHole := false
		for _, h := range part.holes {
			if h.ContainsPoint(p) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

// Centroid returns the center of the region's bounding box as (lon, lat)
func (r *Region) Centroid() (float64, float64) {
	c := r.bound.Center()
	return c[0], c[1]
}

// loopFromRing converts a closed lon/lat ring to a normalized s2 loop
func loopFromRing(ring orb.Ring) *s2.Loop {
	n := len(ring)
	if n > 1 && ring[0] == ring[n-1] {
		n--
	}

	points := make([]s2.Point, 0, n)
	for _, pt := range ring[:n] {
		points = append(points, s2.PointFromLatLng(s2.LatLngFromDegrees(pt[1], pt[0])))
	}

	loop := s2.LoopFromPoints(points)
	loop.Normalize()
	return loop
}
