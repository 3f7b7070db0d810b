package spatial

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// Geometry parse failure causes
var (
	ErrEmptyGeometry       = errors.New("empty geometry")
	ErrUnsupportedGeometry = errors.New("geometry is not a polygon or multipolygon")
	ErrInvalidRing         = errors.New("invalid polygon ring")
)

// GeometryParseError reports a WKT string that could not be turned into a polygon
type GeometryParseError struct {
	WKT string
	Err error
}

func (e *GeometryParseError) Error() string {
	return fmt.Sprintf("failed to parse geometry %q: %v", abbreviate(e.WKT, 48), e.Err)
}

func (e *GeometryParseError) Unwrap() error {
	return e.Err
}

// ParseGeometry parses a POLYGON or MULTIPOLYGON well-known-text string.
// The result is an orb.Polygon or orb.MultiPolygon whose rings keep every
// coordinate of the input, closing point included. Z and M ordinates are
// accepted and dropped.
func ParseGeometry(s string) (orb.Geometry, error) {
	text := strings.ToUpper(strings.TrimSpace(s))
	if text == "" {
		return nil, &GeometryParseError{WKT: s, Err: ErrEmptyGeometry}
	}
	text = flatten(text)

	g, err := wkt.Unmarshal(text)
	if err != nil {
		return nil, &GeometryParseError{WKT: s, Err: err}
	}

	switch geom := g.(type) {
	case orb.Polygon:
		if err := validatePolygon(geom); err != nil {
			return nil, &GeometryParseError{WKT: s, Err: err}
		}
		return geom, nil
	case orb.MultiPolygon:
		if len(geom) == 0 {
			return nil, &GeometryParseError{WKT: s, Err: ErrEmptyGeometry}
		}
		for _, p := range geom {
			if err := validatePolygon(p); err != nil {
				return nil, &GeometryParseError{WKT: s, Err: err}
			}
		}
		return geom, nil
	default:
		return nil, &GeometryParseError{WKT: s, Err: fmt.Errorf("%w: %s", ErrUnsupportedGeometry, g.GeoJSONType())}
	}
}

// flatten rewrites WKT to two dimensions: a Z, M or ZM tag after the type
// name is removed and every coordinate keeps only its first two ordinates.
func flatten(text string) string {
	head, body := text, ""
	if i := strings.IndexByte(text, '('); i >= 0 {
		head, body = text[:i], text[i:]
	}
	if fields := strings.Fields(head); len(fields) >= 2 {
		switch fields[1] {
		case "Z", "M", "ZM":
			head = strings.Join(append(fields[:1], fields[2:]...), " ")
			if body != "" {
				head += " "
			}
		}
	}
	if body == "" {
		return head
	}

	var b strings.Builder
	b.Grow(len(text))
	b.WriteString(head)
	start := 0
	for i := 0; i <= len(body); i++ {
		if i < len(body) && body[i] != '(' && body[i] != ')' && body[i] != ',' {
			continue
		}
		if coords := strings.Fields(body[start:i]); len(coords) > 2 {
			b.WriteString(coords[0] + " " + coords[1])
		} else {
			b.WriteString(body[start:i])
		}
		if i < len(body) {
			b.WriteByte(body[i])
		}
		start = i + 1
	}
	return b.String()
}

// Polygons returns the polygons of a Polygon or MultiPolygon geometry
func Polygons(g orb.Geometry) []orb.Polygon {
	switch geom := g.(type) {
	case orb.Polygon:
		return []orb.Polygon{geom}
	case orb.MultiPolygon:
		return []orb.Polygon(geom)
	default:
		return nil
	}
}

// validatePolygon checks every ring is closed, finite and has at least four points
func validatePolygon(p orb.Polygon) error {
	if len(p) == 0 {
		return ErrEmptyGeometry
	}
	for i, ring := range p {
		if len(ring) < 4 {
			return fmt.Errorf("%w: ring %d has %d points", ErrInvalidRing, i, len(ring))
		}
		if !ring.Closed() {
			return fmt.Errorf("%w: ring %d is not closed", ErrInvalidRing, i)
		}
		for _, pt := range ring {
			if !finite(pt[0]) || !finite(pt[1]) {
				return fmt.Errorf("%w: ring %d has a non-finite coordinate", ErrInvalidRing, i)
			}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func abbreviate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
