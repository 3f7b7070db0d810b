package colorscale

import (
	"gonum.org/v1/plot/palette/brewer"

	"github.com/jengzang/webgis-dashboard/internal/models"
)

// GridAlpha is the fixed opacity of grid fill colors
const GridAlpha = 160

// lutSize matches the resolution of matplotlib's default colormaps
const lutSize = 256

// ylOrRdAnchors are the nine ColorBrewer YlOrRd stops, pale yellow to deep red,
// as 0~1 channel fractions.
var ylOrRdAnchors = loadAnchors()

// ylOrRdLUT holds the ramp sampled at lutSize evenly spaced positions
var ylOrRdLUT = buildLUT(ylOrRdAnchors)

func loadAnchors() [][3]float64 {
	p, err := brewer.GetPalette(brewer.TypeSequential, "YlOrRd", 9)
	if err != nil {
		panic(err)
	}
	colors := p.Colors()
	anchors := make([][3]float64, len(colors))
	for i, c := range colors {
		r, g, b, _ := c.RGBA()
		anchors[i] = [3]float64{float64(r) / 0xffff, float64(g) / 0xffff, float64(b) / 0xffff}
	}
	return anchors
}

func buildLUT(anchors [][3]float64) [lutSize][3]float64 {
	var lut [lutSize][3]float64
	last := len(anchors) - 1
	for i := 0; i < lutSize; i++ {
		pos := float64(i) / float64(lutSize-1) * float64(last)
		k := int(pos)
		if k >= last {
			lut[i] = anchors[last]
			continue
		}
		frac := pos - float64(k)
		lo, hi := anchors[k], anchors[k+1]
		for ch := 0; ch < 3; ch++ {
			lut[i][ch] = lo[ch] + (hi[ch]-lo[ch])*frac
		}
	}
	return lut
}

// Normalize maps value linearly into [0, 1] relative to [minValue, maxValue].
// Out-of-range values are clamped. A degenerate range (minValue == maxValue)
// normalizes every value to 0, the low end of the ramp.
func Normalize(value, minValue, maxValue float64) float64 {
	if maxValue <= minValue {
		return 0
	}
	x := (value - minValue) / (maxValue - minValue)
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// RampIndex returns the lookup-table slot for a normalized value
func RampIndex(x float64) int {
	idx := int(x * lutSize)
	if idx < 0 {
		return 0
	}
	if idx >= lutSize {
		return lutSize - 1
	}
	return idx
}

// RampColor returns the YlOrRd color for a normalized value in [0, 1]
func RampColor(x float64) models.RGBA {
	c := ylOrRdLUT[RampIndex(x)]
	return models.RGBA{
		uint8(c[0] * 255),
		uint8(c[1] * 255),
		uint8(c[2] * 255),
		GridAlpha,
	}
}

// ColorForCount maps a count onto the YlOrRd ramp relative to the dataset range
func ColorForCount(value, minValue, maxValue int) models.RGBA {
	return RampColor(Normalize(float64(value), float64(minValue), float64(maxValue)))
}
