package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"golang.org/x/image/font/opentype"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/jengzang/webgis-dashboard/internal/models"
)

// ErrNoData is returned when there is nothing to draw
var ErrNoData = errors.New("chart: no data")

// SteelBlue is the bar fill color
var SteelBlue = color.RGBA{R: 70, G: 130, B: 180, A: 255}

// Axis titles
const (
	XTitle = "縣市"
	YTitle = "超商總數"
)

// Options controls the rendered image size and the label face
type Options struct {
	Width  vg.Length
	Height vg.Length
	// Face must cover the axis titles and every county name
	Face *opentype.Font
}

// DefaultOptions matches a 400px high dashboard panel
func DefaultOptions(face *opentype.Font) Options {
	return Options{Width: 10 * vg.Inch, Height: 400 * vg.Inch / 96, Face: face}
}

// CountyBars writes a PNG bar chart of county totals in the given order
func CountyBars(w io.Writer, totals []models.CountyTotal, opts Options) error {
	if len(totals) == 0 {
		return ErrNoData
	}
	if opts.Face == nil {
		return ErrNoFont
	}

	values := make(plotter.Values, len(totals))
	labels := make([]string, len(totals))
	maxValue := 0.0
	for i, t := range totals {
		values[i] = float64(t.ConvenienceStoreCount)
		labels[i] = t.CountyName
		maxValue = math.Max(maxValue, values[i])
	}

	if missing := MissingRunes(opts.Face, append(labels, XTitle, YTitle, "0123456789.")...); len(missing) > 0 {
		return fmt.Errorf("%w: %q", ErrMissingGlyph, string(missing))
	}

	p := plot.New()
	useFace(p, opts.Face)
	p.X.Label.Text = XTitle
	p.Y.Label.Text = YTitle

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return fmt.Errorf("failed to build bar chart: %w", err)
	}
	bars.Color = SteelBlue
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)

	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 3
	p.X.Tick.Label.YAlign = draw.YCenter
	p.X.Tick.Label.XAlign = draw.XCenter
	p.Y.Min = 0
	if maxValue > 0 {
		p.Y.Max = maxValue * 1.1
	}

	wt, err := p.WriterTo(opts.Width, opts.Height, "png")
	if err != nil {
		return fmt.Errorf("failed to create chart writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}
