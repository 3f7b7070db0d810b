package chart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/text"
)

// ErrNoFont is returned when no CJK capable font file can be found
var ErrNoFont = errors.New("chart: no CJK font available")

// ErrMissingGlyph is returned when the chart face cannot draw a label
var ErrMissingGlyph = errors.New("chart: font is missing glyphs")

// SystemFontPaths are searched in order when no font path is configured
var SystemFontPaths = []string{
	"/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/noto-cjk/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/google-noto-cjk/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/opentype/noto/NotoSansTC-Regular.otf",
	"/usr/share/fonts/truetype/wqy/wqy-microhei.ttc",
	"/usr/share/fonts/wenquanyi/wqy-microhei/wqy-microhei.ttc",
	"/usr/share/fonts/truetype/arphic/uming.ttc",
	"/System/Library/Fonts/PingFang.ttc",
	"C:\\Windows\\Fonts\\msjh.ttc",
}

// sampleRunes must all resolve for a face to be accepted from the system list
const sampleRunes = "縣市臺北"

// LoadFace parses a .ttf, .otf or .ttc file. For collections the first
// traditional Chinese face is preferred.
func LoadFace(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".ttc") {
		coll, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font collection %s: %w", path, err)
		}
		return pickFromCollection(coll)
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}
	return f, nil
}

func pickFromCollection(coll *opentype.Collection) (*opentype.Font, error) {
	var first *opentype.Font
	var buf sfnt.Buffer
	for i := 0; i < coll.NumFonts(); i++ {
		f, err := coll.Font(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read font %d of collection: %w", i, err)
		}
		if first == nil {
			first = f
		}
		name, err := f.Name(&buf, sfnt.NameIDFamily)
		if err == nil && strings.Contains(name, " TC") {
			return f, nil
		}
	}
	if first == nil {
		return nil, ErrNoFont
	}
	return first, nil
}

// FindFace loads path when set, otherwise the first system font that
// covers Han characters.
func FindFace(path string) (*opentype.Font, error) {
	if path != "" {
		return LoadFace(path)
	}
	for _, candidate := range SystemFontPaths {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		f, err := LoadFace(candidate)
		if err != nil {
			continue
		}
		if len(MissingRunes(f, sampleRunes)) == 0 {
			return f, nil
		}
	}
	return nil, ErrNoFont
}

// MissingRunes lists the printable runes of texts that f maps to .notdef
func MissingRunes(f *opentype.Font, texts ...string) []rune {
	var (
		buf     sfnt.Buffer
		missing []rune
		seen    = make(map[rune]bool)
	)
	for _, s := range texts {
		for _, r := range s {
			if r == ' ' || seen[r] {
				continue
			}
			seen[r] = true
			idx, err := f.GlyphIndex(&buf, r)
			if err != nil || idx == 0 {
				missing = append(missing, r)
			}
		}
	}
	return missing
}

// useFace makes face the font of every text style on p. The face is
// registered under the plot's default font name so lookups for any style
// or weight land on it.
func useFace(p *plot.Plot, face *opentype.Font) {
	cache := font.NewCache(font.Collection{{Font: plot.DefaultFont, Face: face}})
	hdlr := text.Plain{Fonts: cache}

	p.TextHandler = hdlr
	p.Title.TextStyle.Handler = hdlr
	p.Legend.TextStyle.Handler = hdlr
	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.Label.TextStyle.Handler = hdlr
		ax.Tick.Label.Handler = hdlr
	}
}
