// Package colorscale assigns display colors to point and grid records.
package colorscale

import (
	"strings"

	"github.com/jengzang/webgis-dashboard/internal/models"
)

// FallbackColor is used for any company name that matches no palette entry
var FallbackColor = models.RGBA{150, 150, 150, 150}

// BrandColor pairs a brand legal name with its marker color
type BrandColor struct {
	Name  string      `json:"name" yaml:"name"`
	Color models.RGBA `json:"color" yaml:"color"`
}

// BrandPalette is an ordered brand -> color table.
//
// Matching is substring containment evaluated in slice order, and the first
// entry whose Name is contained in the company name wins. The order is part
// of the palette's contract: reordering entries changes which color a company
// name spanning two brand names receives.
type BrandPalette struct {
	Brands   []BrandColor `json:"brands" yaml:"brands"`
	Fallback models.RGBA  `json:"fallback" yaml:"fallback"`
}

// DefaultPalette returns the five major convenience-store chains
func DefaultPalette() BrandPalette {
	return BrandPalette{
		Brands: []BrandColor{
			{Name: "統一超商股份有限公司", Color: models.RGBA{235, 120, 35, 200}},   // 7-ELEVEN
			{Name: "全家便利商店股份有限公司", Color: models.RGBA{0, 100, 180, 200}}, // FamilyMart
			{Name: "萊爾富國際股份有限公司", Color: models.RGBA{0, 229, 230, 200}},   // Hi-Life
			{Name: "來來超商股份有限公司", Color: models.RGBA{200, 0, 0, 200}},      // OK mart
			{Name: "全聯實業股份有限公司", Color: models.RGBA{0, 50, 150, 200}},      // PX Mart
		},
		Fallback: FallbackColor,
	}
}

// ColorForBrand returns the color of the first palette brand contained in companyName
func ColorForBrand(companyName string, palette BrandPalette) models.RGBA {
	for _, b := range palette.Brands {
		if b.Name != "" && strings.Contains(companyName, b.Name) {
			return b.Color
		}
	}
	return palette.Fallback
}

// Names returns the brand names in palette order
func (p BrandPalette) Names() []string {
	names := make([]string, 0, len(p.Brands))
	for _, b := range p.Brands {
		names = append(names, b.Name)
	}
	return names
}

// Has reports whether name is one of the palette brands
func (p BrandPalette) Has(name string) bool {
	for _, b := range p.Brands {
		if b.Name == name {
			return true
		}
	}
	return false
}

var displayNameReplacer = strings.NewReplacer("股份有限公司", "", "便利商店", "", "實業", "")

// DisplayName shortens a brand legal name for button labels,
// e.g. "全家便利商店股份有限公司" -> "全家"
func DisplayName(brand string) string {
	return displayNameReplacer.Replace(brand)
}
