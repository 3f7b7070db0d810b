package colorscale

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jengzang/webgis-dashboard/internal/models"
)

func TestColorForBrand_KnownAndUnknownCompanies(t *testing.T) {
	palette := DefaultPalette()

	cases := []struct {
		company string
		want    models.RGBA
	}{
		{"統一超商股份有限公司", models.RGBA{235, 120, 35, 200}},
		{"全家便利商店股份有限公司", models.RGBA{0, 100, 180, 200}},
		{"XYZ未知公司", models.RGBA{150, 150, 150, 150}},
		{"", models.RGBA{150, 150, 150, 150}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ColorForBrand(tc.company, palette), tc.company)
	}
}

func TestColorForBrand_SubstringMatch(t *testing.T) {
	palette := DefaultPalette()

	// Company names carrying a branch suffix still match their brand
	got := ColorForBrand("萊爾富國際股份有限公司台北分公司", palette)
	assert.Equal(t, models.RGBA{0, 229, 230, 200}, got)
}

func TestColorForBrand_FirstEntryWins(t *testing.T) {
	palette := BrandPalette{
		Brands: []BrandColor{
			{Name: "全家", Color: models.RGBA{1, 1, 1, 1}},
			{Name: "全家便利商店", Color: models.RGBA{2, 2, 2, 2}},
		},
		Fallback: FallbackColor,
	}
	assert.Equal(t, models.RGBA{1, 1, 1, 1}, ColorForBrand("全家便利商店股份有限公司", palette))

	palette.Brands[0], palette.Brands[1] = palette.Brands[1], palette.Brands[0]
	assert.Equal(t, models.RGBA{2, 2, 2, 2}, ColorForBrand("全家便利商店股份有限公司", palette))
}

func TestColorForBrand_Deterministic(t *testing.T) {
	palette := DefaultPalette()
	names := []string{"統一超商股份有限公司", "全聯實業股份有限公司", "某某商行", "來來超商股份有限公司"}
	for _, name := range names {
		first := ColorForBrand(name, palette)
		for i := 0; i < 50; i++ {
			assert.Equal(t, first, ColorForBrand(name, palette))
		}
	}
}

func TestColorForBrand_EmptyNameNeverMatches(t *testing.T) {
	palette := BrandPalette{
		Brands:   []BrandColor{{Name: "", Color: models.RGBA{9, 9, 9, 9}}},
		Fallback: FallbackColor,
	}
	assert.Equal(t, FallbackColor, ColorForBrand("anything", palette))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "統一超商", DisplayName("統一超商股份有限公司"))
	assert.Equal(t, "全家", DisplayName("全家便利商店股份有限公司"))
	assert.Equal(t, "全聯", DisplayName("全聯實業股份有限公司"))
	assert.Equal(t, "萊爾富國際", DisplayName("萊爾富國際股份有限公司"))
}

func TestBrandPalette_NamesAndHas(t *testing.T) {
	palette := DefaultPalette()
	names := palette.Names()
	assert.Len(t, names, 5)
	assert.Equal(t, "統一超商股份有限公司", names[0])
	assert.True(t, palette.Has("全家便利商店股份有限公司"))
	assert.False(t, palette.Has("全家"))
}
