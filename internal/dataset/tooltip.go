package dataset

import (
	"bytes"
	"html/template"

	"github.com/jengzang/webgis-dashboard/internal/models"
)

var (
	pointTooltip = template.Must(template.New("point").Parse(
		`<div style="padding: 5px;"><b style="color: #FFA500;">📍 {{.StoreName}}</b><br/>` +
			`<b>品牌:</b> {{.CompanyName}}<br/><b>地址:</b> {{.StoreAddress}}</div>`))

	gridTooltip = template.Must(template.New("grid").Parse(
		`<div style="padding: 5px;"><b style="color: #00BFFF;">▣ 1km 統計網格</b><br/>` +
			`<b>區域總店數:</b> {{.ConvenienceStoreCount}} 筆</div>`))
)

// PointTooltip renders the hover markup of a point. Text fields are escaped.
func PointTooltip(p models.PointRecord) string {
	return render(pointTooltip, p)
}

// GridTooltip renders the hover markup of a grid cell
func GridTooltip(c models.GridCell) string {
	return render(gridTooltip, c)
}

func render(t *template.Template, data interface{}) string {
	var buf bytes.Buffer
	// Both templates only read string and int fields, execution cannot fail
	_ = t.Execute(&buf, data)
	return buf.String()
}
