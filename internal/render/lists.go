package render

import (
	"fmt"
	"strings"

	"github.com/dyike/tickerview/internal/models"
)

const (
	styleGreen = `style="color: green; font-weight: bold;"`
	styleRed   = `style="color: red; font-weight: bold;"`
	styleGray  = `style="color: gray;"`
)

func changeStyle(color string) string {
	switch strings.ToLower(strings.TrimSpace(color)) {
	case "green":
		return styleGreen
	case "red":
		return styleRed
	default:
		return styleGray
	}
}

// PerformanceTable renders performance rows as a thead/tbody pair.
func PerformanceTable(rows []models.PerformanceRow) string {
	var sb strings.Builder
	sb.WriteString("<thead><tr><th>Stock</th><th>Price (" + Currency + ")</th><th>Change</th></tr></thead><tbody>")
	if len(rows) == 0 {
		sb.WriteString(`<tr><td colspan="3">` + NoPerformance + `</td></tr>`)
	}
	for _, row := range rows {
		fmt.Fprintf(&sb, "<tr><td>%s</td><td>%s</td><td %s>%s</td></tr>",
			esc(row.Stock), esc(Price(row.Price)), changeStyle(row.Color), esc(row.DisplayChange()))
	}
	sb.WriteString("</tbody>")
	return sb.String()
}

// FinancialsTable renders metric/value pairs.
func FinancialsTable(rows []models.FinancialRow) string {
	var sb strings.Builder
	sb.WriteString("<thead><tr><th>Metric</th><th>Value</th></tr></thead><tbody>")
	if len(rows) == 0 {
		sb.WriteString(`<tr><td colspan="2">` + NoFinancials + `</td></tr>`)
	}
	for _, row := range rows {
		fmt.Fprintf(&sb, "<tr><td>%s</td><td>%s</td></tr>", esc(row.Metric), esc(row.Value.String()))
	}
	sb.WriteString("</tbody>")
	return sb.String()
}

// Links renders the related links list. Each link opens in a new tab.
func Links(links []models.Link) string {
	var sb strings.Builder
	sb.WriteString("<h5>Related Links</h5><ul>")
	if len(links) == 0 {
		sb.WriteString("<li>" + NoLinks + "</li>")
	}
	for _, link := range links {
		fmt.Fprintf(&sb, `<li><a href="%s" target="_blank" rel="noopener">%s</a></li>`, esc(link.URL), esc(link.Name))
	}
	sb.WriteString("</ul>")
	return sb.String()
}

// News renders headlines with a source link. A leading bullet is stripped
// from each headline.
func News(items models.NewsList) string {
	if len(items) == 0 {
		return "<p>" + NoNews + "</p>"
	}
	var sb strings.Builder
	sb.WriteString("<ul>")
	for _, item := range items {
		text := item.News
		if text == "" {
			text = NoHeadline
		}
		text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), models.NewsBullet))
		url := item.URL
		if url == "" {
			url = "#"
		}
		fmt.Fprintf(&sb, `<li style="margin-bottom: 12px;"><span>%s</span><br><a href="%s" target="_blank" rel="noopener" style="font-size: 0.85em; color: #007bff; text-decoration: none;">%s</a></li>`,
			esc(text), esc(url), ReadSource)
	}
	sb.WriteString("</ul>")
	return sb.String()
}
