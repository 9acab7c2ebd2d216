// Package display prints a rendered analysis view to a terminal.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/lipgloss"

	"github.com/dyike/tickerview/internal/page"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 2)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	positiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	negativeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF"))

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Underline(true)
)

// ResultsDisplay writes the regions of a view as styled text.
type ResultsDisplay struct {
	w     io.Writer
	width int
}

func NewResultsDisplay(w io.Writer) *ResultsDisplay {
	return &ResultsDisplay{w: w, width: 78}
}

// Show prints every region of the view.
func (d *ResultsDisplay) Show(v *page.View) {
	d.showHeader(v)
	d.showMetrics(v)
	d.showSummary(v)
	d.showTable(v)
	d.showLinks(v)
	d.showNews(v)
}

func (d *ResultsDisplay) showHeader(v *page.View) {
	fmt.Fprintln(d.w, headerStyle.Render("📊 Analysis for "+v.Text(page.SlotTicker)))
	fmt.Fprintln(d.w)
}

func (d *ResultsDisplay) showMetrics(v *page.View) {
	if !v.Has(page.SlotPrice) {
		return
	}
	change := v.Text(page.SlotChange)
	switch {
	case v.HasClass(page.SlotChange, "change-positive"):
		change = positiveStyle.Render(change)
	case v.HasClass(page.SlotChange, "change-negative"):
		change = negativeStyle.Render(change)
	}

	fmt.Fprintf(d.w, "%s %s   %s %s   %s %s\n",
		labelStyle.Render("Price:"), v.Text(page.SlotPrice),
		labelStyle.Render("Change:"), change,
		labelStyle.Render("Volume:"), v.Text(page.SlotVolume))
	fmt.Fprintf(d.w, "%s %s   %s %s\n\n",
		labelStyle.Render("P/E:"), v.Text(page.SlotPE),
		labelStyle.Render(v.Text(page.SlotRSILabel)+" (RSI):"), v.Text(page.SlotRSI))
}

func (d *ResultsDisplay) showSummary(v *page.View) {
	fmt.Fprintln(d.w, sectionStyle.Render("Summary"))
	text := v.Text(page.SlotSummary)
	if text == "" {
		text = "(empty)"
	}
	fmt.Fprintln(d.w, lipgloss.NewStyle().Width(d.width).PaddingLeft(2).Render(text))
	fmt.Fprintln(d.w)
}

func (d *ResultsDisplay) showTable(v *page.View) {
	var rows [][]string
	v.Each(page.SlotTable, "tr", func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			text := strings.TrimSpace(cell.Text())
			style, _ := cell.Attr("style")
			switch {
			case strings.Contains(style, "green"):
				text = positiveStyle.Render(text)
			case strings.Contains(style, "red"):
				text = negativeStyle.Render(text)
			case cell.Is("th"):
				text = sectionStyle.Render(text)
			}
			cells = append(cells, text)
		})
		rows = append(rows, cells)
	})
	if len(rows) == 0 {
		return
	}

	fmt.Fprintln(d.w, sectionStyle.Render("Performance"))
	for _, cells := range rows {
		fmt.Fprintln(d.w, "  "+strings.Join(cells, mutedStyle.Render(" │ ")))
	}
	fmt.Fprintln(d.w)
}

func (d *ResultsDisplay) showLinks(v *page.View) {
	var lines []string
	v.Each(page.SlotLinks, "li", func(_ int, li *goquery.Selection) {
		a := li.Find("a")
		if a.Length() == 0 {
			lines = append(lines, mutedStyle.Render(strings.TrimSpace(li.Text())))
			return
		}
		href, _ := a.Attr("href")
		lines = append(lines, fmt.Sprintf("%s %s", strings.TrimSpace(a.Text()), linkStyle.Render(href)))
	})
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(d.w, sectionStyle.Render("Related Links"))
	for _, line := range lines {
		fmt.Fprintln(d.w, "  • "+line)
	}
	fmt.Fprintln(d.w)
}

func (d *ResultsDisplay) showNews(v *page.View) {
	var lines []string
	v.Each(page.SlotNews, "li", func(_ int, li *goquery.Selection) {
		headline := strings.TrimSpace(li.Find("span").Text())
		href, _ := li.Find("a").Attr("href")
		if href != "" && href != "#" {
			headline += " " + linkStyle.Render(href)
		}
		lines = append(lines, headline)
	})
	text := v.Text(page.SlotNews)
	if len(lines) == 0 && text == "" {
		return
	}

	fmt.Fprintln(d.w, sectionStyle.Render("News"))
	if len(lines) == 0 {
		fmt.Fprintln(d.w, "  "+mutedStyle.Render(text))
	}
	for _, line := range lines {
		fmt.Fprintln(d.w, "  • "+line)
	}
	fmt.Fprintln(d.w)
}

// Success prints a success line.
func Success(w io.Writer, message string) {
	fmt.Fprintln(w, positiveStyle.Render("✅ "+message))
}

// Warning prints a warning line.
func Warning(w io.Writer, message string) {
	fmt.Fprintln(w, negativeStyle.Render("⚠️  "+message))
}

// Info prints an informational line.
func Info(w io.Writer, message string) {
	fmt.Fprintln(w, labelStyle.Render("ℹ️  "+message))
}
