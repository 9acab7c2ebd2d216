// Package render turns slices of an analysis response into HTML fragments.
// Every function is pure: the same input always yields the same markup, and
// each fragment fully replaces the region it is written to.
package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/dyike/tickerview/internal/models"
)

// Currency prefixes every rendered price.
const Currency = "₹"

const (
	NoSummary     = "No summary available."
	NoPerformance = "No performance data available."
	NoFinancials  = "No financial data available."
	NoLinks       = "No redirect links generated."
	NoNews        = "No news available."
	NoHeadline    = "No headline provided"
	ReadSource    = "Read Source ↗"
	NotAvailable  = "N/A"
)

var esc = html.EscapeString

// Summary renders the summary region. Percentages are highlighted.
func Summary(text string) string {
	if strings.TrimSpace(text) == "" {
		return esc(NoSummary)
	}
	return Highlight(Tokenize(text))
}

// Loading is the summary placeholder shown while a request is in flight.
func Loading(ticker string) string {
	return fmt.Sprintf(`Analyzing %s... <div class="spinner"></div>`, esc(ticker))
}

// Failure is the summary shown for transport and decode failures.
func Failure(err error) string {
	msg := strings.TrimSuffix(err.Error(), ".")
	return fmt.Sprintf("⚠️ Analysis failed: %s. Please check webhook logs.", esc(msg))
}

// WorkflowError is the summary shown when the workflow reports its own
// failure. The raw output block is omitted when there is none.
func WorkflowError(res *models.ErrorResult) string {
	var sb strings.Builder
	sb.WriteString("⚠️ <b>Workflow Error:</b> ")
	sb.WriteString(esc(res.Error))
	if res.RawOutput != "" {
		sb.WriteString("<br><br><code>")
		sb.WriteString(esc(res.RawOutput))
		sb.WriteString("</code>")
	}
	return sb.String()
}

// Price formats a price as currency with two decimals.
func Price(v models.Value) string {
	if fixed, ok := v.Fixed(2); ok {
		return Currency + fixed
	}
	return Currency + NotAvailable
}

// Fixed2 formats a numeric value to two decimals, or N/A.
func Fixed2(v models.Value) string {
	if fixed, ok := v.Fixed(2); ok {
		return fixed
	}
	return NotAvailable
}
