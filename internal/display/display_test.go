package display

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/tickerview/internal/analysis"
	"github.com/dyike/tickerview/internal/models"
	"github.com/dyike/tickerview/internal/page"
)

type fixedAnalyzer struct{ resp *models.AnalysisResponse }

func (f fixedAnalyzer) Analyze(context.Context, models.AnalysisRequest) (*models.AnalysisResponse, error) {
	return f.resp, nil
}

func TestShowPrintsEveryRegion(t *testing.T) {
	p, err := page.DefaultTemplate().New()
	require.NoError(t, err)
	view, err := page.Bind(p, page.DefaultRegions())
	require.NoError(t, err)

	analyzer := fixedAnalyzer{resp: &models.AnalysisResponse{Success: &models.SuccessResult{
		SummaryText:     "Solid quarter",
		KeyMetrics:      &models.KeyMetrics{Price: models.NumberValue(99.999), RSI: models.NumberValue(80)},
		PerformanceData: []models.PerformanceRow{{Stock: "ABC", Price: models.NumberValue(1), Change: models.StringValue("+1%"), Color: "green"}},
		RedirectLinks:   []models.Link{{Name: "Exchange", URL: "https://exchange.example.com"}},
		News:            models.NewsList{{News: "Big news", URL: "https://news.example.com"}},
	}}}
	_, err = analysis.NewController(analyzer, view).Run(context.Background(), "abc")
	require.NoError(t, err)

	var buf bytes.Buffer
	NewResultsDisplay(&buf).Show(view)
	out := buf.String()

	for _, want := range []string{"ABC", "₹100.00", "Overbought", "Solid quarter", "Stock", "Exchange", "https://exchange.example.com", "Big news"} {
		assert.Contains(t, out, want)
	}
}
