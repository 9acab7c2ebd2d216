package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/tickerview/internal/models"
	"github.com/dyike/tickerview/internal/page"
	"github.com/dyike/tickerview/internal/render"
)

type fakeAnalyzer struct {
	mu     sync.Mutex
	calls  []models.AnalysisRequest
	resp   *models.AnalysisResponse
	err    error
	during func()
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req models.AnalysisRequest) (*models.AnalysisResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.during != nil {
		f.during()
	}
	return f.resp, f.err
}

func newView(t *testing.T) *page.View {
	t.Helper()
	p, err := page.DefaultTemplate().New()
	require.NoError(t, err)
	v, err := page.Bind(p, page.DefaultRegions())
	require.NoError(t, err)
	return v
}

type phaseRecorder struct {
	mu     sync.Mutex
	phases []Phase
	snaps  []page.Snapshot
}

func (r *phaseRecorder) observe(phase Phase, _ string, snap page.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phases = append(r.phases, phase)
	r.snaps = append(r.snaps, snap)
}

func TestRunRejectsBlankInput(t *testing.T) {
	fake := &fakeAnalyzer{}
	view := newView(t)
	before, err := view.HTML()
	require.NoError(t, err)

	rec := &phaseRecorder{}
	ctrl := NewController(fake, view, WithObserver(rec.observe))
	res, err := ctrl.Run(context.Background(), "   ")

	assert.ErrorIs(t, err, models.ErrEmptyTicker)
	assert.Nil(t, res)
	assert.Empty(t, fake.calls)
	assert.Empty(t, rec.phases)

	after, err := view.HTML()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRunSuccess(t *testing.T) {
	view := newView(t)
	fake := &fakeAnalyzer{resp: &models.AnalysisResponse{Success: &models.SuccessResult{
		SummaryText: "Gained 3.2% this week",
		KeyMetrics: &models.KeyMetrics{
			Price: models.NumberValue(101.005), Change: models.StringValue("+3.2%"),
			RSI: models.NumberValue(25),
		},
		PerformanceData: []models.PerformanceRow{{Stock: "ABC", Price: models.NumberValue(12.345), Change: models.StringValue("+2%"), Color: "green"}},
		RedirectLinks:   []models.Link{{Name: "NSE", URL: "https://nse"}},
		News:            models.NewsList{{News: "• Headline", URL: "https://news"}},
	}}}
	fake.during = func() {
		assert.True(t, view.HasClass(page.SlotCard, page.LoadingClass), "card should be loading while the request is in flight")
		assert.Contains(t, view.InnerHTML(page.SlotSummary), "Analyzing RELIANCE...")
		assert.Empty(t, view.InnerHTML(page.SlotTable))
		assert.Empty(t, view.InnerHTML(page.SlotLinks))
		assert.Empty(t, view.InnerHTML(page.SlotNews))
		assert.Equal(t, MetricLoading, view.Text(page.SlotPrice))
	}

	rec := &phaseRecorder{}
	res, err := NewController(fake, view, WithObserver(rec.observe)).Run(context.Background(), " reliance ")
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, res.Outcome)
	require.Len(t, fake.calls, 1)
	assert.Equal(t, "RELIANCE", fake.calls[0].Ticker)

	assert.Equal(t, []Phase{PhaseLoading, PhaseDone}, rec.phases)
	assert.True(t, rec.snaps[0].Loading)
	assert.False(t, rec.snaps[1].Loading)
	assert.False(t, view.HasClass(page.SlotCard, page.LoadingClass))

	assert.Equal(t, "RELIANCE", view.Text(page.SlotTicker))
	assert.Contains(t, view.InnerHTML(page.SlotSummary), "pct-positive")
	assert.Equal(t, "₹101.01", view.Text(page.SlotPrice))
	assert.True(t, view.HasClass(page.SlotChange, "change-positive"))
	assert.Equal(t, render.LabelOversold, view.Text(page.SlotRSILabel))
	assert.Equal(t, render.NotAvailable, view.Text(page.SlotPE))
	assert.Contains(t, view.Text(page.SlotTable), "₹12.35")
	assert.Contains(t, view.Text(page.SlotLinks), "NSE")
	assert.Contains(t, view.Text(page.SlotNews), "Headline")
	assert.NotContains(t, view.Text(page.SlotNews), "•")
}

func TestRunEmptySuccessDegradesToNoDataMessages(t *testing.T) {
	view := newView(t)
	fake := &fakeAnalyzer{resp: &models.AnalysisResponse{Success: &models.SuccessResult{}}}

	res, err := NewController(fake, view).Run(context.Background(), "tcs")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, res.Outcome)

	assert.Equal(t, render.NoSummary, view.Text(page.SlotSummary))
	assert.Contains(t, view.Text(page.SlotTable), render.NoPerformance)
	assert.Contains(t, view.Text(page.SlotLinks), render.NoLinks)
	assert.Equal(t, render.NoNews, view.Text(page.SlotNews))
	assert.Equal(t, render.LabelMomentum, view.Text(page.SlotRSILabel))
	assert.Equal(t, render.NotAvailable, view.Text(page.SlotRSI))
}

func TestRunWorkflowErrorShortCircuits(t *testing.T) {
	view := newView(t)
	fake := &fakeAnalyzer{resp: &models.AnalysisResponse{Error: &models.ErrorResult{Error: "X", RawOutput: "raw dump"}}}

	res, err := NewController(fake, view).Run(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, OutcomeWorkflowError, res.Outcome)
	require.NotNil(t, res.Workflow)

	summary := view.Text(page.SlotSummary)
	assert.Contains(t, summary, "X")
	assert.Contains(t, summary, "raw dump")
	assert.Empty(t, view.InnerHTML(page.SlotTable))
	assert.Empty(t, view.InnerHTML(page.SlotLinks))
	assert.Empty(t, view.InnerHTML(page.SlotNews))
	assert.Equal(t, render.NotAvailable, view.Text(page.SlotPrice))
	assert.False(t, view.HasClass(page.SlotCard, page.LoadingClass))
}

func TestRunTransportFailure(t *testing.T) {
	view := newView(t)
	boom := errors.New("webhook HTTP error! Status: 500")
	fake := &fakeAnalyzer{err: boom}
	rec := &phaseRecorder{}

	res, err := NewController(fake, view, WithObserver(rec.observe)).Run(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, boom)

	assert.Contains(t, view.Text(page.SlotSummary), "Status: 500")
	for _, slot := range []page.Slot{page.SlotPrice, page.SlotChange, page.SlotPE, page.SlotRSI, page.SlotVolume} {
		assert.Equal(t, MetricFailed, view.Text(slot), string(slot))
	}
	assert.Equal(t, []Phase{PhaseLoading, PhaseDone}, rec.phases)
	assert.False(t, view.HasClass(page.SlotCard, page.LoadingClass))
}

func TestRunNilResponseIsMalformed(t *testing.T) {
	res, err := NewController(&fakeAnalyzer{}, newView(t)).Run(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	var merr *models.MalformedResponseError
	assert.True(t, errors.As(res.Err, &merr))
}

func TestRunIsIdempotent(t *testing.T) {
	view := newView(t)
	fake := &fakeAnalyzer{resp: &models.AnalysisResponse{Success: &models.SuccessResult{
		SummaryText:   "steady",
		RedirectLinks: []models.Link{{Name: "a", URL: "b"}},
	}}}
	ctrl := NewController(fake, view)

	_, err := ctrl.Run(context.Background(), "abc")
	require.NoError(t, err)
	first, err := view.HTML()
	require.NoError(t, err)

	_, err = ctrl.Run(context.Background(), "abc")
	require.NoError(t, err)
	second, err := view.HTML()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunMarksSupersededRunsStale(t *testing.T) {
	view := newView(t)
	release := make(chan struct{})
	started := make(chan struct{})

	slow := &fakeAnalyzer{resp: &models.AnalysisResponse{Success: &models.SuccessResult{SummaryText: "old"}}}
	slow.during = func() {
		close(started)
		<-release
	}
	ctrl := NewController(slow, view)

	done := make(chan *Result, 1)
	go func() {
		res, _ := ctrl.Run(context.Background(), "old")
		done <- res
	}()
	<-started

	ctrl.analyzer = &fakeAnalyzer{resp: &models.AnalysisResponse{Success: &models.SuccessResult{SummaryText: "new"}}}
	res, err := ctrl.Run(context.Background(), "new")
	require.NoError(t, err)
	assert.False(t, res.Stale)

	close(release)
	old := <-done
	assert.True(t, old.Stale)
	assert.Equal(t, "old", view.Text(page.SlotSummary))
}

func TestRunRendersEveryRegionDespiteOddNews(t *testing.T) {
	tests := map[string]string{
		`{}`:  render.NoNews,
		`[5]`: render.NoHeadline,
	}
	for news, want := range tests {
		t.Run(news, func(t *testing.T) {
			body := `{"summary_text": 5, "redirect_links": [{"name": "NSE", "url": "https://nse"}], "news": ` + news + `}`
			resp, err := models.ParseAnalysisResponse([]byte(body))
			require.NoError(t, err)

			view := newView(t)
			res, err := NewController(&fakeAnalyzer{resp: resp}, view).Run(context.Background(), "abc")
			require.NoError(t, err)

			assert.Equal(t, OutcomeSuccess, res.Outcome)
			assert.Equal(t, "5", view.Text(page.SlotSummary))
			assert.Contains(t, view.InnerHTML(page.SlotLinks), "https://nse")
			assert.Contains(t, view.Text(page.SlotNews), want)
		})
	}
}
