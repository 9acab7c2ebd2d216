// Package analysis drives one ticker analysis from input to rendered view.
package analysis

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/phuslu/log"

	"github.com/dyike/tickerview/internal/models"
	"github.com/dyike/tickerview/internal/page"
	"github.com/dyike/tickerview/internal/render"
)

// Analyzer performs the remote analysis. *webhook.Client satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResponse, error)
}

// Phase tells an observer which state the view just reached.
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseDone    Phase = "done"
)

// Observer is notified after the loading state is written and again after
// the final render.
type Observer func(phase Phase, ticker string, snap page.Snapshot)

// Outcome is how a run ended.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeWorkflowError
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeWorkflowError:
		return "workflow_error"
	default:
		return "failed"
	}
}

// Result describes a completed run. Err is set for transport and decode
// failures; Workflow is set when the webhook reported its own failure.
type Result struct {
	Ticker   string
	Outcome  Outcome
	Err      error
	Workflow *models.ErrorResult
	Response *models.AnalysisResponse
	// Stale is true when a newer run started before this one finished. Its
	// render still went through.
	Stale bool
}

var errEmptyResponse = errors.New("analyzer returned no response")

// Placeholders written into metric fields.
const (
	MetricLoading = "…"
	MetricFailed  = "Error"
)

// Controller validates input, shows the loading state, calls the analyzer
// once and renders the outcome into its view.
type Controller struct {
	analyzer Analyzer
	view     *page.View
	observer Observer
	seq      atomic.Uint64
}

type Option func(*Controller)

func WithObserver(obs Observer) Option {
	return func(c *Controller) { c.observer = obs }
}

func NewController(analyzer Analyzer, view *page.View, opts ...Option) *Controller {
	c := &Controller{analyzer: analyzer, view: view}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// View returns the view the controller renders into.
func (c *Controller) View() *page.View { return c.view }

// Run analyzes raw user input. Blank input returns models.ErrEmptyTicker
// without touching the view or calling the analyzer. Every other failure is
// rendered into the view and reported in the Result; Run then returns a nil
// error.
//
// Runs are not cancelled by later runs. When calls overlap, whichever
// finishes last owns the view.
func (c *Controller) Run(ctx context.Context, raw string) (*Result, error) {
	req, err := models.NewAnalysisRequest(raw)
	if err != nil {
		return nil, err
	}

	id := c.seq.Add(1)
	c.showLoading(req.Ticker)

	res := &Result{Ticker: req.Ticker}
	defer func() {
		c.view.RemoveClass(page.SlotCard, page.LoadingClass)
		c.notify(PhaseDone, req.Ticker)
	}()

	resp, err := c.analyzer.Analyze(ctx, req)
	if latest := c.seq.Load(); latest != id {
		res.Stale = true
		log.Warn().Str("ticker", req.Ticker).Uint64("run", id).Uint64("latest", latest).Msg("Rendering response from superseded run")
	}

	if err == nil && resp == nil {
		err = &models.MalformedResponseError{Err: errEmptyResponse}
	}

	switch {
	case err != nil:
		res.Outcome = OutcomeFailed
		res.Err = err
		c.showFailure(err)
	case resp.IsError():
		res.Outcome = OutcomeWorkflowError
		res.Workflow = resp.Error
		res.Response = resp
		c.showWorkflowError(resp.Error)
	default:
		res.Outcome = OutcomeSuccess
		res.Response = resp
		c.showSuccess(resp.Success)
	}

	log.Info().Str("ticker", req.Ticker).Str("outcome", res.Outcome.String()).Msg("Analysis rendered")
	return res, nil
}

func (c *Controller) showLoading(ticker string) {
	v := c.view
	v.Clear(page.SlotNotice)
	v.SetText(page.SlotTicker, ticker)
	v.SetHTML(page.SlotSummary, render.Loading(ticker))
	v.Clear(page.SlotTable)
	v.Clear(page.SlotLinks)
	v.Clear(page.SlotNews)
	c.setMetrics(MetricLoading)
	v.RemoveClass(page.SlotChange, "change-positive", "change-negative")
	v.AddClass(page.SlotCard, page.LoadingClass)
	c.notify(PhaseLoading, ticker)
}

func (c *Controller) showFailure(err error) {
	c.view.SetHTML(page.SlotSummary, render.Failure(err))
	c.setMetrics(MetricFailed)
}

func (c *Controller) showWorkflowError(res *models.ErrorResult) {
	c.view.SetHTML(page.SlotSummary, render.WorkflowError(res))
	c.view.Clear(page.SlotTable)
	c.view.Clear(page.SlotLinks)
	c.setMetrics(render.NotAvailable)
}

func (c *Controller) showSuccess(res *models.SuccessResult) {
	if res == nil {
		res = &models.SuccessResult{}
	}
	v := c.view
	v.SetHTML(page.SlotSummary, render.Summary(res.SummaryText))

	if v.Has(page.SlotPrice) {
		m := render.KeyMetrics(res.KeyMetrics)
		v.SetText(page.SlotPrice, m.Price)
		v.SetText(page.SlotChange, m.Change)
		v.AddClass(page.SlotChange, m.ChangeClass())
		v.SetText(page.SlotPE, m.PERatio)
		v.SetText(page.SlotRSI, m.RSI)
		v.SetText(page.SlotRSILabel, m.RSILabel)
		v.SetText(page.SlotVolume, m.Volume)
	}

	// Pages show one table: performance rows when present, otherwise
	// financials, otherwise the empty performance table.
	if len(res.PerformanceData) == 0 && len(res.FinancialsData) > 0 {
		v.SetHTML(page.SlotTable, render.FinancialsTable(res.FinancialsData))
	} else {
		v.SetHTML(page.SlotTable, render.PerformanceTable(res.PerformanceData))
	}
	v.SetHTML(page.SlotLinks, render.Links(res.RedirectLinks))
	v.SetHTML(page.SlotNews, render.News(res.News))
}

func (c *Controller) setMetrics(text string) {
	for _, slot := range page.MetricSlots {
		if slot == page.SlotRSILabel {
			continue
		}
		c.view.SetText(slot, text)
	}
	c.view.SetText(page.SlotRSILabel, render.LabelMomentum)
}

func (c *Controller) notify(phase Phase, ticker string) {
	if c.observer != nil {
		c.observer(phase, ticker, c.view.Snapshot())
	}
}
