package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// AnalysisRequest is the body POSTed to the analysis webhook.
type AnalysisRequest struct {
	Ticker string `json:"ticker"`
}

// NewAnalysisRequest derives the ticker from raw user input: surrounding
// whitespace is trimmed and the result upper-cased. Blank input is rejected
// with ErrEmptyTicker.
func NewAnalysisRequest(raw string) (AnalysisRequest, error) {
	ticker := NormalizeTicker(raw)
	if ticker == "" {
		return AnalysisRequest{}, ErrEmptyTicker
	}
	return AnalysisRequest{Ticker: ticker}, nil
}

// NormalizeTicker trims and upper-cases a ticker.
func NormalizeTicker(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// AnalysisResponse is exactly one of Error or Success.
type AnalysisResponse struct {
	Error   *ErrorResult
	Success *SuccessResult
}

// IsError reports whether the webhook reported a workflow failure.
func (r *AnalysisResponse) IsError() bool {
	return r != nil && r.Error != nil
}

// ErrorResult is a failure reported by the workflow itself.
type ErrorResult struct {
	Error     string `json:"error"`
	RawOutput string `json:"raw_output,omitempty"`
}

// SuccessResult carries every display slice. All fields may be absent.
type SuccessResult struct {
	SummaryText     string           `json:"summary_text,omitempty"`
	KeyMetrics      *KeyMetrics      `json:"key_metrics,omitempty"`
	PerformanceData []PerformanceRow `json:"performance_data,omitempty"`
	FinancialsData  []FinancialRow   `json:"financials_data,omitempty"`
	RedirectLinks   []Link           `json:"redirect_links,omitempty"`
	News            NewsList         `json:"news,omitempty"`
}

type KeyMetrics struct {
	Price           Value  `json:"price"`
	Change          Value  `json:"change"`
	FormattedChange string `json:"formattedChange,omitempty"`
	PERatio         Value  `json:"pe_ratio"`
	RSI             Value  `json:"rsi"`
	Volume          Value  `json:"volume"`
}

type PerformanceRow struct {
	Stock           string `json:"stock"`
	Price           Value  `json:"price"`
	Change          Value  `json:"change"`
	FormattedChange string `json:"formattedChange,omitempty"`
	Color           string `json:"color,omitempty"`
}

// DisplayChange prefers the pre-formatted change over the raw field.
func (r PerformanceRow) DisplayChange() string {
	if r.FormattedChange != "" {
		return r.FormattedChange
	}
	return r.Change.String()
}

type FinancialRow struct {
	Metric string `json:"metric"`
	Value  Value  `json:"value"`
}

type Link struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// wireResponse mirrors the raw webhook body. The error fields stay raw so
// the union can be decided on truthiness rather than type.
// summary_text is raw for the same reason: a number or bool still renders.
type wireResponse struct {
	Error       json.RawMessage `json:"error"`
	RawOutput   json.RawMessage `json:"raw_output"`
	SummaryText json.RawMessage `json:"summary_text"`
	SuccessResult
}

// ParseAnalysisResponse decodes a webhook body into the response union. Any
// body that is not a JSON object yields a *MalformedResponseError.
func ParseAnalysisResponse(body []byte) (*AnalysisResponse, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &MalformedResponseError{Body: snippet(trimmed), Err: errNotObject}
	}

	var wire wireResponse
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, &MalformedResponseError{Body: snippet(trimmed), Err: err}
	}

	if msg, ok := truthyText(wire.Error); ok {
		raw, _ := truthyText(wire.RawOutput)
		return &AnalysisResponse{Error: &ErrorResult{Error: msg, RawOutput: raw}}, nil
	}

	success := wire.SuccessResult
	success.SummaryText = scalarText(wire.SummaryText)
	return &AnalysisResponse{Success: &success}, nil
}

// truthyText renders a raw JSON field as display text. Absent, null, false,
// zero and empty-string values count as unset.
func truthyText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", "false", "0", `""`:
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(raw), true
}

// scalarText is truthyText for fields that only make sense as text.
// Objects and arrays count as unset.
func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && (raw[0] == '{' || raw[0] == '[') {
		return ""
	}
	s, _ := truthyText(raw)
	return s
}

func snippet(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
