package render

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dyike/tickerview/internal/models"
)

const (
	LabelOverbought = "Overbought"
	LabelOversold   = "Oversold"
	LabelNeutral    = "Neutral"
	LabelMomentum   = "Momentum"
)

var (
	rsiUpper = decimal.NewFromInt(70)
	rsiLower = decimal.NewFromInt(30)
)

// Metrics is the text of every key-metric field.
type Metrics struct {
	Price    string
	Change   string
	Positive bool
	PERatio  string
	RSI      string
	RSILabel string
	Volume   string
}

// ChangeClass is the style class for the change field.
func (m Metrics) ChangeClass() string {
	if m.Positive {
		return "change-positive"
	}
	return "change-negative"
}

// KeyMetrics formats the key metrics. A nil input renders every field as N/A.
func KeyMetrics(km *models.KeyMetrics) Metrics {
	if km == nil {
		km = &models.KeyMetrics{}
	}

	change := km.FormattedChange
	if change == "" {
		change = km.Change.String()
	}
	if change == "" {
		change = NotAvailable
	}

	volume := strings.TrimSpace(km.Volume.String())
	if volume == "" {
		volume = NotAvailable
	}

	return Metrics{
		Price:    Price(km.Price),
		Change:   change,
		Positive: strings.HasPrefix(strings.TrimSpace(change), "+"),
		PERatio:  Fixed2(km.PERatio),
		RSI:      Fixed2(km.RSI),
		RSILabel: RSILabel(km.RSI),
		Volume:   volume,
	}
}

// RSILabel buckets an RSI reading: above 70 is overbought, below 30
// oversold, anything else neutral. Missing or non-numeric readings get the
// generic momentum label.
func RSILabel(rsi models.Value) string {
	d, ok := rsi.Decimal()
	if !ok {
		return LabelMomentum
	}
	switch {
	case d.GreaterThan(rsiUpper):
		return LabelOverbought
	case d.LessThan(rsiLower):
		return LabelOversold
	default:
		return LabelNeutral
	}
}
