package page

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Slot names a display region independent of the page's element ids.
type Slot string

const (
	SlotTicker   Slot = "ticker"
	SlotSummary  Slot = "summary"
	SlotCard     Slot = "card"
	SlotTable    Slot = "table"
	SlotLinks    Slot = "links"
	SlotNews     Slot = "news"
	SlotNotice   Slot = "notice"
	SlotPrice    Slot = "price"
	SlotChange   Slot = "change"
	SlotPE       Slot = "pe"
	SlotRSI      Slot = "rsi"
	SlotRSILabel Slot = "rsi_label"
	SlotVolume   Slot = "volume"
)

// LoadingClass marks the summary card while a request is in flight.
const LoadingClass = "loading"

// RequiredSlots must exist on every host page. The notice and metric slots
// are optional; writes to them are dropped when the page lacks them.
var RequiredSlots = []Slot{SlotTicker, SlotSummary, SlotCard, SlotTable, SlotLinks, SlotNews}

// MetricSlots are the individual key-metric fields of the richer page.
var MetricSlots = []Slot{SlotPrice, SlotChange, SlotPE, SlotRSI, SlotRSILabel, SlotVolume}

var ErrMissingRegion = errors.New("page: missing region")

// Regions maps slots to element ids.
type Regions map[Slot]string

// DefaultRegions matches the embedded host page.
func DefaultRegions() Regions {
	return Regions{
		SlotTicker:   "ticker-display",
		SlotSummary:  "summary-text",
		SlotCard:     "summary-card",
		SlotTable:    "financials-table",
		SlotLinks:    "redirect-links",
		SlotNews:     "news-text",
		SlotNotice:   "notice",
		SlotPrice:    "metric-price",
		SlotChange:   "metric-change",
		SlotPE:       "metric-pe",
		SlotRSI:      "metric-rsi",
		SlotRSILabel: "metric-rsi-label",
		SlotVolume:   "metric-volume",
	}
}

// View is the set of bound regions on one page. It is safe for concurrent
// use; every method takes the view lock.
type View struct {
	mu    sync.Mutex
	page  *Page
	slots map[Slot]*goquery.Selection
}

// Bind resolves every region of the page once. A required slot with no
// matching element fails with ErrMissingRegion.
func Bind(p *Page, regions Regions) (*View, error) {
	v := &View{page: p, slots: make(map[Slot]*goquery.Selection, len(regions))}
	for slot, id := range regions {
		if id == "" {
			continue
		}
		sel := p.byID(id)
		if sel.Length() == 0 {
			continue
		}
		v.slots[slot] = sel
	}

	var missing []string
	for _, slot := range RequiredSlots {
		if _, ok := v.slots[slot]; !ok {
			missing = append(missing, fmt.Sprintf("%s (#%s)", slot, regions[slot]))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingRegion, strings.Join(missing, ", "))
	}
	return v, nil
}

// Has reports whether the page provides the slot.
func (v *View) Has(slot Slot) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.slots[slot]
	return ok
}

// SetHTML replaces the region's contents with markup.
func (v *View) SetHTML(slot Slot, markup string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if sel, ok := v.slots[slot]; ok {
		sel.SetHtml(markup)
	}
}

// SetText replaces the region's contents with escaped text.
func (v *View) SetText(slot Slot, text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if sel, ok := v.slots[slot]; ok {
		sel.SetText(text)
	}
}

// Clear empties the region.
func (v *View) Clear(slot Slot) {
	v.SetHTML(slot, "")
}

func (v *View) AddClass(slot Slot, class ...string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if sel, ok := v.slots[slot]; ok {
		sel.AddClass(class...)
	}
}

func (v *View) RemoveClass(slot Slot, class ...string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if sel, ok := v.slots[slot]; ok {
		sel.RemoveClass(class...)
	}
}

func (v *View) HasClass(slot Slot, class string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if sel, ok := v.slots[slot]; ok {
		return sel.HasClass(class)
	}
	return false
}

// InnerHTML returns the region's current markup.
func (v *View) InnerHTML(slot Slot) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return innerHTML(v.slots[slot])
}

// Text returns the region's text content with surrounding whitespace trimmed.
func (v *View) Text(slot Slot) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if sel, ok := v.slots[slot]; ok {
		return strings.TrimSpace(sel.Text())
	}
	return ""
}

// Each calls fn for every element matching selector inside the region.
func (v *View) Each(slot Slot, selector string, fn func(i int, s *goquery.Selection)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if sel, ok := v.slots[slot]; ok {
		sel.Find(selector).Each(fn)
	}
}

// Snapshot is the markup of every bound region at one point in time.
type Snapshot struct {
	Regions map[Slot]string `json:"regions"`
	Loading bool            `json:"loading"`
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	snap := Snapshot{Regions: make(map[Slot]string, len(v.slots))}
	for slot, sel := range v.slots {
		if slot == SlotCard {
			continue
		}
		snap.Regions[slot] = innerHTML(sel)
	}
	if card, ok := v.slots[SlotCard]; ok {
		snap.Loading = card.HasClass(LoadingClass)
	}
	return snap
}

// Slots lists the bound slots in a stable order.
func (v *View) Slots() []Slot {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Slot, 0, len(v.slots))
	for slot := range v.slots {
		out = append(out, slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HTML renders the whole page including every region.
func (v *View) HTML() (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page.HTML()
}

func innerHTML(sel *goquery.Selection) string {
	if sel == nil {
		return ""
	}
	html, err := sel.Html()
	if err != nil {
		return ""
	}
	return html
}
