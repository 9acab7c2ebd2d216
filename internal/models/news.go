package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// NewsBullet separates headlines when the webhook sends news as one string.
const NewsBullet = "•"

type NewsItem struct {
	News string `json:"news,omitempty"`
	URL  string `json:"url,omitempty"`
}

// NewsList is the canonical news shape. It decodes from either an array of
// items or a single bullet-delimited string; the string form is split on
// NewsBullet with blank segments dropped. Any other shape decodes to an
// empty list so the rest of the response still renders.
type NewsList []NewsItem

func (l *NewsList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*l = nil
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = SplitNews(s)
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make(NewsList, 0, len(raw))
		for _, elem := range raw {
			items = append(items, decodeNewsItem(elem))
		}
		*l = items
	}
	return nil
}

// decodeNewsItem accepts {news,url} objects and bare headline strings.
// Anything else becomes an empty item, which renders as a missing headline.
func decodeNewsItem(elem json.RawMessage) NewsItem {
	elem = bytes.TrimSpace(elem)
	if len(elem) == 0 {
		return NewsItem{}
	}
	switch elem[0] {
	case '"':
		var s string
		if err := json.Unmarshal(elem, &s); err != nil {
			return NewsItem{}
		}
		return NewsItem{News: s}
	case '{':
		var wire struct {
			News json.RawMessage `json:"news"`
			URL  json.RawMessage `json:"url"`
		}
		if err := json.Unmarshal(elem, &wire); err != nil {
			return NewsItem{}
		}
		return NewsItem{News: scalarText(wire.News), URL: scalarText(wire.URL)}
	}
	return NewsItem{}
}

// SplitNews turns a bullet-delimited string into news items.
func SplitNews(s string) NewsList {
	var items NewsList
	for _, segment := range strings.Split(s, NewsBullet) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		items = append(items, NewsItem{News: segment})
	}
	return items
}
