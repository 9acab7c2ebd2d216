// Package page binds the host HTML page to the display regions the
// analysis controller writes into.
package page

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/PuerkitoBio/goquery"
)

//go:embed assets/index.html
var defaultPage []byte

// Template is the host page source. Each analysis binds a fresh Page parsed
// from it, so renders never leak between requests.
type Template struct {
	source []byte
}

// DefaultTemplate returns the embedded host page.
func DefaultTemplate() *Template {
	return &Template{source: defaultPage}
}

// LoadTemplate reads a host page from disk. An empty path yields the
// embedded page.
func LoadTemplate(path string) (*Template, error) {
	if path == "" {
		return DefaultTemplate(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read page %s: %w", path, err)
	}
	return NewTemplate(data), nil
}

func NewTemplate(source []byte) *Template {
	return &Template{source: source}
}

// New parses a fresh copy of the host page.
func (t *Template) New() (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(t.source))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return &Page{doc: doc}, nil
}

// Page is a parsed host document.
type Page struct {
	doc *goquery.Document
}

func (p *Page) byID(id string) *goquery.Selection {
	return p.doc.Find("#" + id).First()
}

// HTML renders the whole document.
func (p *Page) HTML() (string, error) {
	return p.doc.Html()
}
