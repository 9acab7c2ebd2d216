package cli

import (
	"fmt"
	"io"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/dyike/tickerview/internal/display"
	"github.com/dyike/tickerview/internal/page"
)

type outputFormat string

const (
	formatText     outputFormat = "text"
	formatHTML     outputFormat = "html"
	formatMarkdown outputFormat = "markdown"
)

func writeView(w io.Writer, v *page.View, f outputFormat) error {
	switch f {
	case formatHTML:
		html, err := v.HTML()
		if err != nil {
			return fmt.Errorf("render page: %w", err)
		}
		_, err = io.WriteString(w, html)
		return err
	case formatMarkdown:
		out, err := toMarkdown(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, out)
		return err
	default:
		display.NewResultsDisplay(w).Show(v)
		return nil
	}
}

// toMarkdown converts the result card and its sibling regions, leaving out
// the form and styles of the host page.
func toMarkdown(v *page.View) (string, error) {
	html, err := v.HTML()
	if err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	conv := md.NewConverter("", true, nil)
	conv.Remove("style", "script", "form", "head")
	out, err := conv.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	return out, nil
}
