package render

import (
	"html"
	"regexp"
	"strings"
)

// TokenKind classifies a piece of summary text.
type TokenKind int

const (
	TokenText TokenKind = iota
	TokenPositive
	TokenNegative
)

// Token is one run of summary text.
type Token struct {
	Kind TokenKind
	Text string
}

var percentPattern = regexp.MustCompile(`[+-]?\d+(?:\.\d+)?%`)

// Tokenize splits text into plain runs and percentage figures. A figure
// with a leading '-' is negative; every other figure is positive.
func Tokenize(text string) []Token {
	var tokens []Token
	last := 0
	for _, loc := range percentPattern.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			tokens = append(tokens, Token{Kind: TokenText, Text: text[last:loc[0]]})
		}
		figure := text[loc[0]:loc[1]]
		kind := TokenPositive
		if strings.HasPrefix(figure, "-") {
			kind = TokenNegative
		}
		tokens = append(tokens, Token{Kind: kind, Text: figure})
		last = loc[1]
	}
	if last < len(text) {
		tokens = append(tokens, Token{Kind: TokenText, Text: text[last:]})
	}
	return tokens
}

// Highlight renders tokens as escaped markup with colored percentages.
func Highlight(tokens []Token) string {
	var sb strings.Builder
	for _, tok := range tokens {
		switch tok.Kind {
		case TokenPositive:
			sb.WriteString(`<span class="pct-positive" style="color: green; font-weight: bold;">`)
			sb.WriteString(html.EscapeString(tok.Text))
			sb.WriteString(`</span>`)
		case TokenNegative:
			sb.WriteString(`<span class="pct-negative" style="color: red; font-weight: bold;">`)
			sb.WriteString(html.EscapeString(tok.Text))
			sb.WriteString(`</span>`)
		default:
			sb.WriteString(html.EscapeString(tok.Text))
		}
	}
	return sb.String()
}
