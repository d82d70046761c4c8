package export

import (
	"github.com/tidwall/match"

	"github.com/dshills/lexrope/internal/document"
	"github.com/dshills/lexrope/internal/syntax"
	"github.com/dshills/lexrope/internal/syntax/lexer"
)

// Source is a text together with its tokens.
type Source struct {
	Name     string
	Language string
	Text     string
	Tokens   *syntax.Tokens[lexer.Kind]
}

// FromDocument returns the current state of d as a Source.
func FromDocument(d *document.Document) Source {
	return Source{
		Name:     d.Name(),
		Language: d.Lexer().Language(),
		Text:     d.Text(),
		Tokens:   d.Tokens(),
	}
}

// TokenText returns the text covered by tok.
func (s Source) TokenText(tok syntax.Token[lexer.Kind]) string {
	return s.Text[tok.Start:tok.End]
}

// Filter selects tokens by kind name using glob patterns such as
// "comment*" or "keyword?declaration". The zero Filter matches everything.
type Filter struct {
	patterns []string
}

// NewFilter returns a filter matching any of patterns.
func NewFilter(patterns ...string) Filter {
	var f Filter
	for _, p := range patterns {
		if p != "" {
			f.patterns = append(f.patterns, p)
		}
	}
	return f
}

// Match reports whether kind is selected.
func (f Filter) Match(kind lexer.Kind) bool {
	if len(f.patterns) == 0 {
		return true
	}
	name := kind.String()
	for _, p := range f.patterns {
		if match.Match(name, p) {
			return true
		}
	}
	return false
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return len(f.patterns) == 0
}
