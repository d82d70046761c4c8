package export

import (
	"fmt"
	"sort"
	"strings"

	chroma "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/fatih/color"

	"github.com/dshills/lexrope/internal/syntax/lexer"
)

// DefaultTheme is the chroma style used when none is configured.
const DefaultTheme = "monokai"

// chromaTypes maps each kind to the chroma token types whose style colors
// it, most specific first.
var chromaTypes = map[lexer.Kind][]chroma.TokenType{
	lexer.KindInvalid:            {chroma.Error},
	lexer.KindWhitespace:         {chroma.TextWhitespace, chroma.Text},
	lexer.KindNewline:            {chroma.TextWhitespace, chroma.Text},
	lexer.KindComment:            {chroma.CommentSingle, chroma.Comment},
	lexer.KindCommentBlock:       {chroma.CommentMultiline, chroma.Comment},
	lexer.KindString:             {chroma.LiteralString},
	lexer.KindNumber:             {chroma.LiteralNumber},
	lexer.KindKeyword:            {chroma.Keyword},
	lexer.KindKeywordDeclaration: {chroma.KeywordDeclaration, chroma.Keyword},
	lexer.KindConstant:           {chroma.KeywordConstant, chroma.Keyword},
	lexer.KindTypeBuiltin:        {chroma.KeywordType, chroma.NameBuiltin},
	lexer.KindFunctionBuiltin:    {chroma.NameBuiltin, chroma.NameFunction},
	lexer.KindIdentifier:         {chroma.Name, chroma.Text},
	lexer.KindOperator:           {chroma.Operator},
	lexer.KindPunctuation:        {chroma.Punctuation, chroma.Text},
	lexer.KindMeta:               {chroma.CommentPreproc, chroma.Comment},
}

// Palette assigns a terminal color to every kind.
type Palette struct {
	name    string
	kinds   map[lexer.Kind]*color.Color
	plain   *color.Color
	enabled bool
}

// LoadPalette builds a palette from the named chroma style.
func LoadPalette(name string) (*Palette, error) {
	lookup := strings.ToLower(strings.TrimSpace(name))
	if lookup == "" {
		lookup = DefaultTheme
	}
	names := styles.Names()
	if !contains(names, lookup) {
		sort.Strings(names)
		return nil, fmt.Errorf("%w %q, try one of: %s", ErrUnknownTheme, name, strings.Join(names, ", "))
	}
	style := styles.Get(lookup)

	p := &Palette{
		name:  lookup,
		kinds: make(map[lexer.Kind]*color.Color, len(chromaTypes)),
		plain: color.New(color.Reset),
	}
	for kind, types := range chromaTypes {
		p.kinds[kind] = pickColor(style, types...)
	}
	p.SetEnabled(!color.NoColor)
	return p, nil
}

// Name returns the chroma style name.
func (p *Palette) Name() string {
	return p.name
}

// Color returns the color for kind.
func (p *Palette) Color(kind lexer.Kind) *color.Color {
	if c, ok := p.kinds[kind]; ok && c != nil {
		return c
	}
	return p.plain
}

// SetEnabled forces color output on or off regardless of the terminal.
func (p *Palette) SetEnabled(on bool) {
	p.enabled = on
	for _, c := range p.kinds {
		if c == nil {
			continue
		}
		if on {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	if on {
		p.plain.EnableColor()
	} else {
		p.plain.DisableColor()
	}
}

// Enabled reports whether the palette emits escape codes.
func (p *Palette) Enabled() bool {
	return p.enabled
}

func pickColor(style *chroma.Style, types ...chroma.TokenType) *color.Color {
	for _, tt := range types {
		entry := style.Get(tt)
		if !entry.Colour.IsSet() {
			continue
		}
		c := color.RGB(int(entry.Colour.Red()), int(entry.Colour.Green()), int(entry.Colour.Blue()))
		if entry.Bold == chroma.Yes {
			c.Add(color.Bold)
		}
		if entry.Italic == chroma.Yes {
			c.Add(color.Italic)
		}
		return c
	}
	return nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
