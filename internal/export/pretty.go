package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/dshills/lexrope/internal/syntax/lexer"
)

// DefaultTextWidth is the default width of the text column.
const DefaultTextWidth = 48

// PrettyOptions configures WritePretty.
type PrettyOptions struct {
	// Palette colors the kind and text columns. Nil writes plain text.
	Palette *Palette
	// TextWidth truncates the quoted token text. Zero means DefaultTextWidth.
	TextWidth int
	// Filter restricts the listed tokens.
	Filter Filter
}

// WritePretty writes one aligned row per token:
//
//	index  kind  start-end  flags  "text"
//
// Flags are r for restartable and e for edited.
func WritePretty(w io.Writer, src Source, opts PrettyOptions) error {
	width := opts.TextWidth
	if width <= 0 {
		width = DefaultTextWidth
	}

	kindWidth := 0
	for _, k := range lexer.Kinds() {
		kindWidth = max(kindWidth, runewidth.StringWidth(k.String()))
	}
	indexWidth := len(strconv.Itoa(max(src.Tokens.TokenCount()-1, 0)))
	offsetWidth := len(strconv.Itoa(len(src.Text)))

	edited := color.New(color.Bold)
	if opts.Palette != nil && opts.Palette.Enabled() {
		edited.EnableColor()
	} else {
		edited.DisableColor()
	}

	for i, tok := range src.Tokens.All() {
		if !opts.Filter.Match(tok.Type) {
			continue
		}

		kind := runewidth.FillRight(tok.Type.String(), kindWidth)
		text := runewidth.Truncate(strconv.Quote(src.TokenText(tok)), width, "...")
		if opts.Palette != nil {
			c := opts.Palette.Color(tok.Type)
			kind = c.Sprint(kind)
			text = c.Sprint(text)
		}

		flags := []byte("--")
		if tok.Restartable {
			flags[0] = 'r'
		}
		index := fmt.Sprintf("%*d", indexWidth, i)
		if tok.Edited {
			flags[1] = 'e'
			index = edited.Sprint(index)
		}

		if _, err := fmt.Fprintf(w, "%s  %s  %*d-%-*d  %s  %s\n",
			index, kind, offsetWidth, tok.Start, offsetWidth, tok.End, flags, text); err != nil {
			return err
		}
	}
	return nil
}
