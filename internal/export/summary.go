package export

import (
	"fmt"
	"io"

	"github.com/mattn/go-runewidth"

	"github.com/dshills/lexrope/internal/syntax/lexer"
)

// KindCount is the number of tokens of one kind.
type KindCount struct {
	Kind  lexer.Kind `json:"kind"`
	Count int        `json:"count"`
}

// Summary holds the aggregate measures of a Source.
type Summary struct {
	Name        string      `json:"name"`
	Language    string      `json:"language"`
	Chars       int         `json:"chars"`
	Tokens      int         `json:"tokens"`
	Edits       int         `json:"edits"`
	Restartable int         `json:"restartable"`
	Kinds       []KindCount `json:"kinds"`
}

// Summarize computes the measures of src. Kinds are listed in kind order
// and only when present.
func Summarize(src Source) Summary {
	s := Summary{
		Name:        src.Name,
		Language:    src.Language,
		Chars:       src.Tokens.CharCount(),
		Tokens:      src.Tokens.TokenCount(),
		Edits:       src.Tokens.EditCount(),
		Restartable: src.Tokens.RestartableStateCount(),
	}

	counts := make(map[lexer.Kind]int)
	for _, tok := range src.Tokens.All() {
		counts[tok.Type]++
	}
	for _, k := range lexer.Kinds() {
		if n := counts[k]; n > 0 {
			s.Kinds = append(s.Kinds, KindCount{Kind: k, Count: n})
		}
	}
	return s
}

// WriteSummary writes s as an aligned block of text.
func WriteSummary(w io.Writer, s Summary) error {
	name := s.Name
	if name == "" {
		name = "<stdin>"
	}
	if _, err := fmt.Fprintf(w, "%s (%s)\n", name, s.Language); err != nil {
		return err
	}
	rows := [][2]string{
		{"chars", fmt.Sprint(s.Chars)},
		{"tokens", fmt.Sprint(s.Tokens)},
		{"restartable", fmt.Sprint(s.Restartable)},
		{"edited", fmt.Sprint(s.Edits)},
	}
	for _, kc := range s.Kinds {
		rows = append(rows, [2]string{"  " + kc.Kind.String(), fmt.Sprint(kc.Count)})
	}

	width := 0
	for _, r := range rows {
		width = max(width, runewidth.StringWidth(r[0]))
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "  %s  %s\n", runewidth.FillRight(r[0], width), r[1]); err != nil {
			return err
		}
	}
	return nil
}
