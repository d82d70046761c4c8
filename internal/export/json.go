package export

import (
	"fmt"
	"io"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// JSONOptions configures WriteJSON.
type JSONOptions struct {
	// Indent pretty-prints the document.
	Indent bool
	// Filter restricts the listed tokens. The summary always covers all.
	Filter Filter
}

// MarshalJSON returns src as a JSON document of the form
//
//	{"name": ..., "language": ..., "summary": {...}, "tokens": [...]}
func MarshalJSON(src Source, filter Filter) ([]byte, error) {
	s := Summarize(src)
	doc := []byte(`{}`)
	var err error
	set := func(path string, value any) {
		if err == nil {
			doc, err = sjson.SetBytes(doc, path, value)
		}
	}

	set("name", src.Name)
	set("language", src.Language)
	set("summary.chars", s.Chars)
	set("summary.tokens", s.Tokens)
	set("summary.restartable", s.Restartable)
	set("summary.edited", s.Edits)
	set("summary.kinds", map[string]int{})
	for _, kc := range s.Kinds {
		set("summary.kinds."+kc.Kind.String(), kc.Count)
	}
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}

	tokens := make([]byte, 0, 64*s.Tokens)
	tokens = append(tokens, '[')
	first := true
	for i, tok := range src.Tokens.All() {
		if !filter.Match(tok.Type) {
			continue
		}
		obj, err := tokenObject(int(i), tok.Type.String(), tok.Start, tok.End, src.TokenText(tok), tok.Restartable, tok.Edited)
		if err != nil {
			return nil, fmt.Errorf("encode token %d: %w", i, err)
		}
		if !first {
			tokens = append(tokens, ',')
		}
		tokens = append(tokens, obj...)
		first = false
	}
	tokens = append(tokens, ']')

	doc, err = sjson.SetRawBytes(doc, "tokens", tokens)
	if err != nil {
		return nil, fmt.Errorf("encode tokens: %w", err)
	}
	return doc, nil
}

func tokenObject(index int, kind string, start, end int, text string, restartable, edited bool) ([]byte, error) {
	obj := []byte(`{}`)
	var err error
	for _, kv := range []struct {
		path  string
		value any
	}{
		{"index", index},
		{"type", kind},
		{"start", start},
		{"end", end},
		{"text", text},
		{"restartable", restartable},
		{"edited", edited},
	} {
		if obj, err = sjson.SetBytes(obj, kv.path, kv.value); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// WriteJSON writes src to w as JSON followed by a newline.
func WriteJSON(w io.Writer, src Source, opts JSONOptions) error {
	doc, err := MarshalJSON(src, opts.Filter)
	if err != nil {
		return err
	}
	if opts.Indent {
		doc = pretty.Pretty(doc)
	} else {
		doc = append(doc, '\n')
	}
	_, err = w.Write(doc)
	return err
}
