package export

import (
	"fmt"
	"io"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/dshills/lexrope/internal/syntax"
	"github.com/dshills/lexrope/internal/syntax/lexer"
)

// DumpVersion is the dump format written by EncodeMsgpack.
const DumpVersion = 1

// Token flag bits in a dump.
const (
	FlagRestartable uint8 = 1 << iota
	FlagEdited
)

// Dump is the serialized form of a Source.
type Dump struct {
	Version  int         `msgpack:"version"`
	Name     string      `msgpack:"name"`
	Language string      `msgpack:"language"`
	Text     string      `msgpack:"text"`
	Kinds    []string    `msgpack:"kinds"`
	Tokens   []DumpToken `msgpack:"tokens"`
}

// DumpToken is one token of a dump. Kind indexes Dump.Kinds.
type DumpToken struct {
	_msgpack struct{} `msgpack:",as_array"`

	Kind   uint16
	Length int
	Flags  uint8
}

// NewDump captures src.
func NewDump(src Source) (*Dump, error) {
	d := &Dump{
		Version:  DumpVersion,
		Name:     src.Name,
		Language: src.Language,
		Text:     src.Text,
		Tokens:   make([]DumpToken, 0, src.Tokens.TokenCount()),
	}

	index := make(map[lexer.Kind]uint16)
	for _, tok := range src.Tokens.All() {
		k, ok := index[tok.Type]
		if !ok {
			var err error
			if k, err = kindIndex(len(d.Kinds)); err != nil {
				return nil, err
			}
			index[tok.Type] = k
			d.Kinds = append(d.Kinds, tok.Type.String())
		}
		var flags uint8
		if tok.Restartable {
			flags |= FlagRestartable
		}
		if tok.Edited {
			flags |= FlagEdited
		}
		d.Tokens = append(d.Tokens, DumpToken{Kind: k, Length: tok.Len(), Flags: flags})
	}
	return d, nil
}

// kindIndex narrows a position in the kind table to its dump encoding.
func kindIndex(i int) (uint16, error) {
	k, err := safecast.Conv[uint16](i)
	if err != nil {
		return 0, fmt.Errorf("%w: kind table entry %d: %w", ErrDumpCorrupt, i, err)
	}
	return k, nil
}

// Lexemes decodes the dump's tokens.
func (d *Dump) Lexemes() ([]syntax.Lexeme[lexer.Kind], error) {
	kinds := make([]lexer.Kind, len(d.Kinds))
	for i, name := range d.Kinds {
		k, err := lexer.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDumpCorrupt, err)
		}
		kinds[i] = k
	}

	out := make([]syntax.Lexeme[lexer.Kind], len(d.Tokens))
	for i, t := range d.Tokens {
		if int(t.Kind) >= len(kinds) {
			return nil, fmt.Errorf("%w: token %d has kind index %d of %d", ErrDumpCorrupt, i, t.Kind, len(kinds))
		}
		out[i] = syntax.Lexeme[lexer.Kind]{
			Type:        kinds[t.Kind],
			Length:      t.Length,
			Restartable: t.Flags&FlagRestartable != 0,
			Edited:      t.Flags&FlagEdited != 0,
		}
	}
	return out, nil
}

// Source rebuilds the token sequence.
func (d *Dump) Source(opts ...syntax.Option) (Source, error) {
	lexemes, err := d.Lexemes()
	if err != nil {
		return Source{}, err
	}
	tokens, err := syntax.Build(nil, lexemes, opts...)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %w", ErrDumpCorrupt, err)
	}
	return Source{Name: d.Name, Language: d.Language, Text: d.Text, Tokens: tokens}, nil
}

// Validate checks the version and that token lengths cover the text.
func (d *Dump) Validate() error {
	if d.Version != DumpVersion {
		return fmt.Errorf("%w: %d", ErrDumpVersion, d.Version)
	}
	total := 0
	for i, t := range d.Tokens {
		if t.Length <= 0 {
			return fmt.Errorf("%w: token %d has length %d", ErrDumpCorrupt, i, t.Length)
		}
		if int(t.Kind) >= len(d.Kinds) {
			return fmt.Errorf("%w: token %d has kind index %d of %d", ErrDumpCorrupt, i, t.Kind, len(d.Kinds))
		}
		total += t.Length
	}
	if total != len(d.Text) {
		return fmt.Errorf("%w: tokens cover %d bytes of %d", ErrDumpCorrupt, total, len(d.Text))
	}
	return nil
}

// EncodeMsgpack writes d to w.
func EncodeMsgpack(w io.Writer, d *Dump) error {
	enc := msgpack.NewEncoder(w)
	enc.UseCompactInts(true)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode dump: %w", err)
	}
	return nil
}

// DecodeMsgpack reads and validates a dump from r.
func DecodeMsgpack(r io.Reader) (*Dump, error) {
	var d Dump
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decode dump: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}
