package syntax

import (
	"fmt"
	"iter"

	"github.com/dshills/lexrope/internal/syntax/tokenarray"
	"github.com/dshills/lexrope/internal/syntax/tokenrope"
	"github.com/dshills/lexrope/internal/syntax/typemap"
)

// Tokens is an immutable token sequence: a rope of encoded tokens and the
// frozen type map that decodes them. It is safe for concurrent use.
type Tokens[T comparable] struct {
	rope  tokenrope.Rope
	types *typemap.TypeMap[T]
}

// Build creates a token sequence from a full lex. Types are interned on top
// of types, which may be nil.
func Build[T comparable](types *typemap.TypeMap[T], lexemes []Lexeme[T], opts ...Option) (*Tokens[T], error) {
	o := applyOptions(opts)
	if types == nil {
		types = typemap.New[T]()
	}

	tb := types.Builder()
	rb := tokenrope.NewBuilder(o.shape)
	for i, lx := range lexemes {
		if lx.Length <= 0 {
			return nil, fmt.Errorf("lexeme %d has length %d: %w", i, lx.Length, ErrInvalidLexeme)
		}
		if err := rb.Add(tb.TypeID(lx.Type), lx.Length, lx.Restartable, lx.Edited); err != nil {
			return nil, fmt.Errorf("lexeme %d: %w", i, err)
		}
	}

	return &Tokens[T]{rope: rb.Build(), types: tb.Build()}, nil
}

// Empty returns a token sequence with no tokens.
func Empty[T comparable](opts ...Option) *Tokens[T] {
	o := applyOptions(opts)
	return &Tokens[T]{rope: tokenrope.New(o.shape), types: typemap.New[T]()}
}

// Rope returns the underlying rope.
func (t *Tokens[T]) Rope() tokenrope.Rope {
	return t.rope
}

// TypeMap returns the frozen type map.
func (t *Tokens[T]) TypeMap() *typemap.TypeMap[T] {
	return t.types
}

// TokenCount returns the number of tokens.
func (t *Tokens[T]) TokenCount() int {
	return t.rope.Summary().Tokens
}

// CharCount returns the byte length spanned by all tokens.
func (t *Tokens[T]) CharCount() int {
	return t.rope.Summary().Chars
}

// EditCount returns the number of edited tokens.
func (t *Tokens[T]) EditCount() int {
	return t.rope.Summary().Edits
}

// RestartableStateCount returns the number of restartable tokens.
func (t *Tokens[T]) RestartableStateCount() int {
	return t.rope.Summary().Restartables
}

// TokenType returns the type of token i.
func (t *Tokens[T]) TokenType(i Index) T {
	leaf, local := leafAt(scanner(t.rope), t.rope.Summary(), i)
	return t.types.Get(leaf.TypeID(local))
}

// TokenStart returns the absolute start offset of token i.
func (t *Tokens[T]) TokenStart(i Index) int {
	return tokenStart(scanner(t.rope), t.rope.Summary(), i)
}

// TokenEnd returns the absolute end offset of token i.
func (t *Tokens[T]) TokenEnd(i Index) int {
	return tokenEnd(scanner(t.rope), t.rope.Summary(), i)
}

// IsRestartable reports whether the lexer can restart at token i.
func (t *Tokens[T]) IsRestartable(i Index) bool {
	leaf, local := leafAt(scanner(t.rope), t.rope.Summary(), i)
	return leaf.IsRestartable(local)
}

// IsEdited reports whether token i was produced by an edit.
func (t *Tokens[T]) IsEdited(i Index) bool {
	leaf, local := leafAt(scanner(t.rope), t.rope.Summary(), i)
	return leaf.IsEdited(local)
}

// RestartableStateCountBefore returns the number of restartable tokens
// strictly before i. i may equal TokenCount().
func (t *Tokens[T]) RestartableStateCountBefore(i Index) int {
	return restartableStateCountBefore(scanner(t.rope), t.rope.Summary(), i)
}

// TokenIndexAtOffset returns the index of the token containing offset.
// An offset equal to CharCount() yields TokenCount().
func (t *Tokens[T]) TokenIndexAtOffset(offset int) Index {
	return tokenIndexAtOffset(scanner(t.rope), t.rope.Summary(), offset)
}

// TokenIndexAtRestartableStateIndex returns the index of the k-th
// restartable token, or TokenCount() when k equals RestartableStateCount().
func (t *Tokens[T]) TokenIndexAtRestartableStateIndex(k int) Index {
	return tokenIndexAtRestartableStateIndex(scanner(t.rope), t.rope.Summary(), k)
}

// TokenIndexAtEditIndex returns the index of the k-th edited token, or
// TokenCount() when k equals EditCount().
func (t *Tokens[T]) TokenIndexAtEditIndex(k int) Index {
	return tokenIndexAtEditIndex(scanner(t.rope), t.rope.Summary(), k)
}

// Token returns token i with absolute offsets.
func (t *Tokens[T]) Token(i Index) Token[T] {
	c, local := cursorAt(scanner(t.rope), t.rope.Summary(), i)
	return decode[T](t.types, c.Leaf(), local, c.StartOffset())
}

// All iterates over every token in order.
func (t *Tokens[T]) All() iter.Seq2[Index, Token[T]] {
	return func(yield func(Index, Token[T]) bool) {
		it := t.rope.Leaves()
		for it.Next() {
			leaf, start := it.Leaf(), it.Start()
			for local := 0; local < leaf.Len(); local++ {
				if !yield(Index(start.Tokens+local), decode[T](t.types, leaf, local, start.Chars)) {
					return
				}
			}
		}
	}
}

// Lexemes returns every token without offsets.
func (t *Tokens[T]) Lexemes() []Lexeme[T] {
	out := make([]Lexeme[T], 0, t.TokenCount())
	for _, tok := range t.All() {
		out = append(out, tok.Lexeme())
	}
	return out
}

// Compact returns the same tokens in a rope with packed leaves. The type
// map is shared.
func (t *Tokens[T]) Compact() *Tokens[T] {
	return &Tokens[T]{rope: t.rope.Compact(), types: t.types}
}

// Mutate opens an edit session over the sequence. The receiver is not
// affected by edits made through the view.
func (t *Tokens[T]) Mutate() *MutableView[T] {
	v := &MutableView[T]{
		rope:  t.rope,
		owner: tokenrope.NewOwner(),
		types: t.types.Builder(),
	}
	v.refresh()
	return v
}

// decode materializes token local of leaf, whose first token starts at base.
func decode[T comparable](types interface{ Get(int32) T }, leaf *tokenarray.Array, local, base int) Token[T] {
	return Token[T]{
		Type:        types.Get(leaf.TypeID(local)),
		Start:       base + leaf.Start(local),
		End:         base + leaf.End(local),
		Restartable: leaf.IsRestartable(local),
		Edited:      leaf.IsEdited(local),
	}
}
