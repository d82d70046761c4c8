package syntax

import (
	"fmt"

	"github.com/dshills/lexrope/internal/syntax/tokenarray"
	"github.com/dshills/lexrope/internal/syntax/tokenrope"
	"github.com/dshills/lexrope/internal/syntax/typemap"
)

// MutableView is a single-writer edit session over a token sequence.
//
// Reads seek a cursor by whichever metric they need. ReplaceTokens splices
// the rope under the session's owner and refreshes four counters that equal
// the rope's total measures between calls. A view is not safe for
// concurrent use; abandon it and start over from the last Tokens snapshot
// if a session must be aborted.
type MutableView[T comparable] struct {
	rope   tokenrope.Rope
	cursor *tokenrope.Cursor
	owner  *tokenrope.Owner
	types  *typemap.Builder[T]

	charCount             int
	tokenCount            int
	editCount             int
	restartableStateCount int
}

// CharCount returns the byte length spanned by all tokens.
func (v *MutableView[T]) CharCount() int {
	return v.charCount
}

// TokenCount returns the number of tokens.
func (v *MutableView[T]) TokenCount() int {
	return v.tokenCount
}

// EditCount returns the number of edited tokens.
func (v *MutableView[T]) EditCount() int {
	return v.editCount
}

// RestartableStateCount returns the number of restartable tokens.
func (v *MutableView[T]) RestartableStateCount() int {
	return v.restartableStateCount
}

// seek reuses the current cursor when it already covers value, otherwise
// scans the rope and keeps the new position.
func (v *MutableView[T]) seek(m tokenrope.Metric, value int) *tokenrope.Cursor {
	if c := v.cursor; c != nil {
		lo := c.Location(m)
		if lo <= value && value < lo+c.Summary().Get(m) {
			return c
		}
	}
	c := scanner(v.rope)(m, value)
	v.cursor = c
	return c
}

func (v *MutableView[T]) total() tokenrope.Summary {
	return tokenrope.Summary{
		Chars:        v.charCount,
		Tokens:       v.tokenCount,
		Edits:        v.editCount,
		Restartables: v.restartableStateCount,
	}
}

// TokenType returns the type of token i.
func (v *MutableView[T]) TokenType(i Index) T {
	leaf, local := leafAt(v.seek, v.total(), i)
	return v.types.Get(leaf.TypeID(local))
}

// TokenStart returns the absolute start offset of token i.
func (v *MutableView[T]) TokenStart(i Index) int {
	return tokenStart(v.seek, v.total(), i)
}

// TokenEnd returns the absolute end offset of token i.
func (v *MutableView[T]) TokenEnd(i Index) int {
	return tokenEnd(v.seek, v.total(), i)
}

// IsRestartable reports whether the lexer can restart at token i.
func (v *MutableView[T]) IsRestartable(i Index) bool {
	leaf, local := leafAt(v.seek, v.total(), i)
	return leaf.IsRestartable(local)
}

// IsEdited reports whether token i was produced by an edit.
func (v *MutableView[T]) IsEdited(i Index) bool {
	leaf, local := leafAt(v.seek, v.total(), i)
	return leaf.IsEdited(local)
}

// Token returns token i with absolute offsets.
func (v *MutableView[T]) Token(i Index) Token[T] {
	c, local := cursorAt(v.seek, v.total(), i)
	return decode[T](v.types, c.Leaf(), local, c.StartOffset())
}

// RestartableStateCountBefore returns the number of restartable tokens
// strictly before i. i may equal TokenCount().
func (v *MutableView[T]) RestartableStateCountBefore(i Index) int {
	return restartableStateCountBefore(v.seek, v.total(), i)
}

// TokenIndexAtOffset returns the index of the token containing offset.
// An offset equal to CharCount() yields TokenCount().
func (v *MutableView[T]) TokenIndexAtOffset(offset int) Index {
	return tokenIndexAtOffset(v.seek, v.total(), offset)
}

// TokenIndexAtRestartableStateIndex returns the index of the k-th
// restartable token, or TokenCount() when k equals RestartableStateCount().
func (v *MutableView[T]) TokenIndexAtRestartableStateIndex(k int) Index {
	return tokenIndexAtRestartableStateIndex(v.seek, v.total(), k)
}

// TokenIndexAtEditIndex returns the index of the k-th edited token, or
// TokenCount() when k equals EditCount().
func (v *MutableView[T]) TokenIndexAtEditIndex(k int) Index {
	return tokenIndexAtEditIndex(v.seek, v.total(), k)
}

// Owner returns the transaction handle the session edits under.
func (v *MutableView[T]) Owner() *tokenrope.Owner {
	return v.owner
}

// Tokens freezes the current state into an immutable snapshot. The view
// stays usable; later edits do not affect the snapshot.
func (v *MutableView[T]) Tokens() *Tokens[T] {
	return &Tokens[T]{rope: v.rope, types: v.types.Build()}
}

// ReplaceTokens replaces tokens [from, to) with lexemes.
//
// All lexemes are inserted into the leaf holding from; the rest of the
// removed range is deleted from the following leaves. An empty lexemes
// slice is a pure deletion and from == to a pure insertion. Arguments are
// validated before anything changes.
func (v *MutableView[T]) ReplaceTokens(from, to Index, lexemes []Lexeme[T]) error {
	if from < 0 || from > to || int(to) > v.tokenCount {
		return fmt.Errorf("replace [%d, %d) of %d tokens: %w", from, to, v.tokenCount, ErrRangeInvalid)
	}
	for i, lx := range lexemes {
		if lx.Length <= 0 {
			return fmt.Errorf("lexeme %d has length %d: %w", i, lx.Length, ErrInvalidLexeme)
		}
	}
	count := int(to - from)
	if count == 0 && len(lexemes) == 0 {
		return nil
	}

	c, ok := v.rope.Scan(tokenrope.TokenCount, int(from))
	if !ok {
		return fmt.Errorf("scan to token %d: %w", from, ErrRangeInvalid)
	}
	leaf := c.Leaf()
	leafFrom := int(from) - c.StartTokenIndex()
	leafTo := min(leaf.Len(), leafFrom+count)

	encoded, err := v.encode(lexemes)
	if err != nil {
		return err
	}
	replaced, err := leaf.ReplaceTokens(leafFrom, leafTo, encoded)
	if err != nil {
		return fmt.Errorf("replace in leaf: %w", err)
	}
	c = c.Replace(v.owner, replaced)

	remaining := count - (leafTo - leafFrom)
	for remaining > 0 {
		next, ok := c.Next(v.owner)
		if !ok {
			v.publish(c)
			return fmt.Errorf("%d tokens left to delete: %w", remaining, ErrRopeExhausted)
		}
		nextLeaf := next.Leaf()
		toIndex := min(remaining, nextLeaf.Len())
		trimmed, err := nextLeaf.ReplaceTokens(0, toIndex, tokenarray.Empty)
		if err != nil {
			v.publish(c)
			return fmt.Errorf("delete from leaf: %w", err)
		}
		c = next.Replace(v.owner, trimmed)
		remaining -= toIndex
	}

	v.publish(c)
	return nil
}

// encode interns lexeme types and packs the lexemes into one array.
func (v *MutableView[T]) encode(lexemes []Lexeme[T]) (*tokenarray.Array, error) {
	b := tokenarray.NewBuilder(len(lexemes))
	for i, lx := range lexemes {
		if err := b.Add(v.types.TypeID(lx.Type), lx.Length, lx.Restartable, lx.Edited); err != nil {
			return nil, fmt.Errorf("lexeme %d: %w", i, err)
		}
	}
	return b.Build(), nil
}

// publish finalizes the rope reachable from c, stores c as the current
// position and re-derives the counters from the rope's total measures.
func (v *MutableView[T]) publish(c *tokenrope.Cursor) {
	v.rope = c.Rope(v.owner)
	v.cursor = c
	v.refresh()
}

func (v *MutableView[T]) refresh() {
	s := v.rope.Summary()
	v.charCount = s.Chars
	v.tokenCount = s.Tokens
	v.editCount = s.Edits
	v.restartableStateCount = s.Restartables
}
