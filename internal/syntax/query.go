package syntax

import (
	"fmt"

	"github.com/dshills/lexrope/internal/syntax/tokenarray"
	"github.com/dshills/lexrope/internal/syntax/tokenrope"
)

// seekFunc positions a cursor on the leaf holding value along m.
// Callers validate value against the total first.
type seekFunc func(m tokenrope.Metric, value int) *tokenrope.Cursor

// scanner returns a seekFunc over a published rope.
func scanner(r tokenrope.Rope) seekFunc {
	return func(m tokenrope.Metric, value int) *tokenrope.Cursor {
		c, ok := r.Scan(m, value)
		if !ok {
			panic(outOfRange(m.String(), value, r.Summary().Get(m)))
		}
		return c
	}
}

func outOfRange(what string, value, limit int) error {
	return fmt.Errorf("syntax: %s %d not in [0, %d]: %w", what, value, limit, ErrIndexOutOfRange)
}

// cursorAt positions a cursor on the leaf holding token i and returns i's
// index within that leaf.
func cursorAt(seek seekFunc, total tokenrope.Summary, i Index) (*tokenrope.Cursor, int) {
	if i < 0 || int(i) >= total.Tokens {
		panic(fmt.Errorf("syntax: token %d not in [0, %d): %w", i, total.Tokens, ErrIndexOutOfRange))
	}
	c := seek(tokenrope.TokenCount, int(i))
	return c, int(i) - c.StartTokenIndex()
}

// leafAt returns the leaf holding token i and i's index within it.
func leafAt(seek seekFunc, total tokenrope.Summary, i Index) (*tokenarray.Array, int) {
	c, local := cursorAt(seek, total, i)
	return c.Leaf(), local
}

// tokenStart returns the absolute start offset of token i.
func tokenStart(seek seekFunc, total tokenrope.Summary, i Index) int {
	c, local := cursorAt(seek, total, i)
	return c.StartOffset() + c.Leaf().Start(local)
}

// tokenEnd returns the absolute end offset of token i.
func tokenEnd(seek seekFunc, total tokenrope.Summary, i Index) int {
	c, local := cursorAt(seek, total, i)
	return c.StartOffset() + c.Leaf().End(local)
}

// restartableStateCountBefore counts restartable tokens strictly before i,
// for i in [0, total.Tokens].
func restartableStateCountBefore(seek seekFunc, total tokenrope.Summary, i Index) int {
	if i < 0 || int(i) > total.Tokens {
		panic(outOfRange("token", int(i), total.Tokens))
	}
	c := seek(tokenrope.TokenCount, int(i))
	local := int(i) - c.StartTokenIndex()
	return c.Location(tokenrope.RestartableStateCount) + c.Leaf().RestartableStateCountBefore(local)
}

// tokenIndexAtOffset returns the token containing offset, or the token
// count when offset equals the char count.
func tokenIndexAtOffset(seek seekFunc, total tokenrope.Summary, offset int) Index {
	if offset < 0 || offset > total.Chars {
		panic(outOfRange("offset", offset, total.Chars))
	}
	c := seek(tokenrope.CharCount, offset)
	return Index(c.StartTokenIndex() + c.Leaf().IndexByOffset(offset-c.StartOffset()))
}

// tokenIndexAtRestartableStateIndex returns the token holding the k-th
// restartable state, or the token count when k equals the total.
func tokenIndexAtRestartableStateIndex(seek seekFunc, total tokenrope.Summary, k int) Index {
	if k < 0 || k > total.Restartables {
		panic(outOfRange("restartable state", k, total.Restartables))
	}
	c := seek(tokenrope.RestartableStateCount, k)
	local := k - c.Location(tokenrope.RestartableStateCount)
	return Index(c.StartTokenIndex() + c.Leaf().IndexAtRestartableStateIndex(local))
}

// tokenIndexAtEditIndex returns the k-th edited token, or the token count
// when k equals the total.
func tokenIndexAtEditIndex(seek seekFunc, total tokenrope.Summary, k int) Index {
	if k < 0 || k > total.Edits {
		panic(outOfRange("edit", k, total.Edits))
	}
	c := seek(tokenrope.EditCount, k)
	local := k - c.Location(tokenrope.EditCount)
	return Index(c.StartTokenIndex() + c.Leaf().IndexAtEditIndex(local))
}
