package tokenarray

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Array is an immutable run of contiguous tokens stored as parallel columns.
// Offsets are relative to the start of the array; token i spans
// [Start(i), End(i)) and End(i) == Start(i+1).
type Array struct {
	typeIDs     []int32
	starts      []int32
	ends        []int32
	restartable *bitset.BitSet
	edited      *bitset.BitSet
}

// Empty is the array with no tokens.
var Empty = &Array{
	restartable: bitset.New(0),
	edited:      bitset.New(0),
}

// Len returns the number of tokens.
func (a *Array) Len() int {
	return len(a.typeIDs)
}

// Chars returns the total byte length spanned by the tokens.
func (a *Array) Chars() int {
	if len(a.ends) == 0 {
		return 0
	}
	return int(a.ends[len(a.ends)-1])
}

// TypeID returns the interned type id of token i.
func (a *Array) TypeID(i int) int32 {
	return a.typeIDs[i]
}

// Start returns the leaf-relative start offset of token i.
func (a *Array) Start(i int) int {
	return int(a.starts[i])
}

// End returns the leaf-relative end offset of token i.
func (a *Array) End(i int) int {
	return int(a.ends[i])
}

// Length returns the byte length of token i.
func (a *Array) Length(i int) int {
	return int(a.ends[i] - a.starts[i])
}

// IsRestartable reports whether the lexer can restart at token i.
func (a *Array) IsRestartable(i int) bool {
	a.checkIndex(i)
	return a.restartable.Test(uint(i))
}

// IsEdited reports whether token i was produced by an edit.
func (a *Array) IsEdited(i int) bool {
	a.checkIndex(i)
	return a.edited.Test(uint(i))
}

// RestartableCount returns the number of restartable tokens.
func (a *Array) RestartableCount() int {
	return int(a.restartable.Count())
}

// EditCount returns the number of edited tokens.
func (a *Array) EditCount() int {
	return int(a.edited.Count())
}

// IndexByOffset returns the index of the token whose span contains offset.
// An offset equal to Chars() yields Len().
func (a *Array) IndexByOffset(offset int) int {
	return sort.Search(len(a.ends), func(i int) bool {
		return int(a.ends[i]) > offset
	})
}

// RestartableStateCountBefore returns the number of restartable tokens
// strictly before index i. i may equal Len().
func (a *Array) RestartableStateCountBefore(i int) int {
	return countBefore(a.restartable, i, a.Len())
}

// EditCountBefore returns the number of edited tokens strictly before index i.
// i may equal Len().
func (a *Array) EditCountBefore(i int) int {
	return countBefore(a.edited, i, a.Len())
}

// IndexAtRestartableStateIndex returns the index of the k-th (0-based)
// restartable token, or Len() when there are at most k of them.
func (a *Array) IndexAtRestartableStateIndex(k int) int {
	return indexAt(a.restartable, k, a.Len())
}

// IndexAtEditIndex returns the index of the k-th (0-based) edited token,
// or Len() when there are at most k of them.
func (a *Array) IndexAtEditIndex(k int) int {
	return indexAt(a.edited, k, a.Len())
}

// ReplaceTokens returns a new array made of a[0, from), then tokens, then
// a[to, Len()). Offsets of the result are recomputed from token lengths.
func (a *Array) ReplaceTokens(from, to int, tokens *Array) (*Array, error) {
	n := a.Len()
	if from < 0 || from > to || to > n {
		return nil, fmt.Errorf("%w: [%d, %d) of %d", ErrRangeInvalid, from, to, n)
	}
	if tokens == nil {
		tokens = Empty
	}
	if from == to && tokens.Len() == 0 {
		return a, nil
	}

	b := NewBuilder(n - (to - from) + tokens.Len())
	if err := b.appendRange(a, 0, from); err != nil {
		return nil, err
	}
	if err := b.appendRange(tokens, 0, tokens.Len()); err != nil {
		return nil, err
	}
	if err := b.appendRange(a, to, n); err != nil {
		return nil, err
	}
	return b.Build(), nil
}

// Slice returns the tokens [from, to) rebased to start at offset 0.
func (a *Array) Slice(from, to int) *Array {
	if from < 0 || from > to || to > a.Len() {
		panic(fmt.Errorf("tokenarray: slice [%d, %d) of %d: %w", from, to, a.Len(), ErrRangeInvalid))
	}
	if from == 0 && to == a.Len() {
		return a
	}
	b := NewBuilder(to - from)
	// A sub-range of a valid array cannot overflow.
	_ = b.appendRange(a, from, to)
	return b.Build()
}

// Equal reports whether both arrays hold the same tokens.
func (a *Array) Equal(other *Array) bool {
	if a.Len() != other.Len() {
		return false
	}
	for i := range a.typeIDs {
		if a.typeIDs[i] != other.typeIDs[i] ||
			a.starts[i] != other.starts[i] ||
			a.ends[i] != other.ends[i] ||
			a.IsRestartable(i) != other.IsRestartable(i) ||
			a.IsEdited(i) != other.IsEdited(i) {
			return false
		}
	}
	return true
}

// String renders the array for debugging, e.g. "[1(0-2) 2(2-5)r]".
func (a *Array) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i := range a.typeIDs {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d(%d-%d)", a.typeIDs[i], a.starts[i], a.ends[i])
		if a.IsRestartable(i) {
			sb.WriteByte('r')
		}
		if a.IsEdited(i) {
			sb.WriteByte('e')
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

func (a *Array) checkIndex(i int) {
	if i < 0 || i >= len(a.typeIDs) {
		panic(fmt.Sprintf("tokenarray: index %d out of range [0, %d)", i, len(a.typeIDs)))
	}
}

// countBefore counts set bits in [0, i).
func countBefore(b *bitset.BitSet, i, n int) int {
	if i < 0 || i > n {
		panic(fmt.Sprintf("tokenarray: index %d out of range [0, %d]", i, n))
	}
	if i == 0 {
		return 0
	}
	// Rank counts set bits up to and including its argument.
	return int(b.Rank(uint(i - 1)))
}

// indexAt returns the position of the k-th set bit, or n if there is none.
func indexAt(b *bitset.BitSet, k, n int) int {
	if k < 0 {
		panic(fmt.Sprintf("tokenarray: negative flag index %d", k))
	}
	if uint(k) >= b.Count() {
		return n
	}
	return int(b.Select(uint(k)))
}
