package tokenarray

import (
	"fmt"

	"fortio.org/safecast"
	"github.com/bits-and-blooms/bitset"
)

// Builder constructs an Array from token lengths. Start and end offsets are
// computed from the running total of lengths.
type Builder struct {
	typeIDs     []int32
	starts      []int32
	ends        []int32
	restartable *bitset.BitSet
	edited      *bitset.BitSet
	chars       int32
}

// NewBuilder creates a builder sized for the given number of tokens.
func NewBuilder(size int) *Builder {
	if size < 0 {
		size = 0
	}
	return &Builder{
		typeIDs:     make([]int32, 0, size),
		starts:      make([]int32, 0, size),
		ends:        make([]int32, 0, size),
		restartable: bitset.New(uint(size)),
		edited:      bitset.New(uint(size)),
	}
}

// Add appends a token of the given length.
func (b *Builder) Add(typeID int32, length int, restartable, edited bool) error {
	if length <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}
	end, err := safecast.Conv[int32](int(b.chars) + length)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTooLong, err)
	}

	i := uint(len(b.typeIDs))
	b.typeIDs = append(b.typeIDs, typeID)
	b.starts = append(b.starts, b.chars)
	b.ends = append(b.ends, end)
	if restartable {
		b.restartable.Set(i)
	}
	if edited {
		b.edited.Set(i)
	}
	b.chars = end
	return nil
}

// Len returns the number of tokens added so far.
func (b *Builder) Len() int {
	return len(b.typeIDs)
}

// Chars returns the byte length added so far.
func (b *Builder) Chars() int {
	return int(b.chars)
}

// Build returns the accumulated array and resets the builder.
func (b *Builder) Build() *Array {
	if len(b.typeIDs) == 0 {
		return Empty
	}
	a := &Array{
		typeIDs:     b.typeIDs,
		starts:      b.starts,
		ends:        b.ends,
		restartable: b.restartable,
		edited:      b.edited,
	}
	*b = *NewBuilder(0)
	return a
}

// appendRange copies tokens [from, to) of a, recomputing offsets.
func (b *Builder) appendRange(a *Array, from, to int) error {
	for i := from; i < to; i++ {
		err := b.Add(a.typeIDs[i], a.Length(i), a.restartable.Test(uint(i)), a.edited.Test(uint(i)))
		if err != nil {
			return err
		}
	}
	return nil
}

// AppendArray copies all tokens of a onto the builder.
func (b *Builder) AppendArray(a *Array) error {
	return b.appendRange(a, 0, a.Len())
}
