package tokenrope

import (
	"errors"

	"github.com/dshills/lexrope/internal/syntax/tokenarray"
)

// Builder provides efficient incremental construction of a rope.
// Tokens are packed into full leaves; the tree is built bottom-up when
// Build is called.
type Builder struct {
	shape  Shape
	leaves []*node
	cur    *tokenarray.Builder
}

// NewBuilder creates a new rope builder.
func NewBuilder(shape Shape) *Builder {
	shape = shape.normalize()
	return &Builder{
		shape:  shape,
		leaves: make([]*node, 0, 64),
		cur:    tokenarray.NewBuilder(shape.LeafTokens),
	}
}

// Add appends one token. A token whose length does not fit the current
// leaf's offsets starts a new leaf.
func (b *Builder) Add(typeID int32, length int, restartable, edited bool) error {
	if b.cur.Len() >= b.shape.LeafTokens {
		b.flush()
	}
	err := b.cur.Add(typeID, length, restartable, edited)
	if errors.Is(err, tokenarray.ErrTooLong) && b.cur.Len() > 0 {
		b.flush()
		err = b.cur.Add(typeID, length, restartable, edited)
	}
	return err
}

// AppendArray appends every token of a.
func (b *Builder) AppendArray(a *tokenarray.Array) error {
	for i := 0; i < a.Len(); i++ {
		if err := b.Add(a.TypeID(i), a.Length(i), a.IsRestartable(i), a.IsEdited(i)); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of tokens added so far.
func (b *Builder) Len() int {
	n := b.cur.Len()
	for _, leaf := range b.leaves {
		n += leaf.summary.Tokens
	}
	return n
}

// flush closes the current leaf.
func (b *Builder) flush() {
	if b.cur.Len() == 0 {
		return
	}
	b.leaves = append(b.leaves, newLeafNode(b.cur.Build(), nil))
}

// Build creates the rope from accumulated tokens.
// After calling Build, the builder is reset.
func (b *Builder) Build() Rope {
	b.flush()
	leaves := b.leaves
	b.leaves = make([]*node, 0, 64)
	return Rope{root: buildRoot(leaves, b.shape.Fanout, nil), shape: b.shape}
}
