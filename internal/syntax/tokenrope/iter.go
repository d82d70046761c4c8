package tokenrope

import "github.com/dshills/lexrope/internal/syntax/tokenarray"

// LeafIterator iterates over the non-empty leaves of a rope in order.
type LeafIterator struct {
	rope    Rope
	cur     *Cursor
	started bool
}

// Leaves returns an iterator over all leaves in the rope.
func (r Rope) Leaves() *LeafIterator {
	return &LeafIterator{rope: r}
}

// Next advances to the next leaf.
// Returns true if there is a leaf, false if iteration is complete.
func (it *LeafIterator) Next() bool {
	if !it.started {
		it.started = true
		if it.rope.IsEmpty() {
			return false
		}
		it.cur, _ = it.rope.Scan(TokenCount, 0)
		return true
	}
	if it.cur == nil {
		return false
	}

	next, ok := it.cur.Next(nil)
	it.cur = next
	return ok
}

// Leaf returns the current leaf's tokens.
func (it *LeafIterator) Leaf() *tokenarray.Array {
	return it.cur.Leaf()
}

// Start returns the measures of all leaves before the current one.
func (it *LeafIterator) Start() Summary {
	return it.cur.start
}
