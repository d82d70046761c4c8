package tokenrope

import (
	"slices"

	"github.com/dshills/lexrope/internal/syntax/tokenarray"
)

// Cursor is positioned on one leaf of a rope.
// It records the measures of everything before the leaf and the path from
// the root, so moving to the next leaf is usually O(1).
//
// Cursors are values: Next and Replace return new cursors and leave the
// receiver untouched.
type Cursor struct {
	root  *node
	shape Shape
	owner *Owner // bound by the first Replace; nil for cursors from Scan

	// path from root to the leaf; nil once a Replace has rewritten the tree
	path []cursorFrame

	leaf  *tokenarray.Array
	start Summary // measures of all leaves before this position
	span  Summary // measures of this position's tokens
}

// cursorFrame represents a position in the tree traversal path.
type cursorFrame struct {
	node     *node
	childIdx int // Index of the child we descended into
}

// seek descends from root to the leaf holding value along m.
func seek(root *node, shape Shape, m Metric, value int) (*Cursor, bool) {
	if value < 0 || value > root.summary.Get(m) {
		return nil, false
	}

	c := &Cursor{
		root:  root,
		shape: shape,
		path:  make([]cursorFrame, 0, int(root.height)),
	}

	n := root
	for !n.isLeaf() {
		idx, before := n.findChild(m, value-c.start.Get(m))
		c.path = append(c.path, cursorFrame{node: n, childIdx: idx})
		c.start = c.start.Add(before)
		n = n.children[idx]
	}

	c.leaf = n.tokens
	c.span = n.summary
	return c, true
}

// Location returns the measure of everything before the cursor along m.
func (c *Cursor) Location(m Metric) int {
	return c.start.Get(m)
}

// StartTokenIndex returns the global index of the first token at the cursor.
func (c *Cursor) StartTokenIndex() int {
	return c.start.Tokens
}

// StartOffset returns the global byte offset of the first token at the cursor.
func (c *Cursor) StartOffset() int {
	return c.start.Chars
}

// Leaf returns the token array at the cursor.
func (c *Cursor) Leaf() *tokenarray.Array {
	return c.leaf
}

// Summary returns the measures of the token array at the cursor.
func (c *Cursor) Summary() Summary {
	return c.span
}

// Next returns a cursor on the leaf following this position.
// It returns false when the position is the last one in the rope.
func (c *Cursor) Next(owner *Owner) (*Cursor, bool) {
	c.checkOwner(owner)

	end := c.start.Add(c.span)
	if end.Tokens >= c.root.summary.Tokens {
		return nil, false
	}

	if c.path == nil {
		next, ok := seek(c.root, c.shape, TokenCount, end.Tokens)
		if ok {
			next.owner = c.owner
		}
		return next, ok
	}
	return c.advanceLeaf(end), true
}

// advanceLeaf walks back up the path until it can go right, then descends
// to the leftmost leaf of that sibling.
func (c *Cursor) advanceLeaf(start Summary) *Cursor {
	path := slices.Clone(c.path)
	for len(path) > 0 {
		frame := path[len(path)-1]
		path = path[:len(path)-1]

		nextIdx := frame.childIdx + 1
		if nextIdx >= len(frame.node.children) {
			continue
		}

		path = append(path, cursorFrame{node: frame.node, childIdx: nextIdx})
		n := frame.node.children[nextIdx]
		for !n.isLeaf() {
			path = append(path, cursorFrame{node: n, childIdx: 0})
			n = n.children[0]
		}
		return &Cursor{
			root:  c.root,
			shape: c.shape,
			owner: c.owner,
			path:  path,
			leaf:  n.tokens,
			start: start,
			span:  n.summary,
		}
	}

	// Unreachable while end < total, which Next checks.
	panic("tokenrope: cursor walked past the last leaf")
}

// Replace swaps the leaf at the cursor for leaf and returns a cursor over
// the replacement. The replacement may be empty or longer than a leaf;
// it is split and empty leaves are dropped.
//
// Nodes on the path are copied unless they already belong to the owner's
// active generation, in which case they are updated in place. Replace
// panics when called on a cursor that has already been replaced.
func (c *Cursor) Replace(owner *Owner, leaf *tokenarray.Array) *Cursor {
	if owner == nil {
		panic("tokenrope: Replace without an owner")
	}
	c.checkOwner(owner)
	if c.path == nil {
		panic("tokenrope: Replace on a cursor that was already replaced")
	}
	if leaf == nil {
		leaf = tokenarray.Empty
	}

	replacement := splitLeaf(leaf, c.shape.LeafTokens, owner.gen)
	for i := len(c.path) - 1; i >= 0; i-- {
		frame := c.path[i]
		parent := owner.writable(frame.node)

		children := make([]*node, 0, len(parent.children)-1+len(replacement))
		children = append(children, parent.children[:frame.childIdx]...)
		children = append(children, replacement...)
		children = append(children, parent.children[frame.childIdx+1:]...)

		replacement = groupChildren(children, c.shape.Fanout, parent, owner.gen)
	}

	return &Cursor{
		root:  buildRoot(replacement, c.shape.Fanout, owner.gen),
		shape: c.shape,
		owner: owner,
		leaf:  leaf,
		start: c.start,
		span:  Summarize(leaf),
	}
}

// Rope publishes the tree at the cursor as an immutable rope and retires
// the owner's generation.
func (c *Cursor) Rope(owner *Owner) Rope {
	c.checkOwner(owner)
	if owner != nil {
		owner.retire()
	}
	return Rope{root: c.root, shape: c.shape}
}

// checkOwner panics when a cursor bound to one owner is used with another.
func (c *Cursor) checkOwner(owner *Owner) {
	if c.owner != nil && owner != c.owner {
		panic("tokenrope: cursor used with a different owner")
	}
}
