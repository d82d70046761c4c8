package tokenrope

import (
	"errors"
	"fmt"

	"github.com/dshills/lexrope/internal/syntax/tokenarray"
)

// ErrCorrupt is returned by Validate when a structural invariant is broken.
var ErrCorrupt = errors.New("tokenrope: corrupt tree")

// Rope is a persistent B+ tree of token arrays.
// Every node caches the Summary of its subtree, so any of the four metrics
// can be located in O(log n). A published Rope is never modified; edits go
// through a Cursor and an Owner and produce a new Rope.
type Rope struct {
	root  *node
	shape Shape
}

// New creates an empty rope with the given shape.
func New(shape Shape) Rope {
	return Rope{
		root:  newLeafNode(tokenarray.Empty, nil),
		shape: shape.normalize(),
	}
}

// FromArrays creates a rope holding the concatenation of the arrays.
// Arrays longer than a leaf are split; empty arrays are skipped.
func FromArrays(shape Shape, arrays ...*tokenarray.Array) Rope {
	shape = shape.normalize()

	var leaves []*node
	for _, a := range arrays {
		leaves = append(leaves, splitLeaf(a, shape.LeafTokens, nil)...)
	}
	return Rope{root: buildRoot(leaves, shape.Fanout, nil), shape: shape}
}

// rootNode returns the root, treating the zero Rope as empty.
func (r Rope) rootNode() *node {
	if r.root == nil {
		return newLeafNode(tokenarray.Empty, nil)
	}
	return r.root
}

// Shape returns the rope's shape.
func (r Rope) Shape() Shape {
	return r.shape.normalize()
}

// Summary returns the measures of the whole rope.
func (r Rope) Summary() Summary {
	if r.root == nil {
		return Summary{}
	}
	return r.root.summary
}

// Len returns the number of tokens.
func (r Rope) Len() int {
	return r.Summary().Tokens
}

// Chars returns the number of bytes spanned by all tokens.
func (r Rope) Chars() int {
	return r.Summary().Chars
}

// IsEmpty returns true if the rope holds no tokens.
func (r Rope) IsEmpty() bool {
	return r.Len() == 0
}

// Height returns the height of the tree; a single leaf has height 0.
func (r Rope) Height() int {
	if r.root == nil {
		return 0
	}
	return int(r.root.height)
}

// LeafCount returns the number of non-empty leaves.
func (r Rope) LeafCount() int {
	count := 0
	it := r.Leaves()
	for it.Next() {
		count++
	}
	return count
}

// Scan positions a cursor on the leaf containing position value along
// metric m. Value may equal the metric's total, which positions the cursor
// on the last leaf. Scan returns false when value is out of [0, total].
//
// The returned cursor satisfies
// Location(m) <= value <= Location(m) + Summary().Get(m).
func (r Rope) Scan(m Metric, value int) (*Cursor, bool) {
	return seek(r.rootNode(), r.Shape(), m, value)
}

// Compact rebuilds the rope with full leaves and balanced internal nodes.
// The token content is unchanged.
func (r Rope) Compact() Rope {
	b := NewBuilder(r.Shape())
	it := r.Leaves()
	for it.Next() {
		// Leaves of a valid rope always fit, so this cannot fail.
		_ = b.AppendArray(it.Leaf())
	}
	return b.Build()
}

// Validate checks the structural invariants of the tree: cached summaries
// match their subtrees, heights are uniform, only a lone root leaf may be
// empty and no node exceeds the shape.
func (r Rope) Validate() error {
	root := r.rootNode()
	shape := r.Shape()
	if !root.isLeaf() && len(root.children) < 2 {
		return fmt.Errorf("%w: root has %d children", ErrCorrupt, len(root.children))
	}
	_, err := validateNode(root, shape, true)
	return err
}

func validateNode(n *node, shape Shape, isRoot bool) (Summary, error) {
	if n.isLeaf() {
		if n.tokens == nil {
			return Summary{}, fmt.Errorf("%w: leaf without tokens", ErrCorrupt)
		}
		if n.tokens.Len() == 0 && !isRoot {
			return Summary{}, fmt.Errorf("%w: empty non-root leaf", ErrCorrupt)
		}
		if n.tokens.Len() > shape.LeafTokens {
			return Summary{}, fmt.Errorf("%w: leaf holds %d tokens, limit %d", ErrCorrupt, n.tokens.Len(), shape.LeafTokens)
		}
		if got := Summarize(n.tokens); got != n.summary {
			return Summary{}, fmt.Errorf("%w: leaf summary %+v, want %+v", ErrCorrupt, n.summary, got)
		}
		return n.summary, nil
	}

	if len(n.children) == 0 || len(n.children) > shape.Fanout {
		return Summary{}, fmt.Errorf("%w: node has %d children, fanout %d", ErrCorrupt, len(n.children), shape.Fanout)
	}
	if len(n.childSummaries) != len(n.children) {
		return Summary{}, fmt.Errorf("%w: %d summaries for %d children", ErrCorrupt, len(n.childSummaries), len(n.children))
	}

	var total Summary
	for i, child := range n.children {
		if child.height+1 != n.height {
			return Summary{}, fmt.Errorf("%w: child height %d under height %d", ErrCorrupt, child.height, n.height)
		}
		s, err := validateNode(child, shape, false)
		if err != nil {
			return Summary{}, err
		}
		if s != n.childSummaries[i] {
			return Summary{}, fmt.Errorf("%w: child summary %+v, want %+v", ErrCorrupt, n.childSummaries[i], s)
		}
		total = total.Add(s)
	}
	if total != n.summary {
		return Summary{}, fmt.Errorf("%w: node summary %+v, want %+v", ErrCorrupt, n.summary, total)
	}
	return total, nil
}
