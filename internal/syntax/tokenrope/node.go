package tokenrope

import "github.com/dshills/lexrope/internal/syntax/tokenarray"

// Shape bounds the size of leaves and internal nodes.
type Shape struct {
	// LeafTokens is the maximum number of tokens in a leaf.
	LeafTokens int

	// Fanout is the maximum number of children of an internal node.
	Fanout int
}

// Tree shape defaults and lower bounds.
const (
	DefaultLeafTokens = 128
	DefaultFanout     = 8

	minLeafTokens = 2
	minFanout     = 2
)

// DefaultShape returns the shape used when none is configured.
func DefaultShape() Shape {
	return Shape{LeafTokens: DefaultLeafTokens, Fanout: DefaultFanout}
}

// normalize replaces unset or too small bounds.
func (s Shape) normalize() Shape {
	if s.LeafTokens == 0 {
		s.LeafTokens = DefaultLeafTokens
	}
	if s.Fanout == 0 {
		s.Fanout = DefaultFanout
	}
	s.LeafTokens = max(s.LeafTokens, minLeafTokens)
	s.Fanout = max(s.Fanout, minFanout)
	return s
}

// node is a node of the token B+ tree.
// Leaf nodes (height == 0) hold one token array.
// Internal nodes (height > 0) hold child references and their summaries.
type node struct {
	height  uint8
	summary Summary // Aggregated measures for the entire subtree

	// gen is the owner generation allowed to mutate this node in place.
	gen *generation

	// Internal node fields (height > 0)
	children       []*node
	childSummaries []Summary

	// Leaf node fields (height == 0)
	tokens *tokenarray.Array
}

// newLeafNode creates a leaf holding the given tokens.
func newLeafNode(a *tokenarray.Array, gen *generation) *node {
	return &node{
		summary: Summarize(a),
		gen:     gen,
		tokens:  a,
	}
}

// newInternalNode creates an internal node over children of equal height.
func newInternalNode(children []*node, gen *generation) *node {
	n := &node{
		height: children[0].height + 1,
		gen:    gen,
	}
	n.setChildren(children)
	return n
}

// isLeaf returns true if this is a leaf node.
func (n *node) isLeaf() bool {
	return n.height == 0
}

// setChildren installs children and recomputes the cached summaries.
func (n *node) setChildren(children []*node) {
	n.children = children
	n.childSummaries = make([]Summary, len(children))
	n.summary = Summary{}
	for i, child := range children {
		n.childSummaries[i] = child.summary
		n.summary = n.summary.Add(child.summary)
	}
}

// clone creates a shallow copy of the node owned by gen.
func (n *node) clone(gen *generation) *node {
	if n.isLeaf() {
		return &node{summary: n.summary, gen: gen, tokens: n.tokens}
	}

	children := make([]*node, len(n.children))
	copy(children, n.children)
	summaries := make([]Summary, len(n.childSummaries))
	copy(summaries, n.childSummaries)

	return &node{
		height:         n.height,
		summary:        n.summary,
		gen:            gen,
		children:       children,
		childSummaries: summaries,
	}
}

// findChild finds the child containing position value along metric m.
// Returns the child index and the summary of all children before it.
// A value equal to the node's total selects the last child.
func (n *node) findChild(m Metric, value int) (int, Summary) {
	var before Summary
	for i, s := range n.childSummaries {
		if before.Get(m)+s.Get(m) > value {
			return i, before
		}
		if i == len(n.childSummaries)-1 {
			return i, before
		}
		before = before.Add(s)
	}
	return 0, before
}

// splitLeaf cuts a token array into leaf nodes of at most limit tokens.
// An empty array produces no leaves.
func splitLeaf(a *tokenarray.Array, limit int, gen *generation) []*node {
	n := a.Len()
	if n == 0 {
		return nil
	}
	if n <= limit {
		return []*node{newLeafNode(a, gen)}
	}

	sizes := evenSizes(n, limit)
	leaves := make([]*node, 0, len(sizes))
	from := 0
	for _, size := range sizes {
		leaves = append(leaves, newLeafNode(a.Slice(from, from+size), gen))
		from += size
	}
	return leaves
}

// groupChildren packs nodes of equal height under new parents of at most
// fanout children each. When reuse is non-nil it becomes the first parent.
func groupChildren(children []*node, fanout int, reuse *node, gen *generation) []*node {
	if len(children) == 0 {
		return nil
	}

	sizes := evenSizes(len(children), fanout)
	parents := make([]*node, 0, len(sizes))
	from := 0
	for i, size := range sizes {
		group := make([]*node, size)
		copy(group, children[from:from+size])
		from += size

		if i == 0 && reuse != nil {
			reuse.setChildren(group)
			parents = append(parents, reuse)
			continue
		}
		parents = append(parents, newInternalNode(group, gen))
	}
	return parents
}

// buildRoot stacks nodes of equal height into a single root and collapses
// single-child chains above it.
func buildRoot(nodes []*node, fanout int, gen *generation) *node {
	if len(nodes) == 0 {
		return newLeafNode(tokenarray.Empty, gen)
	}
	for len(nodes) > 1 {
		nodes = groupChildren(nodes, fanout, nil, gen)
	}

	root := nodes[0]
	for !root.isLeaf() && len(root.children) == 1 {
		root = root.children[0]
	}
	return root
}

// evenSizes splits n items into the fewest groups of at most limit items,
// with group sizes differing by at most one.
func evenSizes(n, limit int) []int {
	groups := (n + limit - 1) / limit
	sizes := make([]int, groups)
	base, extra := n/groups, n%groups
	for i := range sizes {
		sizes[i] = base
		if i < extra {
			sizes[i]++
		}
	}
	return sizes
}
