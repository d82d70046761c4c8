// Package tokenrope provides a persistent B+ tree of token arrays.
//
// Leaves hold tokenarray.Array values; every node caches a Summary with
// four measures (chars, tokens, edits, restartable states), so a position
// along any of them is found by a single root-to-leaf descent.
//
// Reads go through Rope.Scan, which returns a Cursor on the leaf holding the
// requested position. Writes are batched under an Owner:
//
//	owner := tokenrope.NewOwner()
//	c, _ := r.Scan(tokenrope.TokenCount, 10)
//	c = c.Replace(owner, newLeaf)
//	if next, ok := c.Next(owner); ok {
//		c = next.Replace(owner, tokenarray.Empty)
//	}
//	r2 := c.Rope(owner)
//
// Nodes touched by Replace are copied on first write and updated in place
// afterwards until Rope publishes the result. The original rope r is left
// unchanged and may be read concurrently.
package tokenrope
