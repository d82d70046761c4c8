// Package tokenarray provides the immutable leaf of the token rope.
//
// An Array holds a fixed run of contiguous tokens as parallel columns:
// a type id, leaf-relative start and end byte offsets, and two bit columns
// for the restartable and edited flags. Keeping the columns separate keeps
// a leaf compact and makes prefix counts over the flags cheap.
//
// Arrays are never modified after they are built. Every mutating operation,
// such as ReplaceTokens or Slice, returns a new Array:
//
//	b := tokenarray.NewBuilder(3)
//	_ = b.Add(kwID, 4, true, false)    // "func"
//	_ = b.Add(wsID, 1, true, false)    // " "
//	_ = b.Add(identID, 4, true, false) // "main"
//	a := b.Build()
//	a.IndexByOffset(6)                 // 2
package tokenarray
