// Package typemap interns token type values as dense int32 ids.
//
// A TypeMap is an immutable snapshot. Builders obtained from it share its
// storage until their first new interning, at which point they copy both
// directions of the mapping ("fork on write"). A builder can be frozen
// again with Build, producing an unbounded chain of generations.
package typemap

import (
	"fmt"

	"fortio.org/safecast"
)

// TypeMap is a frozen bidirectional mapping between types and ids.
// It is safe for concurrent use.
type TypeMap[T comparable] struct {
	byID []T
	ids  map[T]int32
}

// New returns an empty type map.
func New[T comparable]() *TypeMap[T] {
	return &TypeMap[T]{ids: map[T]int32{}}
}

// Builder returns a builder sharing this map's storage.
func (m *TypeMap[T]) Builder() *Builder[T] {
	return &Builder[T]{byID: m.byID, ids: m.ids}
}

// Get returns the type interned under id.
// It panics when id is unknown, which means encoded tokens and the map
// lineage are out of sync.
func (m *TypeMap[T]) Get(id int32) T {
	return get(m.byID, id)
}

// Lookup returns the id of t if it was interned.
func (m *TypeMap[T]) Lookup(t T) (int32, bool) {
	id, ok := m.ids[t]
	return id, ok
}

// Len returns the number of interned types.
func (m *TypeMap[T]) Len() int {
	return len(m.byID)
}

// Types returns the interned types in id order.
func (m *TypeMap[T]) Types() []T {
	out := make([]T, len(m.byID))
	copy(out, m.byID)
	return out
}

// Builder interns new types on top of a TypeMap snapshot.
// A Builder is not safe for concurrent use.
type Builder[T comparable] struct {
	byID   []T
	ids    map[T]int32
	copied bool // storage is private to this builder
}

// TypeID returns the id of t, interning it if needed. Repeated calls with
// the same type return the same id.
func (b *Builder[T]) TypeID(t T) int32 {
	if id, ok := b.ids[t]; ok {
		return id
	}

	if !b.copied {
		b.fork()
	}
	id, err := safecast.Conv[int32](len(b.byID))
	if err != nil {
		panic(fmt.Errorf("typemap: too many types: %w", err))
	}
	b.byID = append(b.byID, t)
	b.ids[t] = id
	return id
}

// Get returns the type interned under id. It panics on an unknown id.
func (b *Builder[T]) Get(id int32) T {
	return get(b.byID, id)
}

// Lookup returns the id of t without interning it.
func (b *Builder[T]) Lookup(t T) (int32, bool) {
	id, ok := b.ids[t]
	return id, ok
}

// Len returns the number of interned types.
func (b *Builder[T]) Len() int {
	return len(b.byID)
}

// Build freezes the current mapping. The builder stays usable and forks
// again on its next new interning.
func (b *Builder[T]) Build() *TypeMap[T] {
	ids := b.ids
	if ids == nil {
		ids = map[T]int32{}
	}
	b.copied = false
	return &TypeMap[T]{byID: b.byID, ids: ids}
}

// fork deep-copies both directions of the mapping.
func (b *Builder[T]) fork() {
	byID := make([]T, len(b.byID), len(b.byID)+8)
	copy(byID, b.byID)
	ids := make(map[T]int32, len(b.ids)+8)
	for t, id := range b.ids {
		ids[t] = id
	}
	b.byID = byID
	b.ids = ids
	b.copied = true
}

func get[T any](byID []T, id int32) T {
	if id < 0 || int(id) >= len(byID) {
		panic(fmt.Errorf("typemap: unknown type id %d (have %d)", id, len(byID)))
	}
	return byID[id]
}
