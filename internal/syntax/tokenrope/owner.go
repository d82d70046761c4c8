package tokenrope

import "github.com/google/uuid"

// generation tags nodes created during one mutation session.
// It must not be zero-size so that distinct generations compare unequal.
type generation struct {
	seq uint64
}

// Owner is the transaction handle for a batch of cursor replacements.
//
// Nodes created while an owner is active carry its current generation and
// may be mutated in place by later replacements in the same batch. Nodes
// from any other generation are path-copied. Publishing a rope with
// Cursor.Rope retires the generation, so published ropes are never mutated.
type Owner struct {
	id  uuid.UUID
	gen *generation
}

// NewOwner creates a fresh owner.
func NewOwner() *Owner {
	return &Owner{
		id:  uuid.New(),
		gen: &generation{seq: 1},
	}
}

// ID returns the owner's unique identifier.
func (o *Owner) ID() uuid.UUID {
	return o.id
}

// Generation returns the number of the active generation.
func (o *Owner) Generation() uint64 {
	return o.gen.seq
}

// String returns a short description for logs.
func (o *Owner) String() string {
	return o.id.String()
}

// writable returns n itself when it belongs to the active generation,
// otherwise an owned copy.
func (o *Owner) writable(n *node) *node {
	if n.gen == o.gen {
		return n
	}
	return n.clone(o.gen)
}

// retire ends the active generation.
func (o *Owner) retire() {
	o.gen = &generation{seq: o.gen.seq + 1}
}
