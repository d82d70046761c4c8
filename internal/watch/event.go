package watch

import (
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Op is a set of file operations.
type Op uint8

// File operations.
const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

var opNames = []struct {
	op   Op
	name string
}{
	{OpCreate, "CREATE"},
	{OpWrite, "WRITE"},
	{OpRemove, "REMOVE"},
	{OpRename, "RENAME"},
	{OpChmod, "CHMOD"},
}

// Has reports whether o includes every operation in other.
func (o Op) Has(other Op) bool {
	return o&other == other
}

// String returns the operations joined by "|".
func (o Op) String() string {
	var parts []string
	for _, n := range opNames {
		if o.Has(n.op) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, "|")
}

// Event reports that a watched file changed. Ops holds every operation
// seen during the debounce window.
type Event struct {
	Path string
	Op   Op
	Time time.Time
}

// Removed reports whether the file is gone: removed or renamed away
// without being recreated.
func (e Event) Removed() bool {
	return (e.Op.Has(OpRemove) || e.Op.Has(OpRename)) && !e.Op.Has(OpCreate)
}

// convertOp converts fsnotify.Op to Op.
func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	if fsOp.Has(fsnotify.Chmod) {
		op |= OpChmod
	}
	return op
}
