package document

import "fmt"

// Edit replaces the byte range [Start, End) of a text with Text.
type Edit struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// NewInsert creates an edit that inserts text at offset.
func NewInsert(offset int, text string) Edit {
	return Edit{Start: offset, End: offset, Text: text}
}

// NewDelete creates an edit that deletes [start, end).
func NewDelete(start, end int) Edit {
	return Edit{Start: start, End: end}
}

// NewReplace creates an edit that replaces [start, end) with text.
func NewReplace(start, end int, text string) Edit {
	return Edit{Start: start, End: end, Text: text}
}

// String returns a human-readable representation.
func (e Edit) String() string {
	switch {
	case e.IsNoOp():
		return fmt.Sprintf("NoOp(%d)", e.Start)
	case e.IsInsert():
		return fmt.Sprintf("Insert(%d, %q)", e.Start, e.Text)
	case e.IsDelete():
		return fmt.Sprintf("Delete(%d-%d)", e.Start, e.End)
	default:
		return fmt.Sprintf("Replace(%d-%d, %q)", e.Start, e.End, e.Text)
	}
}

// IsInsert returns true if this is a pure insertion.
func (e Edit) IsInsert() bool {
	return e.Start == e.End && e.Text != ""
}

// IsDelete returns true if this is a pure deletion.
func (e Edit) IsDelete() bool {
	return e.Start < e.End && e.Text == ""
}

// IsNoOp returns true if the edit changes nothing.
func (e Edit) IsNoOp() bool {
	return e.Start == e.End && e.Text == ""
}

// Delta returns the change in text length.
func (e Edit) Delta() int {
	return len(e.Text) - (e.End - e.Start)
}

// Validate checks the edit against a text of length n.
func (e Edit) Validate(n int) error {
	if e.Start > e.End {
		return fmt.Errorf("edit %d-%d: %w", e.Start, e.End, ErrRangeInvalid)
	}
	if e.Start < 0 || e.End > n {
		return fmt.Errorf("edit %d-%d of %d bytes: %w", e.Start, e.End, n, ErrOffsetOutOfRange)
	}
	return nil
}

// Apply returns text with the edit applied. The edit must be valid for text.
func (e Edit) Apply(text string) string {
	return text[:e.Start] + e.Text + text[e.End:]
}

// Diff returns the single edit that turns old into new, found by trimming
// their common prefix and suffix.
func Diff(old, new string) Edit {
	prefix := 0
	for prefix < len(old) && prefix < len(new) && old[prefix] == new[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(old)-prefix && suffix < len(new)-prefix &&
		old[len(old)-1-suffix] == new[len(new)-1-suffix] {
		suffix++
	}
	return Edit{
		Start: prefix,
		End:   len(old) - suffix,
		Text:  new[prefix : len(new)-suffix],
	}
}
