package syntax

import "fmt"

// Index is a 0-based global token ordinal.
type Index int

// Lexeme is one token as produced by a lexer: its type and byte length.
// Offsets are implied by the lengths of the preceding lexemes.
type Lexeme[T comparable] struct {
	Type        T
	Length      int
	Restartable bool
	Edited      bool
}

// Token is a materialized token with absolute byte offsets.
type Token[T comparable] struct {
	Type        T
	Start       int
	End         int
	Restartable bool
	Edited      bool
}

// Len returns the token's byte length.
func (t Token[T]) Len() int {
	return t.End - t.Start
}

// Lexeme drops the token's offsets.
func (t Token[T]) Lexeme() Lexeme[T] {
	return Lexeme[T]{Type: t.Type, Length: t.Len(), Restartable: t.Restartable, Edited: t.Edited}
}

// String returns a compact representation such as "ident(4-9)r".
func (t Token[T]) String() string {
	s := fmt.Sprintf("%v(%d-%d)", t.Type, t.Start, t.End)
	if t.Restartable {
		s += "r"
	}
	if t.Edited {
		s += "e"
	}
	return s
}
