package lexer

import "fmt"

// Kind is the lexical kind of a token.
type Kind uint8

// Token kinds.
const (
	KindInvalid Kind = iota
	KindWhitespace
	KindNewline

	// Comments
	KindComment
	KindCommentBlock

	// Literals
	KindString
	KindNumber

	// Keywords
	KindKeyword
	KindKeywordDeclaration
	KindConstant        // true, false, nil, null
	KindTypeBuiltin     // int, string, bool, etc.
	KindFunctionBuiltin // len, print, etc.

	KindIdentifier
	KindOperator
	KindPunctuation
	KindMeta // decorators, attributes

	kindCount
)

var kindNames = [kindCount]string{
	KindInvalid:            "invalid",
	KindWhitespace:         "whitespace",
	KindNewline:            "newline",
	KindComment:            "comment",
	KindCommentBlock:       "comment_block",
	KindString:             "string",
	KindNumber:             "number",
	KindKeyword:            "keyword",
	KindKeywordDeclaration: "keyword_declaration",
	KindConstant:           "constant",
	KindTypeBuiltin:        "type_builtin",
	KindFunctionBuiltin:    "function_builtin",
	KindIdentifier:         "identifier",
	KindOperator:           "operator",
	KindPunctuation:        "punctuation",
	KindMeta:               "meta",
}

// String returns the kind's name.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsTrivia reports whether the kind carries no syntax (whitespace, newlines
// and comments).
func (k Kind) IsTrivia() bool {
	switch k {
	case KindWhitespace, KindNewline, KindComment, KindCommentBlock:
		return true
	}
	return false
}

// ParseKind returns the kind with the given name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return KindInvalid, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k >= kindCount {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, k)
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	kind, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, kindCount)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// State is the lexer mode at a token boundary. StateNormal is the only
// state from which lexing can restart; other states mean the boundary is
// inside a multi-line construct.
type State uint8

// StateNormal is the state outside any multi-line construct.
const StateNormal State = 0

// IsNormal reports whether s is StateNormal.
func (s State) IsNormal() bool {
	return s == StateNormal
}
