package document

import "errors"

var (
	// ErrOffsetOutOfRange indicates an edit offset outside the text.
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrRangeInvalid indicates an edit whose start is after its end.
	ErrRangeInvalid = errors.New("invalid edit range")

	// ErrNoLexer indicates a document created without a lexer.
	ErrNoLexer = errors.New("document has no lexer")

	// ErrTokensDiverged indicates incrementally maintained tokens that
	// differ from a full relex of the text.
	ErrTokensDiverged = errors.New("tokens diverged from full relex")
)
