package syntax

import "errors"

// Errors returned or raised by token sequence operations.
var (
	// ErrIndexOutOfRange indicates a token index, offset or flag index
	// outside the sequence. Read accessors panic with an error wrapping it.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrRangeInvalid indicates a replacement range that is reversed or
	// exceeds the token count.
	ErrRangeInvalid = errors.New("invalid token range")

	// ErrInvalidLexeme indicates a lexeme with a non-positive length.
	ErrInvalidLexeme = errors.New("invalid lexeme")

	// ErrRopeExhausted indicates the rope ended while tokens remained to delete.
	ErrRopeExhausted = errors.New("rope exhausted before end of range")
)
