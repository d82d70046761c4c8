package lexer

import "errors"

// Errors returned by language loading.
var (
	// ErrUnknownKind indicates a kind name that is not defined.
	ErrUnknownKind = errors.New("unknown token kind")

	// ErrInvalidLanguage indicates a malformed language definition.
	ErrInvalidLanguage = errors.New("invalid language definition")

	// ErrUnknownLanguage indicates no language matched a name or path.
	ErrUnknownLanguage = errors.New("unknown language")
)
