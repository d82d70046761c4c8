package export

import "errors"

var (
	// ErrInvalidScript indicates a malformed edit script.
	ErrInvalidScript = errors.New("invalid edit script")

	// ErrDumpVersion indicates a dump written by an unsupported version.
	ErrDumpVersion = errors.New("unsupported dump version")

	// ErrDumpCorrupt indicates a dump whose tokens do not describe its text.
	ErrDumpCorrupt = errors.New("corrupt dump")

	// ErrUnknownTheme indicates a color theme that is not registered.
	ErrUnknownTheme = errors.New("unknown theme")
)
