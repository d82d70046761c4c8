package config

import "errors"

var (
	// ErrValidationFailed indicates a setting outside its allowed values.
	ErrValidationFailed = errors.New("validation failed")

	// ErrDecode indicates merged settings that do not fit the schema.
	ErrDecode = errors.New("invalid configuration")
)
