package tokenarray

import "errors"

// Errors returned by Array construction and splicing.
var (
	// ErrInvalidLength indicates a token with a zero or negative length.
	ErrInvalidLength = errors.New("token length must be positive")

	// ErrTooLong indicates the leaf would span more bytes than an offset column can hold.
	ErrTooLong = errors.New("token leaf too long")

	// ErrRangeInvalid indicates a splice range outside the array or with from > to.
	ErrRangeInvalid = errors.New("invalid token range")
)
