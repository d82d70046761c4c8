package syntax

import "github.com/dshills/lexrope/internal/syntax/tokenrope"

// options configures Build.
type options struct {
	shape tokenrope.Shape
}

// Option configures a token sequence during creation.
type Option func(*options)

// WithShape sets the leaf size and fanout of the underlying rope.
func WithShape(shape tokenrope.Shape) Option {
	return func(o *options) {
		o.shape = shape
	}
}

func applyOptions(opts []Option) options {
	o := options{shape: tokenrope.DefaultShape()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
