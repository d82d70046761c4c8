package tokenrope

import (
	"fmt"

	"github.com/dshills/lexrope/internal/syntax/tokenarray"
)

// Metric selects one of the measures cached on every node.
type Metric uint8

const (
	// CharCount measures the byte length spanned by tokens.
	CharCount Metric = iota

	// TokenCount measures the number of tokens.
	TokenCount

	// EditCount measures the number of tokens carrying the edited flag.
	EditCount

	// RestartableStateCount measures the number of restartable tokens.
	RestartableStateCount
)

// String returns the metric name.
func (m Metric) String() string {
	switch m {
	case CharCount:
		return "chars"
	case TokenCount:
		return "tokens"
	case EditCount:
		return "edits"
	case RestartableStateCount:
		return "restartables"
	default:
		return fmt.Sprintf("Metric(%d)", m)
	}
}

// Summary holds the four measures of a token span.
// It is the monoid cached on each node of the rope.
type Summary struct {
	Chars        int
	Tokens       int
	Edits        int
	Restartables int
}

// Add combines two summaries (monoid operation).
func (s Summary) Add(other Summary) Summary {
	return Summary{
		Chars:        s.Chars + other.Chars,
		Tokens:       s.Tokens + other.Tokens,
		Edits:        s.Edits + other.Edits,
		Restartables: s.Restartables + other.Restartables,
	}
}

// Get returns the measure for the given metric.
func (s Summary) Get(m Metric) int {
	switch m {
	case CharCount:
		return s.Chars
	case TokenCount:
		return s.Tokens
	case EditCount:
		return s.Edits
	case RestartableStateCount:
		return s.Restartables
	default:
		panic(fmt.Sprintf("tokenrope: unknown metric %d", m))
	}
}

// IsZero reports whether the summary covers no tokens.
func (s Summary) IsZero() bool {
	return s.Tokens == 0
}

// Summarize computes the summary of a leaf array.
func Summarize(a *tokenarray.Array) Summary {
	return Summary{
		Chars:        a.Chars(),
		Tokens:       a.Len(),
		Edits:        a.EditCount(),
		Restartables: a.RestartableCount(),
	}
}
