package lexer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/lexrope/internal/syntax"
)

// Lexer splits text into contiguous tokens for one language.
//
// Each token depends only on the text from its start to the end of its line
// and on the state it starts in. Restarting at any token boundary that
// starts in StateNormal therefore reproduces a full lex from that point.
// A Lexer is immutable and safe for concurrent use.
type Lexer struct {
	lang     string
	blocks   []Block
	rules    []compiledRule
	keywords map[string]Kind
}

type compiledRule struct {
	re   *regexp.Regexp
	kind Kind
}

// New compiles a language definition.
func New(l *Language) (*Lexer, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}

	lx := &Lexer{
		lang:     l.Name,
		blocks:   append([]Block(nil), l.Blocks...),
		rules:    make([]compiledRule, 0, len(l.Rules)),
		keywords: make(map[string]Kind, len(l.Keywords)),
	}
	for _, r := range l.Rules {
		re, err := compileRule(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidLanguage, l.Name, err)
		}
		lx.rules = append(lx.rules, compiledRule{re: re, kind: r.Kind})
	}
	for kw, kind := range l.Keywords {
		lx.keywords[kw] = kind
	}
	return lx, nil
}

// MustNew is like New but panics on an invalid definition.
// It is intended for the built-in languages.
func MustNew(l *Language) *Lexer {
	lx, err := New(l)
	if err != nil {
		panic(err)
	}
	return lx
}

// Language returns the language name.
func (lx *Lexer) Language() string {
	return lx.lang
}

// Next lexes the token starting at pos in the given state. It returns the
// token's kind and byte length (always > 0) and the state after it.
// pos must be less than len(text).
func (lx *Lexer) Next(text string, pos int, state State) (Kind, int, State) {
	if pos < 0 || pos >= len(text) {
		panic(fmt.Sprintf("lexer: position %d out of range [0, %d)", pos, len(text)))
	}

	rest := text[pos:]
	if rest[0] == '\n' {
		return KindNewline, 1, state
	}
	line := rest
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		line = rest[:i]
	}

	if !state.IsNormal() {
		return lx.continueBlock(line, state)
	}

	if n := leadingSpace(line); n > 0 {
		return KindWhitespace, n, StateNormal
	}

	for i, b := range lx.blocks {
		if !strings.HasPrefix(line, b.Open) {
			continue
		}
		if end := strings.Index(line[len(b.Open):], b.Close); end >= 0 {
			return b.Kind, len(b.Open) + end + len(b.Close), StateNormal
		}
		return b.Kind, len(line), State(i + 1)
	}

	for _, r := range lx.rules {
		if loc := r.re.FindStringIndex(line); loc != nil && loc[1] > 0 {
			return r.kind, loc[1], StateNormal
		}
	}

	if n := identifierLength(line); n > 0 {
		if kind, ok := lx.keywords[line[:n]]; ok {
			return kind, n, StateNormal
		}
		return KindIdentifier, n, StateNormal
	}

	if n := lx.operatorLength(line); n > 0 {
		return KindOperator, n, StateNormal
	}
	if strings.IndexByte("()[]{},;.", line[0]) >= 0 {
		return KindPunctuation, 1, StateNormal
	}

	_, size := utf8.DecodeRuneInString(line)
	return KindInvalid, size, StateNormal
}

// continueBlock lexes a line segment inside a multi-line construct.
func (lx *Lexer) continueBlock(line string, state State) (Kind, int, State) {
	idx := int(state) - 1
	if idx >= len(lx.blocks) {
		panic(fmt.Sprintf("lexer: state %d unknown to %s", state, lx.lang))
	}
	b := lx.blocks[idx]
	if end := strings.Index(line, b.Close); end >= 0 {
		return b.Kind, end + len(b.Close), StateNormal
	}
	return b.Kind, len(line), state
}

// Lex lexes the whole text from the normal state.
func (lx *Lexer) Lex(text string) []syntax.Lexeme[Kind] {
	out := make([]syntax.Lexeme[Kind], 0, len(text)/4)
	state := StateNormal
	for pos := 0; pos < len(text); {
		kind, n, next := lx.Next(text, pos, state)
		out = append(out, syntax.Lexeme[Kind]{
			Type:        kind,
			Length:      n,
			Restartable: state.IsNormal(),
		})
		pos += n
		state = next
	}
	return out
}

func leadingSpace(s string) int {
	n := 0
	for n < len(s) && (s[n] == ' ' || s[n] == '\t' || s[n] == '\r' || s[n] == '\f' || s[n] == '\v') {
		n++
	}
	return n
}

func identifierLength(s string) int {
	n := 0
	for n < len(s) {
		r, size := utf8.DecodeRuneInString(s[n:])
		if r == '_' || unicode.IsLetter(r) || (n > 0 && unicode.IsDigit(r)) {
			n += size
			continue
		}
		break
	}
	return n
}

// operatorLength returns the length of the operator run at the start of s.
// The run stops where a block or rule would start, so "=/*" lexes as "="
// followed by a comment.
func (lx *Lexer) operatorLength(s string) int {
	n := 0
	for n < len(s) && strings.IndexByte("+-*/%=<>!&|^~?:", s[n]) >= 0 {
		if n > 0 && lx.startsConstruct(s[n:]) {
			break
		}
		n++
	}
	return n
}

func (lx *Lexer) startsConstruct(s string) bool {
	for _, b := range lx.blocks {
		if strings.HasPrefix(s, b.Open) {
			return true
		}
	}
	for _, r := range lx.rules {
		if loc := r.re.FindStringIndex(s); loc != nil && loc[1] > 0 {
			return true
		}
	}
	return false
}
