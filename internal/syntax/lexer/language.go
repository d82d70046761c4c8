package lexer

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// Rule matches a single-line token at the current position.
type Rule struct {
	// Pattern is the regex pattern to match. It is anchored at the
	// current position and never sees past the end of the line.
	Pattern string

	// Kind is the kind to assign to matches.
	Kind Kind
}

// Block is a construct that may span lines, such as a block comment or a
// raw string. Each block owns one lexer State.
type Block struct {
	Open  string
	Close string
	Kind  Kind
}

// Language describes how to split text into tokens.
type Language struct {
	Name       string
	Extensions []string

	// Blocks are tried first, in order, then Rules, then identifiers.
	Blocks   []Block
	Rules    []Rule
	Keywords map[string]Kind
}

// NewLanguage creates an empty language definition.
func NewLanguage(name string, extensions ...string) *Language {
	return &Language{
		Name:       name,
		Extensions: extensions,
		Keywords:   make(map[string]Kind),
	}
}

// AddRule adds a single-line rule.
func (l *Language) AddRule(pattern string, kind Kind) *Language {
	l.Rules = append(l.Rules, Rule{Pattern: pattern, Kind: kind})
	return l
}

// AddBlock adds a multi-line construct.
func (l *Language) AddBlock(open, close string, kind Kind) *Language {
	l.Blocks = append(l.Blocks, Block{Open: open, Close: close, Kind: kind})
	return l
}

// AddKeywords adds keywords with a specific kind.
func (l *Language) AddKeywords(kind Kind, keywords ...string) *Language {
	if l.Keywords == nil {
		l.Keywords = make(map[string]Kind)
	}
	for _, kw := range keywords {
		l.Keywords[kw] = kind
	}
	return l
}

// Matches reports whether path has one of the language's extensions.
func (l *Language) Matches(path string) bool {
	ext := filepath.Ext(path)
	if ext == "" {
		return false
	}
	return slices.Contains(l.Extensions, normalizeExt(ext))
}

// Validate checks that the definition can be compiled.
func (l *Language) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidLanguage)
	}
	if len(l.Blocks) > 255 {
		return fmt.Errorf("%w: %s has %d blocks, at most 255", ErrInvalidLanguage, l.Name, len(l.Blocks))
	}
	for i, b := range l.Blocks {
		if b.Open == "" || b.Close == "" {
			return fmt.Errorf("%w: %s block %d needs open and close delimiters", ErrInvalidLanguage, l.Name, i)
		}
		if strings.Contains(b.Open, "\n") || strings.Contains(b.Close, "\n") {
			return fmt.Errorf("%w: %s block %d delimiters contain a newline", ErrInvalidLanguage, l.Name, i)
		}
	}
	for i, r := range l.Rules {
		if _, err := compileRule(r.Pattern); err != nil {
			return fmt.Errorf("%w: %s rule %d: %w", ErrInvalidLanguage, l.Name, i, err)
		}
	}
	return nil
}

// compileRule anchors pattern at the start of the input.
func compileRule(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	return regexp.Compile(`^(?:` + pattern + `)`)
}

// Go returns the built-in Go language.
func Go() *Language {
	l := NewLanguage("go", ".go")

	l.AddBlock("/*", "*/", KindCommentBlock)
	l.AddBlock("`", "`", KindString)

	l.AddRule(`//.*`, KindComment)
	l.AddRule(`"(?:[^"\\]|\\.)*"`, KindString)
	l.AddRule(`'(?:[^'\\]|\\.)+'`, KindString)
	l.AddRule(`0[xX][0-9a-fA-F_]+`, KindNumber)
	l.AddRule(`0[oO][0-7_]+`, KindNumber)
	l.AddRule(`0[bB][01_]+`, KindNumber)
	l.AddRule(`\d[\d_]*(?:\.\d*)?(?:[eE][+-]?\d+)?i?`, KindNumber)

	l.AddKeywords(KindKeyword,
		"if", "else", "for", "range", "switch", "case", "default",
		"break", "continue", "return", "goto", "fallthrough", "select",
		"package", "import", "defer", "go")
	l.AddKeywords(KindKeywordDeclaration,
		"func", "var", "const", "type", "struct", "interface", "map", "chan")
	l.AddKeywords(KindConstant, "true", "false", "nil", "iota")
	l.AddKeywords(KindTypeBuiltin,
		"int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
		"float32", "float64", "complex64", "complex128",
		"bool", "byte", "rune", "string", "error", "any", "comparable")
	l.AddKeywords(KindFunctionBuiltin,
		"make", "new", "len", "cap", "append", "copy", "delete",
		"close", "panic", "recover", "print", "println",
		"real", "imag", "complex", "min", "max", "clear")

	return l
}

// Python returns the built-in Python language.
func Python() *Language {
	l := NewLanguage("python", ".py", ".pyw", ".pyi")

	l.AddBlock(`"""`, `"""`, KindString)
	l.AddBlock(`'''`, `'''`, KindString)

	l.AddRule(`#.*`, KindComment)
	l.AddRule(`[rbfRBF]{0,2}"(?:[^"\\]|\\.)*"`, KindString)
	l.AddRule(`[rbfRBF]{0,2}'(?:[^'\\]|\\.)*'`, KindString)
	l.AddRule(`0[xX][0-9a-fA-F_]+`, KindNumber)
	l.AddRule(`0[oO][0-7_]+`, KindNumber)
	l.AddRule(`0[bB][01_]+`, KindNumber)
	l.AddRule(`\d[\d_]*(?:\.\d*)?(?:[eE][+-]?\d+)?[jJ]?`, KindNumber)
	l.AddRule(`@\w+(?:\.\w+)*`, KindMeta)

	l.AddKeywords(KindKeyword,
		"if", "elif", "else", "for", "while", "break", "continue",
		"return", "try", "except", "finally", "raise", "with", "as",
		"match", "case", "import", "from", "global", "nonlocal", "pass",
		"yield", "assert", "del", "in", "is", "not", "and", "or")
	l.AddKeywords(KindKeywordDeclaration,
		"def", "class", "lambda", "async", "await")
	l.AddKeywords(KindConstant, "True", "False", "None")
	l.AddKeywords(KindTypeBuiltin,
		"int", "float", "str", "bool", "list", "dict", "set", "tuple",
		"bytes", "bytearray", "complex", "frozenset", "object")
	l.AddKeywords(KindFunctionBuiltin,
		"print", "len", "range", "enumerate", "zip", "map", "filter",
		"open", "isinstance", "getattr", "setattr", "sorted", "sum",
		"min", "max", "abs", "super", "type")

	return l
}

// JavaScript returns the built-in JavaScript/TypeScript language.
func JavaScript() *Language {
	l := NewLanguage("javascript", ".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs")

	l.AddBlock("/*", "*/", KindCommentBlock)
	l.AddBlock("`", "`", KindString)

	l.AddRule(`//.*`, KindComment)
	l.AddRule(`"(?:[^"\\]|\\.)*"`, KindString)
	l.AddRule(`'(?:[^'\\]|\\.)*'`, KindString)
	l.AddRule(`0[xX][0-9a-fA-F_]+n?`, KindNumber)
	l.AddRule(`0[oO][0-7_]+n?`, KindNumber)
	l.AddRule(`0[bB][01_]+n?`, KindNumber)
	l.AddRule(`\d[\d_]*(?:\.\d*)?(?:[eE][+-]?\d+)?n?`, KindNumber)
	l.AddRule(`@\w+`, KindMeta)

	l.AddKeywords(KindKeyword,
		"if", "else", "for", "while", "do", "switch", "case", "default",
		"break", "continue", "return", "throw", "try", "catch", "finally",
		"import", "export", "from", "as", "new", "delete", "typeof",
		"instanceof", "in", "of", "this", "super", "static", "yield")
	l.AddKeywords(KindKeywordDeclaration,
		"function", "var", "let", "const", "class", "extends", "async", "await",
		"type", "interface", "enum", "namespace")
	l.AddKeywords(KindConstant, "true", "false", "null", "undefined", "NaN", "Infinity")

	return l
}

// Builtins returns the built-in languages.
func Builtins() []*Language {
	return []*Language{Go(), Python(), JavaScript()}
}
