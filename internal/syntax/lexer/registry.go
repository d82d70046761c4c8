package lexer

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Registry manages available lexers.
type Registry struct {
	mu sync.RWMutex

	// byLanguage maps language names to lexers
	byLanguage map[string]*Lexer

	// byExtension maps file extensions to lexers
	byExtension map[string]*Lexer
}

// NewRegistry creates an empty lexer registry.
func NewRegistry() *Registry {
	return &Registry{
		byLanguage:  make(map[string]*Lexer),
		byExtension: make(map[string]*Lexer),
	}
}

// DefaultRegistry returns a registry with the built-in languages.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, l := range Builtins() {
		// Built-in definitions are known to compile.
		_ = r.Register(l)
	}
	return r
}

// Register compiles a language and adds it to the registry, replacing any
// language with the same name or extensions.
func (r *Registry) Register(l *Language) error {
	lx, err := New(l)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byLanguage[l.Name] = lx
	for _, ext := range l.Extensions {
		r.byExtension[normalizeExt(ext)] = lx
	}
	return nil
}

// ByName returns the lexer for a language name.
func (r *Registry) ByName(name string) (*Lexer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lx, ok := r.byLanguage[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, name)
	}
	return lx, nil
}

// ForPath returns the lexer for a file path, chosen by extension.
func (r *Registry) ForPath(path string) (*Lexer, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return nil, fmt.Errorf("%w: %s has no extension", ErrUnknownLanguage, path)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	lx, ok := r.byExtension[normalizeExt(ext)]
	if !ok {
		return nil, fmt.Errorf("%w: no language for %s", ErrUnknownLanguage, path)
	}
	return lx, nil
}

// Languages returns the registered language names, sorted.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	langs := make([]string, 0, len(r.byLanguage))
	for lang := range r.byLanguage {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// normalizeExt lowercases ext and ensures it starts with a dot.
func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
