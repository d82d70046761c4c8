package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/lexrope/internal/logging"
	"github.com/dshills/lexrope/internal/syntax"
	"github.com/dshills/lexrope/internal/syntax/lexer"
	"github.com/dshills/lexrope/internal/syntax/tokenrope"
)

// RelexStats describes the work done by one Apply.
type RelexStats struct {
	// Revision is the document revision after the edit.
	Revision uint64
	// Edit is the applied edit.
	Edit Edit
	// RestartToken is the index of the first relexed token.
	RestartToken syntax.Index
	// RestartOffset is the byte offset lexing restarted from.
	RestartOffset int
	// Removed is the number of old tokens replaced.
	Removed int
	// Inserted is the number of tokens produced by the relex.
	Inserted int
	// Relexed is the number of bytes covered by the inserted tokens.
	Relexed int
	// Compacted reports whether the rope was rebuilt with packed leaves.
	Compacted bool
	// Duration is the wall time spent.
	Duration time.Duration
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger used for relex diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(d *Document) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithShape sets the token rope shape.
func WithShape(shape tokenrope.Shape) Option {
	return func(d *Document) {
		d.shape = shape
	}
}

// WithName sets a display name, typically the file path.
func WithName(name string) Option {
	return func(d *Document) {
		d.name = name
	}
}

// Document is a text plus the tokens of its language. A Document is not
// safe for concurrent use; the Tokens snapshots it hands out are.
type Document struct {
	id       uuid.UUID
	name     string
	text     string
	lexer    *lexer.Lexer
	tokens   *syntax.Tokens[lexer.Kind]
	revision uint64
	shape    tokenrope.Shape
	logger   *logging.Logger
}

// New lexes text with lx and returns the resulting document.
func New(lx *lexer.Lexer, text string, opts ...Option) (*Document, error) {
	if lx == nil {
		return nil, ErrNoLexer
	}
	d := &Document{
		id:     uuid.New(),
		text:   text,
		lexer:  lx,
		shape:  tokenrope.DefaultShape(),
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.WithComponent("document").WithField("language", lx.Language())

	tokens, err := syntax.Build(nil, lx.Lex(text), syntax.WithShape(d.shape))
	if err != nil {
		return nil, fmt.Errorf("build tokens: %w", err)
	}
	d.tokens = tokens
	d.logger.Debug("lexed %s: %d bytes, %d tokens", d.displayName(), len(text), tokens.TokenCount())
	return d, nil
}

// ID returns the document's unique id.
func (d *Document) ID() uuid.UUID {
	return d.id
}

// Name returns the display name.
func (d *Document) Name() string {
	return d.name
}

// Text returns the current text.
func (d *Document) Text() string {
	return d.text
}

// Len returns the text length in bytes.
func (d *Document) Len() int {
	return len(d.text)
}

// Tokens returns an immutable snapshot of the current tokens.
func (d *Document) Tokens() *syntax.Tokens[lexer.Kind] {
	return d.tokens
}

// Revision returns the number of edits applied.
func (d *Document) Revision() uint64 {
	return d.revision
}

// Lexer returns the document's lexer.
func (d *Document) Lexer() *lexer.Lexer {
	return d.lexer
}

func (d *Document) displayName() string {
	if d.name != "" {
		return d.name
	}
	return d.id.String()
}

// Apply applies e to the text and relexes the affected tokens.
func (d *Document) Apply(e Edit) (RelexStats, error) {
	if err := e.Validate(len(d.text)); err != nil {
		return RelexStats{}, err
	}
	if e.IsNoOp() {
		return RelexStats{Revision: d.revision, Edit: e}, nil
	}

	began := time.Now()
	text := e.Apply(d.text)
	v := d.tokens.Mutate()

	lineStart := strings.LastIndexByte(d.text[:e.Start], '\n') + 1
	from, pos := restartPoint(v, lineStart)
	restartOffset := pos

	editEnd := e.Start + len(e.Text)
	delta := e.Delta()
	to := syntax.Index(v.TokenCount())
	state := lexer.StateNormal

	var lexemes []syntax.Lexeme[lexer.Kind]
	for pos < len(text) {
		if pos >= editEnd && state.IsNormal() {
			if idx, ok := resyncPoint(v, pos-delta); ok {
				to = idx
				break
			}
		}
		kind, n, next := d.lexer.Next(text, pos, state)
		lexemes = append(lexemes, syntax.Lexeme[lexer.Kind]{
			Type:        kind,
			Length:      n,
			Restartable: state.IsNormal(),
			Edited:      true,
		})
		pos += n
		state = next
	}

	if err := v.ReplaceTokens(from, to, lexemes); err != nil {
		return RelexStats{}, fmt.Errorf("splice tokens [%d, %d): %w", from, to, err)
	}
	d.text = text
	d.revision++
	compacted := false
	if d.revision%compactEvery == 0 {
		compacted = d.setTokens(v.Tokens())
	} else {
		d.tokens = v.Tokens()
	}

	stats := RelexStats{
		Revision:      d.revision,
		Edit:          e,
		RestartToken:  from,
		RestartOffset: restartOffset,
		Removed:       int(to - from),
		Inserted:      len(lexemes),
		Relexed:       pos - restartOffset,
		Compacted:     compacted,
		Duration:      time.Since(began),
	}
	d.logger.WithFields(map[string]any{
		"revision":  stats.Revision,
		"removed":   stats.Removed,
		"inserted":  stats.Inserted,
		"compacted": compacted,
		"owner":     v.Owner(),
	}).Debug("relexed %s at %d", e, restartOffset)
	return stats, nil
}

// ApplyAll applies edits in order, stopping at the first error. Each edit's
// offsets refer to the text produced by the previous one.
func (d *Document) ApplyAll(edits []Edit) ([]RelexStats, error) {
	stats := make([]RelexStats, 0, len(edits))
	for i, e := range edits {
		s, err := d.Apply(e)
		if err != nil {
			return stats, fmt.Errorf("edit %d %s: %w", i, e, err)
		}
		stats = append(stats, s)
	}
	return stats, nil
}

// SetText replaces the whole text, relexing only the changed span.
func (d *Document) SetText(text string) (RelexStats, error) {
	return d.Apply(Diff(d.text, text))
}

// restartPoint returns the last restartable token at or before the token
// that begins lineStart, and that token's start offset.
func restartPoint(v *syntax.MutableView[lexer.Kind], lineStart int) (syntax.Index, int) {
	n := v.TokenCount()
	if n == 0 {
		return 0, 0
	}
	idx := min(v.TokenIndexAtOffset(lineStart), syntax.Index(n-1))
	r := v.RestartableStateCountBefore(idx + 1)
	if r == 0 {
		return 0, 0
	}
	restart := v.TokenIndexAtRestartableStateIndex(r - 1)
	return restart, v.TokenStart(restart)
}

// resyncPoint reports whether an old token starts at offset in the normal
// lexer state, and returns its index.
func resyncPoint(v *syntax.MutableView[lexer.Kind], offset int) (syntax.Index, bool) {
	idx := v.TokenIndexAtOffset(offset)
	if int(idx) >= v.TokenCount() {
		return idx, true
	}
	return idx, v.TokenStart(idx) == offset && v.IsRestartable(idx)
}

// EditedTokens returns the tokens flagged as edited, in order.
func (d *Document) EditedTokens() []syntax.Token[lexer.Kind] {
	n := d.tokens.EditCount()
	out := make([]syntax.Token[lexer.Kind], 0, n)
	for k := range n {
		out = append(out, d.tokens.Token(d.tokens.TokenIndexAtEditIndex(k)))
	}
	return out
}

// ClearEdited rewrites every edited token without its edited flag.
func (d *Document) ClearEdited() error {
	if d.tokens.EditCount() == 0 {
		return nil
	}
	v := d.tokens.Mutate()
	for v.EditCount() > 0 {
		from := v.TokenIndexAtEditIndex(0)
		to := from
		var run []syntax.Lexeme[lexer.Kind]
		for int(to) < v.TokenCount() && v.IsEdited(to) {
			lx := v.Token(to).Lexeme()
			lx.Edited = false
			run = append(run, lx)
			to++
		}
		if err := v.ReplaceTokens(from, to, run); err != nil {
			return fmt.Errorf("clear edited [%d, %d): %w", from, to, err)
		}
	}
	d.setTokens(v.Tokens())
	return nil
}

const (
	// compactFactor is how many times the packed leaf count a rope may
	// reach before it is compacted.
	compactFactor = 2
	// compactEvery is the revision interval at which Apply checks for
	// fragmentation.
	compactEvery = 32
)

// setTokens stores t, compacting it first when edits have left it with too
// many sparse leaves. It reports whether it compacted.
func (d *Document) setTokens(t *syntax.Tokens[lexer.Kind]) bool {
	if !fragmented(t.Rope()) {
		d.tokens = t
		return false
	}
	d.tokens = t.Compact()
	return true
}

// fragmented reports whether r has more than compactFactor times the leaves
// a packed rope of the same tokens needs.
func fragmented(r tokenrope.Rope) bool {
	leafTokens := r.Shape().LeafTokens
	packed := max((r.Len()+leafTokens-1)/leafTokens, 1)
	return r.LeafCount() > compactFactor*packed
}

// Verify relexes the whole text and compares the result with the
// incrementally maintained tokens, ignoring edited flags.
func (d *Document) Verify() error {
	want := d.lexer.Lex(d.text)
	got := d.tokens.Lexemes()
	for i := range min(len(want), len(got)) {
		w, g := want[i], got[i]
		if w.Type != g.Type || w.Length != g.Length || w.Restartable != g.Restartable {
			return fmt.Errorf("token %d: have %s/%d/%t, want %s/%d/%t: %w",
				i, g.Type, g.Length, g.Restartable, w.Type, w.Length, w.Restartable, ErrTokensDiverged)
		}
	}
	if len(want) != len(got) {
		return fmt.Errorf("have %d tokens, want %d: %w", len(got), len(want), ErrTokensDiverged)
	}
	return nil
}
