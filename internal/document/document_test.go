package document

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/dshills/lexrope/internal/logging"
	"github.com/dshills/lexrope/internal/syntax"
	"github.com/dshills/lexrope/internal/syntax/lexer"
	"github.com/dshills/lexrope/internal/syntax/tokenrope"
)

var tinyShape = tokenrope.Shape{LeafTokens: 4, Fanout: 3}

const sampleGo = `package main

import "fmt"

/* greet prints
   a greeting */
func greet(name string) {
	fmt.Println("hello", name) // say hi
}

func main() {
	greet(` + "`raw\nstring`" + `)
	x := 0x1F + 42
	_ = x
}
`

func newDoc(t *testing.T, text string, opts ...Option) *Document {
	t.Helper()
	d, err := New(lexer.MustNew(lexer.Go()), text, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func mustApply(t *testing.T, d *Document, e Edit) RelexStats {
	t.Helper()
	stats, err := d.Apply(e)
	if err != nil {
		t.Fatalf("Apply(%v): %v", e, err)
	}
	if err := d.Verify(); err != nil {
		t.Fatalf("after Apply(%v): %v\ntext: %q", e, err, d.Text())
	}
	return stats
}

func TestNewMatchesFullLex(t *testing.T) {
	d := newDoc(t, sampleGo)
	if err := d.Verify(); err != nil {
		t.Fatal(err)
	}
	if d.Tokens().CharCount() != len(sampleGo) {
		t.Errorf("CharCount() = %d, want %d", d.Tokens().CharCount(), len(sampleGo))
	}
	if d.Tokens().EditCount() != 0 {
		t.Errorf("EditCount() = %d after New, want 0", d.Tokens().EditCount())
	}
	if d.Revision() != 0 {
		t.Errorf("Revision() = %d, want 0", d.Revision())
	}
}

func TestNewRequiresLexer(t *testing.T) {
	if _, err := New(nil, "x"); !errors.Is(err, ErrNoLexer) {
		t.Errorf("New(nil) error = %v, want ErrNoLexer", err)
	}
}

func TestApplyWithinLine(t *testing.T) {
	d := newDoc(t, sampleGo)
	at := strings.Index(sampleGo, "42")
	stats := mustApply(t, d, NewReplace(at, at+2, "4200"))

	if stats.Revision != 1 || d.Revision() != 1 {
		t.Errorf("revision = %d/%d, want 1", stats.Revision, d.Revision())
	}
	lineStart := strings.LastIndexByte(sampleGo[:at], '\n') + 1
	if stats.RestartOffset > lineStart {
		t.Errorf("RestartOffset = %d, after line start %d", stats.RestartOffset, lineStart)
	}
	if stats.Inserted > 12 {
		t.Errorf("Inserted = %d, relex did not stay local", stats.Inserted)
	}

	edited := d.EditedTokens()
	if len(edited) != stats.Inserted {
		t.Fatalf("EditedTokens() = %d tokens, want %d", len(edited), stats.Inserted)
	}
	var found bool
	for _, tok := range edited {
		if tok.Type == lexer.KindNumber && d.Text()[tok.Start:tok.End] == "4200" {
			found = true
		}
	}
	if !found {
		t.Errorf("edited tokens %v do not include the new number", edited)
	}
}

func TestApplyOpensAndClosesBlockComment(t *testing.T) {
	text := "a := 1\nb := 2\nc := 3\n"
	d := newDoc(t, text)

	stats := mustApply(t, d, NewInsert(0, "/*"))
	if stats.Inserted != d.Tokens().TokenCount() {
		t.Errorf("Inserted = %d, want whole text relexed (%d tokens)", stats.Inserted, d.Tokens().TokenCount())
	}
	for i, tok := range d.Tokens().All() {
		if tok.Type != lexer.KindCommentBlock && tok.Type != lexer.KindNewline {
			t.Errorf("token %d = %v, want comment after opening /*", i, tok)
		}
		if i > 0 && tok.Restartable && tok.Type == lexer.KindCommentBlock {
			t.Errorf("token %d = %v inside comment is restartable", i, tok)
		}
	}

	at := strings.Index(d.Text(), "b :=")
	mustApply(t, d, NewInsert(at, "*/"))
	last := d.Tokens().Token(syntax.Index(d.Tokens().TokenCount() - 2))
	if last.Type != lexer.KindNumber {
		t.Errorf("last token before newline = %v, want number", last)
	}
}

func TestApplyAtEnd(t *testing.T) {
	d := newDoc(t, "x := 1\n")
	mustApply(t, d, NewInsert(d.Len(), "y := 2\n"))
	mustApply(t, d, NewDelete(0, d.Len()))
	if d.Tokens().TokenCount() != 0 {
		t.Errorf("TokenCount() = %d after deleting everything", d.Tokens().TokenCount())
	}
	mustApply(t, d, NewInsert(0, "z"))
	if got := d.Tokens().TokenCount(); got != 1 {
		t.Errorf("TokenCount() = %d, want 1", got)
	}
}

func TestApplyEmptyDocument(t *testing.T) {
	d := newDoc(t, "")
	mustApply(t, d, NewInsert(0, "func f() {}\n"))
	if d.Text() != "func f() {}\n" {
		t.Errorf("Text() = %q", d.Text())
	}
}

func TestApplyRejectsInvalidEdit(t *testing.T) {
	d := newDoc(t, "abc")
	tokens := d.Tokens()
	if _, err := d.Apply(NewDelete(2, 9)); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("Apply error = %v, want ErrOffsetOutOfRange", err)
	}
	if d.Tokens() != tokens || d.Revision() != 0 {
		t.Error("failed Apply changed the document")
	}
}

func TestApplyNoOp(t *testing.T) {
	d := newDoc(t, "abc")
	stats, err := d.Apply(NewInsert(1, ""))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Revision != 0 || stats.Inserted != 0 || d.Revision() != 0 {
		t.Errorf("no-op stats = %+v, revision %d", stats, d.Revision())
	}
}

func TestSnapshotsSurviveEdits(t *testing.T) {
	d := newDoc(t, sampleGo)
	before := d.Tokens()
	want := before.Lexemes()

	mustApply(t, d, NewInsert(0, "// header\n"))
	got := before.Lexemes()
	if len(got) != len(want) {
		t.Fatalf("old snapshot changed length: %d -> %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("old snapshot token %d changed: %v -> %v", i, want[i], got[i])
		}
	}
}

func TestSetText(t *testing.T) {
	d := newDoc(t, sampleGo)
	updated := strings.Replace(sampleGo, "hello", "goodbye", 1)
	stats, err := d.SetText(updated)
	if err != nil {
		t.Fatal(err)
	}
	if d.Text() != updated {
		t.Error("Text() does not match SetText argument")
	}
	if err := d.Verify(); err != nil {
		t.Fatal(err)
	}
	if stats.Edit.Start != strings.Index(sampleGo, "hello") {
		t.Errorf("diff edit = %v", stats.Edit)
	}
}

func TestClearEdited(t *testing.T) {
	d := newDoc(t, sampleGo, WithShape(tinyShape))
	mustApply(t, d, NewInsert(0, "/* a\nb */\n"))
	at := strings.Index(d.Text(), "main()")
	mustApply(t, d, NewReplace(at, at+4, "start"))
	if d.Tokens().EditCount() == 0 {
		t.Fatal("no edited tokens after edits")
	}

	before := d.Tokens().TokenCount()
	if err := d.ClearEdited(); err != nil {
		t.Fatal(err)
	}
	if n := d.Tokens().EditCount(); n != 0 {
		t.Errorf("EditCount() = %d after ClearEdited", n)
	}
	if d.Tokens().TokenCount() != before {
		t.Errorf("TokenCount() changed %d -> %d", before, d.Tokens().TokenCount())
	}
	if err := d.Verify(); err != nil {
		t.Fatal(err)
	}
	if len(d.EditedTokens()) != 0 {
		t.Error("EditedTokens() not empty")
	}
}

func TestVerifyDetectsDivergence(t *testing.T) {
	d := newDoc(t, "a b")
	d.text = "a+b"
	if err := d.Verify(); !errors.Is(err, ErrTokensDiverged) {
		t.Errorf("Verify() = %v, want ErrTokensDiverged", err)
	}
}

func TestApplyLogs(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.Config{Level: logging.LevelDebug, Output: &buf})
	d := newDoc(t, "x\n", WithLogger(log), WithName("x.go"))
	mustApply(t, d, NewInsert(1, "y"))
	out := buf.String()
	if !strings.Contains(out, "lexed x.go") || !strings.Contains(out, "relexed Insert(1") {
		t.Errorf("log output = %q", out)
	}
	if !strings.Contains(out, "component=document") {
		t.Errorf("log output missing component: %q", out)
	}
	if !strings.Contains(out, "owner=") {
		t.Errorf("log output missing owner: %q", out)
	}
}

// sparseTokens rebuilds lexemes in a rope where every leaf holds a single
// token, by padding each token with filler and deleting the filler.
func sparseTokens(t *testing.T, lexemes []syntax.Lexeme[lexer.Kind]) *syntax.Tokens[lexer.Kind] {
	t.Helper()
	const pad = 3
	filler := syntax.Lexeme[lexer.Kind]{Type: lexer.KindInvalid, Length: 1}
	var padded []syntax.Lexeme[lexer.Kind]
	for _, lx := range lexemes {
		padded = append(padded, lx)
		for range pad {
			padded = append(padded, filler)
		}
	}
	tokens, err := syntax.Build(nil, padded, syntax.WithShape(tokenrope.Shape{LeafTokens: pad + 1, Fanout: 3}))
	if err != nil {
		t.Fatal(err)
	}
	v := tokens.Mutate()
	for i := range lexemes {
		if err := v.ReplaceTokens(syntax.Index(i+1), syntax.Index(i+1+pad), nil); err != nil {
			t.Fatal(err)
		}
	}
	return v.Tokens()
}

func TestSetTokensCompactsSparseRope(t *testing.T) {
	d := newDoc(t, sampleGo)
	sparse := sparseTokens(t, d.Tokens().Lexemes())
	r := sparse.Rope()
	if r.LeafCount() != r.Len() || !fragmented(r) {
		t.Fatalf("sparse rope has %d leaves for %d tokens", r.LeafCount(), r.Len())
	}

	if !d.setTokens(sparse) {
		t.Fatal("setTokens did not compact a sparse rope")
	}
	got := d.Tokens().Rope()
	if fragmented(got) {
		t.Errorf("rope still fragmented: %d leaves for %d tokens", got.LeafCount(), got.Len())
	}
	if err := got.Validate(); err != nil {
		t.Fatal(err)
	}
	if err := d.Verify(); err != nil {
		t.Fatal(err)
	}
	if d.setTokens(d.Tokens()) {
		t.Error("setTokens compacted a packed rope")
	}
}

func TestApplyCompactsFragmentedRope(t *testing.T) {
	d := newDoc(t, sampleGo)
	d.tokens = sparseTokens(t, d.Tokens().Lexemes())

	stats := mustApply(t, d, NewInsert(0, "y"))
	if stats.Compacted {
		t.Error("Apply compacted between check intervals")
	}

	d.revision = compactEvery - 1
	stats = mustApply(t, d, NewInsert(0, "// top\n"))
	if !stats.Compacted {
		t.Error("Apply on a fragmented rope did not compact")
	}
	if r := d.Tokens().Rope(); fragmented(r) {
		t.Errorf("rope fragmented after Apply: %d leaves for %d tokens", r.LeafCount(), r.Len())
	}

	d.revision = 2*compactEvery - 1
	stats = mustApply(t, d, NewInsert(0, "x"))
	if stats.Compacted {
		t.Error("Apply compacted a packed rope")
	}
}

var fragments = []string{
	"/*", "*/", "\n", "x", " ", "\"", "`", "// c", "123", "func", "\t", "0x",
	"'a'", "{", "}", ":=", "\"s\"", "\n\n", "é",
}

func TestRandomEditsMatchFullLex(t *testing.T) {
	for _, shape := range []tokenrope.Shape{tinyShape, tokenrope.DefaultShape()} {
		rng := rand.New(rand.NewPCG(7, uint64(shape.LeafTokens)))
		d := newDoc(t, sampleGo, WithShape(shape))
		for step := range 400 {
			n := d.Len()
			start := rng.IntN(n + 1)
			end := start + rng.IntN(min(n-start, 8)+1)
			var text string
			for range rng.IntN(3) {
				text += fragments[rng.IntN(len(fragments))]
			}
			e := NewReplace(start, end, text)
			want := e.Apply(d.Text())

			stats, err := d.Apply(e)
			if err != nil {
				t.Fatalf("step %d Apply(%v): %v", step, e, err)
			}
			if d.Text() != want {
				t.Fatalf("step %d text = %q, want %q", step, d.Text(), want)
			}
			if err := d.Verify(); err != nil {
				t.Fatalf("step %d after %v: %v\ntext: %q", step, e, err, d.Text())
			}
			if err := d.Tokens().Rope().Validate(); err != nil {
				t.Fatalf("step %d rope: %v", step, err)
			}
			if r := d.Tokens().Rope(); d.Revision()%compactEvery == 0 && fragmented(r) {
				t.Fatalf("step %d: %d leaves for %d tokens", step, r.LeafCount(), r.Len())
			}
			if !e.IsNoOp() && len(d.Text()) > 0 && stats.Inserted == 0 && stats.Removed == 0 {
				t.Fatalf("step %d: edit %v relexed nothing", step, e)
			}
			if rng.IntN(20) == 0 {
				if err := d.ClearEdited(); err != nil {
					t.Fatalf("step %d ClearEdited: %v", step, err)
				}
			}
		}
	}
}

func TestEditedTokensCoverEdit(t *testing.T) {
	d := newDoc(t, sampleGo)
	at := strings.Index(sampleGo, "_ = x")
	e := NewInsert(at, "y := x\n\t")
	mustApply(t, d, e)

	edited := d.EditedTokens()
	if len(edited) == 0 {
		t.Fatal("no edited tokens")
	}
	if edited[0].Start > e.Start || edited[len(edited)-1].End < e.Start+len(e.Text) {
		t.Errorf("edited span [%d, %d) does not cover inserted [%d, %d)",
			edited[0].Start, edited[len(edited)-1].End, e.Start, e.Start+len(e.Text))
	}
}

func BenchmarkApplyTyping(b *testing.B) {
	text := strings.Repeat(sampleGo, 200)
	d, err := New(lexer.MustNew(lexer.Go()), text)
	if err != nil {
		b.Fatal(err)
	}
	at := len(text) / 2
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := d.Apply(NewInsert(at, "x")); err != nil {
			b.Fatal(err)
		}
		if _, err := d.Apply(NewDelete(at, at+1)); err != nil {
			b.Fatal(err)
		}
	}
}
