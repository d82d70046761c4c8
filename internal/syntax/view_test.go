package syntax

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/dshills/lexrope/internal/syntax/tokenrope"
)

var tinyShape = tokenrope.Shape{LeafTokens: 2, Fanout: 2}

func lx(typ string, length int, flags ...bool) Lexeme[string] {
	l := Lexeme[string]{Type: typ, Length: length}
	if len(flags) > 0 {
		l.Restartable = flags[0]
	}
	if len(flags) > 1 {
		l.Edited = flags[1]
	}
	return l
}

func mustBuild(t *testing.T, lexemes []Lexeme[string], opts ...Option) *Tokens[string] {
	t.Helper()
	toks, err := Build(nil, lexemes, opts...)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return toks
}

// sampleLexemes is [A(0-2), B(2-5), C(5-9), D(9-10), E(10-15)].
func sampleLexemes() []Lexeme[string] {
	return []Lexeme[string]{
		lx("A", 2, true), lx("B", 3), lx("C", 4, true), lx("D", 1), lx("E", 5, true),
	}
}

// checkCounters verifies the view's counters against the rope and a model.
func checkCounters(t *testing.T, v *MutableView[string], model []Lexeme[string]) {
	t.Helper()
	var want tokenrope.Summary
	for _, l := range model {
		want.Tokens++
		want.Chars += l.Length
		if l.Restartable {
			want.Restartables++
		}
		if l.Edited {
			want.Edits++
		}
	}
	if v.total() != want {
		t.Fatalf("counters = %+v, want %+v", v.total(), want)
	}
	if v.rope.Summary() != want {
		t.Fatalf("rope summary = %+v, want %+v", v.rope.Summary(), want)
	}
	if err := v.rope.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func checkContent(t *testing.T, v *MutableView[string], model []Lexeme[string]) {
	t.Helper()
	checkCounters(t, v, model)
	offset := 0
	for i, l := range model {
		idx := Index(i)
		if got := v.TokenType(idx); got != l.Type {
			t.Fatalf("TokenType(%d) = %q, want %q", i, got, l.Type)
		}
		if v.TokenStart(idx) != offset || v.TokenEnd(idx) != offset+l.Length {
			t.Fatalf("token %d = [%d, %d), want [%d, %d)", i, v.TokenStart(idx), v.TokenEnd(idx), offset, offset+l.Length)
		}
		if v.IsRestartable(idx) != l.Restartable || v.IsEdited(idx) != l.Edited {
			t.Fatalf("token %d flags = %v/%v, want %v/%v", i, v.IsRestartable(idx), v.IsEdited(idx), l.Restartable, l.Edited)
		}
		offset += l.Length
	}
}

func TestReplaceTokensScenario(t *testing.T) {
	for _, shape := range []tokenrope.Shape{tokenrope.DefaultShape(), tinyShape} {
		t.Run(fmt.Sprintf("leaf%d", shape.LeafTokens), func(t *testing.T) {
			v := mustBuild(t, sampleLexemes(), WithShape(shape)).Mutate()
			if err := v.ReplaceTokens(1, 3, []Lexeme[string]{lx("X", 10)}); err != nil {
				t.Fatal(err)
			}

			want := []Lexeme[string]{lx("A", 2, true), lx("X", 10), lx("D", 1), lx("E", 5, true)}
			checkContent(t, v, want)
			if v.TokenCount() != 4 || v.CharCount() != 18 {
				t.Errorf("counts = %d tokens, %d chars; want 4, 18", v.TokenCount(), v.CharCount())
			}
			ends := []int{2, 12, 13, 18}
			for i, end := range ends {
				if got := v.TokenEnd(Index(i)); got != end {
					t.Errorf("TokenEnd(%d) = %d, want %d", i, got, end)
				}
			}
		})
	}
}

func TestReplaceTokensNoOp(t *testing.T) {
	v := mustBuild(t, sampleLexemes()).Mutate()
	before := v.total()
	rope := v.rope

	if err := v.ReplaceTokens(0, 0, nil); err != nil {
		t.Fatal(err)
	}
	if v.total() != before {
		t.Errorf("counters changed: %+v -> %+v", before, v.total())
	}
	if v.rope != rope {
		t.Error("no-op replaced the rope")
	}
	checkContent(t, v, sampleLexemes())
}

func TestReplaceTokensEdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		from, to Index
		lexemes  []Lexeme[string]
		want     []string
	}{
		{"pure deletion", 1, 4, nil, []string{"A", "E"}},
		{"pure insertion", 2, 2, []Lexeme[string]{lx("X", 1), lx("Y", 1)}, []string{"A", "B", "X", "Y", "C", "D", "E"}},
		{"append", 5, 5, []Lexeme[string]{lx("Z", 3)}, []string{"A", "B", "C", "D", "E", "Z"}},
		{"prepend", 0, 0, []Lexeme[string]{lx("Z", 3)}, []string{"Z", "A", "B", "C", "D", "E"}},
		{"delete all", 0, 5, nil, nil},
		{"replace all", 0, 5, []Lexeme[string]{lx("Q", 7)}, []string{"Q"}},
	}

	for _, tt := range tests {
		for _, shape := range []tokenrope.Shape{tokenrope.DefaultShape(), tinyShape} {
			t.Run(fmt.Sprintf("%s/leaf%d", tt.name, shape.LeafTokens), func(t *testing.T) {
				v := mustBuild(t, sampleLexemes(), WithShape(shape)).Mutate()
				if err := v.ReplaceTokens(tt.from, tt.to, tt.lexemes); err != nil {
					t.Fatal(err)
				}

				model := append([]Lexeme[string]{}, sampleLexemes()[:tt.from]...)
				model = append(model, tt.lexemes...)
				model = append(model, sampleLexemes()[tt.to:]...)
				checkContent(t, v, model)

				if v.TokenCount() != len(tt.want) {
					t.Fatalf("TokenCount() = %d, want %d", v.TokenCount(), len(tt.want))
				}
				for i, typ := range tt.want {
					if got := v.TokenType(Index(i)); got != typ {
						t.Errorf("TokenType(%d) = %q, want %q", i, got, typ)
					}
				}
			})
		}
	}
}

func TestReplaceTokensRejectsBadArguments(t *testing.T) {
	v := mustBuild(t, sampleLexemes()).Mutate()

	tests := []struct {
		name     string
		from, to Index
		lexemes  []Lexeme[string]
		want     error
	}{
		{"negative from", -1, 2, nil, ErrRangeInvalid},
		{"reversed", 3, 2, nil, ErrRangeInvalid},
		{"past end", 2, 6, nil, ErrRangeInvalid},
		{"zero length", 1, 1, []Lexeme[string]{lx("X", 0)}, ErrInvalidLexeme},
		{"negative length", 0, 1, []Lexeme[string]{lx("X", 2), lx("Y", -1)}, ErrInvalidLexeme},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ReplaceTokens(tt.from, tt.to, tt.lexemes)
			if !errors.Is(err, tt.want) {
				t.Fatalf("ReplaceTokens error = %v, want %v", err, tt.want)
			}
			checkContent(t, v, sampleLexemes())
		})
	}
}

func TestReplaceTokensAcrossLeaves(t *testing.T) {
	var model []Lexeme[string]
	for i := 0; i < 40; i++ {
		model = append(model, lx(fmt.Sprintf("t%d", i%5), 1+i%3, i%4 == 0))
	}
	v := mustBuild(t, model, WithShape(tinyShape)).Mutate()

	repl := []Lexeme[string]{lx("N", 4, true, true), lx("M", 2, false, true)}
	if err := v.ReplaceTokens(3, 31, repl); err != nil {
		t.Fatal(err)
	}
	want := append([]Lexeme[string]{}, model[:3]...)
	want = append(want, repl...)
	want = append(want, model[31:]...)
	checkContent(t, v, want)
}

func TestRoundTrip(t *testing.T) {
	for _, shape := range []tokenrope.Shape{tokenrope.DefaultShape(), tinyShape} {
		orig := sampleLexemes()
		v := mustBuild(t, orig, WithShape(shape)).Mutate()
		x := []Lexeme[string]{lx("X", 3, true, true), lx("Y", 1), lx("Z", 2, false, true)}

		for i := 0; i <= len(orig); i++ {
			at := Index(i)
			if err := v.ReplaceTokens(at, at, x); err != nil {
				t.Fatal(err)
			}
			if err := v.ReplaceTokens(at, at+Index(len(x)), nil); err != nil {
				t.Fatal(err)
			}
			checkContent(t, v, orig)
		}
	}
}

func TestQueryProperties(t *testing.T) {
	var model []Lexeme[string]
	for i := 0; i < 60; i++ {
		model = append(model, lx("k", 1+i%4, i%3 == 0, i%7 == 2))
	}
	toks := mustBuild(t, model, WithShape(tinyShape))
	v := toks.Mutate()

	for i := 0; i < v.TokenCount(); i++ {
		idx := Index(i)
		if got := v.TokenIndexAtOffset(v.TokenStart(idx)); got != idx {
			t.Errorf("TokenIndexAtOffset(TokenStart(%d)) = %d", i, got)
		}
		if got := toks.TokenIndexAtOffset(toks.TokenStart(idx)); got != idx {
			t.Errorf("Tokens.TokenIndexAtOffset(TokenStart(%d)) = %d", i, got)
		}
	}
	if got := v.TokenIndexAtOffset(v.CharCount()); got != Index(v.TokenCount()) {
		t.Errorf("TokenIndexAtOffset(CharCount) = %d, want %d", got, v.TokenCount())
	}

	prev := 0
	for i := 0; i <= v.TokenCount(); i++ {
		got := v.RestartableStateCountBefore(Index(i))
		if got < prev {
			t.Fatalf("RestartableStateCountBefore decreased at %d: %d < %d", i, got, prev)
		}
		prev = got
	}
	if prev != v.RestartableStateCount() {
		t.Errorf("RestartableStateCountBefore(TokenCount) = %d, want %d", prev, v.RestartableStateCount())
	}

	for k := 0; k < v.RestartableStateCount(); k++ {
		idx := v.TokenIndexAtRestartableStateIndex(k)
		if !v.IsRestartable(idx) || v.RestartableStateCountBefore(idx) != k {
			t.Errorf("TokenIndexAtRestartableStateIndex(%d) = %d is not the %d-th restartable token", k, idx, k)
		}
	}
	if got := v.TokenIndexAtRestartableStateIndex(v.RestartableStateCount()); got != Index(v.TokenCount()) {
		t.Errorf("TokenIndexAtRestartableStateIndex(count) = %d, want %d", got, v.TokenCount())
	}

	edited := 0
	for k := 0; k < v.EditCount(); k++ {
		idx := v.TokenIndexAtEditIndex(k)
		if !v.IsEdited(idx) {
			t.Errorf("TokenIndexAtEditIndex(%d) = %d is not edited", k, idx)
		}
		if k > 0 && idx <= v.TokenIndexAtEditIndex(k-1) {
			t.Errorf("TokenIndexAtEditIndex not increasing at %d", k)
		}
		edited++
	}
	if got := toks.TokenIndexAtEditIndex(toks.EditCount()); got != Index(toks.TokenCount()) {
		t.Errorf("TokenIndexAtEditIndex(count) = %d, want %d", got, toks.TokenCount())
	}
	if edited == 0 {
		t.Fatal("model has no edited tokens")
	}
}

func TestAccessorsPanicOutOfRange(t *testing.T) {
	v := mustBuild(t, sampleLexemes()).Mutate()
	toks := v.Tokens()

	tests := []struct {
		name string
		call func()
	}{
		{"view TokenType", func() { v.TokenType(5) }},
		{"view TokenStart negative", func() { v.TokenStart(-1) }},
		{"view offset", func() { v.TokenIndexAtOffset(16) }},
		{"view edit index", func() { v.TokenIndexAtEditIndex(1) }},
		{"tokens IsEdited", func() { toks.IsEdited(5) }},
		{"tokens restartable before", func() { toks.RestartableStateCountBefore(6) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				err, ok := r.(error)
				if !ok || !errors.Is(err, ErrIndexOutOfRange) {
					t.Errorf("recovered %v, want error wrapping ErrIndexOutOfRange", r)
				}
			}()
			tt.call()
		})
	}
}

func TestSnapshotIsolation(t *testing.T) {
	base := mustBuild(t, sampleLexemes(), WithShape(tinyShape))
	v := base.Mutate()
	if err := v.ReplaceTokens(0, 3, []Lexeme[string]{lx("NEW", 1)}); err != nil {
		t.Fatal(err)
	}
	edited := v.Tokens()

	if base.TokenCount() != 5 || base.TokenType(0) != "A" {
		t.Errorf("base snapshot changed: %d tokens, first %q", base.TokenCount(), base.TokenType(0))
	}
	if _, ok := base.TypeMap().Lookup("NEW"); ok {
		t.Error("base type map sees a type interned by the view")
	}
	if edited.TokenType(0) != "NEW" || edited.TokenCount() != 3 {
		t.Errorf("edited snapshot = %d tokens, first %q", edited.TokenCount(), edited.TokenType(0))
	}

	// Edits after freezing do not leak into the frozen snapshot.
	if err := v.ReplaceTokens(0, 1, nil); err != nil {
		t.Fatal(err)
	}
	if edited.TokenCount() != 3 {
		t.Errorf("frozen snapshot changed to %d tokens", edited.TokenCount())
	}
}

func TestAllAndToken(t *testing.T) {
	toks := mustBuild(t, sampleLexemes(), WithShape(tinyShape))

	var got []Token[string]
	for i, tok := range toks.All() {
		if int(i) != len(got) {
			t.Fatalf("All yielded index %d at position %d", i, len(got))
		}
		if tok != toks.Token(i) {
			t.Errorf("All()[%d] = %v, Token = %v", i, tok, toks.Token(i))
		}
		got = append(got, tok)
	}
	if len(got) != 5 || got[4].String() != "E(10-15)r" {
		t.Errorf("All() = %v", got)
	}

	lexemes := toks.Lexemes()
	for i, l := range sampleLexemes() {
		if lexemes[i] != l {
			t.Errorf("Lexemes()[%d] = %+v, want %+v", i, lexemes[i], l)
		}
	}
}

func TestBuildRejectsBadLexeme(t *testing.T) {
	_, err := Build(nil, []Lexeme[string]{lx("A", 1), lx("B", 0)})
	if !errors.Is(err, ErrInvalidLexeme) {
		t.Errorf("Build error = %v, want ErrInvalidLexeme", err)
	}
}

// TestRandomEdits drives the view with random replacements and compares it
// against a plain slice after every step.
func TestRandomEdits(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	types := []string{"id", "kw", "op", "ws", "str"}
	randomLexemes := func(n int) []Lexeme[string] {
		out := make([]Lexeme[string], n)
		for i := range out {
			out[i] = lx(types[rng.Intn(len(types))], 1+rng.Intn(6), rng.Intn(3) == 0, rng.Intn(4) == 0)
		}
		return out
	}

	model := randomLexemes(30)
	v := mustBuild(t, model, WithShape(tokenrope.Shape{LeafTokens: 4, Fanout: 3})).Mutate()

	for step := 0; step < 400; step++ {
		from := rng.Intn(len(model) + 1)
		to := from + rng.Intn(len(model)-from+1)
		if rng.Intn(3) == 0 {
			to = from + min(len(model)-from, rng.Intn(3))
		}
		repl := randomLexemes(rng.Intn(10))

		if err := v.ReplaceTokens(Index(from), Index(to), repl); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		next := append([]Lexeme[string]{}, model[:from]...)
		next = append(next, repl...)
		model = append(next, model[to:]...)

		checkCounters(t, v, model)
		if step%20 == 0 {
			checkContent(t, v, model)
		}
		if len(model) < 5 {
			if err := v.ReplaceTokens(Index(len(model)), Index(len(model)), randomLexemes(20)); err != nil {
				t.Fatal(err)
			}
			model = v.Tokens().Lexemes()
		}
	}
	checkContent(t, v, model)
}

func TestReplaceTokensRopeExhausted(t *testing.T) {
	var model []Lexeme[string]
	for i := 0; i < 10; i++ {
		model = append(model, lx(fmt.Sprintf("t%d", i%3), 1+i%2, i%3 == 0))
	}
	v := mustBuild(t, model, WithShape(tinyShape)).Mutate()
	// Counters that overstate the rope let the deletion walk run off its end.
	v.tokenCount += 3

	err := v.ReplaceTokens(4, 13, nil)
	if !errors.Is(err, ErrRopeExhausted) {
		t.Fatalf("ReplaceTokens() = %v, want ErrRopeExhausted", err)
	}
	checkContent(t, v, model[:4])
}

func TestCompact(t *testing.T) {
	var model []Lexeme[string]
	for i := 0; i < 60; i++ {
		model = append(model, lx(fmt.Sprintf("t%d", i%4), 1+i%3, i%2 == 0, i%5 == 0))
	}
	toks := mustBuild(t, model, WithShape(tinyShape))
	v := toks.Mutate()
	// Leave one token in most leaves.
	var kept []Lexeme[string]
	for i := 0; i < 30; i++ {
		if err := v.ReplaceTokens(Index(i+1), Index(i+2), nil); err != nil {
			t.Fatal(err)
		}
		kept = append(kept, model[2*i])
	}
	sparse := v.Tokens()
	if sparse.Rope().LeafCount() != 30 {
		t.Fatalf("sparse rope has %d leaves, want 30", sparse.Rope().LeafCount())
	}

	packed := sparse.Compact()
	if got := packed.Rope().LeafCount(); got != 15 {
		t.Errorf("compacted rope has %d leaves, want 15", got)
	}
	if err := packed.Rope().Validate(); err != nil {
		t.Fatal(err)
	}
	if packed.TypeMap() != sparse.TypeMap() {
		t.Error("Compact replaced the type map")
	}
	got := packed.Lexemes()
	if len(got) != len(kept) {
		t.Fatalf("compacted %d tokens, want %d", len(got), len(kept))
	}
	for i := range kept {
		if got[i] != kept[i] {
			t.Fatalf("token %d = %+v, want %+v", i, got[i], kept[i])
		}
	}
	if packed.Rope().Summary() != sparse.Rope().Summary() {
		t.Errorf("summary = %+v, want %+v", packed.Rope().Summary(), sparse.Rope().Summary())
	}
}
