package tokenrope

import (
	"math/rand"
	"testing"

	"github.com/dshills/lexrope/internal/syntax/tokenarray"
)

// modelToken mirrors one token for comparison against a plain slice.
type modelToken struct {
	typeID      int32
	length      int
	restartable bool
	edited      bool
}

func arrayOf(t testing.TB, toks []modelToken) *tokenarray.Array {
	t.Helper()
	b := tokenarray.NewBuilder(len(toks))
	for _, tk := range toks {
		if err := b.Add(tk.typeID, tk.length, tk.restartable, tk.edited); err != nil {
			t.Fatalf("Add(%v): %v", tk, err)
		}
	}
	return b.Build()
}

func flatten(r Rope) []modelToken {
	var out []modelToken
	it := r.Leaves()
	for it.Next() {
		a := it.Leaf()
		for i := 0; i < a.Len(); i++ {
			out = append(out, modelToken{a.TypeID(i), a.Length(i), a.IsRestartable(i), a.IsEdited(i)})
		}
	}
	return out
}

func sequence(n int) []modelToken {
	toks := make([]modelToken, n)
	for i := range toks {
		toks[i] = modelToken{
			typeID:      int32(i % 7),
			length:      1 + i%4,
			restartable: i%3 == 0,
			edited:      i%5 == 0,
		}
	}
	return toks
}

func summarizeModel(toks []modelToken) Summary {
	var s Summary
	for _, tk := range toks {
		s.Tokens++
		s.Chars += tk.length
		if tk.restartable {
			s.Restartables++
		}
		if tk.edited {
			s.Edits++
		}
	}
	return s
}

func equalModel(a, b []modelToken) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var tinyShape = Shape{LeafTokens: 3, Fanout: 3}

func TestNew(t *testing.T) {
	r := New(DefaultShape())
	if !r.IsEmpty() || r.Len() != 0 || r.Chars() != 0 {
		t.Errorf("New() summary = %+v, want zero", r.Summary())
	}
	if err := r.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	var zero Rope
	if zero.Len() != 0 || zero.Height() != 0 {
		t.Error("zero Rope should be empty")
	}
	if _, ok := zero.Scan(TokenCount, 0); !ok {
		t.Error("Scan(TokenCount, 0) on zero Rope should succeed")
	}
}

func TestFromArrays(t *testing.T) {
	toks := sequence(40)
	r := FromArrays(tinyShape, arrayOf(t, toks[:25]), tokenarray.Empty, arrayOf(t, toks[25:]))

	if err := r.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if got, want := r.Summary(), summarizeModel(toks); got != want {
		t.Errorf("Summary() = %+v, want %+v", got, want)
	}
	if !equalModel(flatten(r), toks) {
		t.Error("flatten(FromArrays) does not match input")
	}
	if r.Height() < 2 {
		t.Errorf("Height() = %d, expected a multi-level tree", r.Height())
	}
}

func TestScanInvariant(t *testing.T) {
	toks := sequence(50)
	r := FromArrays(tinyShape, arrayOf(t, toks))
	total := r.Summary()

	for _, m := range []Metric{CharCount, TokenCount, EditCount, RestartableStateCount} {
		for v := 0; v <= total.Get(m); v++ {
			c, ok := r.Scan(m, v)
			if !ok {
				t.Fatalf("Scan(%v, %d) failed", m, v)
			}
			lo := c.Location(m)
			hi := lo + c.Summary().Get(m)
			if lo > v || v > hi {
				t.Errorf("Scan(%v, %d) located [%d, %d]", m, v, lo, hi)
			}
			if v < total.Get(m) && v >= hi {
				t.Errorf("Scan(%v, %d) chose a leaf ending at %d", m, v, hi)
			}
		}
		if _, ok := r.Scan(m, total.Get(m)+1); ok {
			t.Errorf("Scan(%v, total+1) should fail", m)
		}
		if _, ok := r.Scan(m, -1); ok {
			t.Errorf("Scan(%v, -1) should fail", m)
		}
	}
}

func TestScanAtEndPositionsLastLeaf(t *testing.T) {
	toks := sequence(20)
	r := FromArrays(tinyShape, arrayOf(t, toks))

	c, ok := r.Scan(TokenCount, r.Len())
	if !ok {
		t.Fatal("Scan at end failed")
	}
	if c.StartTokenIndex()+c.Leaf().Len() != r.Len() {
		t.Errorf("Scan at end did not land on the last leaf: start %d len %d", c.StartTokenIndex(), c.Leaf().Len())
	}
	if _, ok := c.Next(nil); ok {
		t.Error("Next from last leaf should fail")
	}
}

func TestCursorNextVisitsEveryLeaf(t *testing.T) {
	toks := sequence(31)
	r := FromArrays(tinyShape, arrayOf(t, toks))

	c, _ := r.Scan(TokenCount, 0)
	var seen []modelToken
	expectStart := 0
	for {
		if c.StartTokenIndex() != expectStart {
			t.Fatalf("StartTokenIndex() = %d, want %d", c.StartTokenIndex(), expectStart)
		}
		a := c.Leaf()
		for i := 0; i < a.Len(); i++ {
			seen = append(seen, modelToken{a.TypeID(i), a.Length(i), a.IsRestartable(i), a.IsEdited(i)})
		}
		expectStart += a.Len()

		next, ok := c.Next(nil)
		if !ok {
			break
		}
		c = next
	}
	if !equalModel(seen, toks) {
		t.Error("cursor walk does not match input")
	}
}

func TestReplaceLeaf(t *testing.T) {
	toks := sequence(30)
	r := FromArrays(tinyShape, arrayOf(t, toks))
	before := flatten(r)

	tests := []struct {
		name    string
		at      int
		replace []modelToken
	}{
		{"grow", 10, sequence(11)},
		{"shrink", 0, sequence(1)},
		{"delete", 29, nil},
		{"same size", 15, sequence(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner := NewOwner()
			c, ok := r.Scan(TokenCount, tt.at)
			if !ok {
				t.Fatalf("Scan(%d) failed", tt.at)
			}
			from := c.StartTokenIndex()
			to := from + c.Leaf().Len()

			c = c.Replace(owner, arrayOf(t, tt.replace))
			got := c.Rope(owner)

			want := append([]modelToken{}, toks[:from]...)
			want = append(want, tt.replace...)
			want = append(want, toks[to:]...)

			if err := got.Validate(); err != nil {
				t.Fatalf("Validate() = %v", err)
			}
			if !equalModel(flatten(got), want) {
				t.Errorf("rope after Replace does not match model")
			}
			if got.Summary() != summarizeModel(want) {
				t.Errorf("Summary() = %+v, want %+v", got.Summary(), summarizeModel(want))
			}
			if !equalModel(flatten(r), before) {
				t.Error("original rope was modified")
			}
		})
	}
}

func TestReplaceEverything(t *testing.T) {
	r := FromArrays(tinyShape, arrayOf(t, sequence(9)))
	owner := NewOwner()

	c, _ := r.Scan(TokenCount, 0)
	for {
		c = c.Replace(owner, tokenarray.Empty)
		next, ok := c.Next(owner)
		if !ok {
			break
		}
		c = next
	}
	got := c.Rope(owner)

	if !got.IsEmpty() {
		t.Errorf("Len() = %d, want 0", got.Len())
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if got.LeafCount() != 0 {
		t.Errorf("LeafCount() = %d, want 0", got.LeafCount())
	}
}

func TestReplaceOnReplacedCursorPanics(t *testing.T) {
	r := FromArrays(tinyShape, arrayOf(t, sequence(9)))
	owner := NewOwner()
	c, _ := r.Scan(TokenCount, 0)
	c = c.Replace(owner, tokenarray.Empty)

	defer func() {
		if recover() == nil {
			t.Error("second Replace did not panic")
		}
	}()
	c.Replace(owner, tokenarray.Empty)
}

func TestCursorBoundToOwner(t *testing.T) {
	r := FromArrays(tinyShape, arrayOf(t, sequence(9)))
	c, _ := r.Scan(TokenCount, 0)
	c = c.Replace(NewOwner(), tokenarray.Empty)

	defer func() {
		if recover() == nil {
			t.Error("Next with a foreign owner did not panic")
		}
	}()
	c.Next(NewOwner())
}

func TestOwnerGenerations(t *testing.T) {
	owner := NewOwner()
	gen := owner.Generation()

	r := FromArrays(tinyShape, arrayOf(t, sequence(12)))
	c, _ := r.Scan(TokenCount, 4)
	published := c.Replace(owner, arrayOf(t, sequence(2))).Rope(owner)

	if owner.Generation() != gen+1 {
		t.Errorf("Generation() = %d, want %d", owner.Generation(), gen+1)
	}
	snapshot := flatten(published)

	// Later edits by the same owner must not touch the published rope.
	c, _ = published.Scan(TokenCount, 4)
	_ = c.Replace(owner, tokenarray.Empty).Rope(owner)

	if !equalModel(flatten(published), snapshot) {
		t.Error("published rope changed after a later edit")
	}
}

// TestRandomReplace compares random multi-leaf batches against a slice model.
func TestRandomReplace(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	model := sequence(20)
	r := FromArrays(tinyShape, arrayOf(t, model))
	owner := NewOwner()

	for round := 0; round < 300; round++ {
		snapshot := append([]modelToken{}, model...)
		old := r

		if r.IsEmpty() {
			r = FromArrays(tinyShape, arrayOf(t, sequence(1+rng.Intn(6))))
			model = flatten(r)
			continue
		}

		c, _ := r.Scan(TokenCount, rng.Intn(r.Len()))
		leaves := 1 + rng.Intn(3)
		var want []modelToken
		want = append(want, model[:c.StartTokenIndex()]...)
		pos := c.StartTokenIndex()
		for i := 0; i < leaves; i++ {
			pos += c.Leaf().Len()
			repl := sequence(rng.Intn(8))
			for j := range repl {
				repl[j].typeID = int32(round)
			}
			want = append(want, repl...)
			c = c.Replace(owner, arrayOf(t, repl))

			next, ok := c.Next(owner)
			if !ok {
				break
			}
			c = next
		}
		want = append(want, model[pos:]...)
		r = c.Rope(owner)
		model = want

		if err := r.Validate(); err != nil {
			t.Fatalf("round %d: Validate() = %v", round, err)
		}
		if !equalModel(flatten(r), model) {
			t.Fatalf("round %d: rope does not match model", round)
		}
		if !equalModel(flatten(old), snapshot) {
			t.Fatalf("round %d: previous rope was modified", round)
		}
	}
}

func TestCompact(t *testing.T) {
	r := FromArrays(tinyShape, arrayOf(t, sequence(30)))
	owner := NewOwner()
	c, _ := r.Scan(TokenCount, 0)
	for {
		c = c.Replace(owner, arrayOf(t, sequence(1)))
		next, ok := c.Next(owner)
		if !ok {
			break
		}
		c = next
	}
	sparse := c.Rope(owner)

	compact := sparse.Compact()
	if err := compact.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if !equalModel(flatten(compact), flatten(sparse)) {
		t.Error("Compact changed content")
	}
	if compact.LeafCount() > sparse.LeafCount() {
		t.Errorf("LeafCount() grew from %d to %d", sparse.LeafCount(), compact.LeafCount())
	}
}

func TestBuilder(t *testing.T) {
	b := NewBuilder(tinyShape)
	toks := sequence(17)
	for _, tk := range toks {
		if err := b.Add(tk.typeID, tk.length, tk.restartable, tk.edited); err != nil {
			t.Fatal(err)
		}
	}
	if b.Len() != 17 {
		t.Errorf("Len() = %d, want 17", b.Len())
	}

	r := b.Build()
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if !equalModel(flatten(r), toks) {
		t.Error("built rope does not match input")
	}
	if b.Build().Len() != 0 {
		t.Error("builder not reset after Build")
	}
}

func TestShapeNormalize(t *testing.T) {
	got := Shape{LeafTokens: 1, Fanout: 0}.normalize()
	if got.LeafTokens != minLeafTokens || got.Fanout != DefaultFanout {
		t.Errorf("normalize() = %+v", got)
	}
}

func TestEvenSizes(t *testing.T) {
	tests := []struct {
		n, limit int
		want     []int
	}{
		{9, 8, []int{5, 4}},
		{8, 8, []int{8}},
		{1, 3, []int{1}},
		{10, 3, []int{3, 3, 2, 2}},
	}
	for _, tt := range tests {
		got := evenSizes(tt.n, tt.limit)
		if len(got) != len(tt.want) {
			t.Errorf("evenSizes(%d, %d) = %v, want %v", tt.n, tt.limit, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("evenSizes(%d, %d) = %v, want %v", tt.n, tt.limit, got, tt.want)
				break
			}
		}
	}
}
