package align_test

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/MrWong99/phonoscore/internal/scoring/align"
)

// ─── test doubles ────────────────────────────────────────────────────────────

type stubStrategy struct {
	out   align.Alignment
	err   error
	panic bool
	calls int
}

func (s *stubStrategy) Align(_, _ []string) (align.Alignment, error) {
	s.calls++
	if s.panic {
		panic("boom")
	}
	return s.out, s.err
}

// ─── Ordered ─────────────────────────────────────────────────────────────────

func TestOrdered_Align(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		estimated string
		reference string
		want      align.Alignment
	}{
		{
			name:      "identical",
			estimated: "the cat sat",
			reference: "the cat sat",
			want:      align.Alignment{align.Matched(0), align.Matched(1), align.Matched(2)},
		},
		{
			name:      "inserted word is skipped",
			estimated: "the big cat sat",
			reference: "the cat sat",
			want:      align.Alignment{align.Matched(0), align.Matched(2), align.Matched(3)},
		},
		{
			name:      "missing word is a gap",
			estimated: "the sat",
			reference: "the cat sat",
			want:      align.Alignment{align.Matched(0), align.Gap, align.Matched(1)},
		},
		{
			name:      "wrong word still matched",
			estimated: "the dog",
			reference: "the cat",
			want:      align.Alignment{align.Matched(0), align.Matched(1)},
		},
		{
			name:      "case insensitive",
			estimated: "The CAT",
			reference: "the cat",
			want:      align.Alignment{align.Matched(0), align.Matched(1)},
		},
		{
			name:      "ties go to earliest index",
			estimated: "a a",
			reference: "a",
			want:      align.Alignment{align.Matched(0)},
		},
		{
			name:      "equal cost prefers gaps over dissimilar pairs",
			estimated: "b a c",
			reference: "a b c d e",
			want:      align.Alignment{align.Gap, align.Matched(0), align.Matched(2), align.Gap, align.Gap},
		},
		{
			name:      "empty estimated",
			estimated: "",
			reference: "the cat sat",
			want:      align.Alignment{align.Gap, align.Gap, align.Gap},
		},
		{
			name:      "empty reference",
			estimated: "the cat",
			reference: "",
			want:      align.Alignment{},
		},
	}

	o := align.NewOrdered()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := o.Align(strings.Fields(tt.estimated), strings.Fields(tt.reference))
			if err != nil {
				t.Fatalf("Align: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Align = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrdered_IndicesStrictlyIncrease(t *testing.T) {
	t.Parallel()

	reference := strings.Fields("she sells sea shells by the sea shore")
	estimates := []string{
		"sea shells she sells",
		"she she she sells sells",
		"shore sea the by shells sea sells she",
		"she sells sea shells by the sea shore and more",
		"he tells me",
	}

	o := align.NewOrdered()
	for _, est := range estimates {
		got, err := o.Align(strings.Fields(est), reference)
		if err != nil {
			t.Fatalf("Align(%q): %v", est, err)
		}
		if len(got) != len(reference) {
			t.Fatalf("Align(%q) len = %d, want %d", est, len(got), len(reference))
		}
		last := -1
		for i, e := range got {
			j, ok := e.Index()
			if !ok {
				continue
			}
			if j <= last {
				t.Errorf("Align(%q)[%d] = %d, not after %d", est, i, j, last)
			}
			last = j
		}
	}
}

func TestOrdered_WithSimilarity(t *testing.T) {
	t.Parallel()

	// Exact-only similarity: anything unequal is too expensive to match.
	exact := func(a, b string) float64 {
		if a == b {
			return 0
		}
		return 5
	}
	o := align.NewOrdered(align.WithSimilarity(exact))
	got, _ := o.Align([]string{"the", "dog"}, []string{"the", "cat"})
	want := align.Alignment{align.Matched(0), align.Gap}
	if !slices.Equal(got, want) {
		t.Errorf("Align = %v, want %v", got, want)
	}
}

func TestWordDistance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want float64
	}{
		{"cat", "cat", 0},
		{"Cat", "cAT", 0},
		{"cat", "dog", 1},
		{"cat", "bat", 1.0 / 3},
		{"", "", 0},
		{"cat", "", 1},
	}
	for _, tt := range tests {
		if got := align.WordDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("WordDistance(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

// ─── Fuzzy ───────────────────────────────────────────────────────────────────

func TestRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want float64
	}{
		{"abc", "abc", 1},
		{"Cat", "cat", 1},
		{"", "", 1},
		{"abcd", "abxy", 0.5},
		{"the", "fox", 0},
		{"abc", "", 0},
	}
	for _, tt := range tests {
		if got := align.Ratio(tt.a, tt.b); got != tt.want {
			t.Errorf("Ratio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFuzzy_Align(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		estimated string
		reference string
		want      align.Alignment
	}{
		{
			name:      "reordered words",
			estimated: "fox brown",
			reference: "the quick brown fox",
			want:      align.Alignment{align.Gap, align.Gap, align.Matched(1), align.Matched(0)},
		},
		{
			name:      "below cutoff",
			estimated: "axxxxxxx",
			reference: "abcdefgh",
			want:      align.Alignment{align.Gap},
		},
		{
			name:      "ties keep earliest candidate",
			estimated: "ax ay",
			reference: "ab",
			want:      align.Alignment{align.Matched(0)},
		},
		{
			name:      "repeated words resolve forward",
			estimated: "the cat the",
			reference: "the cat the",
			want:      align.Alignment{align.Matched(0), align.Matched(1), align.Matched(2)},
		},
		{
			name:      "empty estimated",
			estimated: "",
			reference: "a b",
			want:      align.Alignment{align.Gap, align.Gap},
		},
	}

	f := &align.Fuzzy{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := f.Align(strings.Fields(tt.estimated), strings.Fields(tt.reference))
			if err != nil {
				t.Fatalf("Align: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Align = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveIndices(t *testing.T) {
	t.Parallel()

	t.Run("wraps to prefix", func(t *testing.T) {
		t.Parallel()
		got := align.ResolveIndices([]string{"b", "a"}, []string{"a", "b"})
		want := align.Alignment{align.Matched(1), align.Matched(0)}
		if !slices.Equal(got, want) {
			t.Errorf("ResolveIndices = %v, want %v", got, want)
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		t.Parallel()
		got := align.ResolveIndices([]string{"HELLO"}, []string{"hello"})
		if j, ok := got[0].Index(); !ok || j != 0 {
			t.Errorf("Index = (%d, %v), want (0, true)", j, ok)
		}
	})

	t.Run("unknown word has no index", func(t *testing.T) {
		t.Parallel()
		got := align.ResolveIndices([]string{"dog", ""}, []string{"cat"})
		if got[0].IsGap() {
			t.Fatal("unresolved word should not be a gap")
		}
		if _, ok := got[0].Index(); ok {
			t.Error("unresolved word should have no index")
		}
		if got[0].Word() != "dog" {
			t.Errorf("Word = %q, want %q", got[0].Word(), "dog")
		}
		if !got[1].IsGap() {
			t.Error("empty word should be a gap")
		}
	})
}

// ─── Aligner ─────────────────────────────────────────────────────────────────

func TestAligner_FallsBackOnReorderedSpeech(t *testing.T) {
	t.Parallel()

	res := align.New().Align(strings.Fields("fox brown"), strings.Fields("the quick brown fox"))

	if !res.FellBack {
		t.Error("FellBack = false, want true")
	}
	if res.Strategy != align.StrategyFuzzy {
		t.Errorf("Strategy = %q, want %q", res.Strategy, align.StrategyFuzzy)
	}
	want := align.Alignment{align.Gap, align.Gap, align.Matched(1), align.Matched(0)}
	if !slices.Equal(res.Alignment, want) {
		t.Errorf("Alignment = %v, want %v", res.Alignment, want)
	}
	if res.Degraded {
		t.Error("Degraded = true, want false")
	}
}

func TestAligner_PrimaryOnly(t *testing.T) {
	t.Parallel()

	fallback := &stubStrategy{}
	a := align.New(align.WithFallback(fallback, "stub"))
	res := a.Align(strings.Fields("the cat sat"), strings.Fields("the cat sat"))

	if res.Strategy != align.StrategyOrdered {
		t.Errorf("Strategy = %q, want %q", res.Strategy, align.StrategyOrdered)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback calls = %d, want 0", fallback.calls)
	}
}

func TestAligner_PrimaryPanicDegrades(t *testing.T) {
	t.Parallel()

	a := align.New(align.WithPrimary(&stubStrategy{panic: true}, "boom"))
	res := a.Align(strings.Fields("the cat"), strings.Fields("the cat"))

	if !res.Degraded {
		t.Error("Degraded = false, want true")
	}
	if !res.FellBack {
		t.Error("FellBack = false, want true")
	}
	want := align.Alignment{align.Matched(0), align.Matched(1)}
	if !slices.Equal(res.Alignment, want) {
		t.Errorf("Alignment = %v, want %v", res.Alignment, want)
	}
}

func TestAligner_BothStrategiesFail(t *testing.T) {
	t.Parallel()

	a := align.New(
		align.WithPrimary(&stubStrategy{err: errors.New("primary")}, "p"),
		align.WithFallback(&stubStrategy{panic: true}, "f"),
	)
	res := a.Align(strings.Fields("the cat"), strings.Fields("the cat sat"))

	if !res.Degraded {
		t.Error("Degraded = false, want true")
	}
	if !slices.Equal(res.Alignment, align.AllGaps(3)) {
		t.Errorf("Alignment = %v, want all gaps", res.Alignment)
	}
}

func TestAligner_ShortPrimaryTriggersFallback(t *testing.T) {
	t.Parallel()

	primary := &stubStrategy{out: align.Alignment{align.Matched(0)}}
	fallback := &stubStrategy{out: align.Alignment{align.Matched(0), align.Matched(1)}}
	a := align.New(align.WithPrimary(primary, "p"), align.WithFallback(fallback, "f"))

	res := a.Align(strings.Fields("a b"), strings.Fields("a b"))
	if fallback.calls != 1 {
		t.Fatalf("fallback calls = %d, want 1", fallback.calls)
	}
	if res.Strategy != "f" {
		t.Errorf("Strategy = %q, want %q", res.Strategy, "f")
	}
}

func TestAligner_InvalidIndicesBecomeGaps(t *testing.T) {
	t.Parallel()

	primary := &stubStrategy{out: align.Alignment{
		align.Matched(0), align.Matched(7), align.Matched(-3), align.Unresolved("c"),
	}}
	a := align.New(align.WithPrimary(primary, "p"), align.WithMaxGapFraction(1))

	res := a.Align([]string{"a", "b"}, []string{"a", "b", "c", "d"})
	want := align.Alignment{align.Matched(0), align.Gap, align.Gap, align.Unresolved("c")}
	if !slices.Equal(res.Alignment, want) {
		t.Errorf("Alignment = %v, want %v", res.Alignment, want)
	}
	if !res.Degraded {
		t.Error("Degraded = false, want true")
	}
	if res.FellBack {
		t.Error("FellBack = true, want false")
	}
	if j, _ := primary.out[1].Index(); j != 7 {
		t.Error("strategy output was modified in place")
	}
}

func TestAligner_TruncatesLongOutput(t *testing.T) {
	t.Parallel()

	primary := &stubStrategy{out: align.Alignment{
		align.Matched(0), align.Matched(0), align.Matched(0), align.Matched(0),
	}}
	a := align.New(align.WithPrimary(primary, "p"))

	res := a.Align([]string{"a"}, []string{"a", "b"})
	if len(res.Alignment) != 2 {
		t.Errorf("len = %d, want 2", len(res.Alignment))
	}
}

func TestAligner_LengthInvariant(t *testing.T) {
	t.Parallel()

	reference := strings.Fields("one two three four five")
	words := strings.Fields("one too three for five six seven")
	a := align.New()
	for n := 0; n <= len(words); n++ {
		t.Run(fmt.Sprintf("estimated=%d", n), func(t *testing.T) {
			t.Parallel()
			res := a.Align(words[:n], reference)
			if len(res.Alignment) != len(reference) {
				t.Errorf("len = %d, want %d", len(res.Alignment), len(reference))
			}
			for i, e := range res.Alignment {
				if j, ok := e.Index(); ok && j >= n {
					t.Errorf("entry %d index %d out of range [0,%d)", i, j, n)
				}
			}
		})
	}
}

// ─── Alignment helpers ───────────────────────────────────────────────────────

func TestPad(t *testing.T) {
	t.Parallel()

	a := align.Alignment{align.Matched(0)}
	got := align.Pad(a, 3)
	want := align.Alignment{align.Matched(0), align.Gap, align.Gap}
	if !slices.Equal(got, want) {
		t.Errorf("Pad = %v, want %v", got, want)
	}
	if got := align.Pad(want, 1); !slices.Equal(got, a) {
		t.Errorf("Pad truncate = %v, want %v", got, a)
	}
}

func TestGapFraction(t *testing.T) {
	t.Parallel()

	if f := (align.Alignment{}).GapFraction(); f != 0 {
		t.Errorf("empty GapFraction = %v, want 0", f)
	}
	a := align.Alignment{align.Gap, align.Matched(0), align.Gap, align.Unresolved("x")}
	if f := a.GapFraction(); f != 0.5 {
		t.Errorf("GapFraction = %v, want 0.5", f)
	}
}

// ─── Letters ─────────────────────────────────────────────────────────────────

func TestLetters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		reference string
		matched   string
		gap       bool
		want      []bool
	}{
		{"exact", "cat", "cat", false, []bool{true, true, true}},
		{"case folded", "Cat", "cAT", false, []bool{true, true, true}},
		{"substitution", "cat", "bat", false, []bool{false, true, true}},
		{"gap", "cat", "-", true, []bool{false, false, false}},
		{"empty match", "cat", "", false, []bool{false, false, false}},
		{"punctuation must match", "cat.", "cat", false, []bool{true, true, true, false}},
		{"empty reference", "", "cat", false, []bool{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := align.Letters(tt.reference, tt.matched, tt.gap)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Letters(%q, %q, %v) = %v, want %v", tt.reference, tt.matched, tt.gap, got, tt.want)
			}
		})
	}
}

func TestLetters_LengthMatchesCodePoints(t *testing.T) {
	t.Parallel()

	for _, ref := range []string{"नमस्ते", "hello", "straße", "ˈwɝd"} {
		got := align.Letters(ref, "helo", false)
		if len(got) != utf8.RuneCountInString(ref) {
			t.Errorf("len(Letters(%q)) = %d, want %d", ref, len(got), utf8.RuneCountInString(ref))
		}
	}
}

func TestLetters_Deletion(t *testing.T) {
	t.Parallel()

	got := align.Letters("hello", "helo", false)
	correct := 0
	for _, ok := range got {
		if ok {
			correct++
		}
	}
	if correct != 4 {
		t.Errorf("Letters(hello, helo) = %v, want 4 correct letters", got)
	}
}
