// Package metaphone implements [phonemizer.Converter] with Double Metaphone
// phonetic codes.
//
// Double Metaphone is an English-centric sound encoding: "knight" and "night"
// both encode to "NT". The codes are coarser than IPA, so this converter is a
// fallback for words missing from a pronunciation lexicon rather than a
// primary phonemizer.
//
// The package also provides [Distance], a word match cost for the word
// aligner that treats phonetically equivalent words as close even when their
// spellings differ. It proceeds in two stages:
//
//  1. Phonetic overlap: Double Metaphone codes (primary and secondary) are
//     computed for both words. A shared code marks the pair as sounding alike.
//
//  2. Jaro-Winkler similarity of the lower-cased spellings. The cost is
//     1 - similarity, halved when the words sound alike.
package metaphone

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"

	"github.com/MrWong99/phonoscore/pkg/provider/phonemizer"
)

// Ensure Converter implements phonemizer.Converter at compile time.
var _ phonemizer.Converter = (*Converter)(nil)

// Option is a functional option for configuring a [Converter].
type Option func(*Converter)

// WithSecondary makes the converter emit the secondary (alternate) Double
// Metaphone code when one exists.
func WithSecondary() Option {
	return func(c *Converter) {
		c.secondary = true
	}
}

// Converter encodes words as lower-cased Double Metaphone codes. It is
// read-only after construction and safe for concurrent use.
type Converter struct {
	secondary bool
}

// New returns a [Converter] configured with opts.
func New(opts ...Option) *Converter {
	c := &Converter{}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Convert returns the Double Metaphone code of word. Punctuation around the
// word is ignored. Words without a code (no letters the algorithm knows) are
// returned lower-cased.
func (c *Converter) Convert(word string) string {
	if phonemizer.IsDegenerate(word) {
		return word
	}
	w := strings.ToLower(strings.TrimFunc(word, unicode.IsPunct))
	if w == "" {
		return strings.ToLower(word)
	}
	p, s := matchr.DoubleMetaphone(w)
	if c.secondary && s != "" {
		p = s
	}
	if p == "" {
		return w
	}
	return strings.ToLower(p)
}

// Distance returns the cost of matching words a and b, in [0, 1].
func Distance(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 0
	}
	cost := 1 - matchr.JaroWinkler(a, b, false)
	if codesOverlap(codes(a), codes(b)) {
		cost /= 2
	}
	return min(1, max(0, cost))
}

// codes returns the non-empty Double Metaphone codes of w.
func codes(w string) map[string]struct{} {
	out := make(map[string]struct{}, 2)
	p, s := matchr.DoubleMetaphone(w)
	if p != "" {
		out[p] = struct{}{}
	}
	if s != "" {
		out[s] = struct{}{}
	}
	return out
}

// codesOverlap reports whether the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}
