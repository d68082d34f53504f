// Package editdist measures phoneme-level pronunciation accuracy.
//
// Accuracy is derived from the Levenshtein distance between the phonemic
// (IPA) form of a reference word and the phonemic form of the word that was
// actually recognized. Distances are counted in Unicode code points so that
// multi-byte IPA symbols count as one edit each.
//
// A [Scorer] turns a list of reference/hypothesis pairs into a [Report] with a
// per-word percentage and an aggregate percentage over all scorable pairs.
// Scorer is read-only after construction and safe for concurrent use.
package editdist

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// punctuation is the ASCII punctuation set stripped from phonemic strings
// before comparison. It includes the gap marker "-".
const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Distance returns the Levenshtein distance between a and b: the minimum
// number of single code point insertions, deletions and substitutions that
// turn a into b.
func Distance(a, b string) int {
	return matchr.Levenshtein(a, b)
}

// Normalize removes ASCII punctuation from s and lower-cases the rest.
func Normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < utf8.RuneSelf && strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, s)
	return strings.ToLower(s)
}

// Pair is one reference/hypothesis phonemic string pair.
type Pair struct {
	// Reference is the phonemic form of the target word.
	Reference string

	// Hypothesis is the phonemic form of the recognized word, or the gap
	// marker when no word was matched.
	Hypothesis string
}

// Report is the outcome of [Scorer.Score].
type Report struct {
	// Overall is the aggregate accuracy in percent over every pair with a
	// non-empty reference, rounded half-to-even. Range [0, 100].
	Overall int

	// PerWord holds one accuracy percentage per input pair, in input order.
	// Each value lies in [0, 100].
	PerWord []float64

	// Phonemes is the total number of reference phonemes that entered the
	// overall score.
	Phonemes int

	// Mismatches is the total edit distance that entered the overall score.
	Mismatches int

	// Degraded counts pairs whose distance computation failed and were scored
	// with the worst-case mismatch count instead.
	Degraded int
}

// Option is a functional option for configuring a [Scorer].
type Option func(*Scorer)

// WithDistance replaces the edit distance function. Defaults to [Distance].
func WithDistance(fn func(a, b string) int) Option {
	return func(s *Scorer) {
		s.distance = fn
	}
}

// WithLogger sets the logger used to report degraded pairs. Defaults to
// [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(s *Scorer) {
		s.logger = l
	}
}

// Scorer computes phoneme accuracy reports.
type Scorer struct {
	distance func(a, b string) int
	logger   *slog.Logger
}

// NewScorer returns a [Scorer] configured with opts.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		distance: Distance,
	}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Score computes per-word and overall accuracy for pairs.
//
// Both sides of each pair are passed through [Normalize] first. A pair whose
// normalized reference is empty scores 0 and is left out of the overall
// figure. If the distance function panics for a pair, that pair is charged
// max(len(ref), len(hyp)) mismatches and scoring continues.
func (s *Scorer) Score(pairs []Pair) Report {
	rep := Report{
		PerWord: make([]float64, len(pairs)),
	}

	for i, p := range pairs {
		ref := Normalize(p.Reference)
		hyp := Normalize(p.Hypothesis)

		n := utf8.RuneCountInString(ref)
		if n == 0 {
			continue
		}

		d, err := s.safeDistance(ref, hyp)
		if err != nil {
			d = max(n, utf8.RuneCountInString(hyp))
			rep.Degraded++
			s.logger.Warn("edit distance failed, scoring pair as full mismatch",
				"reference", ref,
				"hypothesis", hyp,
				"err", err,
			)
		}

		rep.Phonemes += n
		rep.Mismatches += d
		rep.PerWord[i] = percent(n, d)
	}

	if rep.Phonemes > 0 {
		rep.Overall = int(math.RoundToEven(percent(rep.Phonemes, rep.Mismatches)))
	}
	return rep
}

// safeDistance calls the configured distance function and converts a panic
// into an error.
func (s *Scorer) safeDistance(a, b string) (d int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("editdist: distance panicked: %v", r)
		}
	}()
	return s.distance(a, b), nil
}

// percent returns (total-mismatches)/total*100 clamped to [0, 100].
func percent(total, mismatches int) float64 {
	v := float64(total-mismatches) / float64(total) * 100
	return min(100, max(0, v))
}
