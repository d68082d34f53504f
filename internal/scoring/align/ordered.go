package align

import (
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// Default costs for [Ordered].
const (
	DefaultGapCost  = 1.0
	DefaultSkipCost = 1.0
)

// eps absorbs floating point noise when comparing path costs during
// traceback.
const eps = 1e-9

// Compile-time interface assertion.
var _ Strategy = (*Ordered)(nil)

// Strategy aligns a recognized word sequence to a reference word sequence.
//
// Implementations return one entry per reference word. A returned alignment
// that is shorter than reference is padded with gaps by [Aligner].
type Strategy interface {
	Align(estimated, reference []string) (Alignment, error)
}

// Similarity returns the cost of matching reference word a with recognized
// word b, in [0, 1]. 0 means identical.
type Similarity func(a, b string) float64

// WordDistance is the default [Similarity]: the Levenshtein distance of the
// lower-cased words divided by the longer word's length in code points.
func WordDistance(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	n := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if n == 0 {
		return 0
	}
	return float64(matchr.Levenshtein(a, b)) / float64(n)
}

// OrderedOption is a functional option for configuring an [Ordered] strategy.
type OrderedOption func(*Ordered)

// WithSimilarity replaces the word match cost function. Defaults to
// [WordDistance].
func WithSimilarity(fn Similarity) OrderedOption {
	return func(o *Ordered) {
		o.similarity = fn
	}
}

// WithGapCost sets the cost of leaving a reference word unmatched.
func WithGapCost(c float64) OrderedOption {
	return func(o *Ordered) {
		o.gapCost = c
	}
}

// WithSkipCost sets the cost of skipping a recognized word.
func WithSkipCost(c float64) OrderedOption {
	return func(o *Ordered) {
		o.skipCost = c
	}
}

// Ordered is a monotone alignment strategy. Matched indices are strictly
// increasing along the reference sequence.
type Ordered struct {
	similarity Similarity
	gapCost    float64
	skipCost   float64
}

// NewOrdered returns an [Ordered] strategy configured with opts.
func NewOrdered(opts ...OrderedOption) *Ordered {
	o := &Ordered{
		similarity: WordDistance,
		gapCost:    DefaultGapCost,
		skipCost:   DefaultSkipCost,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Align implements [Strategy]. It never returns an error itself; a panicking
// [Similarity] propagates and is handled by [Aligner].
func (o *Ordered) Align(estimated, reference []string) (Alignment, error) {
	idx := solve(len(reference), len(estimated), func(i, j int) float64 {
		return o.similarity(reference[i], estimated[j])
	}, o.gapCost, o.skipCost)

	out := make(Alignment, len(reference))
	for i, j := range idx {
		if j >= 0 {
			out[i] = Matched(j)
		}
	}
	return out, nil
}

// solve runs the dynamic-programming alignment of n reference items against m
// recognized items. cost(i, j) is the cost of matching reference item i with
// recognized item j. It returns, for each reference item, the matched
// recognized index or -1.
//
// Paths are ranked by total cost, then by the summed cost of their matches,
// so at equal total a gap is preferred over pairing dissimilar items. On a
// full tie the traceback prefers skipping a recognized item, then a match,
// then a gap. Walking backwards, that pushes every match to the earliest
// recognized index that achieves the optimum.
func solve(n, m int, cost func(i, j int) float64, gapCost, skipCost float64) []int {
	d := make([][]path, n+1)
	for i := range d {
		d[i] = make([]path, m+1)
		d[i][0] = path{total: float64(i) * gapCost}
	}
	for j := 1; j <= m; j++ {
		d[0][j] = path{total: float64(j) * skipCost}
	}

	// Cache match costs; the traceback needs them again.
	c := make([][]float64, n)
	for i := 1; i <= n; i++ {
		c[i-1] = make([]float64, m)
		for j := 1; j <= m; j++ {
			c[i-1][j-1] = cost(i-1, j-1)
			best := d[i-1][j-1].match(c[i-1][j-1])
			if p := d[i-1][j].step(gapCost); p.less(best) {
				best = p
			}
			if p := d[i][j-1].step(skipCost); p.less(best) {
				best = p
			}
			d[i][j] = best
		}
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = -1
	}
	i, j := n, m
	for i > 0 && j > 0 {
		switch {
		case d[i][j].equal(d[i][j-1].step(skipCost)):
			j--
		case d[i][j].equal(d[i-1][j-1].match(c[i-1][j-1])):
			idx[i-1] = j - 1
			i--
			j--
		default:
			i--
		}
	}
	return idx
}

// path is the rank of a partial alignment: its total cost and the part of
// it spent on matches.
type path struct {
	total   float64
	matched float64
}

func (p path) match(c float64) path { return path{total: p.total + c, matched: p.matched + c} }

func (p path) step(c float64) path { return path{total: p.total + c, matched: p.matched} }

func (p path) less(q path) bool {
	if !equal(p.total, q.total) {
		return p.total < q.total
	}
	return !equal(p.matched, q.matched) && p.matched < q.matched
}

func (p path) equal(q path) bool {
	return equal(p.total, q.total) && equal(p.matched, q.matched)
}

func equal(a, b float64) bool {
	return a-b < eps && b-a < eps
}
