package align

import (
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// DefaultCutoff is the minimum similarity ratio [Fuzzy] accepts.
const DefaultCutoff = 0.35

// Compile-time interface assertion.
var _ Strategy = (*Fuzzy)(nil)

// Ratio returns the similarity of a and b as 2*LCS / (len(a)+len(b)), where
// LCS is the length of their longest common subsequence in code points. Both
// words are lower-cased first. Two empty words have a ratio of 1.
func Ratio(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchr.LongestCommonSubsequence(a, b)) / float64(total)
}

// Fuzzy matches every reference word independently against the whole
// recognized sequence. It is not order-preserving.
type Fuzzy struct {
	// Cutoff is the minimum [Ratio] for a match. Zero means [DefaultCutoff].
	Cutoff float64
}

// Align implements [Strategy].
func (f *Fuzzy) Align(estimated, reference []string) (Alignment, error) {
	cutoff := f.Cutoff
	if cutoff <= 0 {
		cutoff = DefaultCutoff
	}

	words := make([]string, len(reference))
	for i, ref := range reference {
		best, bestScore := "", 0.0
		for _, est := range estimated {
			if s := Ratio(ref, est); s > bestScore {
				best, bestScore = est, s
			}
		}
		if best != "" && bestScore >= cutoff {
			words[i] = best
		}
	}
	return ResolveIndices(words, estimated), nil
}

// ResolveIndices locates each non-empty entry of words in estimated. The
// search is case-insensitive and starts at the last resolved index, wrapping
// around to the prefix before it. Empty words become gaps. Words that cannot
// be located become [Unresolved] entries.
func ResolveIndices(words, estimated []string) Alignment {
	out := make(Alignment, len(words))
	last := 0
	for i, w := range words {
		if w == "" {
			continue
		}
		j := find(estimated, w, last)
		if j < 0 {
			out[i] = Unresolved(w)
			continue
		}
		out[i] = Matched(j)
		last = j
	}
	return out
}

// find returns the first index at or after from whose word equals w ignoring
// case, then the first such index before from, or -1.
func find(estimated []string, w string, from int) int {
	for j := from; j < len(estimated); j++ {
		if strings.EqualFold(estimated[j], w) {
			return j
		}
	}
	for j := 0; j < min(from, len(estimated)); j++ {
		if strings.EqualFold(estimated[j], w) {
			return j
		}
	}
	return -1
}
