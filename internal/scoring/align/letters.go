package align

import "unicode"

// Letters reports, for every code point of reference, whether it was
// transcribed correctly in matched. The characters of matched are aligned to
// those of reference with the ordered algorithm; a letter is correct when it
// is aligned to the same character, ignoring case. When gap is true every
// letter is incorrect.
//
// The result always has one entry per code point of reference.
func Letters(reference, matched string, gap bool) []bool {
	ref := []rune(reference)
	out := make([]bool, len(ref))
	if gap || len(ref) == 0 {
		return out
	}

	hyp := []rune(matched)
	for i := range ref {
		ref[i] = unicode.ToLower(ref[i])
	}
	for j := range hyp {
		hyp[j] = unicode.ToLower(hyp[j])
	}

	idx := solve(len(ref), len(hyp), func(i, j int) float64 {
		if ref[i] == hyp[j] {
			return 0
		}
		return 1
	}, DefaultGapCost, DefaultSkipCost)

	for i, j := range idx {
		out[i] = j >= 0 && ref[i] == hyp[j]
	}
	return out
}
