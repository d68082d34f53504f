// Package align maps a recognized word sequence onto a reference word
// sequence.
//
// The result of an alignment is an [Alignment]: one [Entry] per reference
// word, each either [Matched] to an index into the recognized sequence or a
// [Gap]. Two [Strategy] implementations are provided:
//
//   - [Ordered] is a monotone dynamic-programming alignment. It keeps the
//     recognized words in order, so timing recovered from the matched indices
//     is monotone as well.
//   - [Fuzzy] matches each reference word independently against the whole
//     recognized sequence by string similarity. It trades order for recall
//     and is used as a fallback.
//
// [Aligner] combines the two: it runs the primary strategy, switches to the
// fallback when too many reference words were left unmatched, and never lets
// a strategy failure escape.
//
// The same ordered algorithm is reused at character granularity by [Letters]
// to mark which letters of a reference word were transcribed correctly.
package align

// unresolved is the index stored in entries that are matched but whose
// position in the recognized sequence is unknown.
const unresolved = -1

// Entry is one element of an [Alignment]. The zero value is a [Gap].
type Entry struct {
	index   int
	matched bool
	word    string
}

// Gap is the entry for a reference word with no acceptable recognized word.
var Gap = Entry{}

// Matched returns an entry that maps a reference word to the recognized word
// at index i.
func Matched(i int) Entry {
	return Entry{index: i, matched: true}
}

// Unresolved returns an entry for a reference word that was matched to the
// recognized word w whose position could not be recovered. Such entries count
// as matches for scoring but carry no timing.
func Unresolved(w string) Entry {
	return Entry{index: unresolved, matched: true, word: w}
}

// Word returns the recognized word stored in an unresolved entry, or "" for
// any other entry.
func (e Entry) Word() string { return e.word }

// Resolved reports whether e is matched to a known index.
func (e Entry) Resolved() bool { return e.matched && e.index >= 0 }

// IsGap reports whether e is a gap.
func (e Entry) IsGap() bool { return !e.matched }

// Index returns the recognized-sequence index of e. ok is false for gaps and
// for unresolved matches.
func (e Entry) Index() (i int, ok bool) {
	if !e.matched || e.index < 0 {
		return 0, false
	}
	return e.index, true
}

// Alignment holds one [Entry] per reference word, in reference order.
type Alignment []Entry

// Gaps returns the number of gap entries in a.
func (a Alignment) Gaps() int {
	n := 0
	for _, e := range a {
		if e.IsGap() {
			n++
		}
	}
	return n
}

// GapFraction returns the share of gap entries in a. An empty alignment has a
// gap fraction of 0.
func (a Alignment) GapFraction() float64 {
	if len(a) == 0 {
		return 0
	}
	return float64(a.Gaps()) / float64(len(a))
}

// AllGaps returns an alignment of n gap entries.
func AllGaps(n int) Alignment {
	return make(Alignment, n)
}

// Pad returns a copy of a resized to exactly n entries: missing entries are
// filled with [Gap], surplus entries are dropped.
func Pad(a Alignment, n int) Alignment {
	out := make(Alignment, n)
	copy(out, a)
	return out
}
