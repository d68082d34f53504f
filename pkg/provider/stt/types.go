package stt

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Transcript is the recognition result for one clip.
type Transcript struct {
	// Text is the full recognized text.
	Text string

	// Words has one entry per whitespace-separated word of Text, in order.
	Words []WordDetail

	// Language is the language the provider recognized, if reported.
	Language string

	// Duration is the length of the recognized audio, if reported.
	Duration time.Duration
}

// WordDetail holds the timing of one recognized word.
type WordDetail struct {
	Word       string
	Start      time.Duration
	End        time.Duration
	Confidence float64
}

// SplitSegment spreads the time range [start, end] of a recognized segment
// over its words in proportion to their length in characters.
func SplitSegment(text string, start, end time.Duration) []WordDetail {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var total int
	for _, w := range words {
		total += utf8.RuneCountInString(w)
	}
	span := float64(end - start)
	out := make([]WordDetail, len(words))
	var consumed int
	for i, w := range words {
		from := start + time.Duration(span*float64(consumed)/float64(total))
		consumed += utf8.RuneCountInString(w)
		to := start + time.Duration(span*float64(consumed)/float64(total))
		out[i] = WordDetail{Word: w, Start: from, End: to}
	}
	return out
}

// TextFromWords joins the words of ws with single spaces.
func TextFromWords(ws []WordDetail) string {
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = w.Word
	}
	return strings.Join(parts, " ")
}

// CleanWords trims surrounding whitespace from every word and drops words
// that are empty afterwards, so that the result lines up one to one with
// strings.Fields(TextFromWords(result)).
func CleanWords(ws []WordDetail) []WordDetail {
	out := make([]WordDetail, 0, len(ws))
	for _, w := range ws {
		w.Word = strings.TrimSpace(w.Word)
		if w.Word == "" || strings.ContainsFunc(w.Word, unicode.IsSpace) {
			out = append(out, splitInner(w)...)
			continue
		}
		out = append(out, w)
	}
	return out
}

// splitInner handles an entry that is empty or still contains whitespace.
func splitInner(w WordDetail) []WordDetail {
	if w.Word == "" {
		return nil
	}
	parts := SplitSegment(w.Word, w.Start, w.End)
	for i := range parts {
		parts[i].Confidence = w.Confidence
	}
	return parts
}
