// Package phonemizer defines the Converter interface for text-to-phoneme
// backends.
//
// A converter turns one orthographic word into its phonemic form, usually IPA.
// The scoring engine compares phonemic forms rather than spellings, so the
// converter decides what "sounds the same" for a language.
//
// Implementations must be safe for concurrent use, idempotent for a given
// word, and must return degenerate input (the empty string and the gap marker
// [GapMarker]) unchanged.
package phonemizer

import "strings"

// GapMarker is the placeholder shown for a reference word that has no
// recognized counterpart. Converters pass it through untouched.
const GapMarker = "-"

// Converter converts a single word to its phonemic form.
type Converter interface {
	Convert(word string) string
}

// ConverterFunc adapts a plain function to [Converter].
type ConverterFunc func(word string) string

// Convert calls f(word).
func (f ConverterFunc) Convert(word string) string { return f(word) }

// IsDegenerate reports whether word must be returned unchanged by every
// converter.
func IsDegenerate(word string) bool {
	return word == "" || word == GapMarker
}

// ConvertText converts every whitespace-separated word of text with c and
// joins the results with single spaces.
func ConvertText(c Converter, text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		words[i] = c.Convert(w)
	}
	return strings.Join(words, " ")
}
