// Package types defines the shared types used across phonoscore packages.
//
// These types form the lingua franca between the speech-to-text providers and
// the scoring engine. Each package defines its own domain types; only data
// structures that cross the provider/engine boundary live here to avoid
// circular imports.
package types

import (
	"fmt"
	"time"
)

// DefaultSampleRate is the sample rate (Hz) shared by the STT providers and the
// scoring engine. Recognizer input and word spans are expressed at this rate.
const DefaultSampleRate = 16_000

// Span locates a recognized word inside an audio clip, in sample units at a
// fixed sample rate. A valid span satisfies 0 <= Start <= End.
type Span struct {
	// Start is the index of the first sample of the word.
	Start int

	// End is the index of the last sample of the word.
	End int
}

// Validate reports whether s is a well-formed span.
func (s Span) Validate() error {
	if s.Start < 0 {
		return fmt.Errorf("span start %d is negative", s.Start)
	}
	if s.End < s.Start {
		return fmt.Errorf("span end %d is before start %d", s.End, s.Start)
	}
	return nil
}

// Seconds converts the span into start and end offsets in seconds at
// sampleRate. A non-positive sampleRate yields (0, 0).
func (s Span) Seconds(sampleRate int) (start, end float64) {
	if sampleRate <= 0 {
		return 0, 0
	}
	return float64(s.Start) / float64(sampleRate), float64(s.End) / float64(sampleRate)
}

// SpanFromDuration converts a [start, end] time range into a sample span at
// sampleRate.
func SpanFromDuration(start, end time.Duration, sampleRate int) Span {
	return Span{
		Start: int(start.Seconds() * float64(sampleRate)),
		End:   int(end.Seconds() * float64(sampleRate)),
	}
}
