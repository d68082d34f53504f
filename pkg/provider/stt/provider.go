// Package stt defines the Provider interface for speech-to-text backends used
// to recognize a pronunciation attempt.
//
// A provider receives one complete, preprocessed mono clip and returns the
// recognized text together with per-word timestamps. The scoring engine needs
// those timestamps to locate every reference word in the recording, so
// providers that only report segment-level timing spread each segment over
// its words with [SplitSegment].
//
// Implementations must be safe for concurrent use.
package stt

import (
	"context"
	"time"

	"github.com/MrWong99/phonoscore/pkg/types"
)

// DefaultFade is the margin added on both sides of a recognized word when
// converting it into a sample span.
const DefaultFade = 50 * time.Millisecond

// Config describes the clip handed to [Provider.Transcribe].
type Config struct {
	// SampleRate is the sample rate of the clip in Hz. Zero means
	// [types.DefaultSampleRate].
	SampleRate int

	// Language is the recognition language (e.g., "en", "de"). An empty
	// string lets the provider auto-detect the language, if supported.
	Language string
}

// Rate returns c.SampleRate or [types.DefaultSampleRate] if it is unset.
func (c Config) Rate() int {
	if c.SampleRate <= 0 {
		return types.DefaultSampleRate
	}
	return c.SampleRate
}

// Provider is the abstraction over any STT backend.
type Provider interface {
	// Transcribe recognizes samples, mono float32 PCM in [-1, 1] at
	// cfg.SampleRate, and returns the transcript with word timestamps
	// relative to the start of the clip.
	Transcribe(ctx context.Context, samples []float32, cfg Config) (Transcript, error)
}

// SampleSpans converts word timestamps into sample spans at sampleRate. Each
// span is widened by fade on both sides and clamped to [0, totalSamples-1].
func SampleSpans(words []WordDetail, sampleRate int, fade time.Duration, totalSamples int) []types.Span {
	pad := int(fade.Seconds() * float64(sampleRate))
	last := max(totalSamples-1, 0)
	spans := make([]types.Span, len(words))
	for i, w := range words {
		s := types.SpanFromDuration(w.Start, w.End, sampleRate)
		s.Start = min(max(s.Start-pad, 0), last)
		s.End = min(max(s.End+pad, s.Start), last)
		spans[i] = s
	}
	return spans
}
