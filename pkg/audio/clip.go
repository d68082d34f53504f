// Package audio decodes, conditions and validates recorded pronunciation
// attempts before they reach a speech-to-text provider.
//
// A [Clip] is always mono float32 PCM in [-1, 1]. [DecodeWAV] down-mixes any
// channel layout while decoding, [Resample] brings a clip to the recognizer
// rate, [Normalize] removes DC offset and peak-normalises, and [Limits] rejects
// clips that are too short, too long or too quiet to score.
package audio

import (
	"math"
	"time"
)

// Clip is a mono recording.
type Clip struct {
	// Samples holds the PCM samples, nominally in [-1, 1].
	Samples []float32

	// SampleRate is the sample rate of Samples in Hz.
	SampleRate int
}

// Len returns the number of samples in c.
func (c Clip) Len() int { return len(c.Samples) }

// Duration returns the playback length of c. A clip with a non-positive
// sample rate has zero duration.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / float64(c.SampleRate) * float64(time.Second))
}

// RMS returns the root-mean-square level of c, or 0 for an empty clip.
func (c Clip) RMS() float64 {
	if len(c.Samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range c.Samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(c.Samples)))
}
