package audio

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// peakFloor keeps near-silent clips from being amplified into noise.
const peakFloor = 1e-4

// Default validation limits.
const (
	DefaultMinDuration = 100 * time.Millisecond
	DefaultMaxDuration = 30 * time.Second
	DefaultMinRMS      = 0.001
)

var (
	// ErrEmpty is returned for a clip without samples.
	ErrEmpty = errors.New("audio: clip is empty")

	// ErrTooShort is returned for a clip below the minimum duration.
	ErrTooShort = errors.New("audio: clip too short")

	// ErrTooLong is returned for a clip above the maximum duration.
	ErrTooLong = errors.New("audio: clip too long")

	// ErrTooQuiet is returned for a clip whose RMS level is below the minimum.
	ErrTooQuiet = errors.New("audio: clip too quiet")
)

// Limits bounds the clips accepted for scoring. Zero fields disable the
// corresponding check.
type Limits struct {
	MinDuration time.Duration
	MaxDuration time.Duration
	MinRMS      float64
}

// DefaultLimits returns the limits applied when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MinDuration: DefaultMinDuration,
		MaxDuration: DefaultMaxDuration,
		MinRMS:      DefaultMinRMS,
	}
}

// Check returns nil if c satisfies l, or one of [ErrEmpty], [ErrTooShort],
// [ErrTooLong] and [ErrTooQuiet] wrapped with the measured value.
func (l Limits) Check(c Clip) error {
	if len(c.Samples) == 0 {
		return ErrEmpty
	}
	d := c.Duration()
	if l.MinDuration > 0 && d < l.MinDuration {
		return fmt.Errorf("%w: %.2fs", ErrTooShort, d.Seconds())
	}
	if l.MaxDuration > 0 && d > l.MaxDuration {
		return fmt.Errorf("%w: %.2fs", ErrTooLong, d.Seconds())
	}
	if rms := c.RMS(); rms < l.MinRMS {
		return fmt.Errorf("%w: rms %.4f", ErrTooQuiet, rms)
	}
	return nil
}

// Normalize removes the DC offset of c and scales it so the largest absolute
// sample is 1. Clips whose peak is below 1e-4 are scaled by 1e4 instead of
// being blown up to full scale. The input is not modified.
func Normalize(c Clip) Clip {
	out := Clip{Samples: make([]float32, len(c.Samples)), SampleRate: c.SampleRate}
	if len(c.Samples) == 0 {
		return out
	}

	var mean float64
	for _, s := range c.Samples {
		mean += float64(s)
	}
	mean /= float64(len(c.Samples))

	var peak float64
	for _, s := range c.Samples {
		peak = math.Max(peak, math.Abs(float64(s)-mean))
	}
	peak = math.Max(peak, peakFloor)

	for i, s := range c.Samples {
		out.Samples[i] = float32((float64(s) - mean) / peak)
	}
	return out
}
