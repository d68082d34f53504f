// Package timing turns an alignment and the recognizer's word spans into
// per-reference-word start and end times.
package timing

import (
	"github.com/MrWong99/phonoscore/internal/scoring/align"
	"github.com/MrWong99/phonoscore/pkg/types"
)

// Report holds one start and one end time, in seconds, per reference word.
// Words without timing report (0, 0).
type Report struct {
	Start []float64
	End   []float64
}

// Resolver converts sample spans to seconds at a fixed sample rate.
type Resolver struct {
	sampleRate int
}

// New returns a [Resolver] for sampleRate. A non-positive rate selects
// [types.DefaultSampleRate].
func New(sampleRate int) *Resolver {
	if sampleRate <= 0 {
		sampleRate = types.DefaultSampleRate
	}
	return &Resolver{sampleRate: sampleRate}
}

// SampleRate returns the rate the resolver converts at.
func (r *Resolver) SampleRate() int { return r.sampleRate }

// Resolve returns the timing of every entry of a. Entries that are gaps, are
// unresolved, or point outside spans get (0, 0).
func (r *Resolver) Resolve(a align.Alignment, spans []types.Span) Report {
	rep := Report{
		Start: make([]float64, len(a)),
		End:   make([]float64, len(a)),
	}
	for i, e := range a {
		j, ok := e.Index()
		if !ok || j >= len(spans) {
			continue
		}
		rep.Start[i], rep.End[i] = spans[j].Seconds(r.sampleRate)
	}
	return rep
}
