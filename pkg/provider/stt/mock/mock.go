// Package mock provides a test double for the stt.Provider interface.
//
// Provider returns a canned Transcript and records every call:
//
//	p := &mock.Provider{Transcript: stt.Transcript{Text: "hello"}}
//	tr, _ := p.Transcribe(ctx, samples, cfg)
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/phonoscore/pkg/provider/stt"
)

// Ensure Provider implements stt.Provider at compile time.
var _ stt.Provider = (*Provider)(nil)

// TranscribeCall records a single invocation of Provider.Transcribe.
type TranscribeCall struct {
	// Samples is a copy of the clip passed to Transcribe.
	Samples []float32
	// Cfg is the Config passed to Transcribe.
	Cfg stt.Config
}

// Provider is a mock implementation of stt.Provider.
type Provider struct {
	mu sync.Mutex

	// Transcript is returned by every Transcribe call.
	Transcript stt.Transcript

	// TranscribeFunc, if set, overrides Transcript and Err.
	TranscribeFunc func(ctx context.Context, samples []float32, cfg stt.Config) (stt.Transcript, error)

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// Calls records every call to Transcribe.
	Calls []TranscribeCall
}

// Transcribe records the call and returns Transcript, Err.
func (p *Provider) Transcribe(ctx context.Context, samples []float32, cfg stt.Config) (stt.Transcript, error) {
	p.mu.Lock()
	cp := make([]float32, len(samples))
	copy(cp, samples)
	p.Calls = append(p.Calls, TranscribeCall{Samples: cp, Cfg: cfg})
	fn, tr, err := p.TranscribeFunc, p.Transcript, p.Err
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, samples, cfg)
	}
	if err != nil {
		return stt.Transcript{}, err
	}
	return tr, nil
}

// CallCount returns the number of Transcribe calls. Thread-safe.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = nil
}
