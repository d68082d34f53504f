// This file contains the NativeProvider implementation backed by the
// whisper.cpp CGO bindings. The whisper.cpp static library (libwhisper.a)
// and headers (whisper.h) must be available at link time via LIBRARY_PATH
// and C_INCLUDE_PATH environment variables.

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/MrWong99/phonoscore/pkg/audio"
	"github.com/MrWong99/phonoscore/pkg/provider/stt"
	"github.com/MrWong99/phonoscore/pkg/types"
)

// Compile-time assertion that NativeProvider satisfies stt.Provider.
var _ stt.Provider = (*NativeProvider)(nil)

// NativeProvider implements stt.Provider using whisper.cpp Go bindings
// (CGO), eliminating HTTP overhead entirely. The model is loaded once at
// startup and shared across calls; every call gets its own context.
type NativeProvider struct {
	model    whisperlib.Model
	language string
	logger   *slog.Logger
}

// NativeOption is a functional option for configuring a NativeProvider.
type NativeOption func(*NativeProvider)

// WithNativeLanguage sets the language code used when the call's stt.Config
// carries none (e.g., "en", "de", "fr"). Defaults to "en".
func WithNativeLanguage(lang string) NativeOption {
	return func(p *NativeProvider) { p.language = lang }
}

// WithNativeLogger sets the logger. Defaults to [slog.Default].
func WithNativeLogger(l *slog.Logger) NativeOption {
	return func(p *NativeProvider) { p.logger = l }
}

// NewNative creates a NativeProvider that loads the whisper.cpp model from
// the given file path. The caller must call Close when the provider is no
// longer needed.
func NewNative(modelPath string, opts ...NativeOption) (*NativeProvider, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	p := &NativeProvider{
		model:    model,
		language: defaultLanguage,
	}
	for _, o := range opts {
		o(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p, nil
}

// Close releases the whisper model.
func (p *NativeProvider) Close() error {
	if p.model != nil {
		return p.model.Close()
	}
	return nil
}

// Transcribe runs whisper.cpp on samples. whisper.cpp requires 16 kHz input,
// so clips at any other rate are resampled first. Segments are limited to a
// single word so every segment boundary is a word boundary.
func (p *NativeProvider) Transcribe(ctx context.Context, samples []float32, cfg stt.Config) (stt.Transcript, error) {
	if err := ctx.Err(); err != nil {
		return stt.Transcript{}, fmt.Errorf("whisper: %w", err)
	}
	if rate := cfg.Rate(); rate != types.DefaultSampleRate {
		samples = audio.Resample(audio.Clip{Samples: samples, SampleRate: rate}, types.DefaultSampleRate).Samples
	}

	lang := cfg.Language
	if lang == "" {
		lang = p.language
	}

	// The model is shared; a context is not safe for concurrent use.
	wctx, err := p.model.NewContext()
	if err != nil {
		return stt.Transcript{}, fmt.Errorf("whisper: create context: %w", err)
	}
	if err := wctx.SetLanguage(lang); err != nil {
		p.logger.Warn("whisper: failed to set language, using default", "language", lang, "error", err)
	}
	wctx.SetTokenTimestamps(true)
	wctx.SetSplitOnWord(true)
	wctx.SetMaxSegmentLength(1)

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return stt.Transcript{}, fmt.Errorf("whisper: process audio: %w", err)
	}

	var words []stt.WordDetail
	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stt.Transcript{}, fmt.Errorf("whisper: read segment: %w", err)
		}
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}

		var conf float64
		var n int
		for _, tok := range seg.Tokens {
			if wctx.IsText(tok) {
				conf += float64(tok.P)
				n++
			}
		}
		if n > 0 {
			conf /= float64(n)
		}
		for _, w := range stt.SplitSegment(seg.Text, seg.Start, seg.End) {
			w.Confidence = conf
			words = append(words, w)
		}
	}

	return stt.Transcript{
		Text:     stt.TextFromWords(words),
		Words:    words,
		Language: lang,
		Duration: audio.Clip{Samples: samples, SampleRate: types.DefaultSampleRate}.Duration(),
	}, nil
}
