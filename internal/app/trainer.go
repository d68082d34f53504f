package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MrWong99/phonoscore/internal/observe"
	"github.com/MrWong99/phonoscore/internal/scoring"
	"github.com/MrWong99/phonoscore/pkg/audio"
	"github.com/MrWong99/phonoscore/pkg/provider/phonemizer"
	"github.com/MrWong99/phonoscore/pkg/provider/stt"
	"github.com/MrWong99/phonoscore/pkg/types"
)

// ErrNoRecognizer is returned by [Trainer.Evaluate] when no STT provider is
// configured.
var ErrNoRecognizer = errors.New("app: no speech recognizer configured")

// TrainerOption is a functional option for configuring a [Trainer].
type TrainerOption func(*Trainer)

// WithLimits sets the clip validation limits. Defaults to
// [audio.DefaultLimits].
func WithLimits(l audio.Limits) TrainerOption {
	return func(t *Trainer) { t.limits = l }
}

// WithSampleRate sets the rate clips are resampled to before recognition.
// It must match the sample rate of the trainer's [scoring.Engine].
func WithSampleRate(rate int) TrainerOption {
	return func(t *Trainer) { t.sampleRate = rate }
}

// WithFade sets the margin added around every recognized word span.
// Defaults to [stt.DefaultFade].
func WithFade(d time.Duration) TrainerOption {
	return func(t *Trainer) { t.fade = d }
}

// WithSTTLanguage sets the language hint passed to the STT provider.
// Defaults to the trainer's language.
func WithSTTLanguage(lang string) TrainerOption {
	return func(t *Trainer) { t.sttLanguage = lang }
}

// WithProviderName sets the STT provider name used in metrics.
func WithProviderName(name string) TrainerOption {
	return func(t *Trainer) { t.providerName = name }
}

// WithTrainerMetrics sets the metrics sink. Defaults to
// [observe.DefaultMetrics].
func WithTrainerMetrics(m *observe.Metrics) TrainerOption {
	return func(t *Trainer) { t.metrics = m }
}

// Trainer evaluates pronunciation attempts for one language: it validates
// and preprocesses the recording, recognizes it and scores the transcript
// against the reference text. It is read-only after construction and safe for
// concurrent use if its collaborators are.
type Trainer struct {
	language     string
	sttLanguage  string
	providerName string
	recognizer   stt.Provider
	converter    phonemizer.Converter
	engine       *scoring.Engine
	limits       audio.Limits
	sampleRate   int
	fade         time.Duration
	metrics      *observe.Metrics
}

// NewTrainer returns a [Trainer] for language. recognizer may be nil, in
// which case [Trainer.Evaluate] fails with [ErrNoRecognizer] and only
// [Trainer.Phonemize] is usable.
func NewTrainer(language string, recognizer stt.Provider, conv phonemizer.Converter, engine *scoring.Engine, opts ...TrainerOption) *Trainer {
	t := &Trainer{
		language:   language,
		recognizer: recognizer,
		converter:  conv,
		engine:     engine,
		limits:     audio.DefaultLimits(),
		sampleRate: types.DefaultSampleRate,
		fade:       stt.DefaultFade,
	}
	for _, o := range opts {
		o(t)
	}
	if t.sttLanguage == "" {
		t.sttLanguage = language
	}
	if t.providerName == "" {
		t.providerName = "stt"
	}
	if t.metrics == nil {
		t.metrics = observe.DefaultMetrics()
	}
	return t
}

// Language returns the language code of t.
func (t *Trainer) Language() string { return t.language }

// Phonemize returns the phonemic form of text, word by word.
func (t *Trainer) Phonemize(text string) string {
	return phonemizer.ConvertText(t.converter, text)
}

// Evaluate scores one recorded attempt at referenceText.
//
// The clip is validated against the trainer's limits, resampled, normalised
// and recognized. Recognized word timestamps become sample spans padded by
// the fade margin. Validation failures wrap the audio sentinels
// ([audio.ErrTooShort] etc.); an empty reference wraps
// [scoring.ErrInvalidInput]. Both are reported before the recognizer runs.
func (t *Trainer) Evaluate(ctx context.Context, clip audio.Clip, referenceText string) (res *scoring.Result, err error) {
	ctx, span := observe.StartSpan(ctx, "app.Evaluate")
	defer func() { observe.EndSpan(span, err) }()

	if strings.TrimSpace(referenceText) == "" {
		return nil, fmt.Errorf("app: evaluate: %w: empty reference text", scoring.ErrInvalidInput)
	}
	if err := t.limits.Check(clip); err != nil {
		return nil, fmt.Errorf("app: evaluate: %w", err)
	}
	if t.recognizer == nil {
		return nil, ErrNoRecognizer
	}

	clip = audio.Normalize(audio.Resample(clip, t.sampleRate))

	tr, err := t.transcribe(ctx, clip)
	if err != nil {
		return nil, err
	}

	words := stt.CleanWords(tr.Words)
	text := strings.Join(strings.Fields(tr.Text), " ")
	var spans []types.Span
	if len(words) > 0 {
		text = stt.TextFromWords(words)
		spans = stt.SampleSpans(words, t.sampleRate, t.fade, clip.Len())
	}

	res, err = t.engine.Score(ctx, referenceText, text, spans)
	if err != nil {
		return nil, fmt.Errorf("app: evaluate: %w", err)
	}
	return res, nil
}

// transcribe runs the recognizer and records its latency.
func (t *Trainer) transcribe(ctx context.Context, clip audio.Clip) (stt.Transcript, error) {
	start := time.Now()
	tr, err := t.recognizer.Transcribe(ctx, clip.Samples, stt.Config{
		SampleRate: t.sampleRate,
		Language:   t.sttLanguage,
	})
	elapsed := time.Since(start)
	t.metrics.STTDuration.Record(ctx, elapsed.Seconds())

	if err != nil {
		t.metrics.RecordProviderRequest(ctx, t.providerName, "stt", observe.StatusError)
		t.metrics.RecordProviderError(ctx, t.providerName, "stt")
		return stt.Transcript{}, fmt.Errorf("app: transcribe: %w", err)
	}
	t.metrics.RecordProviderRequest(ctx, t.providerName, "stt", observe.StatusOK)

	observe.Logger(ctx).LogAttrs(ctx, slog.LevelDebug, "attempt transcribed",
		slog.String("language", t.language),
		slog.String("provider", t.providerName),
		slog.Int("words", len(tr.Words)),
		slog.Duration("duration", elapsed),
	)
	return tr, nil
}
