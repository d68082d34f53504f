// Package app wires the phonoscore subsystems into per-language trainers.
//
// New builds one [Trainer] per configured language from the config and the
// provider registry, plus the sample sentence store. The resulting [App] is
// read-only and safe for concurrent use; Close releases providers and
// database connections.
//
// For testing, inject test doubles via functional options (WithSTT,
// WithPhonemizer, WithSampleStore). When an option is not provided, New
// creates real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math"
	"slices"
	"sync"

	"github.com/MrWong99/phonoscore/internal/config"
	"github.com/MrWong99/phonoscore/internal/health"
	"github.com/MrWong99/phonoscore/internal/observe"
	"github.com/MrWong99/phonoscore/internal/sample"
	"github.com/MrWong99/phonoscore/internal/scoring"
	"github.com/MrWong99/phonoscore/internal/scoring/align"
	"github.com/MrWong99/phonoscore/internal/scoring/category"
	"github.com/MrWong99/phonoscore/pkg/audio"
	"github.com/MrWong99/phonoscore/pkg/provider/phonemizer"
	"github.com/MrWong99/phonoscore/pkg/provider/phonemizer/metaphone"
	"github.com/MrWong99/phonoscore/pkg/provider/stt"
)

// ErrUnsupportedLanguage is returned for a language code that has no trainer.
var ErrUnsupportedLanguage = errors.New("app: unsupported language")

// Sample is a practice sentence together with its phonemic form.
type Sample struct {
	Language string          `json:"language"`
	Sentence string          `json:"real_transcript"`
	IPA      string          `json:"ipa_transcript"`
	Category sample.Category `json:"category"`
}

// App owns the per-language trainers and the sample store.
type App struct {
	cfg      *config.Config
	recog    stt.Provider
	convs    map[string]phonemizer.Converter
	samples  sample.Store
	metrics  *observe.Metrics
	trainers map[string]*Trainer

	// closers are called in order during Close.
	closers   []func() error
	closeOnce sync.Once
	closeErr  error
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithSTT injects an STT provider instead of creating one from config.
func WithSTT(p stt.Provider) Option {
	return func(a *App) { a.recog = p }
}

// WithPhonemizer injects the converter of one language instead of creating
// it from config.
func WithPhonemizer(language string, c phonemizer.Converter) Option {
	return func(a *App) { a.convs[language] = c }
}

// WithSampleStore injects a sample store instead of creating one from config.
func WithSampleStore(s sample.Store) Option {
	return func(a *App) { a.samples = s }
}

// WithMetrics sets the metrics sink. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App from cfg. Providers not injected through opts are
// created with reg. cfg must have defaults applied (see
// [config.Config.ApplyDefaults]).
func New(ctx context.Context, cfg *config.Config, reg *config.Registry, opts ...Option) (*App, error) {
	a := &App{
		cfg:      cfg,
		convs:    make(map[string]phonemizer.Converter),
		trainers: make(map[string]*Trainer, len(cfg.Languages)),
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	if err := a.initSTT(reg); err != nil {
		a.Close()
		return nil, fmt.Errorf("app: init stt: %w", err)
	}
	for _, lang := range cfg.Languages {
		if err := a.initTrainer(lang, reg); err != nil {
			a.Close()
			return nil, fmt.Errorf("app: init language %q: %w", lang.Code, err)
		}
	}
	if err := a.initSamples(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("app: init samples: %w", err)
	}

	slog.Info("trainers ready",
		"languages", a.Languages(),
		"stt", cfg.Providers.STT.Name,
	)
	return a, nil
}

func (a *App) initSTT(reg *config.Registry) error {
	if a.recog == nil && a.cfg.Providers.STT.Name != "" {
		p, err := reg.CreateSTT(a.cfg.Providers.STT)
		if err != nil {
			return err
		}
		a.recog = p
		if c, ok := p.(io.Closer); ok {
			a.closers = append(a.closers, c.Close)
		}
	}
	return nil
}

func (a *App) initTrainer(lang config.LanguageConfig, reg *config.Registry) error {
	conv, ok := a.convs[lang.Code]
	if !ok {
		c, err := reg.CreatePhonemizer(lang.Phonemizer)
		if err != nil {
			return err
		}
		conv = c
	}

	engOpts := []scoring.Option{
		scoring.WithAligner(newAligner(lang.Scoring)),
		scoring.WithSampleRate(a.cfg.Audio.SampleRate),
		scoring.WithLanguage(lang.Code),
		scoring.WithMetrics(a.metrics),
	}
	if len(lang.Scoring.Anchors) > 0 {
		cat, err := category.New(lang.Scoring.Anchors...)
		if err != nil {
			return err
		}
		engOpts = append(engOpts, scoring.WithCategorizer(cat))
	}

	a.trainers[lang.Code] = NewTrainer(lang.Code, a.recog, conv, scoring.New(conv, engOpts...),
		WithSTTLanguage(lang.STTLanguage),
		WithProviderName(a.cfg.Providers.STT.Name),
		WithSampleRate(a.cfg.Audio.SampleRate),
		WithFade(a.cfg.Audio.Fade()),
		WithLimits(audio.Limits{
			MinDuration: a.cfg.Audio.MinDuration,
			MaxDuration: a.cfg.Audio.MaxDuration,
			MinRMS:      a.cfg.Audio.MinRMS,
		}),
		WithTrainerMetrics(a.metrics),
	)
	return nil
}

// newAligner builds the word aligner described by sc.
func newAligner(sc config.ScoringConfig) *align.Aligner {
	var ordered []align.OrderedOption
	if sc.Similarity == config.SimilarityPhonetic {
		ordered = append(ordered, align.WithSimilarity(metaphone.Distance))
	}
	opts := []align.Option{
		align.WithPrimary(align.NewOrdered(ordered...), align.StrategyOrdered),
		align.WithFallback(&align.Fuzzy{Cutoff: sc.FuzzyCutoff}, align.StrategyFuzzy),
	}
	if sc.MaxGapFraction > 0 {
		opts = append(opts, align.WithMaxGapFraction(sc.MaxGapFraction))
	}
	return align.New(opts...)
}

func (a *App) initSamples(ctx context.Context) error {
	if a.samples != nil {
		return nil
	}
	if dsn := a.cfg.Samples.PostgresDSN; dsn != "" {
		store, err := sample.OpenPostgres(ctx, dsn)
		if err != nil {
			return err
		}
		a.samples = store
		a.closers = append(a.closers, func() error {
			store.Close()
			return nil
		})
		return nil
	}

	mem := sample.NewMemStore()
	for _, lang := range a.cfg.Languages {
		if lang.SamplesCSV == "" {
			continue
		}
		if err := mem.LoadCSVFile(lang.Code, lang.SamplesCSV); err != nil {
			return err
		}
		slog.Debug("sample sentences loaded", "language", lang.Code, "count", mem.Len(lang.Code))
	}
	a.samples = mem
	return nil
}

// Languages returns the sorted codes of all configured languages.
func (a *App) Languages() []string {
	return slices.Sorted(maps.Keys(a.trainers))
}

// Trainer returns the trainer of language.
func (a *App) Trainer(language string) (*Trainer, error) {
	t, ok := a.trainers[language]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}
	return t, nil
}

// Evaluate scores clip as an attempt at referenceText in language.
func (a *App) Evaluate(ctx context.Context, language string, clip audio.Clip, referenceText string) (*scoring.Result, error) {
	t, err := a.Trainer(language)
	if err != nil {
		return nil, err
	}
	return t.Evaluate(ctx, clip, referenceText)
}

// Sample returns a random practice sentence of language in cat, together
// with its phonemic form.
func (a *App) Sample(ctx context.Context, language string, cat sample.Category) (Sample, error) {
	t, err := a.Trainer(language)
	if err != nil {
		return Sample{}, err
	}
	sentence, err := a.samples.Random(ctx, language, cat)
	if err != nil {
		return Sample{}, fmt.Errorf("app: sample: %w", err)
	}
	return Sample{
		Language: language,
		Sentence: sentence,
		IPA:      t.Phonemize(sentence),
		Category: sample.CategoryOf(sentence),
	}, nil
}

// Checkers returns readiness checks for every language: its phonemizer
// converts a word and its sample store serves a sentence. When checkSTT is
// set, a short tone is also sent through the recognizer.
func (a *App) Checkers(checkSTT bool) []health.Checker {
	var out []health.Checker
	for _, lang := range a.Languages() {
		t := a.trainers[lang]
		out = append(out,
			health.Checker{Name: "phonemizer/" + lang, Check: func(context.Context) error {
				if t.Phonemize(checkWord) == "" {
					return errors.New("empty phonemic form")
				}
				return nil
			}},
			health.Checker{Name: "samples/" + lang, Check: func(ctx context.Context) error {
				_, err := a.samples.Random(ctx, lang, sample.Any)
				return err
			}},
		)
	}
	if checkSTT {
		out = append(out, health.Checker{Name: "stt", Check: func(ctx context.Context) error {
			if a.recog == nil {
				return ErrNoRecognizer
			}
			_, err := a.recog.Transcribe(ctx, checkTone(a.cfg.Audio.SampleRate), stt.Config{SampleRate: a.cfg.Audio.SampleRate})
			return err
		}})
	}
	return out
}

// checkWord is converted by the phonemizer readiness check.
const checkWord = "test"

// checkTone returns half a second of a quiet 440 Hz sine at rate.
func checkTone(rate int) []float32 {
	out := make([]float32, rate/2)
	for i := range out {
		out[i] = float32(0.1 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
	}
	return out
}

// SampleStore returns the store sentences are drawn from.
func (a *App) SampleStore() sample.Store { return a.samples }

// Close releases providers and database connections. It is safe to call more
// than once.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		var errs []error
		for _, c := range a.closers {
			if err := c(); err != nil {
				errs = append(errs, err)
			}
		}
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}
