// Package scoring aligns a recognized transcript to a reference text and
// measures phoneme-level pronunciation accuracy word by word.
//
// An [Engine] ties together the building blocks in its sub-packages:
//
//  1. align maps recognized words onto reference words.
//  2. A [phonemizer.Converter] turns every word pair into phonemic strings.
//  3. editdist scores each pair and the attempt as a whole.
//  4. category buckets each word accuracy.
//  5. timing recovers when each reference word was spoken.
//  6. align.Letters marks which letters of each word were recognized.
//
// Engine.Score is pure computation. It is deterministic, holds no mutable
// state, and is safe for concurrent use.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MrWong99/phonoscore/internal/observe"
	"github.com/MrWong99/phonoscore/internal/scoring/align"
	"github.com/MrWong99/phonoscore/internal/scoring/category"
	"github.com/MrWong99/phonoscore/internal/scoring/editdist"
	"github.com/MrWong99/phonoscore/internal/scoring/timing"
	"github.com/MrWong99/phonoscore/pkg/provider/phonemizer"
	"github.com/MrWong99/phonoscore/pkg/types"
)

// GapMarker is shown in place of the recognized word, and of its phonemic
// form, for reference words that were not matched.
const GapMarker = phonemizer.GapMarker

// ErrInvalidInput is returned by [Engine.Score] for an empty reference text or
// malformed word spans.
var ErrInvalidInput = errors.New("scoring: invalid input")

// Option is a functional option for configuring an [Engine].
type Option func(*Engine)

// WithAligner replaces the word aligner. Defaults to [align.New].
func WithAligner(a *align.Aligner) Option {
	return func(e *Engine) {
		e.aligner = a
	}
}

// WithScorer replaces the edit-distance scorer. Defaults to
// [editdist.NewScorer].
func WithScorer(s *editdist.Scorer) Option {
	return func(e *Engine) {
		e.scorer = s
	}
}

// WithCategorizer replaces the accuracy categorizer. Defaults to
// [category.Default].
func WithCategorizer(c *category.Categorizer) Option {
	return func(e *Engine) {
		e.categorizer = c
	}
}

// WithSampleRate sets the sample rate word spans are expressed in. Defaults
// to [types.DefaultSampleRate].
func WithSampleRate(rate int) Option {
	return func(e *Engine) {
		e.resolver = timing.New(rate)
	}
}

// WithLanguage sets the language label attached to metrics.
func WithLanguage(lang string) Option {
	return func(e *Engine) {
		e.language = lang
	}
}

// WithMetrics sets the metrics sink. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// Engine scores pronunciation attempts for one language.
type Engine struct {
	converter   phonemizer.Converter
	aligner     *align.Aligner
	scorer      *editdist.Scorer
	categorizer *category.Categorizer
	resolver    *timing.Resolver
	metrics     *observe.Metrics
	language    string
}

// New returns an [Engine] that phonemizes words with conv.
func New(conv phonemizer.Converter, opts ...Option) *Engine {
	e := &Engine{
		converter: conv,
		resolver:  timing.New(types.DefaultSampleRate),
	}
	for _, o := range opts {
		o(e)
	}
	if e.aligner == nil {
		e.aligner = align.New()
	}
	if e.scorer == nil {
		e.scorer = editdist.NewScorer()
	}
	if e.categorizer == nil {
		e.categorizer = category.Default()
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	return e
}

// WordScore is the outcome for one reference word.
type WordScore struct {
	// Reference is the reference word as written.
	Reference string `json:"reference"`

	// Matched is the recognized word aligned to Reference, or [GapMarker].
	Matched string `json:"matched"`

	// ReferenceIPA and MatchedIPA are the phonemic forms of the pair.
	// MatchedIPA is [GapMarker] for gaps.
	ReferenceIPA string `json:"reference_ipa"`
	MatchedIPA   string `json:"matched_ipa"`

	// Gap is true when no recognized word was matched.
	Gap bool `json:"gap"`

	// Accuracy is the phoneme accuracy of the pair in percent.
	Accuracy float64 `json:"accuracy"`

	// Category is the index of the nearest accuracy anchor.
	Category int `json:"category"`

	// Start and End locate the matched word in the recording, in seconds.
	// Both are 0 when the word has no timing.
	Start float64 `json:"start"`
	End   float64 `json:"end"`

	// Letters has one entry per code point of Reference and reports whether
	// that letter was recognized.
	Letters []bool `json:"letters"`
}

// Result is the outcome of [Engine.Score].
type Result struct {
	// Transcript is the recognized text that was scored.
	Transcript string `json:"transcript"`

	// TranscriptIPA is the phonemic form of Transcript, word by word.
	TranscriptIPA string `json:"transcript_ipa"`

	// Words has exactly one entry per reference word, in reference order.
	Words []WordScore `json:"words"`

	// Accuracy is the overall phoneme accuracy in percent, in [0, 100].
	Accuracy int `json:"accuracy"`

	// Strategy names the alignment strategy that produced the word mapping.
	Strategy string `json:"strategy"`

	// Degraded is true when alignment or scoring failed for part of the input
	// and a worst-case substitute was used.
	Degraded bool `json:"degraded"`
}

// Pairs returns (reference word, matched word) for every reference word.
func (r *Result) Pairs() [][2]string {
	out := make([][2]string, len(r.Words))
	for i, w := range r.Words {
		out[i] = [2]string{w.Reference, w.Matched}
	}
	return out
}

// IPAPairs returns the phonemic forms of [Result.Pairs].
func (r *Result) IPAPairs() [][2]string {
	out := make([][2]string, len(r.Words))
	for i, w := range r.Words {
		out[i] = [2]string{w.ReferenceIPA, w.MatchedIPA}
	}
	return out
}

// WordAccuracies returns the per-word accuracies.
func (r *Result) WordAccuracies() []float64 {
	out := make([]float64, len(r.Words))
	for i, w := range r.Words {
		out[i] = w.Accuracy
	}
	return out
}

// Categories returns the per-word categories.
func (r *Result) Categories() []int {
	out := make([]int, len(r.Words))
	for i, w := range r.Words {
		out[i] = w.Category
	}
	return out
}

// StartTimes returns the per-word start times in seconds.
func (r *Result) StartTimes() []float64 {
	out := make([]float64, len(r.Words))
	for i, w := range r.Words {
		out[i] = w.Start
	}
	return out
}

// EndTimes returns the per-word end times in seconds.
func (r *Result) EndTimes() []float64 {
	out := make([]float64, len(r.Words))
	for i, w := range r.Words {
		out[i] = w.End
	}
	return out
}

// Score aligns transcript to referenceText and scores the attempt. spans
// locate the words of transcript in the recording, in sample units; span i
// belongs to the i-th whitespace-separated word. Missing spans leave the
// affected words without timing.
//
// Score returns [ErrInvalidInput] when referenceText has no words or a span is
// malformed. Failures inside alignment or distance computation are not
// errors: they degrade the affected words and set [Result.Degraded].
func (e *Engine) Score(ctx context.Context, referenceText, transcript string, spans []types.Span) (res *Result, err error) {
	start := time.Now()
	ctx, span := observe.StartSpan(ctx, "scoring.Score")
	defer func() {
		status := observe.StatusOK
		if err != nil {
			status = observe.StatusError
		}
		e.metrics.RecordScoringRequest(ctx, e.language, status)
		e.metrics.ScoringDuration.Record(ctx, time.Since(start).Seconds())
		observe.EndSpan(span, err)
	}()

	reference := strings.Fields(referenceText)
	if len(reference) == 0 {
		return nil, fmt.Errorf("%w: empty reference text", ErrInvalidInput)
	}
	for i, s := range spans {
		if verr := s.Validate(); verr != nil {
			return nil, fmt.Errorf("%w: span %d: %v", ErrInvalidInput, i, verr)
		}
	}
	estimated := strings.Fields(transcript)

	aligned := e.aligner.Align(estimated, reference)
	if aligned.FellBack {
		e.metrics.AlignmentFallbacks.Add(ctx, 1)
	}
	if aligned.Degraded {
		e.metrics.AlignmentDegraded.Add(ctx, 1)
	}

	words := make([]WordScore, len(reference))
	pairs := make([]editdist.Pair, len(reference))
	for i, ref := range reference {
		w := WordScore{
			Reference:    ref,
			ReferenceIPA: e.converter.Convert(ref),
		}
		entry := aligned.Alignment[i]
		switch j, ok := entry.Index(); {
		case ok && j < len(estimated):
			w.Matched = estimated[j]
		case !ok && !entry.IsGap() && entry.Word() != "":
			w.Matched = entry.Word()
		default:
			w.Gap = true
		}
		if w.Gap {
			w.Matched = GapMarker
			w.MatchedIPA = GapMarker
		} else {
			w.MatchedIPA = e.converter.Convert(w.Matched)
		}
		words[i] = w
		pairs[i] = editdist.Pair{Reference: w.ReferenceIPA, Hypothesis: w.MatchedIPA}
	}

	report := e.scorer.Score(pairs)
	if report.Degraded > 0 {
		e.metrics.DegradedPairs.Add(ctx, int64(report.Degraded))
	}
	categories := e.categorizer.CategorizeAll(report.PerWord)
	times := e.resolver.Resolve(aligned.Alignment, spans)

	for i := range words {
		words[i].Accuracy = report.PerWord[i]
		words[i].Category = categories[i]
		words[i].Start = times.Start[i]
		words[i].End = times.End[i]
		words[i].Letters = align.Letters(words[i].Reference, words[i].Matched, words[i].Gap)
	}

	res = &Result{
		Transcript:    transcript,
		TranscriptIPA: phonemizer.ConvertText(e.converter, transcript),
		Words:         words,
		Accuracy:      report.Overall,
		Strategy:      aligned.Strategy,
		Degraded:      aligned.Degraded || report.Degraded > 0,
	}

	e.metrics.ScoringAccuracy.Record(ctx, float64(res.Accuracy),
		metric.WithAttributes(attribute.String("language", e.language)))

	observe.Logger(ctx).LogAttrs(ctx, slog.LevelDebug, "attempt scored",
		slog.String("language", e.language),
		slog.Int("words", len(words)),
		slog.Int("accuracy", res.Accuracy),
		slog.String("strategy", res.Strategy),
		slog.Bool("degraded", res.Degraded),
	)
	return res, nil
}
