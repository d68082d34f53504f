package align

import (
	"fmt"
	"log/slog"
	"slices"
)

// DefaultMaxGapFraction is the gap fraction above which [Aligner] switches to
// its fallback strategy.
const DefaultMaxGapFraction = 0.4

// Strategy names reported in [Result.Strategy].
const (
	StrategyOrdered = "ordered"
	StrategyFuzzy   = "fuzzy"
)

// Result is the outcome of [Aligner.Align].
type Result struct {
	// Alignment has exactly one entry per reference word.
	Alignment Alignment

	// Strategy names the strategy that produced Alignment.
	Strategy string

	// Degraded is true when any strategy that ran failed and its output was
	// replaced by an all-gap alignment.
	Degraded bool

	// FellBack is true when the fallback strategy was consulted.
	FellBack bool
}

// Option is a functional option for configuring an [Aligner].
type Option func(*Aligner)

// WithPrimary replaces the primary strategy. Defaults to [NewOrdered].
func WithPrimary(s Strategy, name string) Option {
	return func(a *Aligner) {
		a.primary = named{Strategy: s, name: name}
	}
}

// WithFallback replaces the fallback strategy. Defaults to [Fuzzy] with
// [DefaultCutoff].
func WithFallback(s Strategy, name string) Option {
	return func(a *Aligner) {
		a.fallback = named{Strategy: s, name: name}
	}
}

// WithMaxGapFraction sets the gap fraction above which the fallback runs.
func WithMaxGapFraction(f float64) Option {
	return func(a *Aligner) {
		a.maxGapFraction = f
	}
}

// WithLogger sets the logger used to report degraded alignments. Defaults to
// [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(a *Aligner) {
		a.logger = l
	}
}

type named struct {
	Strategy
	name string
}

// Aligner runs a primary [Strategy] and, when its output leaves too many
// reference words unmatched, a fallback. It is safe for concurrent use if its
// strategies are.
type Aligner struct {
	primary        named
	fallback       named
	maxGapFraction float64
	logger         *slog.Logger
}

// New returns an [Aligner] configured with opts.
func New(opts ...Option) *Aligner {
	a := &Aligner{
		primary:        named{Strategy: NewOrdered(), name: StrategyOrdered},
		fallback:       named{Strategy: &Fuzzy{Cutoff: DefaultCutoff}, name: StrategyFuzzy},
		maxGapFraction: DefaultMaxGapFraction,
	}
	for _, o := range opts {
		o(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Align aligns estimated to reference. It never fails: a strategy that
// returns an error or panics is replaced by an all-gap alignment and the
// result is marked degraded. The returned alignment always has exactly
// len(reference) entries.
func (a *Aligner) Align(estimated, reference []string) Result {
	res := Result{Strategy: a.primary.name}
	out, ok := a.run(a.primary, estimated, reference)
	if !ok {
		res.Degraded = true
	}

	if len(out) < len(reference) || Pad(out, len(reference)).GapFraction() > a.maxGapFraction {
		res.FellBack = true
		fb, ok := a.run(a.fallback, estimated, reference)
		if !ok {
			res.Degraded = true
		}
		out = fb
		res.Strategy = a.fallback.name
	}

	res.Alignment = Pad(out, len(reference))
	return res
}

// run executes s and converts an error or panic into ok == false.
func (a *Aligner) run(s named, estimated, reference []string) (out Alignment, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("alignment strategy panicked, using gaps",
				"strategy", s.name,
				"err", fmt.Errorf("align: %v", r),
			)
			out, ok = AllGaps(len(reference)), false
		}
	}()

	out, err := s.Align(estimated, reference)
	if err != nil {
		a.logger.Warn("alignment strategy failed, using gaps",
			"strategy", s.name,
			"err", err,
		)
		return AllGaps(len(reference)), false
	}
	if clean, n := dropInvalid(out, len(estimated)); n > 0 {
		a.logger.Warn("alignment strategy returned invalid indices, using gaps for them",
			"strategy", s.name,
			"entries", n,
		)
		return clean, false
	}
	return out, true
}

// dropInvalid returns a copy of out in which every entry that points outside
// [0, m), or is an unresolved match without a word, is a gap, together with
// the number of replaced entries. out is returned as is when n is 0.
func dropInvalid(out Alignment, m int) (Alignment, int) {
	var (
		clean Alignment
		n     int
	)
	for i, e := range out {
		if !e.matched || (e.index >= 0 && e.index < m) || (e.index < 0 && e.word != "") {
			continue
		}
		if clean == nil {
			clean = slices.Clone(out)
		}
		clean[i] = Gap
		n++
	}
	if n == 0 {
		return out, 0
	}
	return clean, n
}
