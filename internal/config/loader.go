package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"stt":        {"whisper", "whisper-native", "openai", "deepgram"},
	"phonemizer": {"lexicon", "metaphone"},
}

// Load reads the YAML configuration file at path and returns a validated [Config]
// with defaults applied. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and validates
// the result. Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.ApplyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Log
	if cfg.Log.Level != "" && !cfg.Log.Level.IsValid() {
		errs = append(errs, fmt.Errorf("log.level %q is invalid; valid values: debug, info, warn, error", cfg.Log.Level))
	}
	if cfg.Log.Format != "" && !cfg.Log.Format.IsValid() {
		errs = append(errs, fmt.Errorf("log.format %q is invalid; valid values: text, json", cfg.Log.Format))
	}

	validateProviderName("stt", cfg.Providers.STT.Name)

	// Audio
	if cfg.Audio.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d must be positive", cfg.Audio.SampleRate))
	}
	if cfg.Audio.FadeMS < 0 {
		errs = append(errs, fmt.Errorf("audio.fade_ms %d must not be negative", cfg.Audio.FadeMS))
	}
	if cfg.Audio.MinDuration < 0 || cfg.Audio.MaxDuration < 0 {
		errs = append(errs, errors.New("audio.min_duration and audio.max_duration must not be negative"))
	}
	if cfg.Audio.MaxDuration > 0 && cfg.Audio.MinDuration > cfg.Audio.MaxDuration {
		errs = append(errs, fmt.Errorf("audio.min_duration %s exceeds audio.max_duration %s", cfg.Audio.MinDuration, cfg.Audio.MaxDuration))
	}
	if cfg.Audio.MinRMS < 0 {
		errs = append(errs, fmt.Errorf("audio.min_rms %g must not be negative", cfg.Audio.MinRMS))
	}

	if len(cfg.Languages) > 0 && cfg.Providers.STT.Name == "" {
		slog.Warn("providers.stt is not configured; only the sample command will work")
	}

	// Languages
	seen := make(map[string]int, len(cfg.Languages))
	for i, lang := range cfg.Languages {
		prefix := fmt.Sprintf("languages[%d]", i)
		if lang.Code == "" {
			errs = append(errs, fmt.Errorf("%s.code is required", prefix))
		} else {
			if prev, ok := seen[lang.Code]; ok {
				errs = append(errs, fmt.Errorf("%s.code %q is a duplicate of languages[%d]", prefix, lang.Code, prev))
			}
			seen[lang.Code] = i
		}

		validateProviderName("phonemizer", lang.Phonemizer.Name)
		if lang.Phonemizer.Name == "lexicon" && lang.Phonemizer.OptString("path") == "" {
			errs = append(errs, fmt.Errorf("%s.phonemizer.options.path is required for the lexicon phonemizer", prefix))
		}

		sc := lang.Scoring
		for j, a := range sc.Anchors {
			if a < 0 || a > 100 {
				errs = append(errs, fmt.Errorf("%s.scoring.anchors[%d] %.1f is out of range [0, 100]", prefix, j, a))
			}
		}
		if sc.MaxGapFraction < 0 || sc.MaxGapFraction > 1 {
			errs = append(errs, fmt.Errorf("%s.scoring.max_gap_fraction %.2f is out of range [0, 1]", prefix, sc.MaxGapFraction))
		}
		if sc.FuzzyCutoff < 0 || sc.FuzzyCutoff > 1 {
			errs = append(errs, fmt.Errorf("%s.scoring.fuzzy_cutoff %.2f is out of range [0, 1]", prefix, sc.FuzzyCutoff))
		}
		if sc.Similarity != "" && !sc.Similarity.IsValid() {
			errs = append(errs, fmt.Errorf("%s.scoring.similarity %q is invalid; valid values: levenshtein, phonetic", prefix, sc.Similarity))
		}

		if lang.SamplesCSV == "" && cfg.Samples.PostgresDSN == "" {
			slog.Debug("no sample source configured for language", "language", lang.Code)
		}
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
