package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrWong99/phonoscore/internal/config"
	"github.com/MrWong99/phonoscore/internal/observe"
	"github.com/MrWong99/phonoscore/pkg/provider/phonemizer"
	"github.com/MrWong99/phonoscore/pkg/provider/phonemizer/lexicon"
	"github.com/MrWong99/phonoscore/pkg/provider/phonemizer/metaphone"
	"github.com/MrWong99/phonoscore/pkg/provider/stt"
	"github.com/MrWong99/phonoscore/pkg/provider/stt/deepgram"
	oaistt "github.com/MrWong99/phonoscore/pkg/provider/stt/openai"
	"github.com/MrWong99/phonoscore/pkg/provider/stt/whisper"
)

// httpTimeout bounds one request to an HTTP STT backend.
const httpTimeout = 60 * time.Second

// registerBuiltinProviders wires all built-in provider factories into reg.
// HTTP-based providers get a client whose transport records m.
func registerBuiltinProviders(reg *config.Registry, m *observe.Metrics) {
	// ── STT ───────────────────────────────────────────────────────────────────

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		opts := []whisper.Option{
			whisper.WithHTTPClient(instrumentedClient(m, "whisper", httpTimeout)),
		}
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if lang := entry.OptString("language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	reg.RegisterSTT("whisper-native", func(entry config.ProviderEntry) (stt.Provider, error) {
		modelPath := entry.Model
		if modelPath == "" {
			modelPath = entry.OptString("model_path")
		}
		opts := []whisper.NativeOption{whisper.WithNativeLogger(slog.Default())}
		if lang := entry.OptString("language"); lang != "" {
			opts = append(opts, whisper.WithNativeLanguage(lang))
		}
		return whisper.NewNative(modelPath, opts...)
	})

	reg.RegisterSTT("openai", func(entry config.ProviderEntry) (stt.Provider, error) {
		timeout := httpTimeout
		if s := entry.OptString("timeout"); s != "" {
			d, err := time.ParseDuration(s)
			if err != nil {
				return nil, fmt.Errorf("openai stt: options.timeout: %w", err)
			}
			timeout = d
		}
		opts := []oaistt.Option{
			oaistt.WithHTTPClient(instrumentedClient(m, "openai", timeout)),
		}
		if entry.BaseURL != "" {
			opts = append(opts, oaistt.WithBaseURL(entry.BaseURL))
		}
		if org := entry.OptString("organization"); org != "" {
			opts = append(opts, oaistt.WithOrganization(org))
		}
		return oaistt.New(entry.APIKey, entry.Model, opts...)
	})

	reg.RegisterSTT("deepgram", func(entry config.ProviderEntry) (stt.Provider, error) {
		// The client only performs the WebSocket handshake; the stream itself
		// is bounded by the caller's context.
		opts := []deepgram.Option{
			deepgram.WithHTTPClient(instrumentedClient(m, "deepgram", 0)),
		}
		if entry.Model != "" {
			opts = append(opts, deepgram.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, deepgram.WithEndpoint(entry.BaseURL))
		}
		if lang := entry.OptString("language"); lang != "" {
			opts = append(opts, deepgram.WithLanguage(lang))
		}
		return deepgram.New(entry.APIKey, opts...)
	})

	// ── Phonemizers ───────────────────────────────────────────────────────────

	reg.RegisterPhonemizer("metaphone", func(entry config.ProviderEntry) (phonemizer.Converter, error) {
		return newMetaphone(entry), nil
	})

	reg.RegisterPhonemizer("lexicon", func(entry config.ProviderEntry) (phonemizer.Converter, error) {
		opts := []lexicon.Option{lexicon.WithFallback(newMetaphone(entry))}
		if entry.OptBool("drop_final_schwa") {
			opts = append(opts, lexicon.WithDropFinalSchwa())
		}
		lex, err := lexicon.Open(entry.OptString("path"), opts...)
		if err != nil {
			return nil, err
		}
		slog.Debug("lexicon loaded", "path", entry.OptString("path"), "entries", lex.Len())
		return lex, nil
	})

	for _, kind := range []string{"stt", "phonemizer"} {
		for _, name := range reg.Names(kind) {
			slog.Debug("registered provider", "kind", kind, "name", name)
		}
	}
}

func newMetaphone(entry config.ProviderEntry) *metaphone.Converter {
	var opts []metaphone.Option
	if entry.OptBool("secondary") {
		opts = append(opts, metaphone.WithSecondary())
	}
	return metaphone.New(opts...)
}

// instrumentedClient returns an HTTP client that traces and measures every
// request to provider.
func instrumentedClient(m *observe.Metrics, provider string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: observe.Transport(m, nil, provider),
	}
}
