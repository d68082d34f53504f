// Package openai provides an STT provider backed by the OpenAI audio
// transcription API. Requests ask for verbose_json with word timestamp
// granularity so the result carries per-word timing.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/MrWong99/phonoscore/pkg/audio"
	"github.com/MrWong99/phonoscore/pkg/provider/stt"
)

// DefaultModel is the default OpenAI transcription model. It is the only
// hosted model that reports word timestamps.
const DefaultModel = "whisper-1"

// Ensure Provider implements the stt.Provider interface.
var _ stt.Provider = (*Provider)(nil)

// Provider implements stt.Provider using the OpenAI API.
type Provider struct {
	client oai.Client
	model  string
}

// config holds optional configuration for the provider.
type config struct {
	baseURL      string
	organization string
	timeout      time.Duration
	httpClient   *http.Client
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithOrganization sets the OpenAI organization ID on all requests.
func WithOrganization(org string) Option {
	return func(c *config) {
		c.organization = org
	}
}

// WithTimeout sets a per-request HTTP timeout. Ignored when WithHTTPClient
// is also given.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the HTTP client, e.g. to install an instrumented
// transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		c.httpClient = hc
	}
}

// New constructs a new OpenAI STT Provider.
// If model is empty, DefaultModel (whisper-1) is used.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("openai stt: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.organization != "" {
		reqOpts = append(reqOpts, option.WithOrganization(cfg.organization))
	}
	switch {
	case cfg.httpClient != nil:
		reqOpts = append(reqOpts, option.WithHTTPClient(cfg.httpClient))
	case cfg.timeout > 0:
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	client := oai.NewClient(reqOpts...)
	return &Provider{client: client, model: model}, nil
}

// ModelID returns the transcription model in use.
func (p *Provider) ModelID() string {
	return p.model
}

// Transcribe implements stt.Provider.
func (p *Provider) Transcribe(ctx context.Context, samples []float32, cfg stt.Config) (stt.Transcript, error) {
	wav := audio.EncodeWAV(audio.Clip{Samples: samples, SampleRate: cfg.Rate()})

	params := oai.AudioTranscriptionNewParams{
		File:                   oai.File(bytes.NewReader(wav), "audio.wav", "audio/wav"),
		Model:                  oai.AudioModel(p.model),
		ResponseFormat:         oai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"word"},
	}
	if cfg.Language != "" {
		params.Language = oai.String(cfg.Language)
	}

	resp, err := p.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return stt.Transcript{}, fmt.Errorf("openai stt: transcribe: %w", err)
	}
	return parseVerbose(resp.RawJSON(), resp.Text)
}

// verboseTranscription is the verbose_json response body.
type verboseTranscription struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Words    []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"words"`
	Segments []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"segments"`
}

// parseVerbose decodes raw. fallbackText is used when raw is empty, which
// happens when the API ignored the requested response format.
func parseVerbose(raw, fallbackText string) (stt.Transcript, error) {
	if strings.TrimSpace(raw) == "" {
		text := strings.TrimSpace(fallbackText)
		return stt.Transcript{Text: text, Words: stt.SplitSegment(text, 0, 0)}, nil
	}

	var v verboseTranscription
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return stt.Transcript{}, fmt.Errorf("openai stt: parse verbose response: %w", err)
	}

	var words []stt.WordDetail
	for _, w := range v.Words {
		words = append(words, stt.WordDetail{Word: w.Word, Start: seconds(w.Start), End: seconds(w.End)})
	}
	if len(words) == 0 {
		for _, s := range v.Segments {
			words = append(words, stt.SplitSegment(s.Text, seconds(s.Start), seconds(s.End))...)
		}
	}
	words = stt.CleanWords(words)

	tr := stt.Transcript{
		Text:     strings.TrimSpace(v.Text),
		Words:    words,
		Language: v.Language,
		Duration: seconds(v.Duration),
	}
	if len(words) > 0 {
		tr.Text = stt.TextFromWords(words)
	}
	return tr, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
