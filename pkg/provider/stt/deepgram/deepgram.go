// Package deepgram provides an STT provider backed by the Deepgram live
// transcription WebSocket API.
//
// A clip is streamed as linear16 PCM in short binary frames followed by a
// CloseStream message. Final results are collected while the clip is being
// sent, until Deepgram reports the stream metadata or closes the connection.
package deepgram

import (
	"cmp"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/phonoscore/pkg/audio"
	"github.com/MrWong99/phonoscore/pkg/provider/stt"
)

const (
	deepgramEndpoint = "wss://api.deepgram.com/v1/listen"
	defaultModel     = "nova-3"
	defaultLanguage  = "en"

	// frameDuration is the amount of audio sent per binary message.
	frameDuration = 100 * time.Millisecond

	// readLimit bounds a single JSON message from Deepgram.
	readLimit = 1 << 20
)

// Compile-time assertion that Provider implements stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// Option is a functional option for configuring the Deepgram Provider.
type Option func(*Provider)

// WithModel sets the Deepgram model to use (e.g., "nova-3", "base").
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithLanguage sets the language used when the call's stt.Config carries
// none (e.g., "en", "de-DE").
func WithLanguage(language string) Option {
	return func(p *Provider) {
		p.language = language
	}
}

// WithEndpoint overrides the listen endpoint. Tests point it at a local
// server; ws, wss, http and https URLs are accepted.
func WithEndpoint(endpoint string) Option {
	return func(p *Provider) {
		p.endpoint = endpoint
	}
}

// WithHTTPClient sets the client used for the WebSocket handshake.
func WithHTTPClient(hc *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = hc
	}
}

// Provider implements stt.Provider backed by the Deepgram streaming API.
type Provider struct {
	apiKey     string
	model      string
	language   string
	endpoint   string
	httpClient *http.Client
}

// New creates a new Deepgram Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("deepgram: apiKey must not be empty")
	}
	p := &Provider{
		apiKey:   apiKey,
		model:    defaultModel,
		language: defaultLanguage,
		endpoint: deepgramEndpoint,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Transcribe streams samples to Deepgram and returns the final transcript.
func (p *Provider) Transcribe(ctx context.Context, samples []float32, cfg stt.Config) (stt.Transcript, error) {
	wsURL, err := p.buildURL(cfg)
	if err != nil {
		return stt.Transcript{}, fmt.Errorf("deepgram: build URL: %w", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+p.apiKey)

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: headers,
		HTTPClient: p.httpClient,
	})
	if err != nil {
		return stt.Transcript{}, fmt.Errorf("deepgram: dial: %w", err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(readLimit)

	var tr stt.Transcript
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sendClip(gctx, conn, samples, cfg.Rate())
	})
	g.Go(func() error {
		var err error
		tr, err = receive(gctx, conn)
		return err
	})
	if err := g.Wait(); err != nil {
		return stt.Transcript{}, err
	}
	tr.Language = cmp.Or(cfg.Language, p.language)

	_ = conn.Close(websocket.StatusNormalClosure, "")
	return tr, nil
}

// buildURL constructs the Deepgram streaming endpoint URL for cfg.
func (p *Provider) buildURL(cfg stt.Config) (string, error) {
	u, err := url.Parse(p.endpoint)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("model", p.model)
	q.Set("language", cmp.Or(cfg.Language, p.language))
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(cfg.Rate()))
	q.Set("channels", "1")
	// Scoring compares raw words, so punctuation and number formatting stay off.
	q.Set("punctuate", "false")
	q.Set("smart_format", "false")
	q.Set("interim_results", "false")

	u.RawQuery = q.Encode()
	return u.String(), nil
}

// sendClip writes samples as little-endian 16-bit PCM frames and then asks
// Deepgram to flush and close the stream.
func sendClip(ctx context.Context, conn *websocket.Conn, samples []float32, rate int) error {
	pcm := audio.Float32ToPCM16(samples)
	step := max(rate*int(frameDuration/time.Millisecond)/1000, 1)
	buf := make([]byte, 0, 2*step)
	for start := 0; start < len(pcm); start += step {
		buf = buf[:0]
		for _, s := range pcm[start:min(start+step, len(pcm))] {
			buf = binary.LittleEndian.AppendUint16(buf, uint16(s))
		}
		if err := conn.Write(ctx, websocket.MessageBinary, buf); err != nil {
			return fmt.Errorf("deepgram: send audio: %w", err)
		}
	}
	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"type":"CloseStream"}`)); err != nil {
		return fmt.Errorf("deepgram: close stream: %w", err)
	}
	return nil
}

// response is the JSON structure of a Deepgram live message.
type response struct {
	Type        string  `json:"type"`
	IsFinal     bool    `json:"is_final"`
	Duration    float64 `json:"duration"`
	Description string  `json:"description"`
	Channel     struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
			Words      []struct {
				Word       string  `json:"word"`
				Start      float64 `json:"start"`
				End        float64 `json:"end"`
				Confidence float64 `json:"confidence"`
			} `json:"words"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// receive collects the final results of the stream. It returns when
// Deepgram sends the stream metadata or closes the connection normally.
func receive(ctx context.Context, conn *websocket.Conn) (stt.Transcript, error) {
	var (
		tr    stt.Transcript
		texts []string
	)
	finish := func() stt.Transcript {
		tr.Text = strings.Join(texts, " ")
		return tr
	}

	for {
		_, msg, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return finish(), nil
			}
			return stt.Transcript{}, fmt.Errorf("deepgram: read: %w", err)
		}

		var resp response
		if err := json.Unmarshal(msg, &resp); err != nil {
			return stt.Transcript{}, fmt.Errorf("deepgram: decode message: %w", err)
		}

		switch resp.Type {
		case "Results":
			if !resp.IsFinal || len(resp.Channel.Alternatives) == 0 {
				continue
			}
			alt := resp.Channel.Alternatives[0]
			if t := strings.TrimSpace(alt.Transcript); t != "" {
				texts = append(texts, t)
			}
			for _, w := range alt.Words {
				tr.Words = append(tr.Words, stt.WordDetail{
					Word:       w.Word,
					Start:      seconds(w.Start),
					End:        seconds(w.End),
					Confidence: w.Confidence,
				})
			}
		case "Metadata":
			tr.Duration = seconds(resp.Duration)
			return finish(), nil
		case "Error":
			return stt.Transcript{}, fmt.Errorf("deepgram: %s", resp.Description)
		}
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
