// Package piper provides a Piper-backed TTS provider. It connects to a
// running Piper HTTP server (piper --http-server, or the rhasspy wyoming
// bridge's HTTP endpoint) which accepts a text query and responds with a
// complete WAV recording.
//
// The voice model is selected when the server is started (e.g.,
// es_ES-sharvard-medium or es_MX-ald-medium), so Voice.Name and
// Voice.Language are forwarded only as hints via query parameters that newer
// server builds understand and older ones ignore.
package piper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/emiliovps/ventia/pkg/provider/tts"
)

const defaultTimeout = 30 * time.Second

// Compile-time assertion that Provider implements tts.Provider.
var _ tts.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithSpeaker selects a speaker index within a multi-speaker voice model.
func WithSpeaker(id int) Option {
	return func(p *Provider) {
		p.speaker = &id
	}
}

// WithLengthScale sets the default phoneme length scale. Values above 1.0
// slow speech down, values below speed it up. Voice.Speed on a synthesis
// request takes precedence.
func WithLengthScale(scale float64) Option {
	return func(p *Provider) {
		p.lengthScale = scale
	}
}

// WithHTTPClient replaces the HTTP client used for synthesis requests.
// Intended for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// Provider implements tts.Provider backed by a Piper HTTP server.
type Provider struct {
	serverURL   string
	speaker     *int
	lengthScale float64
	httpClient  *http.Client
}

// New creates a new Provider that connects to the Piper server at serverURL
// (e.g., "http://localhost:5000"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("piper: serverURL must not be empty")
	}
	p := &Provider{
		serverURL:  serverURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Synthesize renders text through the Piper server and returns the WAV bytes.
func (p *Provider) Synthesize(ctx context.Context, text string, voice tts.Voice) ([]byte, error) {
	if text == "" {
		return nil, errors.New("piper: text must not be empty")
	}

	q := url.Values{}
	q.Set("text", text)
	if voice.Name != "" {
		q.Set("voice", voice.Name)
	}
	if p.speaker != nil {
		q.Set("speaker_id", strconv.Itoa(*p.speaker))
	}
	if scale := p.scaleFor(voice); scale > 0 {
		q.Set("length_scale", strconv.FormatFloat(scale, 'g', -1, 64))
	}

	endpoint := p.serverURL + "/?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("piper: create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("piper: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("piper: server returned HTTP %d", resp.StatusCode)
	}

	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("piper: read response body: %w", err)
	}
	if len(wav) == 0 {
		return nil, errors.New("piper: server returned empty audio")
	}
	return wav, nil
}

// scaleFor maps the requested voice speed onto Piper's length scale.
// Speed and length scale are inverse: faster speech means shorter phonemes.
func (p *Provider) scaleFor(voice tts.Voice) float64 {
	if voice.Speed > 0 {
		return 1 / voice.Speed
	}
	return p.lengthScale
}
