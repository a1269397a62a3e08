// Package vosk provides a vosk-server-backed STT provider using the vosk
// WebSocket protocol. It implements the stt.Provider interface.
//
// The server side is alphacephei's vosk-server started with a Spanish model
// (e.g., vosk-model-small-es-0.42). The client sends an initial configuration
// message, streams raw 16-bit PCM audio as binary frames, and receives JSON
// results: {"partial": "..."} for interim hypotheses and {"text": "...",
// "result": [...]} for committed segments.
package vosk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/emiliovps/ventia/pkg/provider/stt"
)

const (
	defaultSampleRate = 16000

	// batchChunkSize is the PCM slice size used by Transcribe when replaying a
	// recording into the recognizer.
	batchChunkSize = 4000
)

// eofMessage asks the server to flush buffered audio and emit a last final.
var eofMessage = []byte(`{"eof" : 1}`)

// Compile-time assertion that Provider implements stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// Option is a functional option for configuring the vosk Provider.
type Option func(*Provider)

// WithSampleRate sets the audio sample rate in Hz for the provider-level
// default. Defaults to 16000.
func WithSampleRate(rate int) Option {
	return func(p *Provider) {
		p.sampleRate = rate
	}
}

// WithKeywords sets the default vocabulary hint list sent with every session's
// configuration message. Session-level keywords from StreamConfig take
// precedence.
func WithKeywords(keywords []string) Option {
	return func(p *Provider) {
		p.keywords = keywords
	}
}

// Provider implements stt.Provider backed by a vosk-server instance.
type Provider struct {
	serverURL  string
	sampleRate int
	keywords   []string
}

// New creates a new vosk Provider. serverURL is the WebSocket endpoint of the
// vosk-server (e.g., "ws://localhost:2700") and must be non-empty.
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("vosk: serverURL must not be empty")
	}
	p := &Provider{
		serverURL:  serverURL,
		sampleRate: defaultSampleRate,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Transcribe performs one-shot recognition by replaying the recording through
// a short-lived streaming session. audio must be 16-bit little-endian PCM; a
// PCM WAV container is accepted and its header is skipped.
func (p *Provider) Transcribe(ctx context.Context, audio []byte, cfg stt.StreamConfig) (stt.Transcript, error) {
	pcm := stripWAVHeader(audio)
	if len(pcm) == 0 {
		return stt.Transcript{}, errors.New("vosk: empty audio")
	}

	handle, err := p.StartStream(ctx, cfg)
	if err != nil {
		return stt.Transcript{}, err
	}
	defer handle.Close()

	for off := 0; off < len(pcm); off += batchChunkSize {
		end := off + batchChunkSize
		if end > len(pcm) {
			end = len(pcm)
		}
		if err := handle.SendAudio(pcm[off:end]); err != nil {
			return stt.Transcript{}, fmt.Errorf("vosk: send audio: %w", err)
		}
	}

	// Close flushes the recognizer and closes the Finals channel once the
	// last result has been read.
	if err := handle.Close(); err != nil {
		return stt.Transcript{}, err
	}

	var (
		parts []string
		words []stt.WordDetail
	)
	for t := range handle.Finals() {
		if t.Text != "" {
			parts = append(parts, t.Text)
		}
		words = append(words, t.Words...)
	}

	out := stt.Transcript{
		Text:    strings.Join(parts, " "),
		IsFinal: true,
		Words:   words,
	}
	if n := len(words); n > 0 {
		var sum float64
		for _, w := range words {
			sum += w.Confidence
		}
		out.Confidence = sum / float64(n)
	}
	return out, nil
}

// StartStream opens a streaming recognition session against the vosk-server.
// It respects cfg.SampleRate and cfg.Keywords; cfg.Language is ignored because
// the language is fixed by the model the server was started with.
func (p *Provider) StartStream(ctx context.Context, cfg stt.StreamConfig) (stt.SessionHandle, error) {
	conn, _, err := websocket.Dial(ctx, p.serverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("vosk: dial: %w", err)
	}

	sr := cfg.SampleRate
	if sr <= 0 {
		sr = p.sampleRate
	}
	kw := cfg.Keywords
	if len(kw) == 0 {
		kw = p.keywords
	}

	confMsg, err := configMessage(sr, kw)
	if err != nil {
		conn.Close(websocket.StatusInternalError, "config encode failed")
		return nil, fmt.Errorf("vosk: encode config: %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, confMsg); err != nil {
		conn.Close(websocket.StatusInternalError, "config write failed")
		return nil, fmt.Errorf("vosk: send config: %w", err)
	}

	sess := &session{
		conn:       conn,
		sampleRate: sr,
		partials:   make(chan stt.Transcript, 64),
		finals:     make(chan stt.Transcript, 64),
		audio:      make(chan []byte, 256),
		done:       make(chan struct{}),
	}

	sess.wg.Add(2)
	go sess.readLoop(ctx)
	go sess.writeLoop(ctx)

	return sess, nil
}

// configMessage builds the initial {"config": ...} message for a session.
func configMessage(sampleRate int, keywords []string) ([]byte, error) {
	conf := map[string]any{
		"sample_rate": sampleRate,
		"words":       true,
	}
	if len(keywords) > 0 {
		conf["phrase_list"] = keywords
	}
	return json.Marshal(map[string]any{"config": conf})
}

// ---- session ----

// voskResult is the JSON structure emitted by vosk-server. Partial results
// carry only the Partial field; committed segments carry Text and Result.
type voskResult struct {
	Partial string `json:"partial"`
	Text    string `json:"text"`
	Result  []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Conf  float64 `json:"conf"`
	} `json:"result"`
}

// session is a live vosk streaming session. It implements stt.SessionHandle.
type session struct {
	conn       *websocket.Conn
	sampleRate int
	partials   chan stt.Transcript
	finals     chan stt.Transcript
	audio      chan []byte

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// SendAudio queues a PCM audio chunk for delivery to the recognizer.
func (s *session) SendAudio(chunk []byte) error {
	select {
	case <-s.done:
		return errors.New("vosk: session is closed")
	default:
	}
	select {
	case s.audio <- chunk:
		return nil
	case <-s.done:
		return errors.New("vosk: session is closed")
	}
}

// Partials returns the channel of interim transcripts.
func (s *session) Partials() <-chan stt.Transcript { return s.partials }

// Finals returns the channel of committed transcripts.
func (s *session) Finals() <-chan stt.Transcript { return s.finals }

// SetKeywords sends a fresh configuration message carrying the new phrase
// list. The recognizer applies it to subsequent audio on a best-effort basis.
func (s *session) SetKeywords(keywords []string) error {
	select {
	case <-s.done:
		return errors.New("vosk: session is closed")
	default:
	}
	msg, err := configMessage(s.sampleRate, keywords)
	if err != nil {
		return fmt.Errorf("vosk: encode config: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.conn.Write(ctx, websocket.MessageText, msg); err != nil {
		return fmt.Errorf("vosk: send config: %w", err)
	}
	return nil
}

// Close terminates the session cleanly. It asks the server to flush pending
// audio, waits for the read loop to drain the last final, and closes the
// connection.
func (s *session) Close() error {
	s.once.Do(func() {
		close(s.done)
		// Ask the server to flush; the read loop exits when the connection
		// winds down.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = s.conn.Write(ctx, websocket.MessageText, eofMessage)
		cancel()
		s.wg.Wait()
		s.conn.Close(websocket.StatusNormalClosure, "session closed")
	})
	return nil
}

// writeLoop reads from the audio channel and sends binary frames to the server.
func (s *session) writeLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case chunk, ok := <-s.audio:
			if !ok {
				return
			}
			if err := s.conn.Write(ctx, websocket.MessageBinary, chunk); err != nil {
				return
			}
		case <-s.done:
			// Drain the audio channel before exiting.
			for {
				select {
				case chunk, ok := <-s.audio:
					if !ok {
						return
					}
					_ = s.conn.Write(ctx, websocket.MessageBinary, chunk)
				default:
					return
				}
			}
		}
	}
}

// readLoop receives JSON messages from the server and dispatches them to the
// partials and finals channels.
func (s *session) readLoop(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.partials)
	defer close(s.finals)

	for {
		_, msg, err := s.conn.Read(ctx)
		if err != nil {
			// Normal close or context cancellation — exit gracefully.
			return
		}

		t, ok := parseResult(msg)
		if !ok {
			continue
		}

		if t.IsFinal {
			select {
			case s.finals <- t:
			default:
			}
		} else {
			select {
			case s.partials <- t:
			default:
			}
		}
	}
}

// parseResult parses a raw vosk-server message into a Transcript.
// Returns (Transcript, true) on success, or (zero, false) if the message
// should be ignored (empty partials, malformed JSON).
func parseResult(data []byte) (stt.Transcript, bool) {
	var res voskResult
	if err := json.Unmarshal(data, &res); err != nil {
		return stt.Transcript{}, false
	}

	if len(res.Result) > 0 || res.Text != "" {
		words := make([]stt.WordDetail, 0, len(res.Result))
		var sum float64
		for _, w := range res.Result {
			words = append(words, stt.WordDetail{
				Word:       w.Word,
				Start:      time.Duration(w.Start * float64(time.Second)),
				End:        time.Duration(w.End * float64(time.Second)),
				Confidence: w.Conf,
			})
			sum += w.Conf
		}
		t := stt.Transcript{
			Text:    strings.TrimSpace(res.Text),
			IsFinal: true,
			Words:   words,
		}
		if len(words) > 0 {
			t.Confidence = sum / float64(len(words))
			t.Duration = words[len(words)-1].End - words[0].Start
		}
		return t, true
	}

	if p := strings.TrimSpace(res.Partial); p != "" {
		return stt.Transcript{Text: p}, true
	}
	return stt.Transcript{}, false
}

// stripWAVHeader returns the PCM payload of a RIFF/WAV container, or the input
// unchanged when it does not start with a RIFF header. Only the canonical
// 44-byte PCM header layout is handled; the data sub-chunk is located by
// scanning for its marker.
func stripWAVHeader(audio []byte) []byte {
	if len(audio) < 44 || !bytes.HasPrefix(audio, []byte("RIFF")) {
		return audio
	}
	idx := bytes.Index(audio, []byte("data"))
	if idx < 0 || idx+8 > len(audio) {
		return audio
	}
	return audio[idx+8:]
}
