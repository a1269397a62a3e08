package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"

	"github.com/emiliovps/ventia/internal/observe"
	"github.com/emiliovps/ventia/pkg/audio"
	"github.com/emiliovps/ventia/pkg/provider/stt"
)

// defaultStreamLanguage is used when the client does not pick one.
const defaultStreamLanguage = "es"

// transcriptResponse is the JSON shape of a transcription result, both for
// the batch endpoint and for realtime WebSocket messages.
type transcriptResponse struct {
	// Type is "partial" or "final" on the realtime socket, empty on the
	// batch endpoint.
	Type       string         `json:"type,omitempty"`
	Text       string         `json:"text"`
	Confidence float64        `json:"confidence,omitempty"`
	Language   string         `json:"language,omitempty"`
	DurationMs int64          `json:"duration_ms,omitempty"`
	Words      []wordResponse `json:"words,omitempty"`
}

type wordResponse struct {
	Word       string  `json:"word"`
	StartMs    int64   `json:"start_ms"`
	EndMs      int64   `json:"end_ms"`
	Confidence float64 `json:"confidence"`
}

func toTranscriptResponse(kind string, t stt.Transcript) transcriptResponse {
	resp := transcriptResponse{
		Type:       kind,
		Text:       t.Text,
		Confidence: t.Confidence,
		Language:   t.Language,
		DurationMs: t.Duration.Milliseconds(),
	}
	for _, w := range t.Words {
		resp.Words = append(resp.Words, wordResponse{
			Word:       w.Word,
			StartMs:    w.Start.Milliseconds(),
			EndMs:      w.End.Milliseconds(),
			Confidence: w.Confidence,
		})
	}
	return resp
}

// handleTranscribe accepts a multipart audio upload (field "file", optional
// "language") and returns the full transcript in one response.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if s.stt == nil {
		writeError(w, http.StatusServiceUnavailable, "no speech-to-text provider configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxAudioBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, `multipart field "file" is required`)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read uploaded audio")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "uploaded audio is empty")
		return
	}

	cfg := stt.StreamConfig{Language: r.FormValue("language")}

	start := time.Now()
	t, err := s.stt.Transcribe(r.Context(), data, cfg)
	if s.metrics != nil {
		s.metrics.STTDuration.Record(r.Context(), time.Since(start).Seconds())
		status := "ok"
		if err != nil {
			status = "error"
			s.metrics.RecordProviderError(r.Context(), providerName(s.stt), "stt")
		}
		s.metrics.RecordProviderRequest(r.Context(), providerName(s.stt), "stt", status)
	}
	if err != nil {
		logRequestError(r, "transcription failed", err)
		writeError(w, http.StatusBadGateway, "transcription failed")
		return
	}

	writeJSON(w, http.StatusOK, toTranscriptResponse("", t))
}

// realtimeControl is a text frame on the realtime socket. Binary frames are
// raw PCM audio; text frames steer the session.
type realtimeControl struct {
	// EOF asks the server to flush pending audio and finish the session.
	EOF bool `json:"eof"`

	// Keywords replaces the recognizer's vocabulary hint list, typically
	// the current product names. Ignored by providers without keyword
	// support.
	Keywords []string `json:"keywords"`
}

// handleRealtime upgrades to WebSocket and bridges the connection to a
// streaming transcription session. The client sends binary PCM frames and
// optional JSON control frames; the server pushes "partial" and "final"
// transcript messages as they arrive.
//
// The sample_rate and channels query parameters declare the client's capture
// format. Audio is normalized server side to the engine format, so the
// recognizer never sees the client rate.
func (s *Server) handleRealtime(w http.ResponseWriter, r *http.Request) {
	if s.stt == nil {
		writeError(w, http.StatusServiceUnavailable, "no speech-to-text provider configured")
		return
	}

	src := audio.Engine
	if v := r.URL.Query().Get("sample_rate"); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil || rate <= 0 {
			writeErrorf(w, http.StatusBadRequest, "invalid sample_rate %q", v)
			return
		}
		src.SampleRate = rate
	}
	if v := r.URL.Query().Get("channels"); v != "" {
		ch, err := strconv.Atoi(v)
		if err != nil || (ch != 1 && ch != 2) {
			writeErrorf(w, http.StatusBadRequest, "invalid channels %q, must be 1 or 2", v)
			return
		}
		src.Channels = ch
	}

	cfg := stt.StreamConfig{
		SampleRate: audio.Engine.SampleRate,
		Channels:   audio.Engine.Channels,
		Language:   defaultStreamLanguage,
	}
	if v := r.URL.Query().Get("language"); v != "" {
		cfg.Language = v
	}
	norm := &audio.Normalizer{Source: src, Target: audio.Engine}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return // Accept already wrote the error response
	}
	defer conn.CloseNow()

	ctx := r.Context()
	log := observe.Logger(ctx)

	sess, err := s.stt.StartStream(ctx, cfg)
	if err != nil {
		log.Error("realtime session start failed", "err", err)
		conn.Close(websocket.StatusInternalError, "transcription unavailable")
		return
	}
	defer sess.Close()

	if s.metrics != nil {
		s.metrics.ActiveStreams.Add(ctx, 1)
		defer s.metrics.ActiveStreams.Add(ctx, -1)
	}

	// Writer side: relay transcripts until both channels close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		partials, finals := sess.Partials(), sess.Finals()
		for partials != nil || finals != nil {
			select {
			case <-ctx.Done():
				return
			case t, ok := <-partials:
				if !ok {
					partials = nil
					continue
				}
				s.pushTranscript(ctx, conn, "partial", t)
			case t, ok := <-finals:
				if !ok {
					finals = nil
					continue
				}
				s.pushTranscript(ctx, conn, "final", t)
			}
		}
	}()

	// Reader side: audio in, control frames on the side.
readLoop:
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			break // client went away or sent a close frame
		}
		switch typ {
		case websocket.MessageBinary:
			pcm := norm.Normalize(data)
			if len(pcm) == 0 {
				continue
			}
			if err := sess.SendAudio(pcm); err != nil {
				log.Warn("audio forward failed", "err", err)
			}
		case websocket.MessageText:
			var ctl realtimeControl
			if err := json.Unmarshal(data, &ctl); err != nil {
				log.Debug("ignoring malformed control frame", "err", err)
				continue
			}
			if len(ctl.Keywords) > 0 {
				if err := sess.SetKeywords(ctl.Keywords); err != nil && !errors.Is(err, stt.ErrNotSupported) {
					log.Warn("keyword update failed", "err", err)
				}
			}
			if ctl.EOF {
				break readLoop
			}
		}
	}

	// Close flushes buffered audio; the relay goroutine drains the last
	// finals before its channels close.
	if err := sess.Close(); err != nil {
		log.Warn("session close failed", "err", err)
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

// pushTranscript sends one transcript message, logging write failures.
func (s *Server) pushTranscript(ctx context.Context, conn *websocket.Conn, kind string, t stt.Transcript) {
	b, err := json.Marshal(toTranscriptResponse(kind, t))
	if err != nil {
		return
	}
	if err := conn.Write(ctx, websocket.MessageText, b); err != nil {
		observe.Logger(ctx).Debug("transcript push failed", "err", err)
	}
}
