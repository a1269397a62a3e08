package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/emiliovps/ventia/internal/interpret"
	"github.com/emiliovps/ventia/internal/sales"
)

// interpretRequest is the body of POST /nlp/interpret and POST /nlp/sale.
// Candidates entries may be plain strings, {id,name} objects, or [id,name]
// pairs; clients built against the earlier API versions send all three.
type interpretRequest struct {
	Text       string            `json:"text"`
	Candidates []json.RawMessage `json:"candidates"`
}

// handleInterpret runs the interpretation pipeline over one utterance and
// returns the structured result without side effects.
func (s *Server) handleInterpret(w http.ResponseWriter, r *http.Request) {
	res, ok := s.interpretRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleVoiceSale interprets an utterance and, when the interpreter bound a
// product with enough confidence, records the sale in one step. Ambiguous
// interpretations come back as 409 with the candidate list so the client
// can confirm and retry through POST /api/sales.
func (s *Server) handleVoiceSale(w http.ResponseWriter, r *http.Request) {
	res, ok := s.interpretRequest(w, r)
	if !ok {
		return
	}

	sale, err := s.sales.CreateFromResult(r.Context(), res)
	if err != nil {
		switch {
		case errors.Is(err, sales.ErrNeedsConfirmation):
			writeJSON(w, http.StatusConflict, struct {
				Error  string           `json:"error"`
				Result interpret.Result `json:"result"`
			}{Error: "interpretation needs confirmation", Result: res})
		case errors.Is(err, sales.ErrNotSaleIntent):
			writeJSON(w, http.StatusUnprocessableEntity, struct {
				Error  string           `json:"error"`
				Result interpret.Result `json:"result"`
			}{Error: "utterance does not describe a sale", Result: res})
		case errors.Is(err, sales.ErrUnknownProduct), errors.Is(err, sales.ErrNoPrice):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			logRequestError(r, "voice sale failed", err)
			writeError(w, http.StatusInternalServerError, "could not record sale")
		}
		return
	}

	if s.metrics != nil {
		s.metrics.RecordSale(r.Context(), sale.PaymentMethod)
	}
	writeJSON(w, http.StatusCreated, struct {
		Sale   sales.Sale       `json:"sale"`
		Result interpret.Result `json:"result"`
	}{Sale: sale, Result: res})
}

// interpretRequest decodes the shared request body and runs the pipeline.
// On failure it writes the error response and returns ok=false.
func (s *Server) interpretRequest(w http.ResponseWriter, r *http.Request) (interpret.Result, bool) {
	var req interpretRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return interpret.Result{}, false
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text must not be empty")
		return interpret.Result{}, false
	}
	local, err := parseCandidates(req.Candidates)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return interpret.Result{}, false
	}

	start := time.Now()
	res := s.interpreter.Interpret(r.Context(), req.Text, local)
	if s.metrics != nil {
		s.metrics.InterpretDuration.Record(r.Context(), time.Since(start).Seconds())
		s.metrics.RecordInterpretation(r.Context(), string(res.Intent), outcomeOf(res))
	}
	return res, true
}

// parseCandidates normalizes the three accepted candidate shapes into
// [interpret.Candidate] values. A nil or empty list is fine.
func parseCandidates(raw []json.RawMessage) ([]interpret.Candidate, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]interpret.Candidate, 0, len(raw))
	for i, entry := range raw {
		c, err := parseCandidate(entry)
		if err != nil {
			return nil, fmt.Errorf("candidates[%d]: %w", i, err)
		}
		if c.Name == "" {
			continue // nothing to match against
		}
		out = append(out, c)
	}
	return out, nil
}

func parseCandidate(raw json.RawMessage) (interpret.Candidate, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return interpret.Candidate{Name: name}, nil
	}

	var obj struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return interpret.Candidate{ID: obj.ID, Name: obj.Name}, nil
	}

	var pair []string
	if err := json.Unmarshal(raw, &pair); err == nil {
		switch len(pair) {
		case 1:
			return interpret.Candidate{Name: pair[0]}, nil
		case 2:
			return interpret.Candidate{ID: pair[0], Name: pair[1]}, nil
		default:
			return interpret.Candidate{}, errors.New("pair form must be [id, name]")
		}
	}

	return interpret.Candidate{}, errors.New("must be a string, an {id,name} object, or an [id,name] pair")
}

// outcomeOf labels an interpretation for the commands counter.
func outcomeOf(res interpret.Result) string {
	if res.Intent != interpret.IntentCreateSale {
		return "auto"
	}
	switch {
	case !res.NeedsConfirmation:
		return "auto"
	case len(res.Candidates) > 0:
		return "confirm"
	default:
		return "unresolved"
	}
}

// ttsRequest is the body of POST /nlp/tts.
type ttsRequest struct {
	Text  string `json:"text"`
	Voice struct {
		Name     string  `json:"name"`
		Language string  `json:"language"`
		Speed    float64 `json:"speed"`
	} `json:"voice"`
}

// handleTTS synthesizes speech for the given text and streams the audio
// back. The response body is the provider's native container, WAV for
// piper.
func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	if s.tts == nil {
		writeError(w, http.StatusServiceUnavailable, "no text-to-speech provider configured")
		return
	}

	var req ttsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text must not be empty")
		return
	}

	voice := s.ttsVoice
	if req.Voice.Name != "" {
		voice.Name = req.Voice.Name
	}
	if req.Voice.Language != "" {
		voice.Language = req.Voice.Language
	}
	if req.Voice.Speed > 0 {
		voice.Speed = req.Voice.Speed
	}

	start := time.Now()
	audio, err := s.tts.Synthesize(r.Context(), req.Text, voice)
	if s.metrics != nil {
		s.metrics.TTSDuration.Record(r.Context(), time.Since(start).Seconds())
		status := "ok"
		if err != nil {
			status = "error"
			s.metrics.RecordProviderError(r.Context(), providerName(s.tts), "tts")
		}
		s.metrics.RecordProviderRequest(r.Context(), providerName(s.tts), "tts", status)
	}
	if err != nil {
		logRequestError(r, "synthesis failed", err)
		writeError(w, http.StatusBadGateway, "speech synthesis failed")
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

// providerName labels a provider for metrics. Providers are not required
// to expose a name, so this is best-effort by concrete type.
func providerName(p any) string {
	if n, ok := p.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", p)
}
