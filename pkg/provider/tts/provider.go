// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider wraps a speech synthesis engine (e.g., a local Piper HTTP
// server) and renders spoken confirmations of interpreted commands — "venta
// registrada: dos onigiris con yape". Synthesis is one-shot: the confirmation
// phrases are short, so there is no streaming surface.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// Voice describes the voice configuration for a synthesis request.
type Voice struct {
	// Name is the provider-specific voice identifier (e.g., a Piper speaker
	// name). Empty selects the provider's default voice.
	Name string

	// Language is the BCP-47 tag of the desired voice (e.g., "es-PE"). Ignored
	// by providers whose voice is fixed server-side.
	Language string

	// Speed adjusts speaking rate (0.5–2.0, 1.0 = default, 0 = default).
	Speed float64
}

// Provider is the abstraction over any TTS backend.
//
// Implementations must be safe for concurrent use; multiple synthesis requests
// may run in parallel.
type Provider interface {
	// Synthesize renders text as audio and returns the complete encoded
	// recording (container format is provider-specific; Piper returns WAV).
	//
	// Returns an error if the engine is unreachable, the voice is unknown, or
	// ctx is cancelled before synthesis completes. An empty text input is an
	// error rather than an empty recording.
	Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error)
}
