// Package stt defines the Provider interface for Speech-to-Text backends.
//
// An STT provider wraps a transcription engine (a local whisper-server, a
// vosk-server instance) and exposes two uniform entry points: Transcribe for
// one-shot recognition of a complete recording, and StartStream for real-time
// recognition of live microphone audio. The central streaming abstraction is
// SessionHandle: once opened, a session accepts raw PCM audio frames and emits
// two streams of Transcript values — low-latency partials for driving the
// seller's screen and authoritative finals that are handed to the intent
// interpreter.
//
// Implementations must be safe for concurrent use. Audio input and transcript
// output channels are goroutine-safe by construction.
package stt

import (
	"context"
	"errors"
)

// ErrNotSupported is returned by providers for optional capabilities they do
// not implement, such as mid-session vocabulary updates.
var ErrNotSupported = errors.New("stt: operation not supported by this provider")

// StreamConfig describes the audio format and recognition hints for a new STT
// session. All fields must be compatible with what the underlying provider
// supports; see each provider's documentation for valid ranges.
type StreamConfig struct {
	// SampleRate is the audio sample rate in Hz. Recognizers are typically run
	// at 16000 Hz mono.
	SampleRate int

	// Channels is the number of audio channels. 1 = mono (required by most STT
	// engines). Implementors may downmix stereo internally.
	Channels int

	// Language is the BCP-47 language tag for recognition (e.g., "es", "es-PE").
	// An empty string keeps the provider's configured default.
	Language string

	// Keywords is a list of vocabulary hints that increase recognition
	// probability for uncommon words such as product names from the shop's
	// catalog ("onigiri", "chicha morada"). Providers without a vocabulary API
	// ignore the list.
	Keywords []string
}

// SessionHandle represents an open STT streaming session. It is an interface so
// that test code can provide mock implementations without requiring a live
// recognizer connection.
//
// Callers must call Close when the session is no longer needed. Failing to do so
// may leak goroutines and network connections inside the provider implementation.
// All methods must be safe for concurrent use.
type SessionHandle interface {
	// SendAudio delivers a chunk of raw PCM audio bytes to the provider for
	// transcription. The chunk should match the SampleRate, Channels, and
	// bit-depth agreed in StreamConfig. Calling SendAudio after Close returns
	// an error.
	SendAudio(chunk []byte) error

	// Partials returns a read-only channel that emits low-latency interim
	// Transcript values as the recognizer makes preliminary guesses. These are
	// suitable for echoing live text back to the client but must not be fed to
	// the interpreter. The channel is closed when the session ends.
	Partials() <-chan Transcript

	// Finals returns a read-only channel that emits authoritative Transcript
	// values once the recognizer has committed to a result. These are the
	// values that are passed to the intent interpreter.
	// The channel is closed when the session ends.
	Finals() <-chan Transcript

	// SetKeywords replaces the active vocabulary hint list without restarting
	// the session. Providers that do not support mid-session vocabulary updates
	// return an error wrapping ErrNotSupported. Changes take effect on a
	// best-effort basis; already-buffered audio frames may still use the
	// previous vocabulary.
	SetKeywords(keywords []string) error

	// Close terminates the session, flushes any pending audio, and releases all
	// associated resources. After Close returns, the Partials and Finals
	// channels will be closed. Calling Close more than once is safe and
	// returns nil.
	Close() error
}

// Provider is the abstraction over any STT backend.
//
// Implementations must be safe for concurrent use. Multiple sessions may be
// open simultaneously (e.g., several sellers dictating at once).
type Provider interface {
	// Transcribe performs one-shot recognition of a complete recording. audio
	// holds the encoded recording bytes; the accepted container formats are
	// provider-specific (whisper-server decodes WAV itself, vosk requires
	// 16-bit PCM or PCM WAV). cfg supplies the audio format and recognition
	// hints; zero values fall back to the provider's defaults.
	//
	// The returned Transcript always has IsFinal set.
	Transcribe(ctx context.Context, audio []byte, cfg StreamConfig) (Transcript, error)

	// StartStream opens a new streaming transcription session with the given
	// audio format and recognition configuration. The returned SessionHandle is
	// ready to accept audio immediately.
	//
	// Returns an error if the provider cannot establish the session (e.g.,
	// unreachable recognizer, unsupported configuration, or ctx already
	// cancelled). The caller owns the SessionHandle and must call Close when
	// done.
	StartStream(ctx context.Context, cfg StreamConfig) (SessionHandle, error)
}
