package stt

import "time"

// Transcript is one recognition result. Partial (interim) and final
// transcripts share this type; IsFinal tells them apart.
type Transcript struct {
	// Text is the recognized speech.
	Text string

	// IsFinal marks an authoritative result. Partials may be revised by
	// later messages on the same session.
	IsFinal bool

	// Confidence is the overall score in 0.0–1.0, zero when the engine
	// does not report one.
	Confidence float64

	// Language is the BCP-47 tag of the recognized language, when the provider
	// reports it. Vosk models are single-language; whisper-server detects.
	Language string

	// Words carries per-word timing when the engine emits it (vosk with
	// word output enabled). Nil otherwise.
	Words []WordDetail

	// Duration is the length of the transcribed audio, when the provider reports it.
	Duration time.Duration
}

// WordDetail is the timing and score of a single recognized word.
type WordDetail struct {
	Word       string
	Start      time.Duration
	End        time.Duration
	Confidence float64
}
