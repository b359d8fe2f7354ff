// Package speech routes speech-to-text and text-to-speech through
// language-specific provider chains with automatic fallback.
package speech

import "context"

// TranscriptionResult is what a transcriber returns. Language is the
// provider's detected language, already mapped into router vocabulary when
// the provider reports one; it is empty when the provider cannot tell.
type TranscriptionResult struct {
	Text     string
	Language string
}

// Transcriber converts audio into text. langHint is a best-effort hint in
// the provider's accepted code space; providers auto-detect when it is
// empty.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, langHint string) (TranscriptionResult, error)
}

// Synthesizer renders text into audio bytes, returning the data and its
// file extension.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, string, error)
}
