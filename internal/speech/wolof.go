package speech

import (
	"context"

	"github.com/ElYoussoupha/TonToumaBot/internal/lam"
)

// WolofTranscriber is the bridge-language-specialized STT provider. It is
// tried first for Wolof audio; the gateway falls back to the general
// transcriber when it fails.
type WolofTranscriber struct {
	client *lam.Client
}

// NewWolofTranscriber wraps the LAfricaMobile client.
func NewWolofTranscriber(client *lam.Client) *WolofTranscriber {
	if client == nil {
		panic("speech: lam client cannot be nil")
	}
	return &WolofTranscriber{client: client}
}

func (t *WolofTranscriber) Transcribe(ctx context.Context, audio []byte, _ string) (TranscriptionResult, error) {
	text, err := t.client.Transcribe(ctx, audio, "wolof")
	if err != nil {
		return TranscriptionResult{}, err
	}
	return TranscriptionResult{Text: text, Language: "wo"}, nil
}

// WolofSynthesizer is the ADIA TTS provider for Wolof output.
type WolofSynthesizer struct {
	client *lam.Client
}

// NewWolofSynthesizer wraps the LAfricaMobile client.
func NewWolofSynthesizer(client *lam.Client) *WolofSynthesizer {
	if client == nil {
		panic("speech: lam client cannot be nil")
	}
	return &WolofSynthesizer{client: client}
}

func (s *WolofSynthesizer) Synthesize(ctx context.Context, text, _ string) ([]byte, string, error) {
	data, err := s.client.Synthesize(ctx, text, "wolof")
	if err != nil {
		return nil, "", err
	}
	return data, ".wav", nil
}
