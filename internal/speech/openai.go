package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// whisperClient is the subset of the OpenAI client the transcriber uses.
type whisperClient interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// WhisperTranscriber is the general-purpose transcriber, available for
// every language. Verbose responses double as the language classifier.
type WhisperTranscriber struct {
	client whisperClient
	model  string
}

// NewWhisperTranscriber creates a Whisper-backed transcriber.
func NewWhisperTranscriber(client whisperClient, model string) *WhisperTranscriber {
	if client == nil {
		panic("speech: whisper client cannot be nil")
	}
	if model == "" {
		model = "whisper-1"
	}
	return &WhisperTranscriber{client: client, model: model}
}

func (t *WhisperTranscriber) Transcribe(ctx context.Context, audio []byte, langHint string) (TranscriptionResult, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: "audio.wav",
		Reader:   bytes.NewReader(audio),
		Language: langHint,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return TranscriptionResult{}, fmt.Errorf("speech: whisper transcription: %w", err)
	}
	return TranscriptionResult{
		Text:     resp.Text,
		Language: DetectedLanguage(resp.Language),
	}, nil
}

// speechClient is the subset of the OpenAI client the synthesizer uses.
type speechClient interface {
	CreateSpeech(ctx context.Context, request openai.CreateSpeechRequest) (openai.RawResponse, error)
}

// OpenAISynthesizer is the general-purpose synthesizer used for every
// non-bridge language and as the bridge fallback.
type OpenAISynthesizer struct {
	client speechClient
	model  string
	voice  string
}

// NewOpenAISynthesizer creates a TTS synthesizer.
func NewOpenAISynthesizer(client speechClient, model, voice string) *OpenAISynthesizer {
	if client == nil {
		panic("speech: tts client cannot be nil")
	}
	if model == "" {
		model = "tts-1"
	}
	if voice == "" {
		voice = "alloy"
	}
	return &OpenAISynthesizer{client: client, model: model, voice: voice}
}

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text, _ string) ([]byte, string, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.SpeechModel(s.model),
		Input: text,
		Voice: openai.SpeechVoice(s.voice),
	})
	if err != nil {
		return nil, "", fmt.Errorf("speech: tts: %w", err)
	}
	defer func() { _ = resp.Close() }()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, "", fmt.Errorf("speech: read tts audio: %w", err)
	}
	if len(data) == 0 {
		return nil, "", errors.New("speech: tts returned empty audio")
	}
	return data, ".mp3", nil
}
