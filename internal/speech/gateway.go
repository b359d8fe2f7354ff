package speech

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/ElYoussoupha/TonToumaBot/internal/artifacts"
	"github.com/ElYoussoupha/TonToumaBot/internal/language"
	"github.com/ElYoussoupha/TonToumaBot/internal/observability/metrics"
	"github.com/ElYoussoupha/TonToumaBot/pkg/logging"
)

var gatewayTracer = otel.Tracer("tontouma.internal.speech")

// ErrTranscriptionFailed is returned when every transcriber in the chain
// has been exhausted.
var ErrTranscriptionFailed = errors.New("speech: all transcription providers failed")

// ErrSynthesisFailed is returned when every synthesizer in the chain has
// been exhausted.
var ErrSynthesisFailed = errors.New("speech: all synthesis providers failed")

// Gateway selects a language-specific provider chain for STT and TTS. A
// provider failure never raises past the gateway: callers either get a
// usable result from a fallback or one of the sentinel errors above.
type Gateway struct {
	bridgeSTT  Transcriber // bridge-language specialist, may be nil
	generalSTT Transcriber // guaranteed-available fallback for every language
	bridgeTTS  Synthesizer // may be nil
	generalTTS Synthesizer

	bridgeLang string
	store      artifacts.Store
	metrics    *metrics.ChatMetrics
	logger     *logging.Logger

	timeout time.Duration
	retries int
}

// GatewayConfig bundles the gateway's dependencies.
type GatewayConfig struct {
	BridgeTranscriber  Transcriber
	GeneralTranscriber Transcriber
	BridgeSynthesizer  Synthesizer
	GeneralSynthesizer Synthesizer
	BridgeLanguage     string
	Artifacts          artifacts.Store
	Metrics            *metrics.ChatMetrics
	Logger             *logging.Logger
	Timeout            time.Duration
	Retries            int
}

// NewGateway wires the provider chains. The general transcriber and
// synthesizer are required; the bridge specialists are optional.
func NewGateway(cfg GatewayConfig) *Gateway {
	if cfg.GeneralTranscriber == nil {
		panic("speech: general transcriber required")
	}
	if cfg.GeneralSynthesizer == nil {
		panic("speech: general synthesizer required")
	}
	if cfg.Artifacts == nil {
		panic("speech: artifact store required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = 2
	}
	return &Gateway{
		bridgeSTT:  cfg.BridgeTranscriber,
		generalSTT: cfg.GeneralTranscriber,
		bridgeTTS:  cfg.BridgeSynthesizer,
		generalTTS: cfg.GeneralSynthesizer,
		bridgeLang: cfg.BridgeLanguage,
		store:      cfg.Artifacts,
		metrics:    cfg.Metrics,
		logger:     logger.Named("speech"),
		timeout:    timeout,
		retries:    retries,
	}
}

// Transcribe converts audio to text and resolves the language it was spoken
// in. A forced language skips detection. For the bridge language the
// specialist provider is tried first, falling back to the general
// transcriber with a best-effort hint.
func (g *Gateway) Transcribe(ctx context.Context, audio []byte, forcedLang string) (string, string, error) {
	ctx, span := gatewayTracer.Start(ctx, "speech.transcribe")
	defer span.End()

	target := language.Normalize(forcedLang)
	var general *TranscriptionResult

	if target == "" || target == language.Auto {
		// No forced language: the general transcriber doubles as the
		// classifier, yielding text and detected language in one pass.
		res, err := g.transcribeWith(ctx, "whisper", g.generalSTT, audio, "")
		if err != nil {
			span.RecordError(err)
			return "", "", ErrTranscriptionFailed
		}
		general = &res
		target = res.Language
	}

	if target == g.bridgeLang && g.bridgeSTT != nil {
		res, err := g.transcribeWith(ctx, "lam", g.bridgeSTT, audio, "")
		if err == nil && res.Text != "" {
			return res.Text, target, nil
		}
		g.logger.Warn("bridge transcriber failed, falling back to general",
			"language", target,
			"error", errString(err),
		)
	}

	if general != nil {
		return general.Text, target, nil
	}

	// Forced-language path: single general call with a best-effort hint.
	// No valid hint means the general transcriber auto-detects internally.
	res, err := g.transcribeWith(ctx, "whisper", g.generalSTT, audio, WhisperHint(target))
	if err != nil {
		span.RecordError(err)
		return "", "", ErrTranscriptionFailed
	}
	return res.Text, target, nil
}

// Synthesize renders text to speech in the given language and stores the
// audio, returning the artifact reference.
func (g *Gateway) Synthesize(ctx context.Context, text, lang string) (string, error) {
	ctx, span := gatewayTracer.Start(ctx, "speech.synthesize")
	defer span.End()

	if lang == g.bridgeLang && g.bridgeTTS != nil {
		data, ext, err := g.synthesizeWith(ctx, "adia", g.bridgeTTS, text, lang)
		if err == nil {
			return g.store.Put(ctx, data, ext)
		}
		g.logger.Warn("bridge synthesizer failed, falling back to general",
			"language", lang,
			"error", err.Error(),
		)
	}

	data, ext, err := g.synthesizeWith(ctx, "openai", g.generalTTS, text, lang)
	if err != nil {
		span.RecordError(err)
		return "", ErrSynthesisFailed
	}
	return g.store.Put(ctx, data, ext)
}

func (g *Gateway) transcribeWith(ctx context.Context, name string, t Transcriber, audio []byte, hint string) (TranscriptionResult, error) {
	var res TranscriptionResult
	err := g.withRetry(ctx, func(callCtx context.Context) error {
		var err error
		res, err = t.Transcribe(callCtx, audio, hint)
		return err
	})
	status := "ok"
	if err != nil {
		status = "error"
	}
	g.metrics.ObserveProviderCall(name, "transcribe", status)
	return res, err
}

func (g *Gateway) synthesizeWith(ctx context.Context, name string, s Synthesizer, text, lang string) ([]byte, string, error) {
	var data []byte
	var ext string
	err := g.withRetry(ctx, func(callCtx context.Context) error {
		var err error
		data, ext, err = s.Synthesize(callCtx, text, lang)
		return err
	})
	status := "ok"
	if err != nil {
		status = "error"
	}
	g.metrics.ObserveProviderCall(name, "synthesize", status)
	return data, ext, err
}

// withRetry runs fn up to the retry budget, each attempt under its own
// timeout. The parent context cancels the whole budget.
func (g *Gateway) withRetry(ctx context.Context, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < g.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		err := fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func errString(err error) string {
	if err == nil {
		return "empty transcription"
	}
	return err.Error()
}
