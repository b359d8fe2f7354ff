// Package translate implements the bridge between the deployment's bridge
// language (Wolof) and the model's processing language (French).
package translate

import (
	"context"

	"github.com/ElYoussoupha/TonToumaBot/pkg/logging"
)

// Translator is the external translation capability the bridge delegates to.
type Translator interface {
	Translate(ctx context.Context, text, toLang string) (string, error)
}

// providerLang maps router short codes into the provider's language names.
var providerLang = map[string]string{
	"wo": "wolof",
	"fr": "french",
}

// Bridge translates inbound text into the processing language and outbound
// replies back into the bridge language. A provider failure falls back to
// the original text unmodified; the bridge never returns an error.
type Bridge struct {
	translator Translator
	cache      *Cache
	bridgeLang string
	workLang   string
	logger     *logging.Logger
}

// NewBridge creates a bridge for bridgeLang <-> workLang. The cache is
// optional.
func NewBridge(translator Translator, cache *Cache, bridgeLang, workLang string, logger *logging.Logger) *Bridge {
	if translator == nil {
		panic("translate: translator cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Bridge{
		translator: translator,
		cache:      cache,
		bridgeLang: bridgeLang,
		workLang:   workLang,
		logger:     logger.Named("translate"),
	}
}

// Active reports whether the bridge applies to the given effective language.
func (b *Bridge) Active(lang string) bool {
	return lang == b.bridgeLang
}

// BridgeLanguage returns the code of the designated bridge language.
func (b *Bridge) BridgeLanguage() string { return b.bridgeLang }

// ToProcessing translates bridge-language text into the processing language.
func (b *Bridge) ToProcessing(ctx context.Context, text string) string {
	return b.translate(ctx, text, b.workLang)
}

// ToDisplay translates processing-language text back into the bridge
// language for display and audio rendering.
func (b *Bridge) ToDisplay(ctx context.Context, text string) string {
	return b.translate(ctx, text, b.bridgeLang)
}

func (b *Bridge) translate(ctx context.Context, text, toLang string) string {
	if text == "" {
		return text
	}
	if b.cache != nil {
		if cached, ok := b.cache.Get(ctx, toLang, text); ok {
			return cached
		}
	}

	target := providerLang[toLang]
	if target == "" {
		target = toLang
	}
	out, err := b.translator.Translate(ctx, text, target)
	if err != nil {
		b.logger.Warn("translation failed, keeping original text",
			"to_lang", toLang,
			"error", err.Error(),
		)
		return text
	}
	if b.cache != nil {
		b.cache.Put(ctx, toLang, text, out)
	}
	return out
}
