package speech

import (
	"strings"

	"github.com/ElYoussoupha/TonToumaBot/internal/language"
)

// whisperNameToCode maps the spelled-out language names Whisper reports in
// verbose transcription results into the router's code vocabulary.
var whisperNameToCode = map[string]string{
	"french":  "fr",
	"wolof":   "wo",
	"english": "en",
	"arabic":  "ar",
	"spanish": "es",
}

// DetectedLanguage maps a classifier output (name or code) into router
// vocabulary. Unknown values normalize through the router so "Français"
// still collapses to "fr".
func DetectedLanguage(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	if code, ok := whisperNameToCode[name]; ok {
		return code
	}
	return language.Normalize(name)
}

// whisperHints translates router codes into the ISO-639-1 hints the general
// transcriber accepts. Wolof has no valid hint; the general transcriber
// auto-detects internally in that case.
var whisperHints = map[string]string{
	"fr": "fr",
	"en": "en",
	"ar": "ar",
	"es": "es",
}

// WhisperHint returns the best-effort hint for a router code, or "" when no
// valid hint exists.
func WhisperHint(code string) string {
	return whisperHints[code]
}
