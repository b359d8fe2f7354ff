// Package language decides which language a request is handled in.
//
// Three cascading sources feed the decision: an explicit per-request
// override, a process-wide operator override, and automatic detection.
package language

import "strings"

// Auto is the sentinel meaning "no override, detect the language".
const Auto = "auto"

// Supported short codes accepted by the router.
var Supported = []string{"wo", "fr", "en", "ar", "es"}

// synonyms collapses spelled-out language names into short codes.
var synonyms = map[string]string{
	"wolof":    "wo",
	"français": "fr",
	"francais": "fr",
	"french":   "fr",
	"english":  "en",
	"anglais":  "en",
	"arabe":    "ar",
	"arabic":   "ar",
	"espagnol": "es",
	"spanish":  "es",
	"none":     Auto,
}

// Normalize lowercases, trims and collapses synonyms into short codes.
// Unknown values pass through unchanged.
func Normalize(code string) string {
	c := strings.ToLower(strings.TrimSpace(code))
	if mapped, ok := synonyms[c]; ok {
		return mapped
	}
	return c
}

// Resolve picks the effective language for a request.
//
// A non-empty, non-"auto" per-request override wins; otherwise a set global
// override wins; otherwise the detected language is used. Normalization is
// applied after selection.
func Resolve(perRequest, global, detected string) string {
	if v := Normalize(perRequest); v != "" && v != Auto {
		return v
	}
	if v := Normalize(global); v != "" && v != Auto {
		return v
	}
	return Normalize(detected)
}
