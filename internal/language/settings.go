package language

import "sync/atomic"

// Settings holds the process-wide forced language. It is constructed once at
// startup and injected into the orchestration entry point; the admin surface
// writes it, request handling reads a snapshot once at request start.
//
// Reads and writes are simple atomic assignments with last-write-wins
// semantics; a long-running request keeps the snapshot it started with.
type Settings struct {
	forced atomic.Value // string, "" means auto-detect
}

// NewSettings creates the settings holder. The initial value may be a
// language name; it is normalized. "auto" (or empty) means auto-detect.
func NewSettings(initial string) *Settings {
	s := &Settings{}
	s.SetGlobalLanguage(initial)
	return s
}

// GlobalLanguage returns the current forced language, or "" when the router
// should fall back to detection.
func (s *Settings) GlobalLanguage() string {
	v, _ := s.forced.Load().(string)
	return v
}

// SetGlobalLanguage replaces the forced language. "auto", "none" or empty
// resets to auto-detect.
func (s *Settings) SetGlobalLanguage(code string) {
	c := Normalize(code)
	if c == Auto {
		c = ""
	}
	s.forced.Store(c)
}
