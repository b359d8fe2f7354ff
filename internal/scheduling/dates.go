package scheduling

import (
	"strings"
	"time"
)

const isoDate = "2006-01-02"

var weekdayNames = map[string]time.Weekday{
	"lundi":     time.Monday,
	"mardi":     time.Tuesday,
	"mercredi":  time.Wednesday,
	"jeudi":     time.Thursday,
	"vendredi":  time.Friday,
	"samedi":    time.Saturday,
	"dimanche":  time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// NormalizeDate resolves a natural-language date phrase into an ISO
// calendar date relative to now. Recognized phrases: "aujourd'hui"/"today",
// "demain"/"tomorrow", "après-demain"/"day after tomorrow", weekday names
// (French or English) with an optional "prochain"/"next" modifier that
// rolls the match into the following week, and ISO dates, which pass
// through. Anything else is returned unchanged with ok=false so the caller
// can ask for clarification.
func NormalizeDate(phrase string, now time.Time) (string, bool) {
	raw := strings.TrimSpace(phrase)
	p := strings.ToLower(raw)
	p = strings.ReplaceAll(p, "’", "'")

	if t, err := time.Parse(isoDate, raw); err == nil {
		return t.Format(isoDate), true
	}

	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	switch p {
	case "aujourd'hui", "aujourdhui", "today":
		return now.Format(isoDate), true
	case "demain", "tomorrow":
		return today.AddDate(0, 0, 1).Format(isoDate), true
	case "après-demain", "apres-demain", "après demain", "apres demain", "day after tomorrow":
		return today.AddDate(0, 0, 2).Format(isoDate), true
	}

	words := strings.Fields(p)
	next := false
	var day time.Weekday
	found := false
	for _, w := range words {
		if w == "prochain" || w == "prochaine" || w == "next" {
			next = true
			continue
		}
		if d, ok := weekdayNames[w]; ok {
			day = d
			found = true
		}
	}
	if !found {
		return raw, false
	}

	ahead := (int(day) - int(now.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	if next {
		ahead += 7
	}
	return today.AddDate(0, 0, ahead).Format(isoDate), true
}
