package scheduling

import "time"

// Overlaps reports whether two half-open intervals [s1,e1) and [s2,e2)
// conflict. Adjacent intervals do not overlap.
func Overlaps(s1, e1, s2, e2 TimeOfDay) bool {
	return s1 < e2 && s2 < e1
}

// conflictsWithAny reports whether the candidate interval overlaps any of
// the existing intervals.
func conflictsWithAny(candidate Interval, existing []Interval) bool {
	for _, e := range existing {
		if Overlaps(candidate.Start, candidate.End, e.Start, e.End) {
			return true
		}
	}
	return false
}

// ApplicableWindows returns the active windows that apply to date: a
// recurring window applies when its weekday matches, a one-off window when
// its date matches exactly.
func ApplicableWindows(windows []TimeWindow, date time.Time) []TimeWindow {
	var out []TimeWindow
	for _, w := range windows {
		if !w.Active {
			continue
		}
		if w.Recurring {
			if w.Weekday == date.Weekday() {
				out = append(out, w)
			}
			continue
		}
		if sameDate(w.SpecificDate, date) {
			out = append(out, w)
		}
	}
	return out
}

// FreeSlots walks a window forward in fixed increments of durationMinutes,
// from the window start until the next increment would exceed the window
// end, skipping increments that overlap a booked interval. Results are in
// chronological order.
func FreeSlots(w TimeWindow, durationMinutes int, booked []Interval) []Interval {
	if durationMinutes <= 0 {
		return nil
	}
	var out []Interval
	for start := w.Start; start.Add(durationMinutes) <= w.End; start = start.Add(durationMinutes) {
		candidate := Interval{Start: start, End: start.Add(durationMinutes)}
		if conflictsWithAny(candidate, booked) {
			continue
		}
		out = append(out, candidate)
	}
	return out
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
