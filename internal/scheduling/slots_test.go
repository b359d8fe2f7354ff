package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, s string) TimeOfDay {
	t.Helper()
	v, err := ParseTimeOfDay(s)
	require.NoError(t, err)
	return v
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name           string
		s1, e1, s2, e2 string
		want           bool
	}{
		{"identical", "09:00", "09:30", "09:00", "09:30", true},
		{"partial", "09:00", "09:30", "09:15", "09:45", true},
		{"contained", "09:00", "10:00", "09:15", "09:30", true},
		{"adjacent after", "09:00", "09:30", "09:30", "10:00", false},
		{"adjacent before", "09:30", "10:00", "09:00", "09:30", false},
		{"disjoint", "09:00", "09:30", "11:00", "11:30", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(mustTime(t, tt.s1), mustTime(t, tt.e1), mustTime(t, tt.s2), mustTime(t, tt.e2))
			assert.Equal(t, tt.want, got)
			// Overlap is symmetric.
			assert.Equal(t, tt.want, Overlaps(mustTime(t, tt.s2), mustTime(t, tt.e2), mustTime(t, tt.s1), mustTime(t, tt.e1)))
		})
	}
}

func TestFreeSlotsWalksWindowInFixedIncrements(t *testing.T) {
	w := TimeWindow{Start: mustTime(t, "09:00"), End: mustTime(t, "11:00"), Active: true}

	slots := FreeSlots(w, 30, nil)

	require.Len(t, slots, 4)
	assert.Equal(t, "09:00", slots[0].Start.String())
	assert.Equal(t, "09:30", slots[1].Start.String())
	assert.Equal(t, "10:00", slots[2].Start.String())
	assert.Equal(t, "10:30", slots[3].Start.String())
	assert.Equal(t, "11:00", slots[3].End.String())
}

func TestFreeSlotsDropsPartialTrailingSlot(t *testing.T) {
	// 09:00-10:45 with 30-minute consultations leaves a 15-minute tail
	// that cannot hold a slot.
	w := TimeWindow{Start: mustTime(t, "09:00"), End: mustTime(t, "10:45"), Active: true}

	slots := FreeSlots(w, 30, nil)

	require.Len(t, slots, 3)
	assert.Equal(t, "10:30", slots[2].End.String())
}

func TestFreeSlotsSkipsBookedIntervals(t *testing.T) {
	w := TimeWindow{Start: mustTime(t, "09:00"), End: mustTime(t, "11:00"), Active: true}
	booked := []Interval{{Start: mustTime(t, "09:30"), End: mustTime(t, "10:00")}}

	slots := FreeSlots(w, 30, booked)

	require.Len(t, slots, 3)
	assert.Equal(t, "09:00", slots[0].Start.String())
	assert.Equal(t, "10:00", slots[1].Start.String())
	assert.Equal(t, "10:30", slots[2].Start.String())
}

func TestFreeSlotsAdjacentBookingDoesNotBlock(t *testing.T) {
	w := TimeWindow{Start: mustTime(t, "09:00"), End: mustTime(t, "10:00"), Active: true}
	// Booking ends exactly where the window starts producing; [08:30,09:00)
	// must not block [09:00,09:30).
	booked := []Interval{{Start: mustTime(t, "08:30"), End: mustTime(t, "09:00")}}

	slots := FreeSlots(w, 30, booked)

	require.Len(t, slots, 2)
	assert.Equal(t, "09:00", slots[0].Start.String())
}

func TestFreeSlotsZeroDuration(t *testing.T) {
	w := TimeWindow{Start: mustTime(t, "09:00"), End: mustTime(t, "11:00"), Active: true}
	assert.Empty(t, FreeSlots(w, 0, nil))
}

func TestApplicableWindows(t *testing.T) {
	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC) // a Monday
	tuesday := monday.AddDate(0, 0, 1)

	recurringMonday := TimeWindow{Recurring: true, Weekday: time.Monday, Active: true}
	recurringTuesday := TimeWindow{Recurring: true, Weekday: time.Tuesday, Active: true}
	oneOff := TimeWindow{Recurring: false, SpecificDate: monday, Active: true}
	inactive := TimeWindow{Recurring: true, Weekday: time.Monday, Active: false}

	windows := []TimeWindow{recurringMonday, recurringTuesday, oneOff, inactive}

	got := ApplicableWindows(windows, monday)
	require.Len(t, got, 2)
	assert.True(t, got[0].Recurring)
	assert.False(t, got[1].Recurring)

	got = ApplicableWindows(windows, tuesday)
	require.Len(t, got, 1)
	assert.Equal(t, time.Tuesday, got[0].Weekday)
}

func TestParseTimeOfDay(t *testing.T) {
	v, err := ParseTimeOfDay("14:05")
	require.NoError(t, err)
	assert.Equal(t, "14:05", v.String())

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)

	_, err = ParseTimeOfDay("bogus")
	assert.Error(t, err)
}
