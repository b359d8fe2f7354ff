// Package scheduling implements doctor appointment booking: slot
// enumeration from availability windows, natural-language date resolution,
// and race-safe booking against the appointment store.
package scheduling

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// TimeOfDay is minutes since midnight. Slot arithmetic never crosses a day
// boundary.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("scheduling: invalid time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("scheduling: time %q out of range", s)
	}
	return TimeOfDay(h*60 + m), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Add returns t shifted by the given number of minutes.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

// Doctor is an active practitioner with a fixed consultation duration.
type Doctor struct {
	ID                  uuid.UUID
	EntityID            uuid.UUID
	FirstName           string
	LastName            string
	SpecialtyName       string
	ConsultationMinutes int
	Active              bool
}

// DisplayName returns the patient-facing name.
func (d Doctor) DisplayName() string {
	return "Dr. " + d.FirstName + " " + d.LastName
}

// TimeWindow is a doctor's availability window, either recurring on a
// weekday or pinned to a specific date.
type TimeWindow struct {
	ID           uuid.UUID
	DoctorID     uuid.UUID
	Recurring    bool
	Weekday      time.Weekday // meaningful when Recurring
	SpecificDate time.Time    // meaningful when !Recurring; midnight UTC
	Start        TimeOfDay
	End          TimeOfDay
	Active       bool
}

// Interval is a half-open [Start,End) booking interval inside one day.
type Interval struct {
	Start TimeOfDay
	End   TimeOfDay
}

// AvailableSlot is a transient, computed value; it is never persisted.
type AvailableSlot struct {
	DoctorID      uuid.UUID `json:"doctor_id"`
	DoctorName    string    `json:"doctor_name"`
	SpecialtyName string    `json:"specialty_name,omitempty"`
	Date          string    `json:"date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
}

// BookingRequest carries everything needed to create an appointment. End
// time is recomputed from the doctor's consultation duration, never trusted
// from the caller.
type BookingRequest struct {
	DoctorID     uuid.UUID
	SessionID    uuid.UUID
	Date         time.Time
	StartTime    TimeOfDay
	PatientName  string
	PatientEmail string
	PatientPhone string
	Reason       string
}

// BookingResult reports the outcome of a booking attempt. A conflict is a
// result, not an error; only infrastructure faults surface as errors.
type BookingResult struct {
	Success       bool      `json:"success"`
	AppointmentID uuid.UUID `json:"appointment_id,omitempty"`
	Message       string    `json:"message"`
	DoctorName    string    `json:"doctor_name,omitempty"`
	Date          string    `json:"date,omitempty"`
	Time          string    `json:"time,omitempty"`
}
