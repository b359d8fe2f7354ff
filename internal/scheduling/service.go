package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ElYoussoupha/TonToumaBot/internal/observability/metrics"
	"github.com/ElYoussoupha/TonToumaBot/pkg/logging"
)

// Store is the persistence surface the service needs; *Repository
// implements it.
type Store interface {
	SearchDoctors(ctx context.Context, entityID uuid.UUID, specialty string) ([]Doctor, error)
	ActiveDoctors(ctx context.Context, entityID uuid.UUID, doctorID *uuid.UUID) ([]Doctor, error)
	GetDoctor(ctx context.Context, doctorID uuid.UUID) (*Doctor, error)
	WindowsForDoctor(ctx context.Context, doctorID uuid.UUID) ([]TimeWindow, error)
	BookedIntervals(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Interval, error)
	Book(ctx context.Context, req BookingRequest, end TimeOfDay) (uuid.UUID, error)
}

// Service implements doctor search, slot enumeration and booking on top of
// the repository. User-facing messages are French; the dialogue engine
// translates for the caller when needed.
type Service struct {
	store   Store
	metrics *metrics.ChatMetrics
	logger  *logging.Logger
}

// NewService wires the scheduling service.
func NewService(store Store, m *metrics.ChatMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, metrics: m, logger: logger}
}

// SearchDoctors finds active doctors by specialty substring.
func (s *Service) SearchDoctors(ctx context.Context, entityID uuid.UUID, specialty string) ([]Doctor, error) {
	return s.store.SearchDoctors(ctx, entityID, specialty)
}

// AvailableSlots computes the free slots for a date, for one doctor or for
// every active doctor of the entity. Slots are grouped per doctor and
// chronological within each doctor.
func (s *Service) AvailableSlots(ctx context.Context, entityID uuid.UUID, doctorID *uuid.UUID, date time.Time) ([]AvailableSlot, error) {
	doctors, err := s.store.ActiveDoctors(ctx, entityID, doctorID)
	if err != nil {
		return nil, err
	}

	dateStr := date.Format("2006-01-02")
	var out []AvailableSlot
	for _, d := range doctors {
		windows, err := s.store.WindowsForDoctor(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		applicable := ApplicableWindows(windows, date)
		if len(applicable) == 0 {
			continue
		}
		booked, err := s.store.BookedIntervals(ctx, d.ID, date)
		if err != nil {
			return nil, err
		}
		for _, w := range applicable {
			for _, slot := range FreeSlots(w, d.ConsultationMinutes, booked) {
				out = append(out, AvailableSlot{
					DoctorID:      d.ID,
					DoctorName:    d.DisplayName(),
					SpecialtyName: d.SpecialtyName,
					Date:          dateStr,
					StartTime:     slot.Start.String(),
					EndTime:       slot.End.String(),
				})
			}
		}
	}
	return out, nil
}

// Book creates a pending appointment. The end time is always recomputed
// from the doctor's consultation duration. A lost race or an unknown doctor
// comes back as an unsuccessful result, not an error.
func (s *Service) Book(ctx context.Context, req BookingRequest) (BookingResult, error) {
	doctor, err := s.store.GetDoctor(ctx, req.DoctorID)
	if errors.Is(err, ErrDoctorNotFound) {
		return BookingResult{Success: false, Message: "Médecin non trouvé."}, nil
	}
	if err != nil {
		return BookingResult{}, err
	}

	end := req.StartTime.Add(doctor.ConsultationMinutes)
	id, err := s.store.Book(ctx, req, end)
	if errors.Is(err, ErrSlotTaken) {
		s.metrics.ObserveBooking("conflict")
		return BookingResult{
			Success: false,
			Message: "Ce créneau n'est plus disponible. Veuillez choisir un autre horaire.",
		}, nil
	}
	if err != nil {
		s.metrics.ObserveBooking("error")
		return BookingResult{}, err
	}

	s.metrics.ObserveBooking("booked")
	s.logger.InfoContext(ctx, "appointment booked",
		"appointment_id", id, "doctor_id", doctor.ID,
		"date", req.Date.Format("2006-01-02"), "start", req.StartTime.String())

	return BookingResult{
		Success:       true,
		AppointmentID: id,
		Message: fmt.Sprintf("Rendez-vous confirmé avec %s le %s à %s.",
			doctor.DisplayName(), req.Date.Format("02/01/2006"), req.StartTime.String()),
		DoctorName: doctor.DisplayName(),
		Date:       req.Date.Format("2006-01-02"),
		Time:       req.StartTime.String(),
	}, nil
}
