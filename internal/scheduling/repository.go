package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrSlotTaken signals that the requested interval overlaps an existing
// non-cancelled appointment at commit time.
var ErrSlotTaken = errors.New("scheduling: slot no longer available")

// ErrDoctorNotFound signals an unknown or inactive doctor.
var ErrDoctorNotFound = errors.New("scheduling: doctor not found")

// DB is the slice of pgxpool.Pool the repository needs; pgxmock satisfies
// it in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository provides persistence for doctors, availability windows and
// appointments.
type Repository struct {
	db DB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("scheduling: db required")
	}
	return &Repository{db: db}
}

const doctorColumns = `d.doctor_id, d.entity_id, d.first_name, d.last_name,
	       COALESCE(s.name, ''), d.consultation_duration, d.is_active`

// ActiveDoctors returns active doctors for the entity, optionally narrowed
// to a single doctor id. Doctors come back in query order; callers relying
// on a different order must sort explicitly.
func (r *Repository) ActiveDoctors(ctx context.Context, entityID uuid.UUID, doctorID *uuid.UUID) ([]Doctor, error) {
	query := `
		SELECT ` + doctorColumns + `
		FROM doctors d
		LEFT JOIN specialties s ON s.specialty_id = d.specialty_id
		WHERE d.entity_id = $1 AND d.is_active`
	args := []any{entityID}
	if doctorID != nil {
		query += ` AND d.doctor_id = $2`
		args = append(args, *doctorID)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scheduling: list doctors: %w", err)
	}
	defer rows.Close()
	return scanDoctors(rows)
}

// SearchDoctors returns active doctors whose specialty name contains the
// query, case-insensitively. An empty query matches every active doctor.
func (r *Repository) SearchDoctors(ctx context.Context, entityID uuid.UUID, specialty string) ([]Doctor, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors d
		LEFT JOIN specialties s ON s.specialty_id = d.specialty_id
		WHERE d.entity_id = $1 AND d.is_active
		  AND ($2 = '' OR s.name ILIKE '%' || $2 || '%')
		ORDER BY d.last_name, d.first_name`,
		entityID, specialty)
	if err != nil {
		return nil, fmt.Errorf("scheduling: search doctors: %w", err)
	}
	defer rows.Close()
	return scanDoctors(rows)
}

// GetDoctor loads one active doctor.
func (r *Repository) GetDoctor(ctx context.Context, doctorID uuid.UUID) (*Doctor, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors d
		LEFT JOIN specialties s ON s.specialty_id = d.specialty_id
		WHERE d.doctor_id = $1 AND d.is_active`, doctorID)

	var d Doctor
	err := row.Scan(&d.ID, &d.EntityID, &d.FirstName, &d.LastName,
		&d.SpecialtyName, &d.ConsultationMinutes, &d.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDoctorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scheduling: load doctor: %w", err)
	}
	return &d, nil
}

// WindowsForDoctor returns the doctor's active availability windows.
// day_of_week is stored with Monday=0 per the original schema.
func (r *Repository) WindowsForDoctor(ctx context.Context, doctorID uuid.UUID) ([]TimeWindow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT slot_id, doctor_id, is_recurring, COALESCE(day_of_week, 0),
		       COALESCE(specific_date, '0001-01-01'::date), start_time, end_time, is_active
		FROM time_slots
		WHERE doctor_id = $1 AND is_active`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("scheduling: list windows: %w", err)
	}
	defer rows.Close()

	var out []TimeWindow
	for rows.Next() {
		var w TimeWindow
		var dayOfWeek int
		var start, end time.Time
		if err := rows.Scan(&w.ID, &w.DoctorID, &w.Recurring, &dayOfWeek,
			&w.SpecificDate, &start, &end, &w.Active); err != nil {
			return nil, fmt.Errorf("scheduling: scan window: %w", err)
		}
		w.Weekday = mondayBasedWeekday(dayOfWeek)
		w.Start = TimeOfDay(start.Hour()*60 + start.Minute())
		w.End = TimeOfDay(end.Hour()*60 + end.Minute())
		out = append(out, w)
	}
	return out, rows.Err()
}

// BookedIntervals returns the non-cancelled appointment intervals for the
// doctor on a date.
func (r *Repository) BookedIntervals(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Interval, error) {
	rows, err := r.db.Query(ctx, `
		SELECT start_time, end_time
		FROM appointments
		WHERE doctor_id = $1 AND date = $2 AND status <> $3`,
		doctorID, date, StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("scheduling: list appointments: %w", err)
	}
	defer rows.Close()

	var out []Interval
	for rows.Next() {
		var start, end time.Time
		if err := rows.Scan(&start, &end); err != nil {
			return nil, fmt.Errorf("scheduling: scan appointment: %w", err)
		}
		out = append(out, Interval{
			Start: TimeOfDay(start.Hour()*60 + start.Minute()),
			End:   TimeOfDay(end.Hour()*60 + end.Minute()),
		})
	}
	return out, rows.Err()
}

// Book re-validates the interval and inserts the appointment inside one
// transaction. An advisory lock scoped to (doctor, date) serializes
// concurrent attempts on the same calendar day, so the overlap re-check and
// the insert form one atomic unit; the loser of a race sees ErrSlotTaken
// and nothing is written.
func (r *Repository) Book(ctx context.Context, req BookingRequest, end TimeOfDay) (uuid.UUID, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("scheduling: begin booking: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1 || ':' || $2))`,
		req.DoctorID.String(), req.Date.Format("2006-01-02")); err != nil {
		return uuid.Nil, fmt.Errorf("scheduling: acquire booking lock: %w", err)
	}

	var conflicts int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM appointments
		WHERE doctor_id = $1 AND date = $2 AND status <> $3
		  AND start_time < $5 AND end_time > $4`,
		req.DoctorID, req.Date, StatusCancelled,
		minutesToSQLTime(req.StartTime), minutesToSQLTime(end)).Scan(&conflicts)
	if err != nil {
		return uuid.Nil, fmt.Errorf("scheduling: conflict check: %w", err)
	}
	if conflicts > 0 {
		return uuid.Nil, ErrSlotTaken
	}

	id := uuid.New()
	if _, err := tx.Exec(ctx, `
		INSERT INTO appointments
			(appointment_id, doctor_id, session_id, patient_name, patient_email,
			 patient_phone, reason, date, start_time, end_time, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())`,
		id, req.DoctorID, req.SessionID, req.PatientName, req.PatientEmail,
		req.PatientPhone, req.Reason, req.Date,
		minutesToSQLTime(req.StartTime), minutesToSQLTime(end), StatusPending); err != nil {
		return uuid.Nil, fmt.Errorf("scheduling: insert appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("scheduling: commit booking: %w", err)
	}
	return id, nil
}

func scanDoctors(rows pgx.Rows) ([]Doctor, error) {
	var out []Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.EntityID, &d.FirstName, &d.LastName,
			&d.SpecialtyName, &d.ConsultationMinutes, &d.Active); err != nil {
			return nil, fmt.Errorf("scheduling: scan doctor: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// mondayBasedWeekday converts the stored Monday=0 convention into
// time.Weekday.
func mondayBasedWeekday(stored int) time.Weekday {
	return time.Weekday((stored + 1) % 7)
}

func minutesToSQLTime(t TimeOfDay) string {
	return t.String() + ":00"
}
