package scheduling

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory Store whose Book serializes attempts the way
// the advisory lock does in Postgres.
type fakeStore struct {
	mu       sync.Mutex
	doctors  []Doctor
	windows  map[uuid.UUID][]TimeWindow
	booked   map[uuid.UUID][]Interval
	bookErr  error
	bookings int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		windows: make(map[uuid.UUID][]TimeWindow),
		booked:  make(map[uuid.UUID][]Interval),
	}
}

func (f *fakeStore) SearchDoctors(_ context.Context, _ uuid.UUID, specialty string) ([]Doctor, error) {
	return f.doctors, nil
}

func (f *fakeStore) ActiveDoctors(_ context.Context, _ uuid.UUID, doctorID *uuid.UUID) ([]Doctor, error) {
	if doctorID == nil {
		return f.doctors, nil
	}
	for _, d := range f.doctors {
		if d.ID == *doctorID {
			return []Doctor{d}, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetDoctor(_ context.Context, doctorID uuid.UUID) (*Doctor, error) {
	for _, d := range f.doctors {
		if d.ID == doctorID {
			d := d
			return &d, nil
		}
	}
	return nil, ErrDoctorNotFound
}

func (f *fakeStore) WindowsForDoctor(_ context.Context, doctorID uuid.UUID) ([]TimeWindow, error) {
	return f.windows[doctorID], nil
}

func (f *fakeStore) BookedIntervals(_ context.Context, doctorID uuid.UUID, _ time.Time) ([]Interval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Interval(nil), f.booked[doctorID]...), nil
}

func (f *fakeStore) Book(_ context.Context, req BookingRequest, end TimeOfDay) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bookErr != nil {
		return uuid.Nil, f.bookErr
	}
	for _, iv := range f.booked[req.DoctorID] {
		if Overlaps(req.StartTime, end, iv.Start, iv.End) {
			return uuid.Nil, ErrSlotTaken
		}
	}
	f.booked[req.DoctorID] = append(f.booked[req.DoctorID], Interval{Start: req.StartTime, End: end})
	f.bookings++
	return uuid.New(), nil
}

func testDoctor(t *testing.T) Doctor {
	t.Helper()
	return Doctor{
		ID:                  uuid.New(),
		EntityID:            uuid.New(),
		FirstName:           "Awa",
		LastName:            "Ndiaye",
		SpecialtyName:       "Cardiologie",
		ConsultationMinutes: 30,
		Active:              true,
	}
}

func TestAvailableSlotsChronologicalPerDoctor(t *testing.T) {
	store := newFakeStore()
	doc := testDoctor(t)
	store.doctors = []Doctor{doc}
	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	store.windows[doc.ID] = []TimeWindow{{
		DoctorID:  doc.ID,
		Recurring: true,
		Weekday:   time.Monday,
		Start:     mustTime(t, "09:00"),
		End:       mustTime(t, "11:00"),
		Active:    true,
	}}

	svc := NewService(store, nil, nil)
	slots, err := svc.AvailableSlots(context.Background(), doc.EntityID, nil, monday)
	require.NoError(t, err)
	require.Len(t, slots, 4)
	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, "10:30", slots[3].StartTime)
	assert.Equal(t, "Dr. Awa Ndiaye", slots[0].DoctorName)
	assert.Equal(t, "2026-09-07", slots[0].Date)
}

func TestAvailableSlotsNoWindowForDate(t *testing.T) {
	store := newFakeStore()
	doc := testDoctor(t)
	store.doctors = []Doctor{doc}
	store.windows[doc.ID] = []TimeWindow{{
		DoctorID:  doc.ID,
		Recurring: true,
		Weekday:   time.Monday,
		Start:     mustTime(t, "09:00"),
		End:       mustTime(t, "11:00"),
		Active:    true,
	}}
	tuesday := time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC)

	svc := NewService(store, nil, nil)
	slots, err := svc.AvailableSlots(context.Background(), doc.EntityID, nil, tuesday)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestBookRecomputesEndFromConsultationDuration(t *testing.T) {
	store := newFakeStore()
	doc := testDoctor(t)
	store.doctors = []Doctor{doc}

	svc := NewService(store, nil, nil)
	res, err := svc.Book(context.Background(), BookingRequest{
		DoctorID:    doc.ID,
		Date:        time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		StartTime:   mustTime(t, "10:00"),
		PatientName: "Moussa Diop",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NotEqual(t, uuid.Nil, res.AppointmentID)
	assert.Equal(t, "Dr. Awa Ndiaye", res.DoctorName)
	assert.Contains(t, res.Message, "Rendez-vous confirmé")

	booked := store.booked[doc.ID]
	require.Len(t, booked, 1)
	assert.Equal(t, "10:30", booked[0].End.String())
}

func TestBookUnknownDoctor(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, nil)

	res, err := svc.Book(context.Background(), BookingRequest{
		DoctorID:  uuid.New(),
		Date:      time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		StartTime: mustTime(t, "10:00"),
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Médecin non trouvé.", res.Message)
}

func TestBookConflictIsResultNotError(t *testing.T) {
	store := newFakeStore()
	doc := testDoctor(t)
	store.doctors = []Doctor{doc}
	store.booked[doc.ID] = []Interval{{Start: mustTime(t, "10:00"), End: mustTime(t, "10:30")}}

	svc := NewService(store, nil, nil)
	res, err := svc.Book(context.Background(), BookingRequest{
		DoctorID:  doc.ID,
		Date:      time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		StartTime: mustTime(t, "10:00"),
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "n'est plus disponible")
}

func TestConcurrentBookingSameSlotSingleWinner(t *testing.T) {
	store := newFakeStore()
	doc := testDoctor(t)
	store.doctors = []Doctor{doc}

	svc := NewService(store, nil, nil)
	req := BookingRequest{
		DoctorID:  doc.ID,
		Date:      time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		StartTime: mustTime(t, "10:00"),
	}

	const attempts = 16
	results := make(chan BookingResult, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Book(context.Background(), req)
			assert.NoError(t, err)
			results <- res
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for res := range results {
		if res.Success {
			wins++
		} else {
			assert.Contains(t, res.Message, "n'est plus disponible")
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, store.bookings)
}
