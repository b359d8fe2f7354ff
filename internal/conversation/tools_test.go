package conversation

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ElYoussoupha/TonToumaBot/internal/scheduling"
)

func newTestToolset(sched Scheduler) *Toolset {
	ts := NewToolset(sched, nil, nil)
	// Wednesday 2 September 2026.
	ts.now = func() time.Time { return time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC) }
	return ts
}

func execute(t *testing.T, ts *Toolset, name string, args map[string]any) map[string]any {
	t.Helper()
	out := ts.Execute(context.Background(), uuid.New(), uuid.New(), ToolCall{Name: name, Args: args})
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	return payload
}

func TestExecuteUnknownTool(t *testing.T) {
	ts := newTestToolset(&fakeScheduler{})
	payload := execute(t, ts, "delete_all", nil)
	assert.Equal(t, false, payload["success"])
	assert.Contains(t, payload["message"], "Outil inconnu")
}

func TestSearchDoctorsToolFormatsResults(t *testing.T) {
	id := uuid.New()
	ts := newTestToolset(&fakeScheduler{doctors: []scheduling.Doctor{{
		ID: id, FirstName: "Awa", LastName: "Ndiaye",
		SpecialtyName: "Cardiologie", ConsultationMinutes: 30,
	}}})

	payload := execute(t, ts, ToolSearchDoctors, map[string]any{"specialty": "cardio"})
	assert.Equal(t, true, payload["success"])
	doctors := payload["doctors"].([]any)
	require.Len(t, doctors, 1)
	doc := doctors[0].(map[string]any)
	assert.Equal(t, id.String(), doc["doctor_id"])
	assert.Equal(t, "Dr. Awa Ndiaye", doc["name"])
}

func TestExecuteSchedulerErrorBecomesFailurePayload(t *testing.T) {
	ts := newTestToolset(&fakeScheduler{err: assert.AnError})
	payload := execute(t, ts, ToolSearchDoctors, map[string]any{"specialty": "cardio"})
	assert.Equal(t, false, payload["success"])
	assert.Contains(t, payload["message"], "erreur technique")
}

func TestSearchDoctorsToolNoMatch(t *testing.T) {
	ts := newTestToolset(&fakeScheduler{})
	payload := execute(t, ts, ToolSearchDoctors, map[string]any{"specialty": "dermato"})
	assert.Equal(t, false, payload["success"])
	assert.Contains(t, payload["message"], "Aucun médecin")
}

func TestAvailableSlotsToolNormalizesDatePhrase(t *testing.T) {
	sched := &fakeScheduler{slots: []scheduling.AvailableSlot{{
		DoctorName: "Dr. Awa Ndiaye", Date: "2026-09-03", StartTime: "09:00", EndTime: "09:30",
	}}}
	ts := newTestToolset(sched)

	payload := execute(t, ts, ToolGetAvailableSlots, map[string]any{"date": "demain"})
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, "2026-09-03", payload["date"])
}

func TestAvailableSlotsToolRejectsUnknownDate(t *testing.T) {
	ts := newTestToolset(&fakeScheduler{})
	payload := execute(t, ts, ToolGetAvailableSlots, map[string]any{"date": "un de ces jours"})
	assert.Equal(t, false, payload["success"])
	assert.Contains(t, payload["message"], "Date non reconnue")
}

func TestAvailableSlotsToolRequiresDate(t *testing.T) {
	ts := newTestToolset(&fakeScheduler{})
	payload := execute(t, ts, ToolGetAvailableSlots, map[string]any{})
	assert.Equal(t, false, payload["success"])
}

func TestBookAppointmentToolValidatesRequiredFields(t *testing.T) {
	sched := &fakeScheduler{}
	ts := newTestToolset(sched)

	payload := execute(t, ts, ToolBookAppointment, map[string]any{"date": "demain"})
	assert.Equal(t, false, payload["success"])
	msg := payload["message"].(string)
	assert.Contains(t, msg, "doctor_id")
	assert.Contains(t, msg, "start_time")
	assert.Contains(t, msg, "patient_name")
	assert.NotContains(t, msg, "date")
	assert.Zero(t, sched.bookCalls)
}

func TestBookAppointmentToolRejectsBadTime(t *testing.T) {
	sched := &fakeScheduler{}
	ts := newTestToolset(sched)

	payload := execute(t, ts, ToolBookAppointment, map[string]any{
		"doctor_id":    uuid.New().String(),
		"date":         "2026-09-07",
		"start_time":   "dix heures",
		"patient_name": "Moussa Diop",
	})
	assert.Equal(t, false, payload["success"])
	assert.Contains(t, payload["message"], "Heure invalide")
	assert.Zero(t, sched.bookCalls)
}

func TestBookAppointmentToolRelaysConflict(t *testing.T) {
	sched := &fakeScheduler{result: scheduling.BookingResult{
		Success: false,
		Message: "Ce créneau n'est plus disponible. Veuillez choisir un autre horaire.",
	}}
	ts := newTestToolset(sched)

	payload := execute(t, ts, ToolBookAppointment, map[string]any{
		"doctor_id":    uuid.New().String(),
		"date":         "lundi",
		"start_time":   "10:00",
		"patient_name": "Moussa Diop",
	})
	assert.Equal(t, false, payload["success"])
	assert.Contains(t, payload["message"], "n'est plus disponible")
	assert.Equal(t, 1, sched.bookCalls)
}
