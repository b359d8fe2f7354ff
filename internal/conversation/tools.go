package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ElYoussoupha/TonToumaBot/internal/observability/metrics"
	"github.com/ElYoussoupha/TonToumaBot/internal/scheduling"
	"github.com/ElYoussoupha/TonToumaBot/pkg/logging"
)

// Tool names exposed to the model.
const (
	ToolSearchDoctors     = "search_doctors"
	ToolGetAvailableSlots = "get_available_slots"
	ToolBookAppointment   = "book_appointment"
)

// Scheduler is the slice of the scheduling service the tools need.
type Scheduler interface {
	SearchDoctors(ctx context.Context, entityID uuid.UUID, specialty string) ([]scheduling.Doctor, error)
	AvailableSlots(ctx context.Context, entityID uuid.UUID, doctorID *uuid.UUID, date time.Time) ([]scheduling.AvailableSlot, error)
	Book(ctx context.Context, req scheduling.BookingRequest) (scheduling.BookingResult, error)
}

// Toolset executes the appointment tools on behalf of the model. Every
// execution returns a JSON document; validation problems, scheduling
// conflicts and infrastructure faults alike come back as
// {"success": false, "message": ...} so the model can relay or retry them
// instead of the turn aborting.
type Toolset struct {
	scheduler Scheduler
	metrics   *metrics.ChatMetrics
	logger    *logging.Logger
	now       func() time.Time
}

// NewToolset wires the tool registry.
func NewToolset(scheduler Scheduler, m *metrics.ChatMetrics, logger *logging.Logger) *Toolset {
	if logger == nil {
		logger = logging.Default()
	}
	return &Toolset{scheduler: scheduler, metrics: m, logger: logger, now: time.Now}
}

// Definitions returns the function declarations advertised to the model.
func (t *Toolset) Definitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        ToolSearchDoctors,
			Description: "Recherche les médecins actifs, filtrés par spécialité (ex: cardiologie). Laisser la spécialité vide pour lister tous les médecins.",
			Params: map[string]ToolParam{
				"specialty": {Type: "string", Description: "Nom ou fragment de la spécialité recherchée"},
			},
		},
		{
			Name:        ToolGetAvailableSlots,
			Description: "Liste les créneaux disponibles pour une date. La date accepte le format AAAA-MM-JJ ou une expression comme 'demain' ou 'lundi prochain'.",
			Params: map[string]ToolParam{
				"date":      {Type: "string", Description: "Date souhaitée", Required: true},
				"doctor_id": {Type: "string", Description: "Identifiant du médecin; omettre pour tous les médecins"},
			},
		},
		{
			Name:        ToolBookAppointment,
			Description: "Réserve un rendez-vous sur un créneau disponible. Toujours confirmer le créneau avec le patient avant de réserver.",
			Params: map[string]ToolParam{
				"doctor_id":     {Type: "string", Description: "Identifiant du médecin", Required: true},
				"date":          {Type: "string", Description: "Date du rendez-vous", Required: true},
				"start_time":    {Type: "string", Description: "Heure de début au format HH:MM", Required: true},
				"patient_name":  {Type: "string", Description: "Nom complet du patient", Required: true},
				"patient_phone": {Type: "string", Description: "Téléphone du patient"},
				"patient_email": {Type: "string", Description: "Email du patient"},
				"reason":        {Type: "string", Description: "Motif de la consultation"},
			},
		},
	}
}

// toolErrorMessage is what the model sees when a tool fails for a reason
// the caller cannot fix, such as the scheduler being unreachable.
const toolErrorMessage = "Une erreur technique est survenue pendant l'opération. Veuillez réessayer dans un instant."

// Execute runs one tool call and returns its JSON result. It never fails
// the turn: downstream errors are logged and folded into a failure payload
// the model can apologize for or retry.
func (t *Toolset) Execute(ctx context.Context, entityID, sessionID uuid.UUID, call ToolCall) string {
	var (
		result string
		err    error
	)
	switch call.Name {
	case ToolSearchDoctors:
		result, err = t.searchDoctors(ctx, entityID, call.Args)
	case ToolGetAvailableSlots:
		result, err = t.availableSlots(ctx, entityID, call.Args)
	case ToolBookAppointment:
		result, err = t.bookAppointment(ctx, sessionID, call.Args)
	default:
		t.metrics.ObserveToolCall(call.Name, "unknown")
		return toolFailure("Outil inconnu: " + call.Name)
	}

	if err != nil {
		t.metrics.ObserveToolCall(call.Name, "error")
		t.logger.ErrorContext(ctx, "tool execution failed", "tool", call.Name, "error", err)
		return toolFailure(toolErrorMessage)
	}
	t.metrics.ObserveToolCall(call.Name, "ok")
	return result
}

func (t *Toolset) searchDoctors(ctx context.Context, entityID uuid.UUID, args map[string]any) (string, error) {
	specialty := stringArg(args, "specialty")
	doctors, err := t.scheduler.SearchDoctors(ctx, entityID, specialty)
	if err != nil {
		return "", err
	}
	if len(doctors) == 0 {
		return toolFailure("Aucun médecin trouvé pour cette spécialité."), nil
	}

	type doctorInfo struct {
		DoctorID            string `json:"doctor_id"`
		Name                string `json:"name"`
		Specialty           string `json:"specialty,omitempty"`
		ConsultationMinutes int    `json:"consultation_minutes"`
	}
	infos := make([]doctorInfo, 0, len(doctors))
	for _, d := range doctors {
		infos = append(infos, doctorInfo{
			DoctorID:            d.ID.String(),
			Name:                d.DisplayName(),
			Specialty:           d.SpecialtyName,
			ConsultationMinutes: d.ConsultationMinutes,
		})
	}
	return marshalResult(map[string]any{"success": true, "doctors": infos})
}

func (t *Toolset) availableSlots(ctx context.Context, entityID uuid.UUID, args map[string]any) (string, error) {
	datePhrase := stringArg(args, "date")
	if datePhrase == "" {
		return toolFailure("La date est obligatoire."), nil
	}
	iso, ok := scheduling.NormalizeDate(datePhrase, t.now())
	if !ok {
		return toolFailure("Date non reconnue: " + datePhrase + ". Utilisez le format AAAA-MM-JJ."), nil
	}
	date, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return toolFailure("Date invalide: " + iso), nil
	}

	var doctorID *uuid.UUID
	if raw := stringArg(args, "doctor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return toolFailure("Identifiant de médecin invalide."), nil
		}
		doctorID = &id
	}

	slots, err := t.scheduler.AvailableSlots(ctx, entityID, doctorID, date)
	if err != nil {
		return "", err
	}
	if len(slots) == 0 {
		return toolFailure("Aucun créneau disponible le " + iso + "."), nil
	}
	return marshalResult(map[string]any{"success": true, "date": iso, "slots": slots})
}

func (t *Toolset) bookAppointment(ctx context.Context, sessionID uuid.UUID, args map[string]any) (string, error) {
	var missing []string
	for _, field := range []string{"doctor_id", "date", "start_time", "patient_name"} {
		if stringArg(args, field) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return toolFailure("Champs obligatoires manquants: " + strings.Join(missing, ", ") + "."), nil
	}

	doctorID, err := uuid.Parse(stringArg(args, "doctor_id"))
	if err != nil {
		return toolFailure("Identifiant de médecin invalide."), nil
	}
	iso, ok := scheduling.NormalizeDate(stringArg(args, "date"), t.now())
	if !ok {
		return toolFailure("Date non reconnue: " + stringArg(args, "date") + "."), nil
	}
	date, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return toolFailure("Date invalide: " + iso), nil
	}
	start, err := scheduling.ParseTimeOfDay(stringArg(args, "start_time"))
	if err != nil {
		return toolFailure("Heure invalide: " + stringArg(args, "start_time") + ". Utilisez le format HH:MM."), nil
	}

	result, err := t.scheduler.Book(ctx, scheduling.BookingRequest{
		DoctorID:     doctorID,
		SessionID:    sessionID,
		Date:         date,
		StartTime:    start,
		PatientName:  stringArg(args, "patient_name"),
		PatientEmail: stringArg(args, "patient_email"),
		PatientPhone: stringArg(args, "patient_phone"),
		Reason:       stringArg(args, "reason"),
	})
	if err != nil {
		return "", err
	}
	return marshalResult(result)
}

func stringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func toolFailure(message string) string {
	out, _ := json.Marshal(map[string]any{"success": false, "message": message})
	return string(out)
}

func marshalResult(v any) (string, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("conversation: marshal tool result: %w", err)
	}
	return string(out), nil
}
