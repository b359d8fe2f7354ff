package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ElYoussoupha/TonToumaBot/internal/rag"
	"github.com/ElYoussoupha/TonToumaBot/internal/scheduling"
)

// scriptedLLM returns canned responses in order and records every request.
type scriptedLLM struct {
	responses []LLMResponse
	requests  []LLMRequest
}

func (s *scriptedLLM) Complete(_ context.Context, req LLMRequest) (LLMResponse, error) {
	s.requests = append(s.requests, req)
	if len(s.responses) == 0 {
		return LLMResponse{Text: "ok"}, nil
	}
	resp := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return resp, nil
}

// fakeScheduler satisfies Scheduler with fixed answers; err, when set,
// fails every call.
type fakeScheduler struct {
	doctors   []scheduling.Doctor
	slots     []scheduling.AvailableSlot
	bookCalls int
	result    scheduling.BookingResult
	err       error
}

func (f *fakeScheduler) SearchDoctors(_ context.Context, _ uuid.UUID, _ string) ([]scheduling.Doctor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.doctors, nil
}

func (f *fakeScheduler) AvailableSlots(_ context.Context, _ uuid.UUID, _ *uuid.UUID, _ time.Time) ([]scheduling.AvailableSlot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.slots, nil
}

func (f *fakeScheduler) Book(_ context.Context, _ scheduling.BookingRequest) (scheduling.BookingResult, error) {
	f.bookCalls++
	if f.err != nil {
		return scheduling.BookingResult{}, f.err
	}
	return f.result, nil
}

// recordingStore captures the tool messages the engine persists.
type recordingStore struct {
	messages []StoredMessage
}

func (r *recordingStore) AppendMessage(_ context.Context, msg StoredMessage) error {
	r.messages = append(r.messages, msg)
	return nil
}

func newTestEngine(llm LLMClient, sched Scheduler) *Engine {
	return NewEngine(llm, NewToolset(sched, nil, nil), nil, "test-model", nil, nil)
}

func engineInput() EngineInput {
	return EngineInput{
		EntityID:     uuid.New(),
		SessionID:    uuid.New(),
		SystemPrompt: "Tu es l'assistant de la clinique.",
		Text:         "Bonjour",
	}
}

func TestRespondPlainText(t *testing.T) {
	llm := &scriptedLLM{responses: []LLMResponse{{Text: "Bonjour, comment puis-je vous aider ?"}}}
	engine := newTestEngine(llm, &fakeScheduler{})

	reply, err := engine.Respond(context.Background(), engineInput())
	require.NoError(t, err)
	assert.Equal(t, "Bonjour, comment puis-je vous aider ?", reply.Text)
	assert.Zero(t, reply.ToolCalls)
	require.Len(t, llm.requests, 1)
	assert.Len(t, llm.requests[0].Tools, 3)
}

func TestRespondExecutesToolAndFeedsResultBack(t *testing.T) {
	sched := &fakeScheduler{doctors: []scheduling.Doctor{{
		ID: uuid.New(), FirstName: "Awa", LastName: "Ndiaye",
		SpecialtyName: "Cardiologie", ConsultationMinutes: 30,
	}}}
	llm := &scriptedLLM{responses: []LLMResponse{
		{ToolCall: &ToolCall{Name: ToolSearchDoctors, Args: map[string]any{"specialty": "cardio"}}},
		{Text: "Nous avons un cardiologue, Dr. Awa Ndiaye."},
	}}
	engine := newTestEngine(llm, sched)

	reply, err := engine.Respond(context.Background(), engineInput())
	require.NoError(t, err)
	assert.Equal(t, 1, reply.ToolCalls)
	assert.Contains(t, reply.Text, "Awa Ndiaye")

	// The second completion must carry the tool call and its result.
	require.Len(t, llm.requests, 2)
	msgs := llm.requests[1].Messages
	require.GreaterOrEqual(t, len(msgs), 3)
	toolMsg := msgs[len(msgs)-1]
	assert.Equal(t, ChatRoleTool, toolMsg.Role)
	assert.Equal(t, ToolSearchDoctors, toolMsg.Name)
	assert.Contains(t, toolMsg.Content, "Dr. Awa Ndiaye")
	callMsg := msgs[len(msgs)-2]
	assert.Equal(t, ChatRoleAssistant, callMsg.Role)
	require.NotNil(t, callMsg.ToolCall)
	assert.Equal(t, ToolSearchDoctors, callMsg.ToolCall.Name)
}

func TestRespondPersistsToolResults(t *testing.T) {
	doctorID := uuid.New()
	sched := &fakeScheduler{doctors: []scheduling.Doctor{{
		ID: doctorID, FirstName: "Awa", LastName: "Ndiaye",
	}}}
	llm := &scriptedLLM{responses: []LLMResponse{
		{ToolCall: &ToolCall{Name: ToolSearchDoctors, Args: map[string]any{"specialty": ""}}},
		{Text: "Voici nos médecins."},
	}}
	recorder := &recordingStore{}
	engine := NewEngine(llm, NewToolset(sched, nil, nil), recorder, "test-model", nil, nil)

	in := engineInput()
	_, err := engine.Respond(context.Background(), in)
	require.NoError(t, err)

	// The raw result lands as a tool message so the next turn still has
	// the doctor id the model just obtained.
	require.Len(t, recorder.messages, 1)
	msg := recorder.messages[0]
	assert.Equal(t, in.SessionID, msg.SessionID)
	assert.Equal(t, ChatRoleTool, msg.Sender)
	assert.Equal(t, ToolSearchDoctors, msg.ToolName)
	assert.Contains(t, msg.Content, doctorID.String())
}

func TestRespondFeedsToolErrorBackToModel(t *testing.T) {
	// A scheduler outage must reach the model as a failure payload, not
	// abort the turn.
	llm := &scriptedLLM{responses: []LLMResponse{
		{ToolCall: &ToolCall{Name: ToolGetAvailableSlots, Args: map[string]any{"date": "2026-09-04"}}},
		{Text: "Je suis désolé, je n'arrive pas à consulter l'agenda pour le moment."},
	}}
	engine := newTestEngine(llm, &fakeScheduler{err: assert.AnError})

	reply, err := engine.Respond(context.Background(), engineInput())
	require.NoError(t, err)
	assert.Equal(t, 1, reply.ToolCalls)
	assert.Contains(t, reply.Text, "désolé")

	require.Len(t, llm.requests, 2)
	msgs := llm.requests[1].Messages
	toolMsg := msgs[len(msgs)-1]
	assert.Equal(t, ChatRoleTool, toolMsg.Role)
	assert.Contains(t, toolMsg.Content, `"success":false`)
	assert.Contains(t, toolMsg.Content, "erreur technique")
}

func TestRespondStopsAfterToolBudget(t *testing.T) {
	// The model keeps asking for tools forever; the engine must execute
	// exactly maxToolCalls of them and then apologize.
	llm := &scriptedLLM{responses: []LLMResponse{
		{ToolCall: &ToolCall{Name: ToolSearchDoctors, Args: map[string]any{"specialty": "cardio"}}},
	}}
	sched := &fakeScheduler{doctors: []scheduling.Doctor{{ID: uuid.New(), FirstName: "A", LastName: "B"}}}
	engine := newTestEngine(llm, sched)

	reply, err := engine.Respond(context.Background(), engineInput())
	require.NoError(t, err)
	assert.Equal(t, maxToolCalls, reply.ToolCalls)
	assert.Equal(t, toolLoopApology, reply.Text)
	// One completion per executed tool plus the final refused request.
	assert.Len(t, llm.requests, maxToolCalls+1)
}

func TestRespondHistoryTruncatedToRecentTurns(t *testing.T) {
	llm := &scriptedLLM{responses: []LLMResponse{{Text: "ok"}}}
	engine := newTestEngine(llm, &fakeScheduler{})

	in := engineInput()
	for i := 0; i < 25; i++ {
		role := ChatRoleUser
		if i%2 == 1 {
			role = ChatRoleAssistant
		}
		in.History = append(in.History, ChatMessage{Role: role, Content: "turn"})
	}

	_, err := engine.Respond(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, llm.requests, 1)
	assert.Len(t, llm.requests[0].Messages, historyLimit+1)
}

func TestBuildSystemMarksEmptyContext(t *testing.T) {
	engine := newTestEngine(&scriptedLLM{}, &fakeScheduler{})

	system := engine.buildSystem(engineInput())
	require.Len(t, system, 2)
	assert.Contains(t, system[1], noContextMarker)

	in := engineInput()
	in.Passages = []rag.Passage{{Title: "Horaires", Text: "Ouvert de 8h à 18h."}}
	system = engine.buildSystem(in)
	require.Len(t, system, 2)
	assert.Contains(t, system[1], "[Horaires] Ouvert de 8h à 18h.")
	assert.NotContains(t, system[1], noContextMarker)
}

func TestBuildSystemFallsBackToGenericPersona(t *testing.T) {
	engine := newTestEngine(&scriptedLLM{}, &fakeScheduler{})

	in := engineInput()
	in.SystemPrompt = "   "
	system := engine.buildSystem(in)
	require.NotEmpty(t, system)
	assert.Equal(t, defaultPersona, system[0])
	assert.Contains(t, system[0], "texte brut")
}
