package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ElYoussoupha/TonToumaBot/internal/observability/metrics"
	"github.com/ElYoussoupha/TonToumaBot/internal/rag"
	"github.com/ElYoussoupha/TonToumaBot/pkg/logging"
)

// maxToolCalls bounds how many tool executions a single user turn may
// trigger before the engine gives up.
const maxToolCalls = 5

// historyLimit is how many prior messages ride along in the prompt.
const historyLimit = 10

const noContextMarker = "Aucune information pertinente trouvée dans la base de connaissances."

// defaultPersona takes over when the entity has no configured prompt.
// Plain text only, because the reply may be read aloud by TTS.
const defaultPersona = "Tu es un assistant conversationnel serviable et concis. Réponds uniquement en texte brut, sans mise en forme ni listes, car ta réponse peut être lue à voix haute."

// toolLoopApology is returned verbatim when the model keeps requesting
// tools past the budget.
const toolLoopApology = "Je suis désolé, je n'arrive pas à finaliser votre demande pour le moment. Pouvez-vous reformuler ou réessayer plus tard ?"

// EngineInput is one user turn with everything the engine needs to answer
// it. Text must already be in the processing language.
type EngineInput struct {
	EntityID     uuid.UUID
	SessionID    uuid.UUID
	SystemPrompt string
	Passages     []rag.Passage
	History      []ChatMessage
	Text         string
}

// Reply is the engine's answer in the processing language.
type Reply struct {
	Text      string
	ToolCalls int
	Usage     TokenUsage
}

// toolRecorder persists tool exchanges so later turns replay the
// identifiers the model obtained or generated. *Store satisfies it.
type toolRecorder interface {
	AppendMessage(ctx context.Context, msg StoredMessage) error
}

// Engine drives one completion turn: prompt assembly, the tool loop, and
// the final text answer.
type Engine struct {
	llm      LLMClient
	tools    *Toolset
	recorder toolRecorder
	modelID  string
	metrics  *metrics.ChatMetrics
	logger   *logging.Logger
}

// NewEngine wires the dialogue engine. recorder may be nil when tool
// exchanges do not need to survive the turn.
func NewEngine(llm LLMClient, tools *Toolset, recorder toolRecorder, modelID string, m *metrics.ChatMetrics, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{llm: llm, tools: tools, recorder: recorder, modelID: modelID, metrics: m, logger: logger}
}

// Respond runs the bounded completion loop for one user turn. The model
// may request up to maxToolCalls tool executions; each result is fed back
// before the next completion. One more request past the budget yields the
// fixed apology instead of another execution.
func (e *Engine) Respond(ctx context.Context, in EngineInput) (Reply, error) {
	tracer := otel.Tracer("conversation")
	ctx, span := tracer.Start(ctx, "engine.respond")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", in.SessionID.String()))

	messages := e.buildMessages(in)
	system := e.buildSystem(in)

	var reply Reply
	for {
		resp, err := e.complete(ctx, LLMRequest{
			Model:       e.modelID,
			System:      system,
			Messages:    messages,
			Tools:       e.tools.Definitions(),
			MaxTokens:   1024,
			Temperature: 0.2,
		})
		if err != nil {
			return Reply{}, err
		}
		reply.Usage.InputTokens += resp.Usage.InputTokens
		reply.Usage.OutputTokens += resp.Usage.OutputTokens
		reply.Usage.TotalTokens += resp.Usage.TotalTokens

		if resp.ToolCall == nil {
			reply.Text = resp.Text
			return reply, nil
		}

		if reply.ToolCalls >= maxToolCalls {
			e.logger.WarnContext(ctx, "tool budget exhausted",
				"session_id", in.SessionID, "last_tool", resp.ToolCall.Name)
			reply.Text = toolLoopApology
			return reply, nil
		}

		result := e.tools.Execute(ctx, in.EntityID, in.SessionID, *resp.ToolCall)
		reply.ToolCalls++
		e.logger.DebugContext(ctx, "tool executed",
			"session_id", in.SessionID, "tool", resp.ToolCall.Name, "round", reply.ToolCalls)
		e.recordToolResult(ctx, in.SessionID, resp.ToolCall.Name, result)

		messages = append(messages,
			ChatMessage{Role: ChatRoleAssistant, ToolCall: resp.ToolCall},
			ChatMessage{Role: ChatRoleTool, Name: resp.ToolCall.Name, Content: result},
		)
	}
}

// recordToolResult persists the raw tool result as a tool message so the
// next turn still has the identifiers this one produced. Persistence
// failures lose future context but never this turn's answer.
func (e *Engine) recordToolResult(ctx context.Context, sessionID uuid.UUID, toolName, result string) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.AppendMessage(ctx, StoredMessage{
		SessionID: sessionID,
		Sender:    ChatRoleTool,
		Content:   result,
		ToolName:  toolName,
	}); err != nil {
		e.logger.WarnContext(ctx, "failed to persist tool result",
			"session_id", sessionID, "tool", toolName, "error", err)
	}
}

func (e *Engine) complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	start := time.Now()
	resp, err := e.llm.Complete(ctx, req)
	status := "ok"
	if err != nil {
		status = "error"
	}
	e.metrics.ObserveLLMLatency(req.Model, status, time.Since(start).Seconds())
	if err != nil {
		return LLMResponse{}, err
	}
	e.metrics.AddLLMTokens(req.Model,
		int64(resp.Usage.InputTokens), int64(resp.Usage.OutputTokens), int64(resp.Usage.TotalTokens))
	return resp, nil
}

// buildSystem assembles the system instruction: the entity's persona
// followed by the knowledge context. An explicit no-context marker keeps
// the model from inventing facility facts when retrieval came back empty.
func (e *Engine) buildSystem(in EngineInput) []string {
	persona := strings.TrimSpace(in.SystemPrompt)
	if persona == "" {
		persona = defaultPersona
	}
	system := []string{persona}

	if len(in.Passages) == 0 {
		system = append(system, "Contexte documentaire:\n"+noContextMarker)
		return system
	}
	context := "Contexte documentaire:\n"
	for _, p := range in.Passages {
		if p.Title != "" {
			context += fmt.Sprintf("[%s] %s\n", p.Title, p.Text)
			continue
		}
		context += p.Text + "\n"
	}
	system = append(system, context)
	return system
}

// buildMessages truncates the history to the most recent turns and appends
// the current user message.
func (e *Engine) buildMessages(in EngineInput) []ChatMessage {
	history := in.History
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	messages := make([]ChatMessage, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: in.Text})
	return messages
}
