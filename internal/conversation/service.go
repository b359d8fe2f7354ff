package conversation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ElYoussoupha/TonToumaBot/internal/artifacts"
	"github.com/ElYoussoupha/TonToumaBot/internal/language"
	"github.com/ElYoussoupha/TonToumaBot/internal/rag"
	"github.com/ElYoussoupha/TonToumaBot/internal/speech"
	"github.com/ElYoussoupha/TonToumaBot/internal/translate"
	"github.com/ElYoussoupha/TonToumaBot/pkg/logging"
)

var serviceTracer = otel.Tracer("tontouma.internal.conversation")

// degradedReply is what the user gets when the engine or its providers are
// down. Conversation state is preserved so the next turn can succeed.
const degradedReply = "Je rencontre un problème technique. Veuillez réessayer dans un instant."

// TextRequest is one inbound text turn.
type TextRequest struct {
	InstanceID uuid.UUID
	Text       string
	Language   string    // per-request override, may be empty or "auto"
	SessionID  uuid.UUID // optional pinned session; uuid.Nil means get-or-create
	WantAudio  bool
}

// VoiceRequest is one inbound voice turn.
type VoiceRequest struct {
	InstanceID uuid.UUID
	Audio      []byte
	Language   string    // per-request override, may be empty or "auto"
	SessionID  uuid.UUID // optional pinned session; uuid.Nil means get-or-create
}

// Response is the assistant's answer in the user's language.
type Response struct {
	SessionID  uuid.UUID `json:"session_id"`
	SpeakerID  uuid.UUID `json:"speaker_id"`
	Text       string    `json:"text"`
	Language   string    `json:"language"`
	Transcript string    `json:"transcript,omitempty"`
	AudioPath  string    `json:"audio_path,omitempty"`
	Degraded   bool      `json:"degraded,omitempty"`
}

// Service orchestrates one conversation turn end to end: language
// resolution, the translation bridge, retrieval, the dialogue engine and
// persistence.
type Service struct {
	entities  *EntityStore
	store     *Store
	engine    *Engine
	bridge    *translate.Bridge
	speech    *speech.Gateway
	embedder  rag.Embedder
	retriever rag.Retriever
	settings  *language.Settings
	artifacts artifacts.Store
	topK      int
	procLang  string
	logger    *logging.Logger
}

// ServiceConfig bundles the orchestrator's dependencies.
type ServiceConfig struct {
	Entities  *EntityStore
	Store     *Store
	Engine    *Engine
	Bridge    *translate.Bridge
	Speech    *speech.Gateway
	Embedder  rag.Embedder
	Retriever rag.Retriever
	Settings  *language.Settings
	Artifacts artifacts.Store
	TopK      int
	// ProcessingLanguage is the language the model reasons in; it is also
	// the assumed language of requests that carry no signal at all.
	ProcessingLanguage string
	Logger             *logging.Logger
}

// NewService wires the conversation orchestrator. Speech may be nil when
// only the text channel is deployed.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 3
	}
	procLang := cfg.ProcessingLanguage
	if procLang == "" {
		procLang = "fr"
	}
	return &Service{
		entities:  cfg.Entities,
		store:     cfg.Store,
		engine:    cfg.Engine,
		bridge:    cfg.Bridge,
		speech:    cfg.Speech,
		embedder:  cfg.Embedder,
		retriever: cfg.Retriever,
		settings:  cfg.Settings,
		artifacts: cfg.Artifacts,
		topK:      topK,
		procLang:  procLang,
		logger:    logger.Named("conversation"),
	}
}

// HandleTextMessage processes one text turn. Text with no detectable
// language is treated as already being in the processing language.
func (s *Service) HandleTextMessage(ctx context.Context, req TextRequest) (Response, error) {
	ctx, span := serviceTracer.Start(ctx, "conversation.text")
	defer span.End()

	lang := language.Resolve(req.Language, s.settings.GlobalLanguage(), s.procLang)
	return s.respond(ctx, turn{
		instanceID: req.InstanceID,
		sessionID:  req.SessionID,
		lang:       lang,
		text:       req.Text,
		wantAudio:  req.WantAudio,
	})
}

// HandleVoiceMessage transcribes the audio, processes the turn and returns
// a spoken reply alongside the text.
func (s *Service) HandleVoiceMessage(ctx context.Context, req VoiceRequest) (Response, error) {
	ctx, span := serviceTracer.Start(ctx, "conversation.voice")
	defer span.End()

	forced := language.Resolve(req.Language, s.settings.GlobalLanguage(), "")
	text, detected, err := s.speech.Transcribe(ctx, req.Audio, forced)
	if err != nil {
		return Response{}, fmt.Errorf("conversation: transcribe: %w", err)
	}
	span.SetAttributes(attribute.String("detected_language", detected))

	audioPath := ""
	if s.artifacts != nil {
		if path, err := s.artifacts.Put(ctx, req.Audio, ".wav"); err == nil {
			audioPath = path
		} else {
			s.logger.WarnContext(ctx, "failed to store inbound audio", "error", err)
		}
	}

	lang := language.Resolve(req.Language, s.settings.GlobalLanguage(), detected)
	if lang == "" {
		lang = s.procLang
	}
	return s.respond(ctx, turn{
		instanceID: req.InstanceID,
		sessionID:  req.SessionID,
		lang:       lang,
		text:       text,
		audioPath:  audioPath,
		wantAudio:  true,
		transcript: text,
	})
}

type turn struct {
	instanceID uuid.UUID
	sessionID  uuid.UUID // pinned by the caller, uuid.Nil otherwise
	lang       string
	text       string
	audioPath  string
	wantAudio  bool
	transcript string
}

func (s *Service) respond(ctx context.Context, t turn) (Response, error) {
	instance, err := s.entities.GetInstance(ctx, t.instanceID)
	if err != nil {
		return Response{}, err
	}
	entity, err := s.entities.GetEntity(ctx, instance.EntityID)
	if err != nil {
		return Response{}, err
	}

	var speakerID, sessionID uuid.UUID
	if t.sessionID != uuid.Nil {
		speakerID, err = s.store.GetSession(ctx, instance.ID, t.sessionID)
		if err != nil {
			return Response{}, err
		}
		sessionID = t.sessionID
	} else {
		speakerID, err = s.store.EnsureDefaultSpeaker(ctx, instance.ID)
		if err != nil {
			return Response{}, err
		}
		sessionID, err = s.store.GetOrCreateActiveSession(ctx, instance.ID, speakerID)
		if err != nil {
			return Response{}, err
		}
	}

	bridged := s.bridge != nil && s.bridge.Active(t.lang)
	working := t.text
	if bridged {
		working = s.bridge.ToProcessing(ctx, t.text)
	}

	history, err := s.store.History(ctx, sessionID, historyLimit)
	if err != nil {
		return Response{}, err
	}

	if err := s.store.AppendMessage(ctx, StoredMessage{
		SessionID:        sessionID,
		Sender:           ChatRoleUser,
		Content:          t.text,
		SecondaryContent: secondary(bridged, working),
		AudioPath:        t.audioPath,
		Language:         t.lang,
	}); err != nil {
		return Response{}, err
	}

	reply, err := s.engine.Respond(ctx, EngineInput{
		EntityID:     entity.ID,
		SessionID:    sessionID,
		SystemPrompt: entity.SystemPrompt,
		Passages:     s.retrieve(ctx, entity.ID, working),
		History:      history,
		Text:         working,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "engine failed, degrading", "session_id", sessionID, "error", err)
		return s.degrade(ctx, speakerID, sessionID, t, bridged)
	}

	display := reply.Text
	if bridged {
		display = s.bridge.ToDisplay(ctx, reply.Text)
	}

	resp := Response{
		SessionID:  sessionID,
		SpeakerID:  speakerID,
		Text:       display,
		Language:   t.lang,
		Transcript: t.transcript,
	}
	if t.wantAudio && s.speech != nil {
		if path, err := s.speech.Synthesize(ctx, display, t.lang); err == nil {
			resp.AudioPath = path
		} else {
			s.logger.WarnContext(ctx, "synthesis failed, replying text only",
				"session_id", sessionID, "error", err)
		}
	}

	if err := s.store.AppendMessage(ctx, StoredMessage{
		SessionID:        sessionID,
		Sender:           ChatRoleAssistant,
		Content:          display,
		SecondaryContent: secondary(bridged, reply.Text),
		AudioPath:        resp.AudioPath,
		Language:         t.lang,
	}); err != nil {
		return Response{}, err
	}
	return resp, nil
}

// degrade answers with the fixed apology in the user's language and keeps
// the transcript coherent by persisting it as a normal assistant turn.
func (s *Service) degrade(ctx context.Context, speakerID, sessionID uuid.UUID, t turn, bridged bool) (Response, error) {
	display := degradedReply
	if bridged {
		display = s.bridge.ToDisplay(ctx, degradedReply)
	}
	if err := s.store.AppendMessage(ctx, StoredMessage{
		SessionID:        sessionID,
		Sender:           ChatRoleAssistant,
		Content:          display,
		SecondaryContent: secondary(bridged, degradedReply),
		Language:         t.lang,
	}); err != nil {
		return Response{}, err
	}
	return Response{
		SessionID:  sessionID,
		SpeakerID:  speakerID,
		Text:       display,
		Language:   t.lang,
		Transcript: t.transcript,
		Degraded:   true,
	}, nil
}

// retrieve runs the embedding and vector search; retrieval failures reduce
// to an empty context rather than failing the turn.
func (s *Service) retrieve(ctx context.Context, entityID uuid.UUID, query string) []rag.Passage {
	if s.embedder == nil || s.retriever == nil {
		return nil
	}
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.WarnContext(ctx, "embedding failed, skipping retrieval", "error", err)
		return nil
	}
	passages, err := s.retriever.Search(ctx, entityID, vector, s.topK)
	if err != nil {
		s.logger.WarnContext(ctx, "retrieval failed, skipping context", "error", err)
		return nil
	}
	return passages
}

func secondary(bridged bool, workingText string) string {
	if !bridged {
		return ""
	}
	return workingText
}
