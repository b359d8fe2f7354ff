package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ElYoussoupha/TonToumaBot/internal/conversation"
	"github.com/ElYoussoupha/TonToumaBot/pkg/logging"
)

// maxAudioBytes caps uploaded voice messages at 15 MiB.
const maxAudioBytes = 15 << 20

// Conversations is the slice of the conversation service the chat handler
// needs.
type Conversations interface {
	HandleTextMessage(ctx context.Context, req conversation.TextRequest) (conversation.Response, error)
	HandleVoiceMessage(ctx context.Context, req conversation.VoiceRequest) (conversation.Response, error)
}

// ChatHandler exposes the text and voice chat endpoints.
type ChatHandler struct {
	conversations Conversations
	logger        *logging.Logger
}

// NewChatHandler creates the chat handler.
func NewChatHandler(conversations Conversations, logger *logging.Logger) *ChatHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatHandler{conversations: conversations, logger: logger.Named("chat_handler")}
}

type textMessageRequest struct {
	Text      string `json:"text"`
	Language  string `json:"language,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	WantAudio bool   `json:"want_audio,omitempty"`
}

// parseSessionPin turns an optional session id into a UUID; empty input
// means no pin.
func parseSessionPin(raw string) (uuid.UUID, bool) {
	if strings.TrimSpace(raw) == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// HandleText processes POST /chat/{instanceID}/text.
func (h *ChatHandler) HandleText(w http.ResponseWriter, r *http.Request) {
	instanceID, err := uuid.Parse(chi.URLParam(r, "instanceID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid instance id")
		return
	}

	var req textMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	sessionID, ok := parseSessionPin(req.SessionID)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	resp, err := h.conversations.HandleTextMessage(r.Context(), conversation.TextRequest{
		InstanceID: instanceID,
		Text:       req.Text,
		Language:   req.Language,
		SessionID:  sessionID,
		WantAudio:  req.WantAudio,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleVoice processes POST /chat/{instanceID}/voice. The body is
// multipart form data with the recording under the "audio" field and
// optional "language" and "session_id" fields.
func (h *ChatHandler) HandleVoice(w http.ResponseWriter, r *http.Request) {
	instanceID, err := uuid.Parse(chi.URLParam(r, "instanceID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid instance id")
		return
	}

	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, _, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio field is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read audio")
		return
	}
	if len(audio) == 0 {
		writeError(w, http.StatusBadRequest, "audio is empty")
		return
	}

	sessionID, ok := parseSessionPin(r.FormValue("session_id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	resp, err := h.conversations.HandleVoiceMessage(r.Context(), conversation.VoiceRequest{
		InstanceID: instanceID,
		Audio:      audio,
		Language:   r.FormValue("language"),
		SessionID:  sessionID,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ChatHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, conversation.ErrInstanceNotFound) {
		writeError(w, http.StatusNotFound, "instance not found")
		return
	}
	if errors.Is(err, conversation.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	h.logger.ErrorContext(r.Context(), "chat request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
