package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// defaultSpeakerName identifies the anonymous speaker every instance gets.
const defaultSpeakerName = "default"

// StoreDB is the pgx surface the store needs; pgxmock satisfies it in
// tests.
type StoreDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ErrSessionNotFound is returned when a pinned session does not exist or
// belongs to another instance.
var ErrSessionNotFound = errors.New("conversation: session not found")

// StoredMessage is one persisted conversation message. SecondaryContent
// holds the processing-language rendition when the user speaks the bridge
// language; AudioPath references the stored artifact for voice turns.
// Tool results are stored as sender "tool" with the tool name alongside so
// later turns replay the identifiers the model obtained.
type StoredMessage struct {
	ID               uuid.UUID
	SessionID        uuid.UUID
	Sender           string
	Content          string
	SecondaryContent string
	AudioPath        string
	Language         string
	ToolName         string
	CreatedAt        time.Time
}

// Store persists speakers, sessions and messages.
type Store struct {
	db StoreDB
}

// NewStore creates a conversation store backed by a pgx pool.
func NewStore(db StoreDB) *Store {
	if db == nil {
		panic("conversation: db required")
	}
	return &Store{db: db}
}

// EnsureDefaultSpeaker returns the instance's default speaker, creating it
// on first use. The upsert makes concurrent first calls converge on one
// row.
func (s *Store) EnsureDefaultSpeaker(ctx context.Context, instanceID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx, `
		INSERT INTO speakers (speaker_id, instance_id, name, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (instance_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING speaker_id`,
		uuid.New(), instanceID, defaultSpeakerName).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("conversation: ensure speaker: %w", err)
	}
	return id, nil
}

// GetOrCreateActiveSession returns the speaker's open session, creating
// one when none is active.
func (s *Store) GetOrCreateActiveSession(ctx context.Context, instanceID, speakerID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx, `
		SELECT session_id FROM sessions
		WHERE instance_id = $1 AND speaker_id = $2 AND is_active
		ORDER BY created_at DESC
		LIMIT 1`, instanceID, speakerID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("conversation: find session: %w", err)
	}

	id = uuid.New()
	if _, err := s.db.Exec(ctx, `
		INSERT INTO sessions (session_id, instance_id, speaker_id, is_active, created_at)
		VALUES ($1, $2, $3, TRUE, NOW())`, id, instanceID, speakerID); err != nil {
		return uuid.Nil, fmt.Errorf("conversation: create session: %w", err)
	}
	return id, nil
}

// GetSession validates a caller-pinned session against the instance and
// returns its speaker.
func (s *Store) GetSession(ctx context.Context, instanceID, sessionID uuid.UUID) (uuid.UUID, error) {
	var speakerID uuid.UUID
	err := s.db.QueryRow(ctx, `
		SELECT speaker_id FROM sessions
		WHERE session_id = $1 AND instance_id = $2`, sessionID, instanceID).Scan(&speakerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrSessionNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("conversation: get session: %w", err)
	}
	return speakerID, nil
}

// CloseSession marks a session inactive.
func (s *Store) CloseSession(ctx context.Context, sessionID uuid.UUID) error {
	if _, err := s.db.Exec(ctx, `
		UPDATE sessions SET is_active = FALSE WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("conversation: close session: %w", err)
	}
	return nil
}

// AppendMessage persists one message.
func (s *Store) AppendMessage(ctx context.Context, msg StoredMessage) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if _, err := s.db.Exec(ctx, `
		INSERT INTO messages
			(message_id, session_id, sender, content, secondary_content, audio_path, language, tool_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
		msg.ID, msg.SessionID, msg.Sender, msg.Content,
		msg.SecondaryContent, msg.AudioPath, msg.Language, msg.ToolName); err != nil {
		return fmt.Errorf("conversation: append message: %w", err)
	}
	return nil
}

// History returns the session's most recent messages in chronological
// order. The processing-language rendition wins when present so the model
// reads a monolingual transcript; tool rows replay verbatim so identifiers
// the model obtained in earlier turns stay usable.
func (s *Store) History(ctx context.Context, sessionID uuid.UUID, limit int) ([]ChatMessage, error) {
	if limit <= 0 {
		limit = historyLimit
	}
	rows, err := s.db.Query(ctx, `
		SELECT sender, content, secondary_content, tool_name
		FROM (
			SELECT sender, content, secondary_content, tool_name, created_at
			FROM messages
			WHERE session_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("conversation: load history: %w", err)
	}
	defer rows.Close()

	var out []ChatMessage
	for rows.Next() {
		var sender, content, secondary, toolName string
		if err := rows.Scan(&sender, &content, &secondary, &toolName); err != nil {
			return nil, fmt.Errorf("conversation: scan message: %w", err)
		}
		text := content
		if secondary != "" {
			text = secondary
		}
		msg := ChatMessage{Role: ChatRoleUser, Content: text}
		switch sender {
		case ChatRoleAssistant:
			msg.Role = ChatRoleAssistant
		case ChatRoleTool:
			msg = ChatMessage{Role: ChatRoleTool, Name: toolName, Content: content}
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}
