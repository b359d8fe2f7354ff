package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrInstanceNotFound signals an unknown or inactive bot instance.
var ErrInstanceNotFound = errors.New("conversation: instance not found")

// Entity is a facility the assistant answers for.
type Entity struct {
	ID           uuid.UUID
	Name         string
	SystemPrompt string
}

// Instance is one deployed assistant bound to an entity.
type Instance struct {
	ID       uuid.UUID
	EntityID uuid.UUID
	Name     string
}

// EntityStore resolves instances and their entities.
type EntityStore struct {
	db StoreDB
}

// NewEntityStore creates an entity store backed by a pgx pool.
func NewEntityStore(db StoreDB) *EntityStore {
	if db == nil {
		panic("conversation: db required")
	}
	return &EntityStore{db: db}
}

// GetInstance loads an active instance.
func (s *EntityStore) GetInstance(ctx context.Context, instanceID uuid.UUID) (*Instance, error) {
	var inst Instance
	err := s.db.QueryRow(ctx, `
		SELECT instance_id, entity_id, name
		FROM instances
		WHERE instance_id = $1 AND is_active`, instanceID).
		Scan(&inst.ID, &inst.EntityID, &inst.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInstanceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: load instance: %w", err)
	}
	return &inst, nil
}

// GetEntity loads an entity with its persona prompt.
func (s *EntityStore) GetEntity(ctx context.Context, entityID uuid.UUID) (*Entity, error) {
	var ent Entity
	err := s.db.QueryRow(ctx, `
		SELECT entity_id, name, COALESCE(system_prompt, '')
		FROM entities
		WHERE entity_id = $1`, entityID).
		Scan(&ent.ID, &ent.Name, &ent.SystemPrompt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("conversation: entity %s not found", entityID)
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: load entity: %w", err)
	}
	return &ent, nil
}
