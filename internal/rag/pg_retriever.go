package rag

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Querier is the slice of pgxpool.Pool the retriever needs; pgxmock
// satisfies it in tests.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PGRetriever searches knowledge chunks by pgvector nearest-neighbour
// distance. Read-only.
type PGRetriever struct {
	db Querier
}

// NewPGRetriever creates a Postgres-backed retriever.
func NewPGRetriever(db Querier) *PGRetriever {
	if db == nil {
		panic("rag: db cannot be nil")
	}
	return &PGRetriever{db: db}
}

func (r *PGRetriever) Search(ctx context.Context, entityID uuid.UUID, vector []float32, topK int) ([]Passage, error) {
	if topK <= 0 {
		topK = 3
	}
	rows, err := r.db.Query(ctx, `
		SELECT d.title, c.content
		FROM kb_chunks c
		JOIN kb_documents d ON d.document_id = c.document_id
		WHERE d.entity_id = $1
		ORDER BY c.embedding <-> $2::vector
		LIMIT $3`,
		entityID, VectorLiteral(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("rag: search: %w", err)
	}
	defer rows.Close()

	var out []Passage
	for rows.Next() {
		var p Passage
		if err := rows.Scan(&p.Title, &p.Text); err != nil {
			return nil, fmt.Errorf("rag: scan passage: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rag: iterate passages: %w", err)
	}
	return out, nil
}
