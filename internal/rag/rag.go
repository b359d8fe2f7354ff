// Package rag consumes the knowledge index: it embeds queries and returns
// the top-k relevant passages. Ranking is owned by the external vector
// index; nothing here re-scores results.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
)

// Passage is one retrieved knowledge snippet.
type Passage struct {
	Title string
	Text  string
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever returns the top-k passages for an entity, nearest first.
type Retriever interface {
	Search(ctx context.Context, entityID uuid.UUID, vector []float32, topK int) ([]Passage, error)
}

type embeddingClient interface {
	CreateEmbeddings(ctx context.Context, request openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// OpenAIEmbedder embeds text through the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client embeddingClient
	model  string
}

// NewOpenAIEmbedder creates an embedder.
func NewOpenAIEmbedder(client embeddingClient, model string) *OpenAIEmbedder {
	if client == nil {
		panic("rag: embedding client cannot be nil")
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &OpenAIEmbedder{client: client, model: model}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, &openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("rag: embed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("rag: embedding response empty")
	}
	return resp.Data[0].Embedding, nil
}

// VectorLiteral renders a vector as the pgvector text literal "[1,2,3]".
func VectorLiteral(vec []float32) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), ".")
	}
	return "[" + strings.Join(parts, ",") + "]"
}
