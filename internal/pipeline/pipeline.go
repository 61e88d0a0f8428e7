// Package pipeline orchestrates document ingestion and retrieval-augmented
// chat over the loader, embedding, vector store, generation and session
// components.
package pipeline

import (
	"context"

	"docqna/internal/config"
	"docqna/internal/session"
	"docqna/internal/vectorstore"
)

// Loader reads a document into ordered plain-text segments.
type Loader interface {
	Load(filePath, fileType string) ([]string, error)
}

// Embedder maps text to a fixed-length vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator invokes the hosted chat-completion model.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Service wires the pipeline components together.
type Service struct {
	loader    Loader
	embedder  Embedder
	generator Generator
	store     vectorstore.Store
	sessions  session.Store
	cfg       *config.RAGConfig
}

func NewService(l Loader, e Embedder, g Generator, store vectorstore.Store, sessions session.Store, cfg *config.RAGConfig) *Service {
	return &Service{
		loader:    l,
		embedder:  e,
		generator: g,
		store:     store,
		sessions:  sessions,
		cfg:       cfg,
	}
}
