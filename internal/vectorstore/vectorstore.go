// Package vectorstore stores chunk embeddings and answers nearest-neighbor
// queries. Two backends are available: an embedded chromem-go database and a
// Postgres table with pgvector.
package vectorstore

import (
	"context"
	"fmt"

	"docqna/internal/config"
)

// Metadata keys attached to every stored record.
const (
	MetaUserID     = "user_id"
	MetaDocumentID = "document_id"
	MetaText       = "text"
)

// Record is one (id, embedding, metadata) triple to index.
type Record struct {
	ID        string
	Embedding []float32
	Metadata  map[string]string
}

// Match is a ranked query result carrying the stored metadata.
type Match struct {
	ID         string
	Similarity float32
	Content    string
	Metadata   map[string]string
}

// Store is the vector index contract used by the pipeline. Similarity is
// cosine in both backends.
type Store interface {
	// Init creates the collection or table if it does not exist; idempotent.
	Init(ctx context.Context) error
	// Upsert indexes all records in one batch.
	Upsert(ctx context.Context, records []Record) error
	// Query returns the topK nearest records. An empty userID leaves the
	// search unscoped; otherwise only that user's records match.
	Query(ctx context.Context, embedding []float32, topK int, userID string) ([]Match, error)
}

// New builds the configured backend.
func New(cfg *config.VectorStoreConfig) (Store, error) {
	switch cfg.Type {
	case "chromem", "":
		return NewChromemStore(&cfg.Chromem)
	case "postgres":
		return NewPostgresStore(&cfg.Postgres)
	default:
		return nil, fmt.Errorf("unknown vector store type: %s", cfg.Type)
	}
}
