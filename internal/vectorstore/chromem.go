package vectorstore

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"

	"docqna/internal/config"
)

const compress = false

// ChromemStore keeps vectors in an embedded chromem-go database, persisted
// on disk unless configured in-memory.
type ChromemStore struct {
	db             *chromem.DB
	collection     *chromem.Collection
	collectionName string
}

func NewChromemStore(cfg *config.ChromemConfig) (*ChromemStore, error) {
	var db *chromem.DB
	var err error
	if cfg.InMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	}
	return &ChromemStore{db: db, collectionName: cfg.Collection}, nil
}

func (s *ChromemStore) Init(ctx context.Context) error {
	c, err := s.db.GetOrCreateCollection(s.collectionName, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create/get collection: %v", err)
	}
	s.collection = c
	return nil
}

func (s *ChromemStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(records))
	for i, rec := range records {
		docs[i] = chromem.Document{
			ID:        rec.ID,
			Content:   rec.Metadata[MetaText],
			Metadata:  rec.Metadata,
			Embedding: rec.Embedding,
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	return nil
}

func (s *ChromemStore) Query(ctx context.Context, embedding []float32, topK int, userID string) ([]Match, error) {
	// chromem rejects nResults larger than the collection size
	if count := s.collection.Count(); topK > count {
		topK = count
	}
	if topK <= 0 {
		return nil, nil
	}

	opts := chromem.QueryOptions{
		QueryEmbedding: embedding,
		NResults:       topK,
	}
	if userID != "" {
		opts.Where = map[string]string{MetaUserID: userID}
	}

	results, err := s.collection.QueryWithOptions(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{
			ID:         r.ID,
			Similarity: r.Similarity,
			Content:    r.Content,
			Metadata:   r.Metadata,
		})
	}
	return matches, nil
}
