package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"docqna/internal/helper"
	"docqna/internal/loader"
	"docqna/internal/models"
	"docqna/internal/qna"
	"docqna/internal/vectorstore"
)

const defaultNumQuestions = 3

// Ingest turns one uploaded document into indexed chunks and a generated Q&A
// list, stored in the session registry under userID. Re-uploading a document
// adds a second set of vector records; the session's Q&A list is replaced.
func (s *Service) Ingest(ctx context.Context, filePath, fileType, userID string, numQuestions int) (models.IngestResult, error) {
	if numQuestions <= 0 {
		numQuestions = defaultNumQuestions
	}

	segments, err := s.loader.Load(filePath, fileType)
	if err != nil {
		return models.IngestResult{}, err
	}

	chunks := loader.SplitText(strings.Join(segments, "\n"), s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	if len(chunks) == 0 {
		return models.IngestResult{}, fmt.Errorf("document %s contains no text", filePath)
	}

	documentID, err := helper.GenerateUUID()
	if err != nil {
		return models.IngestResult{}, err
	}

	records := make([]vectorstore.Record, 0, len(chunks))
	for _, chunk := range chunks {
		embedding, err := s.embedder.EmbedQuery(ctx, chunk)
		if err != nil {
			return models.IngestResult{}, err
		}
		id, err := helper.GenerateUUID()
		if err != nil {
			return models.IngestResult{}, err
		}
		records = append(records, vectorstore.Record{
			ID:        id,
			Embedding: embedding,
			Metadata: map[string]string{
				vectorstore.MetaUserID:     userID,
				vectorstore.MetaDocumentID: documentID,
				vectorstore.MetaText:       chunk,
			},
		})
	}

	if err := s.store.Upsert(ctx, records); err != nil {
		return models.IngestResult{}, err
	}
	log.Info().Str("user_id", userID).Int("chunks", len(records)).Msg("indexed document chunks")

	fullText := strings.Join(chunks, "\n")
	prompt := fmt.Sprintf(models.QnAPromptTemplate, numQuestions, fullText)
	reply, err := s.generator.Generate(ctx, "", prompt)
	if err != nil {
		return models.IngestResult{}, err
	}

	pairs, degraded := qna.Parse(reply)
	if degraded {
		log.Warn().Str("user_id", userID).Int("pairs", len(pairs)).Msg("structured Q&A parse failed, used fallback")
	}

	s.sessions.Put(userID, pairs)
	return models.IngestResult{
		UserID:   userID,
		Pairs:    pairs,
		Degraded: degraded,
		Chunks:   len(chunks),
	}, nil
}
