package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqna/internal/config"
	"docqna/internal/loader"
	"docqna/internal/models"
	"docqna/internal/session"
	"docqna/internal/vectorstore"
)

// mockLoader implements Loader for testing
type mockLoader struct {
	segments []string
	err      error
}

func (m *mockLoader) Load(filePath, fileType string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.segments, nil
}

// mockEmbedder implements Embedder for testing
type mockEmbedder struct {
	err   error
	calls []string
}

func (m *mockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.calls = append(m.calls, text)
	return []float32{float32(len(text)), 1, 0}, nil
}

// mockGenerator implements Generator for testing
type mockGenerator struct {
	reply   string
	err     error
	prompts []string
	systems []string
}

func (m *mockGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.systems = append(m.systems, system)
	m.prompts = append(m.prompts, prompt)
	return m.reply, nil
}

// mockStore implements vectorstore.Store for testing
type mockStore struct {
	records     []vectorstore.Record
	matches     []vectorstore.Match
	lastTopK    int
	lastUserID  string
	upsertCalls int
}

func (m *mockStore) Init(ctx context.Context) error { return nil }

func (m *mockStore) Upsert(ctx context.Context, records []vectorstore.Record) error {
	m.upsertCalls++
	m.records = append(m.records, records...)
	return nil
}

func (m *mockStore) Query(ctx context.Context, embedding []float32, topK int, userID string) ([]vectorstore.Match, error) {
	m.lastTopK = topK
	m.lastUserID = userID
	return m.matches, nil
}

func newTestService(l Loader, e Embedder, g Generator, st vectorstore.Store, sessions session.Store) *Service {
	cfg := &config.RAGConfig{ChunkSize: 1024, ChunkOverlap: 100, TopK: 4, FilterByUser: true}
	return NewService(l, e, g, st, sessions, cfg)
}

func TestIngestIndexesChunksAndStoresQnA(t *testing.T) {
	store := &mockStore{}
	sessions := session.NewMemoryStore()
	gen := &mockGenerator{reply: `[{"question": "What is X?", "answer": "X is Y."}]`}
	svc := newTestService(
		&mockLoader{segments: []string{"page one text", "page two text"}},
		&mockEmbedder{}, gen, store, sessions,
	)

	res, err := svc.Ingest(context.Background(), "doc.pdf", "pdf", "u1", 3)
	require.NoError(t, err)

	assert.Equal(t, "u1", res.UserID)
	assert.False(t, res.Degraded)
	require.Len(t, res.Pairs, 1)
	assert.Equal(t, "What is X?", res.Pairs[0].Question)

	// one batch upsert, every record tagged with the owning user
	assert.Equal(t, 1, store.upsertCalls)
	require.NotEmpty(t, store.records)
	seen := map[string]bool{}
	for _, rec := range store.records {
		assert.Equal(t, "u1", rec.Metadata[vectorstore.MetaUserID])
		assert.NotEmpty(t, rec.Metadata[vectorstore.MetaDocumentID])
		assert.NotEmpty(t, rec.Metadata[vectorstore.MetaText])
		assert.False(t, seen[rec.ID], "chunk ids must be unique")
		seen[rec.ID] = true
	}

	// Q&A list lands in the session registry
	sess, err := sessions.Get("u1")
	require.NoError(t, err)
	assert.Equal(t, res.Pairs, sess.QnA)

	// the generation prompt asks for the requested number of questions
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "generate 3 important interview-style questions")
}

func TestIngestUnsupportedFormat(t *testing.T) {
	svc := newTestService(loader.FileLoader{}, &mockEmbedder{}, &mockGenerator{}, &mockStore{}, session.NewMemoryStore())

	_, err := svc.Ingest(context.Background(), "notes.txt", "txt", "u1", 3)
	assert.ErrorIs(t, err, loader.ErrUnsupportedFormat)
}

func TestIngestFallbackParseMarksDegraded(t *testing.T) {
	sessions := session.NewMemoryStore()
	gen := &mockGenerator{reply: "Q1: What is X?\nA1: X is Y.\n"}
	svc := newTestService(&mockLoader{segments: []string{"some text"}}, &mockEmbedder{}, gen, &mockStore{}, sessions)

	res, err := svc.Ingest(context.Background(), "doc.pdf", "pdf", "u1", 2)
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	require.Len(t, res.Pairs, 1)
	assert.Equal(t, "X is Y.", res.Pairs[0].Answer)
}

func TestIngestReuploadAccumulatesRecordsReplacesQnA(t *testing.T) {
	store := &mockStore{}
	sessions := session.NewMemoryStore()
	gen := &mockGenerator{reply: `[{"question": "q", "answer": "a"}]`}
	svc := newTestService(&mockLoader{segments: []string{"same document"}}, &mockEmbedder{}, gen, store, sessions)

	_, err := svc.Ingest(context.Background(), "doc.pdf", "pdf", "u1", 1)
	require.NoError(t, err)
	first := len(store.records)

	_, err = svc.Ingest(context.Background(), "doc.pdf", "pdf", "u1", 1)
	require.NoError(t, err)
	assert.Equal(t, 2*first, len(store.records), "re-upload duplicates vector records")

	sess, err := sessions.Get("u1")
	require.NoError(t, err)
	assert.Len(t, sess.QnA, 1, "session Q&A list is replaced, not accumulated")
}

func TestIngestGenerationFailurePropagates(t *testing.T) {
	gen := &mockGenerator{err: errors.New("quota exceeded")}
	svc := newTestService(&mockLoader{segments: []string{"text"}}, &mockEmbedder{}, gen, &mockStore{}, session.NewMemoryStore())

	_, err := svc.Ingest(context.Background(), "doc.pdf", "pdf", "u1", 3)
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestAnswerUnknownUser(t *testing.T) {
	svc := newTestService(&mockLoader{}, &mockEmbedder{}, &mockGenerator{}, &mockStore{}, session.NewMemoryStore())

	_, err := svc.Answer(context.Background(), "nobody", "hello?")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestAnswerBuildsContextAndHistory(t *testing.T) {
	sessions := session.NewMemoryStore()
	sessions.Put("u1", nil)
	require.NoError(t, sessions.AppendTurn("u1", models.ChatTurn{Question: "earlier question", Answer: "earlier answer"}))

	store := &mockStore{matches: []vectorstore.Match{
		{ID: "c1", Content: "retrieved chunk one"},
		{ID: "c2", Content: "retrieved chunk two"},
	}}
	gen := &mockGenerator{reply: "the answer"}
	svc := newTestService(&mockLoader{}, &mockEmbedder{}, gen, store, sessions)

	turn, err := svc.Answer(context.Background(), "u1", "what now?")
	require.NoError(t, err)
	assert.Equal(t, "what now?", turn.Question)
	assert.Equal(t, "the answer", turn.Answer)

	// retrieval is scoped to the asking user and bounded by top-k
	assert.Equal(t, 4, store.lastTopK)
	assert.Equal(t, "u1", store.lastUserID)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "retrieved chunk one")
	assert.Contains(t, prompt, "retrieved chunk two")
	assert.Contains(t, prompt, "Q: earlier question")
	assert.Contains(t, prompt, "A: earlier answer")
	assert.Contains(t, prompt, "what now?")
	assert.True(t, strings.Index(prompt, "earlier question") < strings.Index(prompt, "what now?"),
		"history comes before the new question")
	assert.Equal(t, models.ChatSystemPrompt, gen.systems[0])
}

func TestAnswerDefaultsOnEmptyCompletion(t *testing.T) {
	sessions := session.NewMemoryStore()
	sessions.Put("u1", nil)
	svc := newTestService(&mockLoader{}, &mockEmbedder{}, &mockGenerator{reply: "  "}, &mockStore{}, sessions)

	turn, err := svc.Answer(context.Background(), "u1", "anything?")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAnswer, turn.Answer)
}

func TestAnswerDoesNotAppendToTranscript(t *testing.T) {
	sessions := session.NewMemoryStore()
	sessions.Put("u1", nil)
	svc := newTestService(&mockLoader{}, &mockEmbedder{}, &mockGenerator{reply: "ok"}, &mockStore{}, sessions)

	_, err := svc.Answer(context.Background(), "u1", "q?")
	require.NoError(t, err)

	sess, err := sessions.Get("u1")
	require.NoError(t, err)
	assert.Empty(t, sess.Chat, "appending is the caller's responsibility")
}
