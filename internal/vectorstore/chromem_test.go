package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqna/internal/config"
)

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(&config.ChromemConfig{Collection: "test", InMemory: true})
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))
	return store
}

func record(id, userID, text string, embedding []float32) Record {
	return Record{
		ID:        id,
		Embedding: embedding,
		Metadata: map[string]string{
			MetaUserID:     userID,
			MetaDocumentID: "doc-" + id,
			MetaText:       text,
		},
	}
}

func TestChromemQueryRanksBySimilarity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, []Record{
		record("a", "u1", "about cats", []float32{1, 0, 0}),
		record("b", "u1", "about dogs", []float32{0, 1, 0}),
		record("c", "u1", "about fish", []float32{0, 0, 1}),
	})
	require.NoError(t, err)

	matches, err := store.Query(ctx, []float32{0.9, 0.1, 0}, 2, "")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].ID)
	assert.Equal(t, "about cats", matches[0].Content)
	assert.Equal(t, "u1", matches[0].Metadata[MetaUserID])
	assert.GreaterOrEqual(t, matches[0].Similarity, matches[1].Similarity)
}

func TestChromemQueryUserFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, []Record{
		record("a", "alice", "alice text", []float32{1, 0, 0}),
		record("b", "bob", "bob text", []float32{0.9, 0.1, 0}),
	})
	require.NoError(t, err)

	matches, err := store.Query(ctx, []float32{1, 0, 0}, 1, "bob")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "b", matches[0].ID)

	// unscoped query sees both users' records
	matches, err = store.Query(ctx, []float32{1, 0, 0}, 2, "")
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestChromemQueryClampsTopK(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, []Record{
		record("a", "u1", "only record", []float32{1, 0, 0}),
	})
	require.NoError(t, err)

	matches, err := store.Query(ctx, []float32{1, 0, 0}, 4, "")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestChromemQueryEmptyCollection(t *testing.T) {
	store := newTestStore(t)

	matches, err := store.Query(context.Background(), []float32{1, 0, 0}, 4, "")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestChromemUpsertNothing(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Upsert(context.Background(), nil))
}
