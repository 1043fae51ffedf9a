package chromem_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-rag/internal/models"
	"campus-rag/internal/vectorindex/chromem"
)

func newStore(t *testing.T) *chromem.Store {
	t.Helper()
	s, err := chromem.New("")
	require.NoError(t, err)
	return s
}

func record(id string, vec []float32, text string, index int) models.Record {
	return models.Record{
		ID:     id,
		Vector: vec,
		Metadata: models.Metadata{
			SourceID:    "doc.md",
			URL:         "https://example.edu/doc",
			Text:        text,
			ChunkIndex:  index,
			TotalChunks: 3,
		},
	}
}

func TestUpsertAndQuery(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	records := []models.Record{
		record("a", []float32{1, 0, 0}, "first chunk", 0),
		record("b", []float32{0, 1, 0}, "second chunk", 1),
		record("c", []float32{0, 0, 1}, "third chunk", 2),
	}
	require.NoError(t, s.Upsert(ctx, records, "campus"))

	matches, err := s.Query(ctx, []float32{1, 0, 0}, 2, "campus")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].ID, "nearest neighbor should rank first")
	assert.InDelta(t, 1.0, float64(matches[0].Score), 1e-4)
	assert.Equal(t, "first chunk", matches[0].Metadata.Text)
	assert.Equal(t, "doc.md", matches[0].Metadata.SourceID)
	assert.Equal(t, "https://example.edu/doc", matches[0].Metadata.URL)
	assert.Equal(t, 3, matches[0].Metadata.TotalChunks)
}

func TestQueryEmptyNamespace(t *testing.T) {
	s := newStore(t)

	matches, err := s.Query(context.Background(), []float32{1, 0, 0}, 5, "campus")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestQueryClampsTopK(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []models.Record{record("a", []float32{1, 0, 0}, "only chunk", 0)}, "campus"))

	matches, err := s.Query(ctx, []float32{1, 0, 0}, 10, "campus")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestUpsertSameIDOverwrites(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []models.Record{record("a", []float32{1, 0, 0}, "old text", 0)}, "campus"))
	require.NoError(t, s.Upsert(ctx, []models.Record{record("a", []float32{1, 0, 0}, "new text", 0)}, "campus"))

	matches, err := s.Query(ctx, []float32{1, 0, 0}, 10, "campus")
	require.NoError(t, err)
	require.Len(t, matches, 1, "re-ingesting the same ID must not duplicate")
	assert.Equal(t, "new text", matches[0].Metadata.Text)
}

func TestNamespaceIsolation(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []models.Record{record("a", []float32{1, 0, 0}, "campus chunk", 0)}, "campus"))
	require.NoError(t, s.Upsert(ctx, []models.Record{record("b", []float32{1, 0, 0}, "staging chunk", 0)}, "staging"))

	matches, err := s.Query(ctx, []float32{1, 0, 0}, 10, "campus")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].ID)
}

func TestDeleteAll(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []models.Record{record("a", []float32{1, 0, 0}, "chunk", 0)}, "campus"))
	require.NoError(t, s.DeleteAll(ctx, "campus"))

	matches, err := s.Query(ctx, []float32{1, 0, 0}, 5, "campus")
	require.NoError(t, err)
	assert.Empty(t, matches)

	require.NoError(t, s.DeleteAll(ctx, "campus"), "purging an absent namespace is a no-op")
}

func TestRecreateDropsEverything(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []models.Record{record("a", []float32{1, 0, 0}, "chunk", 0)}, "campus"))
	require.NoError(t, s.Upsert(ctx, []models.Record{record("b", []float32{0, 1, 0}, "chunk", 0)}, "staging"))
	require.NoError(t, s.Recreate(ctx))

	for _, ns := range []string{"campus", "staging"} {
		matches, err := s.Query(ctx, []float32{1, 0, 0}, 5, ns)
		require.NoError(t, err)
		assert.Empty(t, matches)
	}
}
