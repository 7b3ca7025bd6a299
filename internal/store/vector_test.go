package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"segrag/internal/chunker"
)

// fakeEmbedding maps known texts onto fixed unit vectors so similarity is
// exactly 1 for a matching query and 0 otherwise. No network involved.
func fakeEmbedding() chromem.EmbeddingFunc {
	vectors := map[string][]float32{
		"cats purr": {1, 0, 0},
		"dogs bark": {0, 1, 0},
		"fish swim": {0, 0, 1},
	}
	return func(_ context.Context, text string) ([]float32, error) {
		if v, ok := vectors[text]; ok {
			return v, nil
		}
		return []float32{0, 0, 0}, nil
	}
}

func newTestIndex(t *testing.T) (*VectorIndex, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vectors.gob.gz")
	v, err := NewVectorIndex(path, fakeEmbedding(), nil)
	require.NoError(t, err)
	return v, path
}

func TestVectorIndexAddAndSearch(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestIndex(t)

	require.NoError(t, v.AddDocument(ctx, "animals.md", []chunker.Chunk{
		{Text: "cats purr", Section: "Cats"},
		{Text: "dogs bark", Section: "Dogs"},
		{Text: "fish swim", Section: "Fish"},
	}))
	assert.Equal(t, 3, v.Count())

	hits, err := v.Search(ctx, "dogs bark", 3, 0.5)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	assert.Equal(t, "animals.md", hits[0].DocID)
	assert.Equal(t, 1, hits[0].ChunkIndex)
	assert.Equal(t, "dogs bark", hits[0].Content)
	assert.Equal(t, "Dogs", hits[0].Section)
	assert.InDelta(t, 1.0, float64(hits[0].Similarity), 1e-5)
}

func TestVectorIndexSearchClampsTopK(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestIndex(t)

	require.NoError(t, v.AddDocument(ctx, "animals.md", []chunker.Chunk{
		{Text: "cats purr"},
	}))

	// Asking for more hits than the collection holds must not fail.
	hits, err := v.Search(ctx, "cats purr", 50, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestVectorIndexSearchEmpty(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestIndex(t)

	hits, err := v.Search(ctx, "anything", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestVectorIndexRemoveDocument(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestIndex(t)

	require.NoError(t, v.AddDocument(ctx, "a.md", []chunker.Chunk{{Text: "cats purr"}}))
	require.NoError(t, v.AddDocument(ctx, "b.md", []chunker.Chunk{{Text: "dogs bark"}}))
	require.Equal(t, 2, v.Count())

	require.NoError(t, v.RemoveDocument(ctx, "a.md"))
	assert.Equal(t, 1, v.Count())

	hits, err := v.Search(ctx, "dogs bark", 1, 0.5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b.md", hits[0].DocID)
}

func TestVectorIndexReset(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestIndex(t)

	require.NoError(t, v.AddDocument(ctx, "a.md", []chunker.Chunk{{Text: "cats purr"}}))
	require.NoError(t, v.Reset())
	assert.Equal(t, 0, v.Count())

	// The index stays usable after a reset.
	require.NoError(t, v.AddDocument(ctx, "a.md", []chunker.Chunk{{Text: "fish swim"}}))
	assert.Equal(t, 1, v.Count())
}

func TestVectorIndexPersistence(t *testing.T) {
	ctx := context.Background()
	v, path := newTestIndex(t)

	require.NoError(t, v.AddDocument(ctx, "animals.md", []chunker.Chunk{
		{Text: "cats purr"},
		{Text: "dogs bark"},
	}))
	require.NoError(t, v.Save())

	reloaded, err := NewVectorIndex(path, fakeEmbedding(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Count())

	hits, err := reloaded.Search(ctx, "cats purr", 2, 0.5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 0, hits[0].ChunkIndex)
}
