package embedder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otto-pm/repoindex/internal/storage"
	"github.com/otto-pm/repoindex/pkg/types"
)

// mockProvider scripts EmbedBatch behavior per call and counts texts
// actually sent to the provider.
type mockProvider struct {
	batchSize int
	calls     int
	sentTexts []string
	embedFn   func(call int, texts []string) ([][]float32, error)
}

func (m *mockProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	m.sentTexts = append(m.sentTexts, texts...)
	if m.embedFn != nil {
		return m.embedFn(m.calls, texts)
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (m *mockProvider) Name() string  { return "mock" }
func (m *mockProvider) Model() string { return "mock-model" }
func (m *mockProvider) Dimension() int {
	return 3
}
func (m *mockProvider) MaxBatchSize() int { return m.batchSize }

func newRepoEmbedder(t *testing.T, p Provider, cache *Cache) (*RepoEmbedder, *storage.RepoStore) {
	t.Helper()
	fs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	store := storage.NewRepoStore(fs)
	return NewRepoEmbedder(store, p, cache, zerolog.Nop()), store
}

func makeChunks(n int) []types.Chunk {
	chunks := make([]types.Chunk, n)
	for i := range chunks {
		content := fmt.Sprintf("def f%d(): pass", i)
		chunks[i] = types.Chunk{
			ChunkID:     types.ChunkIDFor("octo/webapp", "main.py", i),
			Repo:        "octo/webapp",
			FilePath:    "main.py",
			ChunkIndex:  i,
			Content:     content,
			ContentHash: types.HashContent(content),
			ChunkType:   types.ChunkFunction,
			Language:    "python",
			EndLine:     1,
		}
	}
	return chunks
}

func TestEmbedRepositoryNotIngested(t *testing.T) {
	e, _ := newRepoEmbedder(t, &mockProvider{batchSize: 10}, nil)

	_, err := e.EmbedRepository(context.Background(), "octo/webapp", false)
	var notIndexed *types.NotIndexedError
	assert.ErrorAs(t, err, &notIndexed)
}

func TestEmbedRepositoryHappyPath(t *testing.T) {
	p := &mockProvider{batchSize: 4}
	e, store := newRepoEmbedder(t, p, nil)
	ctx := context.Background()

	require.NoError(t, store.SaveChunks(ctx, "octo/webapp", makeChunks(10)))

	status, err := e.EmbedRepository(ctx, "octo/webapp", false)
	require.NoError(t, err)
	assert.True(t, status.Success)
	assert.Equal(t, 10, status.Stats.Total)
	assert.Equal(t, 10, status.Stats.NewlyEmbedded)
	assert.Equal(t, 0, status.Stats.Failed)
	assert.Equal(t, 3, p.calls, "10 chunks at batch size 4 take 3 batches")

	saved, err := store.LoadChunks(ctx, "octo/webapp")
	require.NoError(t, err)
	for _, c := range saved {
		assert.True(t, c.HasEmbedding())
		assert.Equal(t, "mock-model", c.EmbeddingModel)
		assert.Equal(t, 3, c.EmbeddingDim)
	}
}

func TestEmbedRepositorySkipsAlreadyEmbedded(t *testing.T) {
	p := &mockProvider{batchSize: 10}
	e, store := newRepoEmbedder(t, p, nil)
	ctx := context.Background()

	chunks := makeChunks(6)
	for i := 0; i < 4; i++ {
		chunks[i].Embedding = []float32{0, 1, 0}
		chunks[i].EmbeddingModel = "mock-model"
		chunks[i].EmbeddingDim = 3
	}
	require.NoError(t, store.SaveChunks(ctx, "octo/webapp", chunks))

	status, err := e.EmbedRepository(ctx, "octo/webapp", false)
	require.NoError(t, err)
	assert.Equal(t, 4, status.Stats.AlreadyEmbedded)
	assert.Equal(t, 2, status.Stats.NewlyEmbedded)
	assert.Len(t, p.sentTexts, 2)
}

func TestEmbedRepositoryAllEmbeddedNoCalls(t *testing.T) {
	p := &mockProvider{batchSize: 10}
	e, store := newRepoEmbedder(t, p, nil)
	ctx := context.Background()

	chunks := makeChunks(3)
	for i := range chunks {
		chunks[i].Embedding = []float32{1}
		chunks[i].EmbeddingDim = 1
	}
	require.NoError(t, store.SaveChunks(ctx, "octo/webapp", chunks))

	status, err := e.EmbedRepository(ctx, "octo/webapp", false)
	require.NoError(t, err)
	assert.True(t, status.Success)
	assert.Equal(t, 0, p.calls)
	assert.Contains(t, status.Message, "already embedded")
}

func TestEmbedRepositoryForceReembeds(t *testing.T) {
	p := &mockProvider{batchSize: 10}
	e, store := newRepoEmbedder(t, p, nil)
	ctx := context.Background()

	chunks := makeChunks(3)
	for i := range chunks {
		chunks[i].Embedding = []float32{9, 9, 9}
		chunks[i].EmbeddingDim = 3
		chunks[i].EmbeddingModel = "stale-model"
	}
	require.NoError(t, store.SaveChunks(ctx, "octo/webapp", chunks))

	status, err := e.EmbedRepository(ctx, "octo/webapp", true)
	require.NoError(t, err)
	assert.Equal(t, 0, status.Stats.AlreadyEmbedded)
	assert.Equal(t, 3, status.Stats.NewlyEmbedded)

	saved, err := store.LoadChunks(ctx, "octo/webapp")
	require.NoError(t, err)
	for _, c := range saved {
		assert.Equal(t, "mock-model", c.EmbeddingModel)
		assert.Equal(t, []float32{1, 0, 0}, c.Embedding)
	}
}

func TestEmbedRepositoryRescuesFailedItem(t *testing.T) {
	// The single batch fails, then item-level rescue succeeds for all
	// but one chunk. Plain errors are used so the failure is permanent
	// without being a quota rejection.
	p := &mockProvider{batchSize: 10}
	p.embedFn = func(call int, texts []string) ([][]float32, error) {
		if len(texts) > 1 {
			return nil, errors.New("malformed batch")
		}
		if strings.Contains(texts[0], "f6()") {
			return nil, errors.New("bad input")
		}
		return [][]float32{{1, 0, 0}}, nil
	}
	e, store := newRepoEmbedder(t, p, nil)
	ctx := context.Background()

	require.NoError(t, store.SaveChunks(ctx, "octo/webapp", makeChunks(10)))

	status, err := e.EmbedRepository(ctx, "octo/webapp", false)
	require.NoError(t, err)
	assert.True(t, status.Success)
	assert.Equal(t, 9, status.Stats.NewlyEmbedded)
	assert.Equal(t, 1, status.Stats.Failed)

	saved, err := store.LoadChunks(ctx, "octo/webapp")
	require.NoError(t, err)
	embedded := 0
	for _, c := range saved {
		if c.HasEmbedding() {
			embedded++
		}
	}
	assert.Equal(t, 9, embedded, "partial progress must be persisted")
}

func TestEmbedRepositoryQuotaAborts(t *testing.T) {
	quota := &types.QuotaError{Provider: "mock", Err: errors.New("insufficient_quota")}
	p := &mockProvider{batchSize: 4}
	p.embedFn = func(call int, texts []string) ([][]float32, error) {
		if call >= 2 {
			return nil, quota
		}
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 0, 0}
		}
		return out, nil
	}
	e, store := newRepoEmbedder(t, p, nil)
	ctx := context.Background()

	require.NoError(t, store.SaveChunks(ctx, "octo/webapp", makeChunks(10)))

	status, err := e.EmbedRepository(ctx, "octo/webapp", false)
	require.Error(t, err)
	assert.True(t, types.IsQuota(err))
	assert.False(t, status.Success)
	assert.Equal(t, 4, status.Stats.NewlyEmbedded)
	assert.Equal(t, 2, p.calls, "quota rejection must not trigger item rescue")

	saved, err := store.LoadChunks(ctx, "octo/webapp")
	require.NoError(t, err)
	embedded := 0
	for _, c := range saved {
		if c.HasEmbedding() {
			embedded++
		}
	}
	assert.Equal(t, 4, embedded, "first batch must be persisted before the abort")
}

func TestEmbedRepositoryCacheHits(t *testing.T) {
	cache := NewCache(100)
	p := &mockProvider{batchSize: 10}
	e, store := newRepoEmbedder(t, p, cache)
	ctx := context.Background()

	chunks := makeChunks(3)
	cache.Set(chunks[0].ContentHash, []float32{0, 0, 1}, "mock-model")
	require.NoError(t, store.SaveChunks(ctx, "octo/webapp", chunks))

	status, err := e.EmbedRepository(ctx, "octo/webapp", false)
	require.NoError(t, err)
	assert.Equal(t, 3, status.Stats.NewlyEmbedded)
	assert.Len(t, p.sentTexts, 2, "cached chunk must not reach the provider")

	saved, err := store.LoadChunks(ctx, "octo/webapp")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 1}, saved[0].Embedding)
}

func TestCacheCopiesVectors(t *testing.T) {
	cache := NewCache(10)
	vec := []float32{1, 2, 3}
	cache.Set("h", vec, "m")
	vec[0] = 99

	got, model, ok := cache.Get("h")
	require.True(t, ok)
	assert.Equal(t, "m", model)
	assert.Equal(t, []float32{1, 2, 3}, got)

	got[1] = 99
	again, _, _ := cache.Get("h")
	assert.Equal(t, []float32{1, 2, 3}, again)
}

func TestTruncate(t *testing.T) {
	long := make([]byte, MaxTextChars+100)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, truncate(string(long)), MaxTextChars)
	assert.Equal(t, "short", truncate("short"))
}

func TestTruncateKeepsValidUTF8(t *testing.T) {
	// Place a multi-byte rune straddling the cut position.
	text := strings.Repeat("a", MaxTextChars-1) + "日本語テキスト"
	got := truncate(text)
	assert.True(t, utf8.ValidString(got), "truncation must not split a rune")
	assert.LessOrEqual(t, len(got), MaxTextChars)
	assert.True(t, strings.HasPrefix(text, got))
}
