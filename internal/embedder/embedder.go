package embedder

import (
	"context"
	"errors"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderJina   = "jina"
	ProviderLocal  = "local"
)

const (
	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultJinaModel   = "jina-embeddings-v3"
	LocalModel         = "local-deterministic"

	OpenAIDimension = 1536
	JinaDimension   = 1024
	LocalDimension  = 384

	// Batch and input budgets.
	DefaultBatchSize = 100
	MaxTextChars     = 3072

	DefaultCacheSize = 10000
)

var (
	ErrEmptyBatch        = errors.New("batch contains no texts")
	ErrNoProviderEnabled = errors.New("no embedding provider configured")
)

// Provider generates embeddings for batches of text. Implementations
// classify their failures: transient errors are wrapped in
// types.TransientError, permanent quota or auth rejections in
// types.QuotaError.
type Provider interface {
	// EmbedBatch returns one vector per input text, in input order.
	// len(texts) must not exceed MaxBatchSize.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	Name() string
	Model() string
	Dimension() int
	MaxBatchSize() int
}

// cachedVector is what the LRU holds per content hash.
type cachedVector struct {
	vector []float32
	model  string
}

// Cache is an in-memory LRU of vectors keyed by content hash. Vectors
// are copied on both sides so callers cannot mutate cached state.
type Cache struct {
	lru *lru.Cache[string, cachedVector]
}

// NewCache creates a cache; size <= 0 uses the default.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, cachedVector](size)
	if err != nil {
		c, _ = lru.New[string, cachedVector](DefaultCacheSize)
	}
	return &Cache{lru: c}
}

func (c *Cache) Get(hash string) ([]float32, string, bool) {
	cv, ok := c.lru.Get(hash)
	if !ok {
		return nil, "", false
	}
	out := make([]float32, len(cv.vector))
	copy(out, cv.vector)
	return out, cv.model, true
}

func (c *Cache) Set(hash string, vector []float32, model string) {
	cv := cachedVector{vector: make([]float32, len(vector)), model: model}
	copy(cv.vector, vector)
	c.lru.Add(hash, cv)
}

func (c *Cache) Len() int { return c.lru.Len() }

// truncate clips embedding input to the provider character budget,
// backing off to a rune boundary so the result stays valid UTF-8.
func truncate(text string) string {
	if len(text) <= MaxTextChars {
		return text
	}
	cut := MaxTextChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
