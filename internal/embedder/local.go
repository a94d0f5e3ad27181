package embedder

import (
	"context"
	"crypto/sha256"
)

// LocalProvider produces deterministic pseudo-embeddings from the text
// hash. No network, no keys; used for tests and offline runs. Vectors
// are stable across processes for identical input.
type LocalProvider struct{}

// NewLocalProvider creates the offline provider.
func NewLocalProvider() *LocalProvider { return &LocalProvider{} }

func (p *LocalProvider) Name() string      { return ProviderLocal }
func (p *LocalProvider) Model() string     { return LocalModel }
func (p *LocalProvider) Dimension() int    { return LocalDimension }
func (p *LocalProvider) MaxBatchSize() int { return DefaultBatchSize }

func (p *LocalProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyBatch
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = localVector(text)
	}
	return vectors, nil
}

// localVector repeats the SHA-256 digest across the vector so every
// position is populated and distinct texts diverge.
func localVector(text string) []float32 {
	digest := sha256.Sum256([]byte(text))
	v := make([]float32, LocalDimension)
	for i := range v {
		v[i] = float32(digest[i%len(digest)]) / 255.0
	}
	return v
}
