// Package embedder turns chunk text into vectors. A Provider abstracts
// the embedding backend (OpenAI, Jina, or a deterministic local stub);
// RepoEmbedder drives a repository's chunk set through batched provider
// calls with caching, per-item rescue of failed batches, and durable
// progress after every successful batch.
package embedder
