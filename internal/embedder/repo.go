package embedder

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/otto-pm/repoindex/internal/storage"
	"github.com/otto-pm/repoindex/pkg/types"
)

// RepoEmbedder embeds a repository's chunk set in batches. Progress is
// persisted after every successful batch so an interrupted run resumes
// from the chunks that already carry vectors.
type RepoEmbedder struct {
	store    *storage.RepoStore
	provider Provider
	cache    *Cache
	log      zerolog.Logger
}

// NewRepoEmbedder wires a provider and cache to the repo store.
func NewRepoEmbedder(store *storage.RepoStore, provider Provider, cache *Cache, log zerolog.Logger) *RepoEmbedder {
	return &RepoEmbedder{store: store, provider: provider, cache: cache, log: log}
}

// EmbedRepository embeds every chunk that lacks a vector. With force
// set, existing vectors are discarded and everything is re-embedded.
// Individual chunk failures are counted, not fatal; a quota or auth
// rejection aborts the run after persisting completed work.
func (e *RepoEmbedder) EmbedRepository(ctx context.Context, repo string, force bool) (*types.EmbedStatus, error) {
	chunks, err := e.store.LoadChunks(ctx, repo)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &types.NotIndexedError{Repo: repo, Artifact: "chunks.jsonl"}
		}
		return nil, err
	}

	if force {
		for i := range chunks {
			chunks[i].Embedding = nil
			chunks[i].EmbeddingModel = ""
			chunks[i].EmbeddingDim = 0
		}
	}

	var pending []int
	for i := range chunks {
		if !chunks[i].HasEmbedding() {
			pending = append(pending, i)
		}
	}
	already := len(chunks) - len(pending)

	status := &types.EmbedStatus{
		Repo: repo,
		Stats: types.EmbedStats{
			Total:           len(chunks),
			AlreadyEmbedded: already,
		},
	}

	if len(pending) == 0 {
		status.Success = true
		status.Message = fmt.Sprintf("all %d chunks already embedded", len(chunks))
		return status, nil
	}

	e.log.Info().Str("repo", repo).Int("pending", len(pending)).Int("already", already).
		Str("provider", e.provider.Name()).Msg("embedding chunks")

	// Cache hits skip the provider entirely.
	var remaining []int
	cacheHits := 0
	for _, idx := range pending {
		c := &chunks[idx]
		if e.cache != nil {
			if vec, model, ok := e.cache.Get(c.ContentHash); ok {
				applyVector(c, vec, model)
				cacheHits++
				continue
			}
		}
		remaining = append(remaining, idx)
	}
	status.Stats.NewlyEmbedded += cacheHits
	if cacheHits > 0 {
		if err := e.store.SaveChunks(ctx, repo, chunks); err != nil {
			return status, err
		}
	}

	batchSize := e.provider.MaxBatchSize()
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	for start := 0; start < len(remaining); start += batchSize {
		end := start + batchSize
		if end > len(remaining) {
			end = len(remaining)
		}
		batch := remaining[start:end]

		texts := make([]string, len(batch))
		for i, idx := range batch {
			texts[i] = truncate(embedText(&chunks[idx]))
		}

		vectors, err := e.provider.EmbedBatch(ctx, texts)
		if err == nil {
			for i, idx := range batch {
				e.applyAndCache(&chunks[idx], vectors[i])
			}
			status.Stats.NewlyEmbedded += len(batch)
			if err := e.store.SaveChunks(ctx, repo, chunks); err != nil {
				return status, err
			}
			continue
		}

		if types.IsQuota(err) {
			return e.abort(ctx, repo, chunks, status, err)
		}

		// Batch failed for a retryable-but-exhausted or malformed
		// reason. Rescue item by item so one bad chunk cannot sink
		// its whole batch.
		e.log.Warn().Str("repo", repo).Int("batch_size", len(batch)).Err(err).
			Msg("batch embedding failed, rescuing items individually")
		for i, idx := range batch {
			vecs, itemErr := e.provider.EmbedBatch(ctx, texts[i:i+1])
			if itemErr == nil {
				e.applyAndCache(&chunks[idx], vecs[0])
				status.Stats.NewlyEmbedded++
				continue
			}
			if types.IsQuota(itemErr) {
				status.Stats.Failed += len(batch) - i - 1
				return e.abort(ctx, repo, chunks, status, itemErr)
			}
			status.Stats.Failed++
			e.log.Warn().Str("chunk", chunks[idx].ChunkID).Err(itemErr).Msg("chunk embedding failed")
		}
		if err := e.store.SaveChunks(ctx, repo, chunks); err != nil {
			return status, err
		}
	}

	status.Success = true
	status.Message = fmt.Sprintf("embedded %d chunks (%d already embedded, %d failed)",
		status.Stats.NewlyEmbedded, status.Stats.AlreadyEmbedded, status.Stats.Failed)
	e.log.Info().Str("repo", repo).Int("newly", status.Stats.NewlyEmbedded).
		Int("failed", status.Stats.Failed).Msg("embedding complete")
	return status, nil
}

// abort persists whatever succeeded before the permanent failure and
// returns both the partial stats and the error.
func (e *RepoEmbedder) abort(ctx context.Context, repo string, chunks []types.Chunk, status *types.EmbedStatus, cause error) (*types.EmbedStatus, error) {
	if err := e.store.SaveChunks(ctx, repo, chunks); err != nil {
		e.log.Error().Str("repo", repo).Err(err).Msg("failed to persist chunks during abort")
	}
	status.Success = false
	status.Message = "embedding aborted: " + cause.Error()
	e.log.Error().Str("repo", repo).Err(cause).Msg("embedding aborted by provider rejection")
	return status, cause
}

func (e *RepoEmbedder) applyAndCache(c *types.Chunk, vector []float32) {
	applyVector(c, vector, e.provider.Model())
	if e.cache != nil {
		e.cache.Set(c.ContentHash, vector, e.provider.Model())
	}
}

func applyVector(c *types.Chunk, vector []float32, model string) {
	c.Embedding = vector
	c.EmbeddingModel = model
	c.EmbeddingDim = len(vector)
}

// embedText prefers the enriched rendering; raw content is the
// fallback for chunks enriched before the banner stage existed.
func embedText(c *types.Chunk) string {
	if c.EnrichedContent != "" {
		return c.EnrichedContent
	}
	return c.Content
}
