// Package searcher answers queries over an embedded repository with
// exhaustive cosine similarity, falling back to keyword overlap when
// the chunk set carries no usable vectors.
package searcher

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/otto-pm/repoindex/internal/embedder"
	"github.com/otto-pm/repoindex/internal/storage"
	"github.com/otto-pm/repoindex/pkg/types"
)

const DefaultTopK = 5

// Query is one search request against a repository.
type Query struct {
	Repo     string
	Text     string
	TopK     int
	Language string
}

// Searcher runs queries against persisted chunk sets.
type Searcher struct {
	store    *storage.RepoStore
	provider embedder.Provider
	log      zerolog.Logger
}

// New wires a searcher to the store and the query-embedding provider.
func New(store *storage.RepoStore, provider embedder.Provider, log zerolog.Logger) *Searcher {
	return &Searcher{store: store, provider: provider, log: log}
}

// Search returns the top-K most relevant chunks for the query,
// descending by score. Ties break ascending by chunk ID so results are
// reproducible across runs.
func (s *Searcher) Search(ctx context.Context, q Query) ([]types.SearchResult, error) {
	if q.TopK <= 0 {
		q.TopK = DefaultTopK
	}

	chunks, err := s.store.LoadChunks(ctx, q.Repo)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &types.NotIndexedError{Repo: q.Repo, Artifact: "chunks.jsonl"}
		}
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, &types.NotIndexedError{Repo: q.Repo, Artifact: "chunks.jsonl"}
	}

	if q.Language != "" {
		filtered := chunks[:0]
		for _, c := range chunks {
			if c.Language == q.Language {
				filtered = append(filtered, c)
			}
		}
		chunks = filtered
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	allEmbedded := true
	for i := range chunks {
		if !chunks[i].HasEmbedding() {
			allEmbedded = false
			break
		}
	}

	if allEmbedded && s.provider != nil {
		return s.semanticSearch(ctx, q, chunks)
	}
	s.log.Warn().Str("repo", q.Repo).Msg("falling back to keyword search, chunk set not fully embedded")
	return keywordSearch(q, chunks), nil
}

func (s *Searcher) semanticSearch(ctx context.Context, q Query, chunks []types.Chunk) ([]types.SearchResult, error) {
	vectors, err := s.provider.EmbedBatch(ctx, []string{q.Text})
	if err != nil {
		s.log.Warn().Str("repo", q.Repo).Err(err).Msg("query embedding failed, falling back to keyword search")
		return keywordSearch(q, chunks), nil
	}
	queryVec := vectors[0]

	results := make([]types.SearchResult, 0, len(chunks))
	for i := range chunks {
		score := CosineSimilarity(queryVec, chunks[i].Embedding)
		results = append(results, types.SearchResult{Chunk: chunks[i], Score: score})
	}
	return rank(results, q.TopK), nil
}

// keywordSearch scores chunks by the fraction of query terms found in
// their enriched text. Chunks with no matching term are omitted.
func keywordSearch(q Query, chunks []types.Chunk) []types.SearchResult {
	terms := strings.Fields(strings.ToLower(q.Text))
	if len(terms) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(terms))
	unique := terms[:0]
	for _, t := range terms {
		if !seen[t] {
			seen[t] = true
			unique = append(unique, t)
		}
	}
	terms = unique

	var results []types.SearchResult
	for i := range chunks {
		text := chunks[i].EnrichedContent
		if text == "" {
			text = chunks[i].Content
		}
		text = strings.ToLower(text)

		matches := 0
		for _, term := range terms {
			if strings.Contains(text, term) {
				matches++
			}
		}
		if matches > 0 {
			results = append(results, types.SearchResult{
				Chunk: chunks[i],
				Score: float64(matches) / float64(len(terms)),
			})
		}
	}
	return rank(results, q.TopK)
}

// rank sorts descending by score, ascending by chunk ID on ties, and
// truncates to topK.
func rank(results []types.SearchResult, topK int) []types.SearchResult {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ChunkID < results[j].Chunk.ChunkID
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}
