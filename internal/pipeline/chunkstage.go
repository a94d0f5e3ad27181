package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/otto-pm/repoindex/internal/extractor"
	"github.com/otto-pm/repoindex/internal/storage"
	"github.com/otto-pm/repoindex/pkg/types"
)

// RunChunk cuts every ingested file into chunks and persists the chunk
// set, loading the snapshot metadata from storage.
func (p *Pipeline) RunChunk(ctx context.Context, repo string) (*types.ChunkStatus, error) {
	meta, err := p.store.LoadMetadata(ctx, repo)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &types.NotIndexedError{Repo: repo, Artifact: "metadata.json"}
		}
		return nil, err
	}
	return p.chunkSnapshot(ctx, repo, meta)
}

// chunkSnapshot chunks one ingested snapshot. Files are processed
// concurrently but the output order follows the metadata file order,
// so repeated runs over the same snapshot produce an identical
// artifact. Per-file failures are counted and skipped.
func (p *Pipeline) chunkSnapshot(ctx context.Context, repo string, meta *types.RepositoryMetadata) (*types.ChunkStatus, error) {
	repoCtx := buildRepoContext(meta)

	perFile := make([][]types.Chunk, len(meta.Files))
	var mu sync.Mutex
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	if p.ChunkWorkers > 1 {
		g.SetLimit(p.ChunkWorkers)
	} else {
		g.SetLimit(1)
	}

	for i := range meta.Files {
		i := i
		file := meta.Files[i]
		g.Go(func() error {
			content, err := p.store.LoadFile(gctx, file.BlobPath)
			if err != nil {
				p.log.Warn().Str("file", file.Path).Err(err).Msg("could not load file blob, skipping")
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			text := string(content)
			fileCtx := extractor.Extract(text, file.Language)
			perFile[i] = p.chunker.ChunkFile(meta.Repo, file.Path, text, file.Language, fileCtx, repoCtx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var chunks []types.Chunk
	for _, fc := range perFile {
		chunks = append(chunks, fc...)
	}

	if err := p.store.SaveChunks(ctx, repo, chunks); err != nil {
		return nil, fmt.Errorf("saving chunks: %w", err)
	}

	p.log.Info().Str("repo", repo).Int("chunks", len(chunks)).
		Int("files", len(meta.Files)-failed).Int("failed", failed).Msg("chunking complete")

	return &types.ChunkStatus{
		Success:        true,
		Repo:           repo,
		TotalChunks:    len(chunks),
		FilesProcessed: len(meta.Files) - failed,
		FilesFailed:    failed,
		Message:        fmt.Sprintf("created %d chunks from %d files", len(chunks), len(meta.Files)-failed),
	}, nil
}

// buildRepoContext derives the repository banner data from ingestion
// metadata: language histogram, primary language, top-level layout.
func buildRepoContext(meta *types.RepositoryMetadata) *types.RepoContext {
	languages := make(map[string]int)
	dirSet := make(map[string]bool)
	for _, f := range meta.Files {
		if f.Language != "unknown" {
			languages[f.Language]++
		}
		if i := strings.IndexByte(f.Path, '/'); i > 0 {
			dirSet[f.Path[:i]] = true
		}
	}

	primary := meta.RepoInfo.Language
	if primary == "" {
		best := 0
		for lang, n := range languages {
			if n > best || (n == best && lang < primary) {
				primary, best = lang, n
			}
		}
	}
	primary = strings.ToLower(primary)

	dirs := make([]string, 0, len(dirSet))
	for d := range dirSet {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	return &types.RepoContext{
		RepoName:        meta.Repo,
		Description:     meta.RepoInfo.Description,
		PrimaryLanguage: primary,
		TotalFiles:      meta.TotalFiles,
		Languages:       languages,
		Directories:     dirs,
	}
}
