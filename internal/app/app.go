// Package app assembles the pipeline, searcher, and their dependencies
// from a loaded configuration. Both binaries share this wiring.
package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/otto-pm/repoindex/internal/chunker"
	"github.com/otto-pm/repoindex/internal/committracker"
	"github.com/otto-pm/repoindex/internal/config"
	"github.com/otto-pm/repoindex/internal/embedder"
	"github.com/otto-pm/repoindex/internal/ingester"
	"github.com/otto-pm/repoindex/internal/pipeline"
	"github.com/otto-pm/repoindex/internal/searcher"
	"github.com/otto-pm/repoindex/internal/storage"
)

// App holds the wired components.
type App struct {
	Log      zerolog.Logger
	Store    *storage.RepoStore
	Provider embedder.Provider
	Pipeline *pipeline.Pipeline
	Searcher *searcher.Searcher
}

// NewLogger builds the process logger writing to stderr, so stdout
// stays free for protocol and command output.
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
}

// New wires every component from the configuration.
func New(cfg config.Specification, log zerolog.Logger) (*App, error) {
	fsStore, err := storage.NewFSStore(cfg.StorageRoot)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	store := storage.NewRepoStore(fsStore)

	provider, err := embedder.NewProvider(embedder.Config{
		Provider:     cfg.EmbeddingProvider,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		JinaAPIKey:   cfg.JinaAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring embedding provider: %w", err)
	}
	log.Info().Str("provider", provider.Name()).Str("model", provider.Model()).Msg("embedding provider ready")

	var fetcher ingester.SourceFetcher
	if cfg.LocalRoot != "" {
		fetcher, err = ingester.NewLocalFetcher(cfg.LocalRoot, log)
		if err != nil {
			return nil, err
		}
	} else {
		fetcher = ingester.NewGitHubFetcher(cfg.GithubToken, log)
	}

	ing := ingester.New(store, fetcher, log)
	ch := &chunker.Chunker{ChunkSize: cfg.ChunkSize, OverlapLines: cfg.OverlapLines}
	cache := embedder.NewCache(cfg.CacheSize)
	emb := embedder.NewRepoEmbedder(store, provider, cache, log)
	tracker := committracker.New(store, log)

	p := pipeline.New(store, ing, ch, emb, tracker, log)
	p.ChunkWorkers = cfg.ChunkWorkers

	return &App{
		Log:      log,
		Store:    store,
		Provider: provider,
		Pipeline: p,
		Searcher: searcher.New(store, provider, log),
	}, nil
}
