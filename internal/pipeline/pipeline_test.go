package pipeline

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otto-pm/repoindex/internal/chunker"
	"github.com/otto-pm/repoindex/internal/committracker"
	"github.com/otto-pm/repoindex/internal/embedder"
	"github.com/otto-pm/repoindex/internal/ingester"
	"github.com/otto-pm/repoindex/internal/storage"
	"github.com/otto-pm/repoindex/pkg/types"
)

// fakeFetcher serves a fixed snapshot; sha is mutable so tests can
// simulate new commits arriving.
type fakeFetcher struct {
	sha   string
	files []ingester.File
}

func (f *fakeFetcher) Describe(context.Context, string, string) (*ingester.RepoDescription, error) {
	return &ingester.RepoDescription{
		DefaultBranch: "main",
		Info:          types.RepoInfo{Description: "test fixture", Language: "Python"},
	}, nil
}

func (f *fakeFetcher) Head(context.Context, string, string, string) (*ingester.HeadInfo, error) {
	return &ingester.HeadInfo{SHA: f.sha, Branch: "main", Author: "octocat", Message: "add handler\n\ndetails"}, nil
}

func (f *fakeFetcher) Fetch(_ context.Context, _, _, _ string, visit func(ingester.File) error) error {
	for _, file := range f.files {
		if err := visit(file); err != nil {
			return err
		}
	}
	return nil
}

// countingProvider embeds deterministically and counts provider calls.
type countingProvider struct {
	calls int
}

func (p *countingProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	p.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (p *countingProvider) Name() string      { return "counting" }
func (p *countingProvider) Model() string     { return "counting-model" }
func (p *countingProvider) Dimension() int    { return 3 }
func (p *countingProvider) MaxBatchSize() int { return 100 }

func newPipeline(t *testing.T, fetcher ingester.SourceFetcher, provider embedder.Provider) (*Pipeline, *storage.RepoStore) {
	t.Helper()
	fs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	store := storage.NewRepoStore(fs)
	log := zerolog.Nop()

	ing := ingester.New(store, fetcher, log)
	emb := embedder.NewRepoEmbedder(store, provider, nil, log)
	tracker := committracker.New(store, log)
	p := New(store, ing, chunker.New(), emb, tracker, log)
	p.ChunkWorkers = 2
	return p, store
}

func fixtureFiles() []ingester.File {
	return []ingester.File{
		{Path: "app/main.py", Content: []byte("import os\n\ndef handler(event):\n    return event\n"), SHA: "f1"},
		{Path: "app/util.py", Content: []byte("def helper():\n    return 1\n"), SHA: "f2"},
		{Path: "logo.png", Content: []byte{0x89, 0x00, 0x4e}, SHA: "f3"},
	}
}

func TestRunFullFirstTime(t *testing.T) {
	provider := &countingProvider{}
	fetcher := &fakeFetcher{sha: "sha-one", files: fixtureFiles()}
	p, store := newPipeline(t, fetcher, provider)
	ctx := context.Background()

	status := p.RunFull(ctx, Request{Repo: "octo/webapp"})
	require.Equal(t, types.StateDone, status.State, status.Error)
	assert.True(t, status.Success)
	assert.Equal(t, "octo/webapp", status.Repo)
	assert.Equal(t, "main", status.Branch)
	assert.Equal(t, "sha-one", status.CommitSHA)
	assert.Equal(t, 2, status.TotalFiles, "binary file must be screened out")
	assert.Greater(t, status.TotalChunks, 0)
	assert.Equal(t, status.TotalChunks, status.TotalEmbedded)
	assert.NotEmpty(t, status.RunID)
	assert.Greater(t, provider.calls, 0)

	chunks, err := store.LoadChunks(ctx, "octo/webapp")
	require.NoError(t, err)
	for _, c := range chunks {
		assert.True(t, c.HasEmbedding())
	}

	rec, err := store.LoadCommitInfo(ctx, "octo/webapp")
	require.NoError(t, err)
	assert.Equal(t, "sha-one", rec.CommitSHA)
	assert.Equal(t, "add handler", rec.CommitMessage, "commit message keeps only its first line")
}

func TestRunFullSecondRunUpToDate(t *testing.T) {
	provider := &countingProvider{}
	fetcher := &fakeFetcher{sha: "sha-one", files: fixtureFiles()}
	p, _ := newPipeline(t, fetcher, provider)
	ctx := context.Background()

	first := p.RunFull(ctx, Request{Repo: "octo/webapp"})
	require.True(t, first.Success)
	callsAfterFirst := provider.calls

	second := p.RunFull(ctx, Request{Repo: "octo/webapp"})
	require.True(t, second.Success)
	assert.Equal(t, types.StateUpToDate, second.State)
	assert.True(t, second.WasCached)
	assert.Equal(t, first.TotalChunks, second.TotalChunks)
	assert.Contains(t, second.Message, "already up to date")
	assert.Equal(t, callsAfterFirst, provider.calls, "an up-to-date run must not touch the provider")
}

func TestRunFullNewCommitReprocesses(t *testing.T) {
	provider := &countingProvider{}
	fetcher := &fakeFetcher{sha: "sha-one", files: fixtureFiles()}
	p, _ := newPipeline(t, fetcher, provider)
	ctx := context.Background()

	require.True(t, p.RunFull(ctx, Request{Repo: "octo/webapp"}).Success)

	fetcher.sha = "sha-two"
	status := p.RunFull(ctx, Request{Repo: "octo/webapp"})
	require.Equal(t, types.StateDone, status.State, status.Error)
	assert.Equal(t, "sha-two", status.CommitSHA)

	hist, err := p.History(ctx, "octo/webapp", 0)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "sha-two", hist[0].CommitSHA)
	assert.Equal(t, "sha-one", hist[1].CommitSHA)
}

func TestRunFullResumesIncompleteRun(t *testing.T) {
	provider := &countingProvider{}
	fetcher := &fakeFetcher{sha: "sha-one", files: fixtureFiles()}
	p, store := newPipeline(t, fetcher, provider)
	ctx := context.Background()

	require.True(t, p.RunFull(ctx, Request{Repo: "octo/webapp"}).Success)

	// Strip the vectors to simulate a run that died mid-embed.
	chunks, err := store.LoadChunks(ctx, "octo/webapp")
	require.NoError(t, err)
	for i := range chunks {
		chunks[i].Embedding = nil
		chunks[i].EmbeddingDim = 0
	}
	require.NoError(t, store.SaveChunks(ctx, "octo/webapp", chunks))

	status := p.RunFull(ctx, Request{Repo: "octo/webapp"})
	require.Equal(t, types.StateDone, status.State, status.Error)
	assert.True(t, status.WasCached)
	assert.Equal(t, len(chunks), status.TotalEmbedded)

	// The resume completes the old run; no new commit record appears.
	hist, err := p.History(ctx, "octo/webapp", 0)
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

func TestRunFullBadRepoName(t *testing.T) {
	p, _ := newPipeline(t, &fakeFetcher{sha: "x"}, &countingProvider{})

	status := p.RunFull(context.Background(), Request{Repo: "not-a-repo"})
	assert.Equal(t, types.StateFailed, status.State)
	assert.False(t, status.Success)
	assert.NotEmpty(t, status.Error)
}

func TestRunChunkWithoutIngest(t *testing.T) {
	p, _ := newPipeline(t, &fakeFetcher{sha: "x"}, &countingProvider{})

	_, err := p.RunChunk(context.Background(), "octo/webapp")
	var notIndexed *types.NotIndexedError
	assert.ErrorAs(t, err, &notIndexed)
}

func TestStatusProgress(t *testing.T) {
	provider := &countingProvider{}
	fetcher := &fakeFetcher{sha: "sha-one", files: fixtureFiles()}
	p, _ := newPipeline(t, fetcher, provider)
	ctx := context.Background()

	rs, err := p.Status(ctx, "octo/webapp")
	require.NoError(t, err)
	assert.False(t, rs.Ingested)
	assert.Equal(t, 0, rs.Progress)

	_, err = p.RunIngest(ctx, Request{Repo: "octo/webapp"})
	require.NoError(t, err)
	rs, err = p.Status(ctx, "octo/webapp")
	require.NoError(t, err)
	assert.True(t, rs.Ingested)
	assert.False(t, rs.Chunked)
	assert.Equal(t, 33, rs.Progress)

	_, err = p.RunChunk(ctx, "octo/webapp")
	require.NoError(t, err)
	rs, err = p.Status(ctx, "octo/webapp")
	require.NoError(t, err)
	assert.True(t, rs.Chunked)
	assert.False(t, rs.Embedded)
	assert.Equal(t, 66, rs.Progress)

	_, err = p.RunEmbed(ctx, "octo/webapp", false)
	require.NoError(t, err)
	rs, err = p.Status(ctx, "octo/webapp")
	require.NoError(t, err)
	assert.True(t, rs.Embedded)
	assert.True(t, rs.ReadyForSearch)
	assert.Equal(t, 100, rs.Progress)
}

func TestChunkSnapshotUsesProvidedMetadata(t *testing.T) {
	p, store := newPipeline(t, &fakeFetcher{sha: "x"}, &countingProvider{})
	ctx := context.Background()

	blobPath, err := store.SaveFile(ctx, "octo/webapp", "main.py", []byte("def handler(event):\n    return event\n"))
	require.NoError(t, err)

	// Metadata is handed over in memory and never persisted; the chunk
	// stage must not go back to storage for it.
	meta := &types.RepositoryMetadata{
		Repo:       "octo/webapp",
		TotalFiles: 1,
		Files: []types.FileRef{
			{Path: "main.py", BlobPath: blobPath, Language: "python"},
		},
	}
	status, err := p.chunkSnapshot(ctx, "octo/webapp", meta)
	require.NoError(t, err)
	assert.True(t, status.Success)
	assert.Greater(t, status.TotalChunks, 0)

	chunks, err := store.LoadChunks(ctx, "octo/webapp")
	require.NoError(t, err)
	assert.Len(t, chunks, status.TotalChunks)
}

func TestBuildRepoContext(t *testing.T) {
	meta := &types.RepositoryMetadata{
		Repo:       "octo/webapp",
		TotalFiles: 4,
		Files: []types.FileRef{
			{Path: "app/main.py", Language: "python"},
			{Path: "app/util.py", Language: "python"},
			{Path: "web/index.js", Language: "javascript"},
			{Path: "README.md", Language: "unknown"},
		},
	}
	rc := buildRepoContext(meta)
	assert.Equal(t, "python", rc.PrimaryLanguage)
	assert.Equal(t, []string{"app", "web"}, rc.Directories)
	assert.Equal(t, 2, rc.Languages["python"])
	assert.NotContains(t, rc.Languages, "unknown")
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "subject", firstLine("subject\nbody"))
	assert.Equal(t, "single", firstLine("single"))
}
