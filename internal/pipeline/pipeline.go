// Package pipeline orchestrates the full indexing flow: ingest source
// files, cut them into chunks, embed the chunks, and record the commit
// that was processed. Stages can also run individually; each persists
// its artifact so a later stage or a resumed run picks up from durable
// state.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/otto-pm/repoindex/internal/chunker"
	"github.com/otto-pm/repoindex/internal/committracker"
	"github.com/otto-pm/repoindex/internal/embedder"
	"github.com/otto-pm/repoindex/internal/ingester"
	"github.com/otto-pm/repoindex/internal/storage"
	"github.com/otto-pm/repoindex/pkg/types"
)

// Request names the repository and options for a pipeline run.
type Request struct {
	Repo   string // owner/name or GitHub URL
	Branch string // empty means the default branch
	Force  bool   // re-embed even when vectors exist
}

// Pipeline wires the stages together.
type Pipeline struct {
	store    *storage.RepoStore
	ingester *ingester.Ingester
	chunker  *chunker.Chunker
	embedder *embedder.RepoEmbedder
	tracker  *committracker.Tracker
	log      zerolog.Logger

	// ChunkWorkers bounds concurrent per-file chunking. Zero means
	// sequential.
	ChunkWorkers int
}

// New assembles a pipeline over shared storage.
func New(store *storage.RepoStore, ing *ingester.Ingester, ch *chunker.Chunker, emb *embedder.RepoEmbedder, tr *committracker.Tracker, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		store:    store,
		ingester: ing,
		chunker:  ch,
		embedder: emb,
		tracker:  tr,
		log:      log,
	}
}

// RunFull executes ingest, chunk, and embed for one repository. An
// unchanged commit with a fully-embedded chunk set short-circuits; an
// unchanged commit with incomplete downstream artifacts resumes from
// the missing stage without re-ingesting. The commit record is written
// only after every stage succeeds.
func (p *Pipeline) RunFull(ctx context.Context, req Request) *types.PipelineStatus {
	status := &types.PipelineStatus{
		RunID: uuid.NewString(),
		State: types.StateChecking,
	}
	log := p.log.With().Str("run_id", status.RunID).Logger()

	owner, name, err := ingester.ParseRepo(req.Repo)
	if err != nil {
		return p.fail(status, err)
	}
	repo := owner + "/" + name
	status.Repo = repo
	log.Info().Str("repo", repo).Msg("pipeline run starting")

	head, err := p.ingester.Head(ctx, owner, name, req.Branch)
	if err != nil {
		return p.fail(status, fmt.Errorf("resolving head: %w", err))
	}
	status.Branch = head.Branch
	status.CommitSHA = head.SHA

	needsUpdate, reason := p.tracker.NeedsUpdate(ctx, repo, head.SHA)
	if !needsUpdate && !req.Force {
		status.WasCached = true
		if done, counts := p.fullyEmbedded(ctx, repo); done {
			status.State = types.StateUpToDate
			status.Success = true
			status.TotalChunks = counts
			status.TotalEmbedded = counts
			status.Message = reason
			log.Info().Str("repo", repo).Msg("repository up to date, nothing to do")
			return status
		}
		// Same commit but chunks or embeddings are missing, so finish
		// the interrupted run from persisted state.
		log.Info().Str("repo", repo).Msg("commit unchanged but pipeline incomplete, resuming")
		return p.resume(ctx, repo, req, status, log)
	}

	status.State = types.StateIngesting
	ingStatus, meta, err := p.ingester.IngestRepository(ctx, owner, name, req.Branch)
	if err != nil {
		return p.fail(status, fmt.Errorf("ingest stage: %w", err))
	}
	status.TotalFiles = ingStatus.TotalFiles

	status.State = types.StateChunking
	chunkStatus, err := p.chunkSnapshot(ctx, repo, meta)
	if err != nil {
		return p.fail(status, fmt.Errorf("chunk stage: %w", err))
	}
	status.TotalChunks = chunkStatus.TotalChunks

	status.State = types.StateEmbedding
	embedStatus, err := p.embedder.EmbedRepository(ctx, repo, req.Force)
	if embedStatus != nil {
		status.TotalEmbedded = embedStatus.Stats.AlreadyEmbedded + embedStatus.Stats.NewlyEmbedded
		status.Failed = embedStatus.Stats.Failed
	}
	if err != nil {
		return p.fail(status, fmt.Errorf("embed stage: %w", err))
	}

	if err := p.tracker.SaveCommitInfo(ctx, repo, types.CommitRecord{
		CommitSHA:     head.SHA,
		Branch:        head.Branch,
		Author:        head.Author,
		CommitMessage: firstLine(head.Message),
	}); err != nil {
		return p.fail(status, fmt.Errorf("recording commit: %w", err))
	}

	status.State = types.StateDone
	status.Success = true
	status.Message = fmt.Sprintf("indexed %s@%s: %d files, %d chunks, %d embedded",
		repo, head.Branch, status.TotalFiles, status.TotalChunks, status.TotalEmbedded)
	log.Info().Str("repo", repo).Int("chunks", status.TotalChunks).Msg("pipeline run complete")
	return status
}

// resume finishes chunk and embed for an already-ingested commit. The
// commit record was written by the earlier successful run, so it is
// not rewritten here.
func (p *Pipeline) resume(ctx context.Context, repo string, req Request, status *types.PipelineStatus, log zerolog.Logger) *types.PipelineStatus {
	if has, err := p.store.HasChunks(ctx, repo); err == nil && !has {
		status.State = types.StateChunking
		chunkStatus, err := p.RunChunk(ctx, repo)
		if err != nil {
			return p.fail(status, fmt.Errorf("chunk stage: %w", err))
		}
		status.TotalChunks = chunkStatus.TotalChunks
	}

	status.State = types.StateEmbedding
	embedStatus, err := p.embedder.EmbedRepository(ctx, repo, req.Force)
	if embedStatus != nil {
		if status.TotalChunks == 0 {
			status.TotalChunks = embedStatus.Stats.Total
		}
		status.TotalEmbedded = embedStatus.Stats.AlreadyEmbedded + embedStatus.Stats.NewlyEmbedded
		status.Failed = embedStatus.Stats.Failed
	}
	if err != nil {
		return p.fail(status, fmt.Errorf("embed stage: %w", err))
	}

	status.State = types.StateDone
	status.Success = true
	status.Message = fmt.Sprintf("resumed %s: %d chunks, %d embedded", repo, status.TotalChunks, status.TotalEmbedded)
	log.Info().Str("repo", repo).Msg("resumed pipeline run complete")
	return status
}

// RunIngest executes only the ingest stage, honoring the commit cache.
func (p *Pipeline) RunIngest(ctx context.Context, req Request) (*types.IngestStatus, error) {
	owner, name, err := ingester.ParseRepo(req.Repo)
	if err != nil {
		return nil, err
	}
	repo := owner + "/" + name

	head, err := p.ingester.Head(ctx, owner, name, req.Branch)
	if err != nil {
		return nil, err
	}
	needsUpdate, reason := p.tracker.NeedsUpdate(ctx, repo, head.SHA)
	if !needsUpdate && !req.Force {
		return &types.IngestStatus{
			Success:   true,
			Repo:      repo,
			CommitSHA: head.SHA,
			WasCached: true,
			Message:   reason,
		}, nil
	}

	status, _, err := p.ingester.IngestRepository(ctx, owner, name, req.Branch)
	return status, err
}

// RunEmbed executes only the embed stage.
func (p *Pipeline) RunEmbed(ctx context.Context, repo string, force bool) (*types.EmbedStatus, error) {
	return p.embedder.EmbedRepository(ctx, repo, force)
}

// History returns processing records for a repository, newest first.
func (p *Pipeline) History(ctx context.Context, repo string, limit int) ([]types.CommitRecord, error) {
	return p.tracker.History(ctx, repo, limit)
}

// fullyEmbedded reports whether a persisted chunk set exists with a
// vector on every chunk, plus the chunk count.
func (p *Pipeline) fullyEmbedded(ctx context.Context, repo string) (bool, int) {
	chunks, err := p.store.LoadChunks(ctx, repo)
	if err != nil || len(chunks) == 0 {
		return false, 0
	}
	for i := range chunks {
		if !chunks[i].HasEmbedding() {
			return false, len(chunks)
		}
	}
	return true, len(chunks)
}

func (p *Pipeline) fail(status *types.PipelineStatus, err error) *types.PipelineStatus {
	status.State = types.StateFailed
	status.Success = false
	status.Error = err.Error()
	status.Message = "pipeline failed: " + err.Error()
	p.log.Error().Str("run_id", status.RunID).Str("repo", status.Repo).Err(err).Msg("pipeline run failed")
	return status
}

// Status inspects the persisted artifacts and reports how far through
// the pipeline a repository is.
func (p *Pipeline) Status(ctx context.Context, repo string) (*types.RepoStatus, error) {
	rs := &types.RepoStatus{Repo: repo}

	meta, err := p.store.LoadMetadata(ctx, repo)
	switch {
	case err == nil:
		rs.Ingested = true
		rs.Progress = 33
		rs.TotalFiles = meta.TotalFiles
	case errors.Is(err, storage.ErrNotFound):
	default:
		var corrupt *types.CorruptStateError
		if !errors.As(err, &corrupt) {
			return nil, err
		}
		p.log.Warn().Str("repo", repo).Err(err).Msg("metadata unreadable, reporting repository as not ingested")
	}

	chunks, err := p.store.LoadChunks(ctx, repo)
	if err == nil && len(chunks) > 0 {
		rs.Chunked = true
		rs.Progress = 66
		rs.TotalChunks = len(chunks)

		embedded := 0
		for i := range chunks {
			if chunks[i].HasEmbedding() {
				embedded++
			}
		}
		if embedded == len(chunks) {
			rs.Embedded = true
			rs.ReadyForSearch = true
			rs.Progress = 100
		}
	}

	rs.Commit = p.tracker.LastCommit(ctx, repo)
	return rs, nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
