// Package committracker decides whether a repository needs
// reprocessing by comparing its current commit to the last one fully
// processed, and keeps the append-only processing history.
package committracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/otto-pm/repoindex/internal/storage"
	"github.com/otto-pm/repoindex/pkg/types"
)

// Tracker reads and writes commit records through the repo store.
type Tracker struct {
	store *storage.RepoStore
	log   zerolog.Logger
	now   func() time.Time
}

// New creates a Tracker.
func New(store *storage.RepoStore, log zerolog.Logger) *Tracker {
	return &Tracker{store: store, log: log, now: time.Now}
}

// LastCommit returns the last fully-processed commit record, or nil
// when the repository has never completed a run. Corrupt records are
// logged and treated as absent.
func (t *Tracker) LastCommit(ctx context.Context, repo string) *types.CommitRecord {
	rec, err := t.store.LoadCommitInfo(ctx, repo)
	if err != nil {
		var corrupt *types.CorruptStateError
		if errors.As(err, &corrupt) {
			t.log.Warn().Str("repo", repo).Str("path", corrupt.Path).Err(corrupt.Err).
				Msg("commit info unreadable, treating repository as unprocessed")
		}
		return nil
	}
	return rec
}

// NeedsUpdate reports whether repo must be reprocessed for currentSHA,
// with a human-readable reason.
func (t *Tracker) NeedsUpdate(ctx context.Context, repo, currentSHA string) (bool, string) {
	last := t.LastCommit(ctx, repo)
	if last == nil {
		return true, "first time indexing, no previous commit found"
	}
	if last.CommitSHA == currentSHA {
		return false, fmt.Sprintf("already up to date (SHA %s)", shortSHA(currentSHA))
	}
	return true, fmt.Sprintf("new commits detected: %s -> %s", shortSHA(last.CommitSHA), shortSHA(currentSHA))
}

// SaveCommitInfo records a completed run: the record is appended to the
// history log first, then replaces the current commit info.
func (t *Tracker) SaveCommitInfo(ctx context.Context, repo string, rec types.CommitRecord) error {
	if rec.ProcessedAt.IsZero() {
		rec.ProcessedAt = t.now().UTC()
	}
	if err := t.store.AppendCommitHistory(ctx, repo, &rec); err != nil {
		return fmt.Errorf("appending commit history: %w", err)
	}
	if err := t.store.SaveCommitInfo(ctx, repo, &rec); err != nil {
		return fmt.Errorf("saving commit info: %w", err)
	}
	t.log.Info().Str("repo", repo).Str("sha", shortSHA(rec.CommitSHA)).
		Str("branch", rec.Branch).Str("author", rec.Author).Msg("saved commit info")
	return nil
}

// History returns processing records newest first, at most limit.
func (t *Tracker) History(ctx context.Context, repo string, limit int) ([]types.CommitRecord, error) {
	return t.store.CommitHistory(ctx, repo, limit)
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
