// Package ingester snapshots a repository's code files into blob
// storage along with a metadata record describing the snapshot. The
// SourceFetcher interface abstracts where the files come from: the
// GitHub API or a local working tree.
package ingester

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/otto-pm/repoindex/internal/storage"
	"github.com/otto-pm/repoindex/pkg/types"
)

// HeadInfo identifies the tip commit of a branch.
type HeadInfo struct {
	SHA     string
	Branch  string
	Author  string
	Message string
}

// RepoDescription is the host-side view of a repository.
type RepoDescription struct {
	DefaultBranch string
	Info          types.RepoInfo
}

// File is one source file delivered by a fetcher. Fetchers only
// deliver files passing IsCodeFile and IsExcludedPath screening.
type File struct {
	Path    string
	Content []byte
	SHA     string
}

// SourceFetcher retrieves repository state from a source host.
type SourceFetcher interface {
	// Describe returns repository metadata and its default branch.
	Describe(ctx context.Context, owner, name string) (*RepoDescription, error)

	// Head returns the tip commit of branch.
	Head(ctx context.Context, owner, name, branch string) (*HeadInfo, error)

	// Fetch streams the code files of branch through visit. A visit
	// error aborts the walk.
	Fetch(ctx context.Context, owner, name, branch string, visit func(File) error) error
}

// ParseRepo accepts "owner/name" or a GitHub URL and returns the parts.
func ParseRepo(repoURL string) (owner, name string, err error) {
	s := strings.TrimSuffix(strings.TrimSuffix(repoURL, "/"), ".git")
	if i := strings.Index(s, "github.com/"); i >= 0 {
		s = s[i+len("github.com/"):]
	}
	parts := strings.Split(s, "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return "", "", fmt.Errorf("cannot parse repository %q, want owner/name", repoURL)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}

// Ingester writes repository snapshots through the repo store.
type Ingester struct {
	store   *storage.RepoStore
	fetcher SourceFetcher
	log     zerolog.Logger
	now     func() time.Time
}

// New creates an Ingester.
func New(store *storage.RepoStore, fetcher SourceFetcher, log zerolog.Logger) *Ingester {
	return &Ingester{store: store, fetcher: fetcher, log: log, now: time.Now}
}

// Head resolves the tip commit without ingesting anything.
func (g *Ingester) Head(ctx context.Context, owner, name, branch string) (*HeadInfo, error) {
	if branch == "" {
		desc, err := g.fetcher.Describe(ctx, owner, name)
		if err != nil {
			return nil, err
		}
		branch = desc.DefaultBranch
	}
	return g.fetcher.Head(ctx, owner, name, branch)
}

// IngestRepository snapshots one branch: every code file is stored as a
// raw blob and recorded in the metadata artifact. Files that are empty,
// binary, or unfetchable are skipped and counted, never fatal.
func (g *Ingester) IngestRepository(ctx context.Context, owner, name, branch string) (*types.IngestStatus, *types.RepositoryMetadata, error) {
	repo := owner + "/" + name

	desc, err := g.fetcher.Describe(ctx, owner, name)
	if err != nil {
		return nil, nil, fmt.Errorf("describing %s: %w", repo, err)
	}
	if branch == "" {
		branch = desc.DefaultBranch
	}

	head, err := g.fetcher.Head(ctx, owner, name, branch)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving head of %s@%s: %w", repo, branch, err)
	}

	g.log.Info().Str("repo", repo).Str("branch", branch).Str("sha", head.SHA).Msg("ingesting repository")

	var files []types.FileRef
	skipped := 0
	err = g.fetcher.Fetch(ctx, owner, name, branch, func(f File) error {
		content, reason := screen(f)
		if reason != "" {
			skipped++
			g.log.Debug().Str("file", f.Path).Str("reason", reason).Msg("skipping file")
			return nil
		}
		blobPath, err := g.store.SaveFile(ctx, repo, f.Path, content)
		if err != nil {
			return fmt.Errorf("storing %s: %w", f.Path, err)
		}
		files = append(files, types.FileRef{
			Path:     f.Path,
			Size:     len(content),
			BlobPath: blobPath,
			Language: DetectLanguage(f.Path),
			SHA:      f.SHA,
		})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("fetching files of %s: %w", repo, err)
	}

	meta := &types.RepositoryMetadata{
		Repo:       repo,
		Owner:      owner,
		Name:       name,
		Branch:     branch,
		CommitSHA:  head.SHA,
		IngestedAt: g.now().UTC(),
		TotalFiles: len(files),
		Files:      files,
		RepoInfo:   desc.Info,
	}
	if err := g.store.SaveMetadata(ctx, meta); err != nil {
		return nil, nil, fmt.Errorf("saving metadata for %s: %w", repo, err)
	}

	g.log.Info().Str("repo", repo).Int("files", len(files)).Int("skipped", skipped).Msg("ingestion complete")

	return &types.IngestStatus{
		Success:      true,
		Repo:         repo,
		TotalFiles:   len(files),
		SkippedFiles: skipped,
		CommitSHA:    head.SHA,
		Message:      fmt.Sprintf("ingested %d files from %s@%s (%d skipped)", len(files), repo, branch, skipped),
	}, meta, nil
}

// screen rejects empty and binary payloads, returning the reason, and
// strips undecodable bytes from otherwise textual content.
func screen(f File) ([]byte, string) {
	if len(f.Content) == 0 || len(strings.TrimSpace(string(f.Content))) == 0 {
		return nil, "empty"
	}
	for _, b := range f.Content {
		if b == 0 {
			return nil, "binary"
		}
	}
	return f.Content, ""
}
