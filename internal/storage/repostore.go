package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/otto-pm/repoindex/pkg/types"
)

// Artifact file names under each repository prefix.
const (
	metadataFile      = "metadata.json"
	chunksFile        = "chunks.jsonl"
	commitInfoFile    = "commit_info.json"
	commitHistoryFile = "commit_history.jsonl"
	filesPrefix       = "files"
)

// RepoStore layers the pipeline artifact schema over a BlobStore. Each
// repository owns one prefix holding its metadata, chunk set, commit
// records, and raw file blobs.
type RepoStore struct {
	blobs BlobStore
}

// NewRepoStore wraps a BlobStore with the artifact schema.
func NewRepoStore(blobs BlobStore) *RepoStore {
	return &RepoStore{blobs: blobs}
}

// RepoKey converts an "owner/name" repository identifier into a single
// path segment usable as a storage prefix.
func RepoKey(repo string) string {
	return strings.ReplaceAll(repo, "/", "_")
}

func repoPath(repo, name string) string {
	return RepoKey(repo) + "/" + name
}

// SaveMetadata persists the ingestion-time repository record.
func (s *RepoStore) SaveMetadata(ctx context.Context, meta *types.RepositoryMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	return s.blobs.Put(ctx, repoPath(meta.Repo, metadataFile), data)
}

// LoadMetadata reads the ingestion record. A missing blob maps to
// ErrNotFound; an unreadable one to CorruptStateError.
func (s *RepoStore) LoadMetadata(ctx context.Context, repo string) (*types.RepositoryMetadata, error) {
	path := repoPath(repo, metadataFile)
	data, err := s.blobs.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	var meta types.RepositoryMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, &types.CorruptStateError{Path: path, Err: err}
	}
	return &meta, nil
}

// HasMetadata reports whether the repository has been ingested.
func (s *RepoStore) HasMetadata(ctx context.Context, repo string) (bool, error) {
	return s.blobs.Exists(ctx, repoPath(repo, metadataFile))
}

// SaveChunks persists the full chunk set as one JSON object per line.
// The whole artifact is rewritten; chunk order is preserved.
func (s *RepoStore) SaveChunks(ctx context.Context, repo string, chunks []types.Chunk) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range chunks {
		if err := enc.Encode(&chunks[i]); err != nil {
			return fmt.Errorf("encoding chunk %s: %w", chunks[i].ChunkID, err)
		}
	}
	return s.blobs.Put(ctx, repoPath(repo, chunksFile), buf.Bytes())
}

// LoadChunks reads the chunk set in stored order. An undecodable line
// maps to CorruptStateError.
func (s *RepoStore) LoadChunks(ctx context.Context, repo string) ([]types.Chunk, error) {
	path := repoPath(repo, chunksFile)
	data, err := s.blobs.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	var chunks []types.Chunk
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var c types.Chunk
		if err := dec.Decode(&c); err != nil {
			return nil, &types.CorruptStateError{Path: path, Err: err}
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// HasChunks reports whether the chunk stage has run.
func (s *RepoStore) HasChunks(ctx context.Context, repo string) (bool, error) {
	return s.blobs.Exists(ctx, repoPath(repo, chunksFile))
}

// SaveCommitInfo replaces the current last-processed commit record.
func (s *RepoStore) SaveCommitInfo(ctx context.Context, repo string, rec *types.CommitRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding commit record: %w", err)
	}
	return s.blobs.Put(ctx, repoPath(repo, commitInfoFile), data)
}

// LoadCommitInfo reads the current commit record, ErrNotFound when the
// repository has never completed a run.
func (s *RepoStore) LoadCommitInfo(ctx context.Context, repo string) (*types.CommitRecord, error) {
	path := repoPath(repo, commitInfoFile)
	data, err := s.blobs.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	var rec types.CommitRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &types.CorruptStateError{Path: path, Err: err}
	}
	return &rec, nil
}

// AppendCommitHistory appends one record to the repository's
// append-only history log.
func (s *RepoStore) AppendCommitHistory(ctx context.Context, repo string, rec *types.CommitRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding history record: %w", err)
	}
	return s.blobs.Append(ctx, repoPath(repo, commitHistoryFile), append(data, '\n'))
}

// CommitHistory returns history records newest first, at most limit
// entries (limit <= 0 means all). Undecodable lines are skipped rather
// than failing the read; the log is advisory.
func (s *RepoStore) CommitHistory(ctx context.Context, repo string, limit int) ([]types.CommitRecord, error) {
	data, err := s.blobs.Get(ctx, repoPath(repo, commitHistoryFile))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var records []types.CommitRecord
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var rec types.CommitRecord
		if err := dec.Decode(&rec); err != nil {
			break
		}
		records = append(records, rec)
	}
	// Stored oldest first, returned newest first.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// SaveFile stores one raw ingested source file and returns its blob path.
func (s *RepoStore) SaveFile(ctx context.Context, repo, filePath string, content []byte) (string, error) {
	blobPath := repoPath(repo, filesPrefix) + "/" + filePath
	if err := s.blobs.Put(ctx, blobPath, content); err != nil {
		return "", err
	}
	return blobPath, nil
}

// LoadFile reads one raw ingested source file by its blob path.
func (s *RepoStore) LoadFile(ctx context.Context, blobPath string) ([]byte, error) {
	return s.blobs.Get(ctx, blobPath)
}

// DeleteRepo removes every artifact the repository owns.
func (s *RepoStore) DeleteRepo(ctx context.Context, repo string) error {
	paths, err := s.blobs.List(ctx, RepoKey(repo))
	if err != nil {
		return err
	}
	for _, p := range paths {
		if err := s.blobs.Delete(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// ListRepos returns the repository keys present in the store.
func (s *RepoStore) ListRepos(ctx context.Context) ([]string, error) {
	paths, err := s.blobs.List(ctx, "")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var repos []string
	for _, p := range paths {
		if i := strings.IndexByte(p, '/'); i > 0 {
			key := p[:i]
			if !seen[key] {
				seen[key] = true
				repos = append(repos, key)
			}
		}
	}
	return repos, nil
}
