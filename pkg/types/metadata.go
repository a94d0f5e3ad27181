package types

import "time"

// RepositoryMetadata is the ingestion-time record of a repository snapshot.
// Written by the ingest stage, read by the chunk stage.
type RepositoryMetadata struct {
	Repo       string    `json:"repo"`
	Owner      string    `json:"owner"`
	Name       string    `json:"name"`
	Branch     string    `json:"branch"`
	CommitSHA  string    `json:"commit_sha"`
	IngestedAt time.Time `json:"ingested_at"`
	TotalFiles int       `json:"total_files"`
	Files      []FileRef `json:"files"`
	RepoInfo   RepoInfo  `json:"repo_info"`
}

// FileRef points at one ingested source file blob.
type FileRef struct {
	Path     string `json:"path"`
	Size     int    `json:"size"`
	BlobPath string `json:"blob_path"`
	Language string `json:"language"`
	SHA      string `json:"sha"`
}

// RepoInfo is descriptive repository metadata from the source host.
type RepoInfo struct {
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"`
	Stars       int    `json:"stars,omitempty"`
	URL         string `json:"url,omitempty"`
}

// CommitRecord is the last-processed repository state used to decide
// whether reprocessing is necessary. One current record per repository
// plus an append-only history log.
type CommitRecord struct {
	CommitSHA     string    `json:"commit_sha"`
	Branch        string    `json:"branch"`
	Author        string    `json:"author"`
	CommitMessage string    `json:"commit_message,omitempty"`
	ProcessedAt   time.Time `json:"processed_at"`
}
