package types

// Stage status records returned by the externally visible pipeline entry
// points. Entry points return these rather than raising past their own
// boundary; Message carries the human-readable outcome.

// IngestStatus reports the ingest stage outcome.
type IngestStatus struct {
	Success      bool   `json:"success"`
	Repo         string `json:"repo"`
	TotalFiles   int    `json:"total_files"`
	SkippedFiles int    `json:"skipped_files"`
	CommitSHA    string `json:"commit_sha,omitempty"`
	WasCached    bool   `json:"was_cached"`
	Message      string `json:"message"`
}

// ChunkStatus reports the chunk stage outcome.
type ChunkStatus struct {
	Success        bool   `json:"success"`
	Repo           string `json:"repo"`
	TotalChunks    int    `json:"total_chunks"`
	FilesProcessed int    `json:"files_processed"`
	FilesFailed    int    `json:"files_failed"`
	Message        string `json:"message"`
}

// EmbedStats counts the embed stage work split.
type EmbedStats struct {
	Total           int `json:"total"`
	AlreadyEmbedded int `json:"already_embedded"`
	NewlyEmbedded   int `json:"newly_embedded"`
	Failed          int `json:"failed"`
}

// EmbedStatus reports the embed stage outcome.
type EmbedStatus struct {
	Success bool       `json:"success"`
	Repo    string     `json:"repo"`
	Stats   EmbedStats `json:"stats"`
	Message string     `json:"message"`
}

// PipelineState names a state in the orchestrator state machine.
type PipelineState string

const (
	StateIdle      PipelineState = "idle"
	StateChecking  PipelineState = "checking"
	StateIngesting PipelineState = "ingesting"
	StateChunking  PipelineState = "chunking"
	StateEmbedding PipelineState = "embedding"
	StateUpToDate  PipelineState = "up_to_date"
	StateDone      PipelineState = "done"
	StateFailed    PipelineState = "failed"
)

// PipelineStatus is the terminal record of one orchestrated run. On
// failure it carries the originating error text plus the partial counts
// already accumulated by completed stages.
type PipelineStatus struct {
	RunID         string        `json:"run_id"`
	State         PipelineState `json:"state"`
	Success       bool          `json:"success"`
	Repo          string        `json:"repo"`
	Branch        string        `json:"branch,omitempty"`
	CommitSHA     string        `json:"commit_sha,omitempty"`
	WasCached     bool          `json:"was_cached"`
	TotalFiles    int           `json:"total_files"`
	TotalChunks   int           `json:"total_chunks"`
	TotalEmbedded int           `json:"total_embedded"`
	Failed        int           `json:"failed"`
	Message       string        `json:"message"`
	Error         string        `json:"error,omitempty"`
}

// RepoStatus summarizes how far through the pipeline a repository is.
type RepoStatus struct {
	Repo           string        `json:"repo"`
	Ingested       bool          `json:"ingested"`
	Chunked        bool          `json:"chunked"`
	Embedded       bool          `json:"embedded"`
	ReadyForSearch bool          `json:"ready_for_search"`
	TotalFiles     int           `json:"total_files"`
	TotalChunks    int           `json:"total_chunks"`
	Progress       int           `json:"pipeline_progress"`
	Commit         *CommitRecord `json:"commit_info,omitempty"`
}
