package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// ChunkType classifies the span a chunk was cut from
type ChunkType string

const (
	ChunkFunction ChunkType = "function"
	ChunkClass    ChunkType = "class"
	ChunkMethod   ChunkType = "method"
	ChunkBlock    ChunkType = "code_block"
)

// Chunk is one retrievable/embeddable unit: a contiguous span of source
// lines (line-based path) or one definition span (semantic path).
type Chunk struct {
	// Identity
	ChunkID    string `json:"chunk_id"`
	Repo       string `json:"repo"`
	FilePath   string `json:"file_path"`
	ChunkIndex int    `json:"chunk_index"`

	// Content
	Content         string `json:"content"`
	EnrichedContent string `json:"enriched_content"`
	ContentHash     string `json:"hash"`

	// Metadata
	ChunkType ChunkType `json:"chunk_type"`
	ChunkName string    `json:"chunk_name"`
	Language  string    `json:"language"`
	Summary   string    `json:"summary,omitempty"`

	// Location (0-based, start inclusive, end exclusive)
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
	NumLines  int `json:"num_lines"`
	CharCount int `json:"char_count"`

	// Embedding fields, populated in place by the embed stage
	Embedding      []float32 `json:"embedding,omitempty"`
	EmbeddingModel string    `json:"embedding_model,omitempty"`
	EmbeddingDim   int       `json:"embedding_dim,omitempty"`
}

// ChunkIDFor builds the deterministic chunk identity from
// (repo, file path, index).
func ChunkIDFor(repo, filePath string, index int) string {
	return fmt.Sprintf("%s::%s::%d", repo, filePath, index)
}

// HashContent computes the SHA-256 hex digest of a chunk body,
// used to detect byte-identical bodies across re-chunking.
func HashContent(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}

// HasEmbedding reports whether the embed stage has populated this chunk.
func (c *Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// Validate checks structural integrity at construction time rather than
// at serialization or embedding time.
func (c *Chunk) Validate() error {
	if c.ChunkID == "" {
		return errors.New("chunk ID cannot be empty")
	}
	if c.Repo == "" || c.FilePath == "" {
		return errors.New("chunk repo and file path are required")
	}
	if c.Content == "" {
		return errors.New("chunk content cannot be empty")
	}
	if c.StartLine < 0 || c.EndLine < 0 {
		return errors.New("line numbers cannot be negative")
	}
	if c.StartLine > c.EndLine {
		return errors.New("start line must be before or equal to end line")
	}
	switch c.ChunkType {
	case ChunkFunction, ChunkClass, ChunkMethod, ChunkBlock:
	default:
		return fmt.Errorf("invalid chunk type %q", c.ChunkType)
	}
	if c.ContentHash == "" {
		return errors.New("content hash must be computed")
	}
	if c.HasEmbedding() && c.EmbeddingDim != len(c.Embedding) {
		return errors.New("embedding dimension does not match vector length")
	}
	return nil
}

// SearchResult pairs a chunk with its similarity score for a query.
type SearchResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"similarity_score"`
}
