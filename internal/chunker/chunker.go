package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/otto-pm/repoindex/internal/parser"
	"github.com/otto-pm/repoindex/pkg/types"
)

// Defaults tuned for embedding-model context budgets.
const (
	DefaultChunkSize    = 150
	DefaultOverlapLines = 10

	// Line chunks may snap backward up to this many lines to end on a
	// logical boundary.
	snapWindow = 20

	// Definition spans get this many lines of surrounding context.
	spanPadding = 2

	summaryMaxChars = 100
)

// Chunker cuts file content into chunks. Zero values fall back to the
// package defaults.
type Chunker struct {
	ChunkSize    int
	OverlapLines int
}

// New returns a Chunker with the default window geometry.
func New() *Chunker {
	return &Chunker{ChunkSize: DefaultChunkSize, OverlapLines: DefaultOverlapLines}
}

func (c *Chunker) size() int {
	if c.ChunkSize > 0 {
		return c.ChunkSize
	}
	return DefaultChunkSize
}

func (c *Chunker) overlap() int {
	if c.OverlapLines > 0 {
		return c.OverlapLines
	}
	return DefaultOverlapLines
}

// rawChunk is a cut span before identity and enrichment are attached.
type rawChunk struct {
	content   string
	kind      types.ChunkType
	name      string
	summary   string
	startLine int
	endLine   int
}

// ChunkFile cuts one file and returns fully-formed chunks in file
// order. Chunk indexes are per file, so identical inputs always yield
// identical chunk IDs.
func (c *Chunker) ChunkFile(repo, filePath, content, language string, fileCtx *types.FileContext, repoCtx *types.RepoContext) []types.Chunk {
	var raws []rawChunk
	if a, ok := parser.For(language); ok {
		spans, err := a.Analyze(content)
		if err == nil && len(spans) > 0 {
			raws = c.semanticChunks(content, spans)
		}
	}
	if len(raws) == 0 {
		raws = c.lineChunks(content)
	}

	chunks := make([]types.Chunk, 0, len(raws))
	for i, rc := range raws {
		chunk := types.Chunk{
			ChunkID:         types.ChunkIDFor(repo, filePath, i),
			Repo:            repo,
			FilePath:        filePath,
			ChunkIndex:      i,
			Content:         rc.content,
			EnrichedContent: buildEnriched(rc, filePath, language, fileCtx, repoCtx),
			ContentHash:     types.HashContent(rc.content),
			ChunkType:       rc.kind,
			ChunkName:       rc.name,
			Language:        language,
			Summary:         rc.summary,
			StartLine:       rc.startLine,
			EndLine:         rc.endLine,
			NumLines:        rc.endLine - rc.startLine,
			CharCount:       len(rc.content),
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// semanticChunks renders definition spans with context padding.
func (c *Chunker) semanticChunks(content string, spans []parser.Span) []rawChunk {
	lines := strings.Split(content, "\n")
	raws := make([]rawChunk, 0, len(spans))
	for _, span := range spans {
		start := span.StartLine - spanPadding
		if start < 0 {
			start = 0
		}
		end := span.EndLine + spanPadding
		if end > len(lines) {
			end = len(lines)
		}
		body := strings.Join(lines[start:end], "\n")
		if strings.TrimSpace(body) == "" {
			continue
		}
		raws = append(raws, rawChunk{
			content:   body,
			kind:      span.Kind,
			name:      span.Name,
			summary:   fmt.Sprintf("%s: %s", span.Kind, span.Name),
			startLine: start,
			endLine:   end,
		})
	}
	return raws
}

// lineChunks walks the file in fixed windows, snapping each window end
// backward to a blank line, lone closing bracket, or definition header
// when one is close enough. The next window starts overlap lines before
// the previous end.
func (c *Chunker) lineChunks(content string) []rawChunk {
	lines := strings.Split(content, "\n")
	size := c.size()
	overlap := c.overlap()

	var raws []rawChunk
	i := 0
	for i < len(lines) {
		start := i
		end := start + size
		if end > len(lines) {
			end = len(lines)
		}

		// Only snap when far enough from EOF to leave a real tail.
		if end < len(lines)-5 {
			lower := end - snapWindow
			if lower < start {
				lower = start
			}
			for j := end - 1; j > lower; j-- {
				if isBoundary(lines[j]) {
					end = j + 1
					break
				}
			}
		}

		body := strings.Join(lines[start:end], "\n")
		if strings.TrimSpace(body) != "" {
			raws = append(raws, rawChunk{
				content:   body,
				kind:      types.ChunkBlock,
				name:      fmt.Sprintf("lines_%d_%d", start, end),
				summary:   truncate(strings.TrimSpace(lines[start]), summaryMaxChars),
				startLine: start,
				endLine:   end,
			})
		}

		if end < len(lines) {
			i = end - overlap
			if i <= start {
				i = end
			}
		} else {
			i = end
		}
	}
	return raws
}

func isBoundary(line string) bool {
	s := strings.TrimSpace(line)
	if s == "" || s == "}" || s == "]" || s == ")" {
		return true
	}
	return strings.HasPrefix(s, "class ") || strings.HasPrefix(s, "def ") || strings.HasPrefix(s, "function ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Back off to a rune boundary so the cut never splits a character.
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
