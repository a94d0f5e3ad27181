package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otto-pm/repoindex/pkg/types"
)

const pySource = `import json

def load(path):
    with open(path) as f:
        return json.load(f)

class Store:
    def get(self, key):
        return self.data[key]
`

func TestChunkFilePythonSemantic(t *testing.T) {
	c := New()
	chunks := c.ChunkFile("octo/webapp", "store.py", pySource, "python", nil, nil)
	require.NotEmpty(t, chunks, "python files must produce semantic chunks")

	kinds := map[types.ChunkType]bool{}
	names := map[string]bool{}
	for _, ch := range chunks {
		kinds[ch.ChunkType] = true
		names[ch.ChunkName] = true
		assert.NoError(t, ch.Validate())
		assert.Equal(t, "octo/webapp", ch.Repo)
		assert.Equal(t, "python", ch.Language)
	}
	assert.True(t, kinds[types.ChunkFunction])
	assert.True(t, kinds[types.ChunkClass])
	assert.True(t, names["load"])
	assert.True(t, names["Store"])
}

func TestChunkIDsDeterministic(t *testing.T) {
	c := New()
	a := c.ChunkFile("octo/webapp", "store.py", pySource, "python", nil, nil)
	b := c.ChunkFile("octo/webapp", "store.py", pySource, "python", nil, nil)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].ChunkID, b[i].ChunkID)
		assert.Equal(t, a[i].EnrichedContent, b[i].EnrichedContent)
		assert.Equal(t, fmt.Sprintf("octo/webapp::store.py::%d", i), a[i].ChunkID)
	}
}

// plainLines builds content with no blank lines, brackets, or
// definition keywords, so boundary snapping never fires.
func plainLines(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("value %d = compute(%d);", i, i)
	}
	return strings.Join(lines, "\n")
}

func TestLineChunkCount(t *testing.T) {
	c := &Chunker{ChunkSize: 50, OverlapLines: 5}

	cases := []struct {
		lines  int
		chunks int
	}{
		{45, 1},
		{50, 1},
		{90, 2},
		{100, 3},
		{180, 4},
	}
	for _, tc := range cases {
		chunks := c.ChunkFile("octo/webapp", "data.txt", plainLines(tc.lines), "text", nil, nil)
		// ceil(lines / (size - overlap)) windows for snap-free content
		assert.Len(t, chunks, tc.chunks, "%d lines", tc.lines)
		for _, ch := range chunks {
			assert.Equal(t, types.ChunkBlock, ch.ChunkType)
		}
	}
}

func TestLineChunkOverlap(t *testing.T) {
	c := New()
	chunks := c.ChunkFile("octo/webapp", "data.txt", plainLines(400), "text", nil, nil)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		assert.Equal(t, prev.EndLine-DefaultOverlapLines, cur.StartLine,
			"adjacent chunks must overlap by %d lines", DefaultOverlapLines)
	}
}

func TestLineChunkBoundarySnap(t *testing.T) {
	var lines []string
	for i := 0; i < 200; i++ {
		if i == 145 {
			lines = append(lines, "}")
			continue
		}
		lines = append(lines, fmt.Sprintf("stmt(%d);", i))
	}
	c := New()
	chunks := c.ChunkFile("octo/webapp", "data.txt", strings.Join(lines, "\n"), "text", nil, nil)
	require.NotEmpty(t, chunks)
	assert.Equal(t, 146, chunks[0].EndLine, "first window should snap to the closing brace")
}

func TestChunkFileEmptyContent(t *testing.T) {
	c := New()
	chunks := c.ChunkFile("octo/webapp", "empty.txt", "\n\n\n", "text", nil, nil)
	assert.Empty(t, chunks)
}

func TestEnrichedContentBanners(t *testing.T) {
	fileCtx := &types.FileContext{
		Language:  "python",
		Imports:   []string{"json", "os"},
		Classes:   []string{"Store"},
		Functions: []string{"load"},
		Python: &types.PythonContext{
			Decorators: []string{"staticmethod"},
			Docstrings: map[string]string{"load": "Load a JSON file."},
		},
	}
	repoCtx := &types.RepoContext{
		RepoName:        "octo/webapp",
		Description:     "demo service",
		PrimaryLanguage: "python",
	}

	c := New()
	chunks := c.ChunkFile("octo/webapp", "store.py", pySource, "python", fileCtx, repoCtx)
	require.NotEmpty(t, chunks)

	var load types.Chunk
	for _, ch := range chunks {
		if ch.ChunkName == "load" {
			load = ch
		}
	}
	require.NotEmpty(t, load.ChunkID)

	enriched := load.EnrichedContent
	assert.Contains(t, enriched, "# Repository: octo/webapp")
	assert.Contains(t, enriched, "# Description: demo service")
	assert.Contains(t, enriched, "# File: store.py")
	assert.Contains(t, enriched, "# Imports: json, os")
	assert.Contains(t, enriched, "# Docstring: Load a JSON file.")
	assert.Contains(t, enriched, "# Code:")
	assert.Contains(t, enriched, load.Content)
	assert.True(t, strings.HasSuffix(enriched, load.Content))
}

func TestTruncateKeepsValidUTF8(t *testing.T) {
	text := strings.Repeat("x", 97) + "日本語"
	for n := 95; n <= 105; n++ {
		got := truncate(text, n)
		assert.True(t, utf8.ValidString(got), "cut at %d must not split a rune", n)
		assert.LessOrEqual(t, len(got), n)
	}
	assert.Equal(t, "abc", truncate("abc", 10))
}

func TestChunkHashMatchesContent(t *testing.T) {
	c := New()
	chunks := c.ChunkFile("octo/webapp", "store.py", pySource, "python", nil, nil)
	for _, ch := range chunks {
		assert.Equal(t, types.HashContent(ch.Content), ch.ContentHash)
	}
}
