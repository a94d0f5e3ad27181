package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otto-pm/repoindex/pkg/types"
)

func TestForRegistry(t *testing.T) {
	for _, lang := range []string{"go", "python", "javascript", "typescript", "java"} {
		a, ok := For(lang)
		require.True(t, ok, lang)
		assert.Equal(t, lang, a.Language())
	}

	_, ok := For("ruby")
	assert.False(t, ok)
}

const goSample = `package store

import "errors"

type Record struct {
	ID   int
	Name string
}

func Open(path string) (*Record, error) {
	if path == "" {
		return nil, errors.New("empty path")
	}
	return &Record{}, nil
}

func (r *Record) Close() error {
	return nil
}
`

func TestGoAnalyzer(t *testing.T) {
	a, _ := For("go")
	spans, err := a.Analyze(goSample)
	require.NoError(t, err)
	require.Len(t, spans, 3)

	byName := map[string]Span{}
	for _, s := range spans {
		byName[s.Name] = s
	}

	assert.Equal(t, types.ChunkClass, byName["Record"].Kind)
	assert.Equal(t, types.ChunkFunction, byName["Open"].Kind)
	assert.Equal(t, types.ChunkMethod, byName["Close"].Kind)

	open := byName["Open"]
	assert.Less(t, open.StartLine, open.EndLine)
}

func TestGoAnalyzerSortedByStart(t *testing.T) {
	a, _ := For("go")
	spans, err := a.Analyze(goSample)
	require.NoError(t, err)
	for i := 1; i < len(spans); i++ {
		assert.LessOrEqual(t, spans[i-1].StartLine, spans[i].StartLine)
	}
}

const pySample = `import os

def top_level(x):
    return x * 2

class Greeter:
    def greet(self, name):
        return "hi " + name

    def farewell(self, name):
        return "bye " + name

def trailing():
    pass
`

func TestPythonAnalyzer(t *testing.T) {
	a, _ := For("python")
	spans, err := a.Analyze(pySample)
	require.NoError(t, err)

	byName := map[string]Span{}
	for _, s := range spans {
		byName[s.Name] = s
	}

	require.Contains(t, byName, "top_level")
	require.Contains(t, byName, "Greeter")
	require.Contains(t, byName, "greet")
	require.Contains(t, byName, "farewell")
	require.Contains(t, byName, "trailing")

	assert.Equal(t, types.ChunkFunction, byName["top_level"].Kind)
	assert.Equal(t, types.ChunkClass, byName["Greeter"].Kind)
	assert.Equal(t, types.ChunkMethod, byName["greet"].Kind)

	// Methods nest inside the class span.
	g := byName["Greeter"]
	m := byName["greet"]
	assert.GreaterOrEqual(t, m.StartLine, g.StartLine)
	assert.LessOrEqual(t, m.EndLine, g.EndLine)

	// Function spans stop before the next top-level definition.
	top := byName["top_level"]
	assert.LessOrEqual(t, top.EndLine, g.StartLine)
}

func TestPythonAnalyzerEmptyFile(t *testing.T) {
	a, _ := For("python")
	spans, err := a.Analyze("# just a comment\n")
	require.NoError(t, err)
	assert.Empty(t, spans)
}

const tsSample = `export class Repo {
  load() {
    return fetch('/data')
  }
}

export function parse(raw) {
  return JSON.parse(raw)
}

const handler = async (event) => {
  return process(event)
}
`

func TestCStyleAnalyzer(t *testing.T) {
	a, _ := For("typescript")
	spans, err := a.Analyze(tsSample)
	require.NoError(t, err)

	byName := map[string]Span{}
	for _, s := range spans {
		byName[s.Name] = s
	}

	require.Contains(t, byName, "Repo")
	require.Contains(t, byName, "parse")
	require.Contains(t, byName, "handler")

	assert.Equal(t, types.ChunkClass, byName["Repo"].Kind)
	assert.Equal(t, types.ChunkFunction, byName["parse"].Kind)

	repo := byName["Repo"]
	assert.Equal(t, 0, repo.StartLine)
	assert.Equal(t, 5, repo.EndLine)
}

func TestFallbackName(t *testing.T) {
	assert.Equal(t, "function_12", fallbackName(types.ChunkFunction, 12))
}
