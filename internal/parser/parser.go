// Package parser locates definition spans (functions, classes, methods)
// in source text. Each supported language has an Analyzer; the chunker
// asks For(language) and falls back to line-based chunking when no
// analyzer exists or analysis fails.
package parser

import (
	"fmt"

	"github.com/otto-pm/repoindex/pkg/types"
)

// Span is one definition found in a file. Lines are 0-based, start
// inclusive, end exclusive.
type Span struct {
	StartLine int
	EndLine   int
	Kind      types.ChunkType
	Name      string
}

// Analyzer finds definition spans in one language's source text.
// Implementations return spans in ascending start-line order.
type Analyzer interface {
	Language() string
	Analyze(content string) ([]Span, error)
}

var analyzers = map[string]Analyzer{}

func register(a Analyzer) {
	analyzers[a.Language()] = a
}

func init() {
	register(&goAnalyzer{})
	register(&pythonAnalyzer{})
	register(&cstyleAnalyzer{language: "javascript"})
	register(&cstyleAnalyzer{language: "typescript"})
	register(&cstyleAnalyzer{language: "java"})
}

// For returns the analyzer for a language, or false when the language
// only supports line-based chunking.
func For(language string) (Analyzer, bool) {
	a, ok := analyzers[language]
	return a, ok
}

// Supported lists the languages with semantic analyzers.
func Supported() []string {
	langs := make([]string, 0, len(analyzers))
	for l := range analyzers {
		langs = append(langs, l)
	}
	return langs
}

// fallbackName fills in the span name when no identifier was found.
func fallbackName(kind types.ChunkType, startLine int) string {
	return fmt.Sprintf("%s_%d", kind, startLine)
}
