package parser

import (
	"regexp"
	"strings"

	"github.com/otto-pm/repoindex/pkg/types"
)

var (
	cstyleFuncRe   = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(\w+)`)
	cstyleClassRe  = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:public\s+|private\s+|protected\s+)?(?:abstract\s+|final\s+)?(?:static\s+)?class\s+(\w+)`)
	cstyleArrowRe  = regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s*)?(?:\([^)]*\)|\w+)\s*=>`)
	cstyleMethodRe = regexp.MustCompile(`^\s*(?:public|private|protected)\s+(?:static\s+)?[\w<>\[\],\s]+\s(\w+)\s*\([^;]*\)\s*(?:throws\s+[\w,\s]+)?\{`)
)

// cstyleAnalyzer finds definitions in brace-delimited languages by
// matching a header line and walking forward to the balancing close
// brace. Good enough for chunk boundaries; not a real parser.
type cstyleAnalyzer struct {
	language string
}

func (a *cstyleAnalyzer) Language() string { return a.language }

func (a *cstyleAnalyzer) Analyze(content string) ([]Span, error) {
	lines := strings.Split(content, "\n")
	var spans []Span

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		var kind types.ChunkType
		var name string
		switch {
		case cstyleClassRe.MatchString(line):
			kind = types.ChunkClass
			name = cstyleClassRe.FindStringSubmatch(line)[1]
		case cstyleFuncRe.MatchString(line):
			kind = types.ChunkFunction
			name = cstyleFuncRe.FindStringSubmatch(line)[1]
		case cstyleArrowRe.MatchString(line):
			kind = types.ChunkFunction
			name = cstyleArrowRe.FindStringSubmatch(line)[1]
		case a.language == "java" && cstyleMethodRe.MatchString(line):
			kind = types.ChunkMethod
			name = cstyleMethodRe.FindStringSubmatch(line)[1]
		default:
			continue
		}

		end := braceSpanEnd(lines, i)
		if name == "" {
			name = fallbackName(kind, i)
		}
		spans = append(spans, Span{StartLine: i, EndLine: end, Kind: kind, Name: name})

		// Classes recurse for their members; functions are opaque.
		if kind != types.ChunkClass {
			i = end - 1
		}
	}
	return spans, nil
}

// braceSpanEnd returns the exclusive end line of the block opening at
// or after start. A header with no opening brace within a few lines
// yields a single-line span.
func braceSpanEnd(lines []string, start int) int {
	depth := 0
	opened := false
	for i := start; i < len(lines); i++ {
		for _, r := range lines[i] {
			switch r {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}
		if opened && depth <= 0 {
			return i + 1
		}
		if !opened && i > start+2 {
			return start + 1
		}
	}
	return len(lines)
}
