package parser

import (
	"regexp"
	"strings"

	"github.com/otto-pm/repoindex/pkg/types"
)

var pyDefHeaderRe = regexp.MustCompile(`^(\s*)(?:async\s+)?(def|class)\s+(\w+)`)

// pythonAnalyzer scopes definitions by indentation: a def or class span
// runs until the first non-blank line at the same or shallower indent.
// Top-level defs are functions, defs nested under a class are methods.
type pythonAnalyzer struct{}

func (a *pythonAnalyzer) Language() string { return "python" }

func (a *pythonAnalyzer) Analyze(content string) ([]Span, error) {
	lines := strings.Split(content, "\n")
	var spans []Span

	for i := 0; i < len(lines); i++ {
		m := pyDefHeaderRe.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		indent := len(m[1])
		keyword := m[2]
		name := m[3]

		end := len(lines)
		for j := i + 1; j < len(lines); j++ {
			line := lines[j]
			if strings.TrimSpace(line) == "" {
				continue
			}
			if lineIndent(line) <= indent {
				end = j
				break
			}
		}
		// Trim trailing blank lines off the span.
		for end > i+1 && strings.TrimSpace(lines[end-1]) == "" {
			end--
		}

		kind := types.ChunkClass
		if keyword == "def" {
			if indent > 0 {
				kind = types.ChunkMethod
			} else {
				kind = types.ChunkFunction
			}
		}
		if name == "" {
			name = fallbackName(kind, i)
		}
		spans = append(spans, Span{StartLine: i, EndLine: end, Kind: kind, Name: name})

		// Classes recurse so methods get their own spans; functions
		// swallow their bodies.
		if kind != types.ChunkClass {
			i = end - 1
		}
	}
	return spans, nil
}

func lineIndent(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}
