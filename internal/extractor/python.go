package extractor

import (
	"regexp"
	"strings"

	"github.com/otto-pm/repoindex/pkg/types"
)

var (
	pyImportRe    = regexp.MustCompile(`from\s+([\w.]+)`)
	pyClassRe     = regexp.MustCompile(`class\s+(\w+)`)
	pyDefRe       = regexp.MustCompile(`def\s+(\w+)`)
	pyConstRe     = regexp.MustCompile(`^([A-Z_]+)\s*=`)
	pyDecoratorRe = regexp.MustCompile(`@([\w.]+)`)
	pySigRe       = regexp.MustCompile(`(?s)def\s+(\w+)\s*\((.*?)\)\s*(?:->\s*([^:]+))?:`)
	pyParamRe     = regexp.MustCompile(`(\w+)\s*:\s*([^=]+)`)
	pyGlobalRe    = regexp.MustCompile(`^([A-Z_][A-Z0-9_]*|[a-z_][a-z0-9_]*)\s*=`)
	pyRaiseRe     = regexp.MustCompile(`raise\s+(\w+)`)
	pyExceptRe    = regexp.MustCompile(`except\s+(\w+)`)
	pyAsyncRe     = regexp.MustCompile(`async\s+def\s+(\w+)`)
	pyDocstringRe = regexp.MustCompile(`(def|class)\s+(\w+)`)
	pyAnyImportRe = regexp.MustCompile(`(?:from|import)\s+([\w.]+)`)
)

func extractPythonBase(ctx *types.FileContext, lines []string) {
	for _, line := range prefix(lines, maxHeaderLines) {
		stripped := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(stripped, "import "), strings.HasPrefix(stripped, "from "):
			if m := pyAnyImportRe.FindStringSubmatch(stripped); m != nil && len(ctx.Imports) < maxBaseImports {
				ctx.Imports = append(ctx.Imports, m[1])
			}
		case strings.HasPrefix(stripped, "class "):
			if m := pyClassRe.FindStringSubmatch(stripped); m != nil {
				ctx.Classes = append(ctx.Classes, m[1])
			}
		case strings.HasPrefix(stripped, "def "):
			if m := pyDefRe.FindStringSubmatch(stripped); m != nil && len(ctx.Functions) < maxFunctions {
				ctx.Functions = append(ctx.Functions, m[1])
			}
		case strings.Contains(stripped, "=") && stripped == strings.ToUpper(stripped):
			if m := pyConstRe.FindStringSubmatch(stripped); m != nil && len(ctx.Constants) < maxConstants {
				ctx.Constants = append(ctx.Constants, m[1])
			}
		}
	}
}

func extractPython(content string, lines []string) *types.PythonContext {
	pc := &types.PythonContext{
		TypeHints:  extractPythonTypeHints(content),
		Docstrings: extractPythonDocstrings(lines),
	}

	decorators := newDedupe(maxDecorators)
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "@") {
			if m := pyDecoratorRe.FindStringSubmatch(stripped); m != nil {
				if !decorators.add(m[1]) {
					break
				}
			}
		}
	}
	pc.Decorators = decorators.sorted()

	pc.Globals = extractPythonGlobals(lines)
	pc.Raised, pc.Caught = extractPythonExceptions(lines)

	async := newDedupe(maxAsync)
	for _, line := range lines {
		if m := pyAsyncRe.FindStringSubmatch(line); m != nil {
			if !async.add(m[1]) {
				break
			}
		}
	}
	pc.AsyncFunctions = async.items

	return pc
}

func extractPythonTypeHints(content string) map[string]string {
	hints := make(map[string]string)
	for _, m := range pySigRe.FindAllStringSubmatch(content, -1) {
		if len(hints) >= maxTypeHints {
			break
		}
		name, params, ret := m[1], m[2], strings.TrimSpace(m[3])
		var parts []string
		for _, p := range strings.Split(params, ",") {
			p = strings.TrimSpace(p)
			if p == "" || p == "self" || p == "cls" {
				continue
			}
			if pm := pyParamRe.FindStringSubmatch(p); pm != nil {
				parts = append(parts, pm[1]+": "+strings.TrimSpace(pm[2]))
			}
		}
		if ret != "" {
			parts = append(parts, "-> "+ret)
		}
		if len(parts) > 0 {
			hints[name] = strings.Join(parts, ", ")
		}
	}
	if len(hints) == 0 {
		return nil
	}
	return hints
}

// extractPythonDocstrings captures the first docstring line after each
// def/class header, truncated to a preview.
func extractPythonDocstrings(lines []string) map[string]string {
	docs := make(map[string]string)
	for i, line := range lines {
		if len(docs) >= maxDocstrings {
			break
		}
		m := pyDocstringRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := m[2]
		for j := i + 1; j < len(lines) && j <= i+3; j++ {
			next := strings.TrimSpace(lines[j])
			if next == "" {
				continue
			}
			if strings.HasPrefix(next, `"""`) || strings.HasPrefix(next, "'''") {
				doc := strings.Trim(next, `"'`)
				doc = strings.TrimSpace(doc)
				if doc == "" && j+1 < len(lines) {
					doc = strings.TrimSpace(lines[j+1])
					doc = strings.Trim(doc, `"'`)
				}
				if len(doc) > docstringPreview {
					doc = doc[:docstringPreview]
				}
				if doc != "" {
					docs[name] = doc
				}
			}
			break
		}
	}
	if len(docs) == 0 {
		return nil
	}
	return docs
}

func extractPythonGlobals(lines []string) []string {
	var globals []string
	seen := make(map[string]bool)
	for _, line := range prefix(lines, 150) {
		// Module level only: no indentation.
		if line == "" || line[0] == ' ' || line[0] == '\t' {
			continue
		}
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "#") || strings.HasPrefix(stripped, "def ") ||
			strings.HasPrefix(stripped, "class ") || strings.HasPrefix(stripped, "import ") ||
			strings.HasPrefix(stripped, "from ") || strings.HasPrefix(stripped, "@") {
			continue
		}
		if m := pyGlobalRe.FindStringSubmatch(stripped); m != nil && !seen[m[1]] {
			seen[m[1]] = true
			globals = append(globals, m[1])
			if len(globals) >= maxGlobals {
				break
			}
		}
	}
	return globals
}

func extractPythonExceptions(lines []string) (raised, caught []string) {
	raisedSet := newDedupe(maxExceptions)
	caughtSet := newDedupe(maxExceptions)
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "raise ") {
			if m := pyRaiseRe.FindStringSubmatch(stripped); m != nil {
				raisedSet.add(m[1])
			}
		}
		for _, m := range pyExceptRe.FindAllStringSubmatch(stripped, -1) {
			caughtSet.add(m[1])
		}
	}
	return raisedSet.sorted(), caughtSet.sorted()
}
