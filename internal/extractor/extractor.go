package extractor

import (
	"sort"
	"strings"

	"github.com/otto-pm/repoindex/pkg/types"
)

// Caps keep context bounded on adversarial or generated files. Scans
// cover a prefix of the file; definitions past the caps are dropped.
const (
	maxPrefixLines   = 200
	maxHeaderLines   = 100
	maxImports       = 20
	maxBaseImports   = 15
	maxFunctions     = 25
	maxConstants     = 10
	maxDecorators    = 15
	maxTypeHints     = 25
	maxDocstrings    = 20
	maxGlobals       = 20
	maxExceptions    = 10
	maxAsync         = 15
	maxExports       = 20
	maxInterfaces    = 15
	maxTypeAliases   = 15
	maxEnums         = 10
	maxAnnotations   = 15
	docstringPreview = 300
)

// Extract builds the FileContext for one source file. It is a pure
// function of (content, language) and always returns a usable context.
func Extract(content, language string) *types.FileContext {
	ctx := &types.FileContext{Language: language}
	lines := strings.Split(content, "\n")

	switch language {
	case "python":
		extractPythonBase(ctx, lines)
		ctx.Python = extractPython(content, lines)
	case "javascript":
		extractScriptBase(ctx, lines)
		ctx.Script = extractScript(lines, false)
	case "typescript":
		extractScriptBase(ctx, lines)
		ctx.Script = extractScript(lines, true)
	case "java":
		extractJavaBase(ctx, lines)
		ctx.Java = extractJava(lines)
	case "go":
		extractGoBase(ctx, lines)
	}
	return ctx
}

func prefix(lines []string, n int) []string {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}

// dedupe preserves first-seen order.
type dedupe struct {
	seen  map[string]bool
	items []string
	cap   int
}

func newDedupe(cap int) *dedupe {
	return &dedupe{seen: make(map[string]bool), cap: cap}
}

func (d *dedupe) add(s string) bool {
	if s == "" || d.seen[s] {
		return len(d.items) < d.cap
	}
	if len(d.items) >= d.cap {
		return false
	}
	d.seen[s] = true
	d.items = append(d.items, s)
	return len(d.items) < d.cap
}

func (d *dedupe) sorted() []string {
	out := append([]string(nil), d.items...)
	sort.Strings(out)
	return out
}
