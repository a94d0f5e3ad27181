package chunker

import (
	"fmt"
	"strings"

	"github.com/otto-pm/repoindex/pkg/types"
)

// Per-banner caps keep enriched text inside embedding budgets even when
// the file context is saturated.
const (
	bannerImports    = 8
	bannerFunctions  = 12
	bannerDecorators = 8
	bannerGlobals    = 8
	bannerAsync      = 6
	bannerRaises     = 5
	bannerExports    = 8
	bannerInterfaces = 6
	bannerTypes      = 6
	bannerEnums      = 4
	bannerDocstring  = 150
)

// buildEnriched renders the embedding input: context banners followed
// by the chunk body. Rendering is deterministic for identical inputs.
func buildEnriched(rc rawChunk, filePath, language string, fileCtx *types.FileContext, repoCtx *types.RepoContext) string {
	var parts []string

	if repoCtx != nil {
		parts = append(parts, "# Repository: "+repoCtx.RepoName)
		if repoCtx.Description != "" {
			parts = append(parts, "# Description: "+repoCtx.Description)
		}
		parts = append(parts, "# Primary Language: "+repoCtx.PrimaryLanguage, "")
	}

	parts = append(parts, "# File: "+filePath, "# Language: "+language)

	if fileCtx != nil {
		if len(fileCtx.Imports) > 0 {
			parts = append(parts, "# Imports: "+joinCapped(fileCtx.Imports, bannerImports))
		}
		if len(fileCtx.Classes) > 0 {
			parts = append(parts, "# Classes: "+strings.Join(fileCtx.Classes, ", "))
		}
		if len(fileCtx.Functions) > 0 {
			parts = append(parts, "# Functions: "+joinCapped(fileCtx.Functions, bannerFunctions))
		}
		parts = appendLanguageBanners(parts, rc, fileCtx)
	}

	parts = append(parts, "",
		"# Code Section: "+rc.name,
		fmt.Sprintf("# Type: %s", rc.kind),
		fmt.Sprintf("# Lines: %d-%d", rc.startLine, rc.endLine),
	)
	if rc.summary != "" {
		parts = append(parts, "# Summary: "+rc.summary)
	}
	parts = append(parts, "", "# Code:", rc.content)

	return strings.Join(parts, "\n")
}

func appendLanguageBanners(parts []string, rc rawChunk, fileCtx *types.FileContext) []string {
	if pc := fileCtx.Python; pc != nil {
		if len(pc.Decorators) > 0 {
			parts = append(parts, "# Decorators: "+joinCapped(pc.Decorators, bannerDecorators))
		}
		if len(pc.Globals) > 0 {
			parts = append(parts, "# Globals: "+joinCapped(pc.Globals, bannerGlobals))
		}
		if len(pc.AsyncFunctions) > 0 {
			parts = append(parts, "# Async Functions: "+joinCapped(pc.AsyncFunctions, bannerAsync))
		}
		if len(pc.Raised) > 0 {
			parts = append(parts, "# Raises: "+joinCapped(pc.Raised, bannerRaises))
		}
		if len(pc.Caught) > 0 {
			parts = append(parts, "# Catches: "+joinCapped(pc.Caught, bannerRaises))
		}
		if hint, ok := pc.TypeHints[rc.name]; ok {
			parts = append(parts, "# Signature: "+hint)
		}
		if doc, ok := pc.Docstrings[rc.name]; ok {
			parts = append(parts, "# Docstring: "+truncate(doc, bannerDocstring))
		}
	}

	if sc := fileCtx.Script; sc != nil {
		if len(sc.Interfaces) > 0 {
			parts = append(parts, "# Interfaces: "+joinCapped(sc.Interfaces, bannerInterfaces))
		}
		if len(sc.TypeAliases) > 0 {
			parts = append(parts, "# Type Definitions: "+joinCapped(sc.TypeAliases, bannerTypes))
		}
		if len(sc.Enums) > 0 {
			parts = append(parts, "# Enums: "+joinCapped(sc.Enums, bannerEnums))
		}
		if len(sc.NamedExports) > 0 {
			parts = append(parts, "# Named Exports: "+joinCapped(sc.NamedExports, bannerExports))
		}
		if sc.DefaultExport != "" {
			parts = append(parts, "# Default Export: "+sc.DefaultExport)
		}
		if len(sc.AsyncFunctions) > 0 {
			parts = append(parts, "# Async Functions: "+joinCapped(sc.AsyncFunctions, bannerAsync))
		}
	}

	if jc := fileCtx.Java; jc != nil {
		if len(jc.Annotations) > 0 {
			parts = append(parts, "# Annotations: "+joinCapped(jc.Annotations, bannerExports))
		}
		if len(jc.Interfaces) > 0 {
			parts = append(parts, "# Interfaces: "+joinCapped(jc.Interfaces, bannerInterfaces))
		}
	}

	return parts
}

func joinCapped(items []string, limit int) string {
	if len(items) > limit {
		items = items[:limit]
	}
	return strings.Join(items, ", ")
}
