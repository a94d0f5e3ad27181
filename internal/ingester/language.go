package ingester

import (
	"path"
	"strings"
)

// languageByExt maps file extensions to the language names the chunker
// and extractor understand.
var languageByExt = map[string]string{
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".cpp":   "cpp",
	".c":     "c",
	".h":     "c",
	".go":    "go",
	".rs":    "rust",
	".rb":    "ruby",
	".php":   "php",
	".swift": "swift",
	".kt":    "kotlin",
	".scala": "scala",
	".sql":   "sql",
	".md":    "markdown",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".xml":   "xml",
	".html":  "html",
	".css":   "css",
	".scss":  "scss",
}

// excludedDirs are path segments that mark vendored, generated, or
// otherwise unindexable trees.
var excludedDirs = map[string]bool{
	"node_modules":  true,
	"venv":          true,
	"env":           true,
	"__pycache__":   true,
	".git":          true,
	"dist":          true,
	"build":         true,
	"target":        true,
	".next":         true,
	"coverage":      true,
	".pytest_cache": true,
	"vendor":        true,
}

// DetectLanguage maps a file path to a language name, "unknown" when
// the extension is unrecognized.
func DetectLanguage(filePath string) string {
	if lang, ok := languageByExt[strings.ToLower(path.Ext(filePath))]; ok {
		return lang
	}
	return "unknown"
}

// IsCodeFile reports whether the path has an indexable extension.
func IsCodeFile(filePath string) bool {
	_, ok := languageByExt[strings.ToLower(path.Ext(filePath))]
	return ok
}

// IsExcludedPath reports whether any segment of the path is an
// excluded directory.
func IsExcludedPath(filePath string) bool {
	for _, seg := range strings.Split(filePath, "/") {
		if excludedDirs[seg] {
			return true
		}
	}
	return false
}
