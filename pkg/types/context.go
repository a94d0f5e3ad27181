package types

// FileContext is the per-file structured metadata attached to every chunk
// cut from that file. It is built once per file by the extractor and is a
// pure function of (content, language).
//
// Language-specific extras live in tagged variants so that a missing or
// malformed category fails at construction, not at serialization time.
type FileContext struct {
	Language  string   `json:"language"`
	Imports   []string `json:"imports,omitempty"`
	Classes   []string `json:"classes,omitempty"`
	Functions []string `json:"functions,omitempty"`
	Constants []string `json:"constants,omitempty"`

	// Exactly one variant may be set, matching Language's family.
	Python *PythonContext `json:"python,omitempty"`
	Script *ScriptContext `json:"script,omitempty"`
	Java   *JavaContext   `json:"java,omitempty"`
}

// PythonContext carries extras for dynamically-typed languages.
type PythonContext struct {
	Decorators     []string          `json:"decorators,omitempty"`
	Globals        []string          `json:"globals,omitempty"`
	AsyncFunctions []string          `json:"async_functions,omitempty"`
	Raised         []string          `json:"raised,omitempty"`
	Caught         []string          `json:"caught,omitempty"`
	TypeHints      map[string]string `json:"type_hints,omitempty"`
	Docstrings     map[string]string `json:"docstrings,omitempty"`
}

// ScriptContext carries extras for JavaScript and TypeScript.
type ScriptContext struct {
	NamedExports   []string `json:"named_exports,omitempty"`
	DefaultExport  string   `json:"default_export,omitempty"`
	AsyncFunctions []string `json:"async_functions,omitempty"`
	Interfaces     []string `json:"interfaces,omitempty"`
	TypeAliases    []string `json:"type_aliases,omitempty"`
	Enums          []string `json:"enums,omitempty"`
}

// JavaContext carries extras for Java sources.
type JavaContext struct {
	Annotations []string `json:"annotations,omitempty"`
	Interfaces  []string `json:"interfaces,omitempty"`
}

// RepoContext is the repository-level banner data shared by every chunk of
// a repository. Built once per pipeline run from the ingestion metadata.
type RepoContext struct {
	RepoName        string         `json:"repo_name"`
	Description     string         `json:"description,omitempty"`
	PrimaryLanguage string         `json:"primary_language"`
	TotalFiles      int            `json:"total_files"`
	Languages       map[string]int `json:"languages,omitempty"`
	Directories     []string       `json:"directories,omitempty"`
}
