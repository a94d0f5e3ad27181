// Package config loads runtime configuration with the precedence
// defaults < YAML file < environment < flags. Environment variables use
// the REPOINDEX_ prefix.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const envPrefix = "REPOINDEX"

// Specification holds every tunable of the indexing service.
type Specification struct {
	StorageRoot string `yaml:"storageRoot" split_words:"true"`

	EmbeddingProvider string `yaml:"embeddingProvider" envconfig:"EMBEDDING_PROVIDER"`
	OpenAIAPIKey      string `yaml:"openaiApiKey" envconfig:"OPENAI_API_KEY"`
	JinaAPIKey        string `yaml:"jinaApiKey" envconfig:"JINA_API_KEY"`
	CacheSize         int    `yaml:"cacheSize" split_words:"true"`

	GithubToken string `yaml:"githubToken" envconfig:"GITHUB_TOKEN"`
	LocalRoot   string `yaml:"localRoot" split_words:"true"`

	ChunkSize    int `yaml:"chunkSize" split_words:"true"`
	OverlapLines int `yaml:"overlapLines" split_words:"true"`
	ChunkWorkers int `yaml:"chunkWorkers" split_words:"true"`

	TopK     int    `yaml:"topK" envconfig:"TOP_K"`
	LogLevel string `yaml:"logLevel" split_words:"true"`

	flags *pflag.FlagSet `ignored:"true"`
}

func (s *Specification) Usage() {
	fmt.Fprint(os.Stderr, s.flags.FlagUsages())
}

// Load resolves configuration. configPath may be empty, in which case
// REPOINDEX_CONFIG and a few conventional paths are tried.
func Load(configPath string, fs *pflag.FlagSet) (Specification, error) {
	var cfg Specification

	setDefaults(&cfg)
	bindFlags(fs, &cfg)

	path := configPath
	if path == "" {
		if v := os.Getenv(envPrefix + "_CONFIG"); v != "" {
			path = v
		} else {
			for _, cand := range []string{
				"config/repoindex.yaml",
				"./repoindex.yaml",
				"./config.yaml",
			} {
				if fileExists(cand) {
					path = cand
					break
				}
			}
		}
	}

	if path != "" {
		if !fileExists(path) {
			return Specification{}, fmt.Errorf("config file not found: %s", path)
		}
		if err := loadYAML(path, &cfg); err != nil {
			return Specification{}, fmt.Errorf("load yaml %s: %w", path, err)
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Specification{}, fmt.Errorf("env override: %w", err)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		return Specification{}, err
	}
	applyChangedFlags(fs, &cfg)

	if strings.TrimSpace(cfg.StorageRoot) == "" {
		return Specification{}, fmt.Errorf("%s_STORAGE_ROOT is required (env/file/flag)", envPrefix)
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

func setDefaults(c *Specification) {
	c.StorageRoot = defaultStorageRoot()
	c.CacheSize = 10000
	c.ChunkSize = 150
	c.OverlapLines = 10
	c.ChunkWorkers = 4
	c.TopK = 5
	c.LogLevel = "info"
}

func defaultStorageRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".repoindex"
	}
	return home + "/.repoindex"
}

func loadYAML(path string, into any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, into)
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}

func bindFlags(fs *pflag.FlagSet, c *Specification) {
	fs.String("config", "", "Path to config file")

	// --config must be visible before fs.Parse runs, because file
	// discovery happens first.
	for i, a := range os.Args {
		if a == "--config" {
			if i+1 < len(os.Args) && !strings.HasPrefix(os.Args[i+1], "-") {
				_ = os.Setenv(envPrefix+"_CONFIG", os.Args[i+1])
			}
		} else if strings.HasPrefix(a, "--config=") {
			parts := strings.SplitN(a, "=", 2)
			if len(parts) == 2 {
				_ = os.Setenv(envPrefix+"_CONFIG", parts[1])
			}
		}
	}

	fs.String("storage-root", c.StorageRoot, "Directory for persisted artifacts")
	fs.String("embedding-provider", c.EmbeddingProvider, "Embedding provider (openai, jina, local)")
	fs.String("openai-api-key", c.OpenAIAPIKey, "OpenAI API key")
	fs.String("jina-api-key", c.JinaAPIKey, "Jina API key")
	fs.Int("cache-size", c.CacheSize, "Embedding cache entries")
	fs.String("github-token", c.GithubToken, "GitHub API token")
	fs.String("local-root", c.LocalRoot, "Index a local directory instead of GitHub")
	fs.Int("chunk-size", c.ChunkSize, "Max lines per line-based chunk")
	fs.Int("overlap-lines", c.OverlapLines, "Overlap lines between adjacent chunks")
	fs.Int("chunk-workers", c.ChunkWorkers, "Concurrent file chunking workers")
	fs.Int("top-k", c.TopK, "Default search result count")
	fs.String("log-level", c.LogLevel, "Log level (debug|info|warn|error)")

	copied := pflag.NewFlagSet("temp", pflag.ContinueOnError)
	*copied = *fs
	c.flags = copied
}

func applyChangedFlags(fs *pflag.FlagSet, c *Specification) {
	setStr := func(name string, dst *string) {
		if fs.Changed(name) {
			v, _ := fs.GetString(name)
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if fs.Changed(name) {
			v, _ := fs.GetInt(name)
			*dst = v
		}
	}

	setStr("storage-root", &c.StorageRoot)
	setStr("embedding-provider", &c.EmbeddingProvider)
	setStr("openai-api-key", &c.OpenAIAPIKey)
	setStr("jina-api-key", &c.JinaAPIKey)
	setInt("cache-size", &c.CacheSize)
	setStr("github-token", &c.GithubToken)
	setStr("local-root", &c.LocalRoot)
	setInt("chunk-size", &c.ChunkSize)
	setInt("overlap-lines", &c.OverlapLines)
	setInt("chunk-workers", &c.ChunkWorkers)
	setInt("top-k", &c.TopK)
	setStr("log-level", &c.LogLevel)
}
