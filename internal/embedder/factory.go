package embedder

import (
	"fmt"
	"strings"
)

// Config selects and configures an embedding provider.
type Config struct {
	Provider     string
	OpenAIAPIKey string
	JinaAPIKey   string
}

// NewProvider builds the configured provider. An empty Provider field
// auto-detects: first available API key wins, otherwise the offline
// local provider is used.
func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.OpenAIAPIKey)
	case ProviderJina:
		return NewJinaProvider(cfg.JinaAPIKey)
	case ProviderLocal:
		return NewLocalProvider(), nil
	case "":
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	if cfg.OpenAIAPIKey != "" {
		return NewOpenAIProvider(cfg.OpenAIAPIKey)
	}
	if cfg.JinaAPIKey != "" {
		return NewJinaProvider(cfg.JinaAPIKey)
	}
	return NewLocalProvider(), nil
}
