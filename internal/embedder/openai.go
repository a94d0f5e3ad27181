package embedder

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/otto-pm/repoindex/pkg/types"
)

// OpenAIProvider embeds through the OpenAI embeddings API.
type OpenAIProvider struct {
	client *openai.Client
	model  openai.EmbeddingModel
	dim    int
}

// NewOpenAIProvider creates a provider for the given API key.
func NewOpenAIProvider(apiKey string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key not set", ErrNoProviderEnabled)
	}
	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
		model:  openai.SmallEmbedding3,
		dim:    OpenAIDimension,
	}, nil
}

func (p *OpenAIProvider) Name() string      { return ProviderOpenAI }
func (p *OpenAIProvider) Model() string     { return string(p.model) }
func (p *OpenAIProvider) Dimension() int    { return p.dim }
func (p *OpenAIProvider) MaxBatchSize() int { return DefaultBatchSize }

func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyBatch
	}

	config := DefaultRetryConfig()
	return retryWithBackoff(ctx, config, func() ([][]float32, error) {
		resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: texts,
			Model: p.model,
		})
		if err != nil {
			return nil, p.classify(err)
		}
		if len(resp.Data) != len(texts) {
			return nil, &types.TransientError{
				Op:  "openai embed",
				Err: fmt.Errorf("got %d embeddings for %d texts", len(resp.Data), len(texts)),
			}
		}
		vectors := make([][]float32, len(resp.Data))
		for _, d := range resp.Data {
			vectors[d.Index] = d.Embedding
		}
		return vectors, nil
	})
}

// classify maps OpenAI API errors onto the retry taxonomy. 429 with a
// quota code and all auth failures are permanent; rate limits and
// server errors are transient.
func (p *OpenAIProvider) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusPaymentRequired:
			return &types.QuotaError{Provider: ProviderOpenAI, Err: err}
		case http.StatusTooManyRequests:
			if code, ok := apiErr.Code.(string); ok && code == "insufficient_quota" {
				return &types.QuotaError{Provider: ProviderOpenAI, Err: err}
			}
			return &types.TransientError{Op: "openai embed", Err: err}
		}
		if apiErr.HTTPStatusCode >= 500 {
			return &types.TransientError{Op: "openai embed", Err: err}
		}
		return err
	}
	// Network-level failures are worth retrying.
	return &types.TransientError{Op: "openai embed", Err: err}
}
