package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/otto-pm/repoindex/pkg/types"
)

const jinaAPIURL = "https://api.jina.ai/v1/embeddings"

// JinaProvider embeds through the Jina AI API.
type JinaProvider struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewJinaProvider creates a provider for the given API key.
func NewJinaProvider(apiKey string) (*JinaProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: Jina API key not set", ErrNoProviderEnabled)
	}
	return &JinaProvider{
		apiKey:     apiKey,
		model:      DefaultJinaModel,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (p *JinaProvider) Name() string      { return ProviderJina }
func (p *JinaProvider) Model() string     { return p.model }
func (p *JinaProvider) Dimension() int    { return JinaDimension }
func (p *JinaProvider) MaxBatchSize() int { return DefaultBatchSize }

func (p *JinaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyBatch
	}

	config := DefaultRetryConfig()
	return retryWithBackoff(ctx, config, func() ([][]float32, error) {
		return p.callAPI(ctx, texts)
	})
}

func (p *JinaProvider) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(map[string]any{
		"input": texts,
		"model": p.model,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, jinaAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &types.TransientError{Op: "jina embed", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		apiErr := fmt.Errorf("api error %d: %s", resp.StatusCode, string(respBody))
		switch {
		case resp.StatusCode == http.StatusUnauthorized,
			resp.StatusCode == http.StatusForbidden,
			resp.StatusCode == http.StatusPaymentRequired:
			return nil, &types.QuotaError{Provider: ProviderJina, Err: apiErr}
		case resp.StatusCode == http.StatusTooManyRequests,
			resp.StatusCode >= 500:
			return nil, &types.TransientError{Op: "jina embed", Err: apiErr}
		}
		return nil, apiErr
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, &types.TransientError{Op: "jina embed", Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(apiResp.Data) != len(texts) {
		return nil, &types.TransientError{
			Op:  "jina embed",
			Err: fmt.Errorf("got %d embeddings for %d texts", len(apiResp.Data), len(texts)),
		}
	}

	vectors := make([][]float32, len(apiResp.Data))
	for i, d := range apiResp.Data {
		idx := d.Index
		if idx < 0 || idx >= len(vectors) {
			idx = i
		}
		vectors[idx] = d.Embedding
	}
	return vectors, nil
}
