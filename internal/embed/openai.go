package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OpenAIProvider generates embeddings via an OpenAI-compatible
// /v1/embeddings endpoint.
type OpenAIProvider struct {
	BaseURL string
	APIKey  string
	Model   string
	client  *http.Client
}

// NewOpenAIProvider creates an OpenAI embedding provider.
func NewOpenAIProvider(baseURL, apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		client:  http.DefaultClient,
	}
}

// Name returns the provider identifier carried on every vector this tier
// produces.
func (p *OpenAIProvider) Name() string {
	return "openai/" + p.Model
}

type openaiEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openaiEmbedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed requests embeddings for the batch. Missing credentials and any
// transport or status failure return an error so the chain can fall through.
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) (*Result, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("openai: missing API key")
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("openai: empty input")
	}

	payload := openaiEmbedRequest{Model: p.Model, Input: texts}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("openai: failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/embeddings", p.BaseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("openai: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai: failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openai: bad status %d: %s", resp.StatusCode, string(raw))
	}

	var embedResp openaiEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("openai: failed to decode response: %w", err)
	}
	if len(embedResp.Data) != len(texts) {
		return nil, fmt.Errorf("openai: expected %d embeddings, got %d", len(texts), len(embedResp.Data))
	}

	vectors := make([][]float32, len(embedResp.Data))
	dim := 0
	for i, data := range embedResp.Data {
		if i == 0 {
			dim = len(data.Embedding)
		} else if len(data.Embedding) != dim {
			return nil, fmt.Errorf("openai: embedding %d has dim %d, expected %d", i, len(data.Embedding), dim)
		}
		vec := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float32(v)
		}
		vectors[i] = vec
	}
	if dim == 0 {
		return nil, fmt.Errorf("openai: zero-dimensional embedding returned")
	}

	return &Result{Vectors: vectors, Dim: dim, Provider: p.Name()}, nil
}
