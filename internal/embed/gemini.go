package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// GeminiProvider generates embeddings via the Google Generative Language
// batchEmbedContents endpoint.
type GeminiProvider struct {
	BaseURL string
	APIKey  string
	Model   string
	client  *http.Client
}

// NewGeminiProvider creates a Gemini embedding provider.
func NewGeminiProvider(baseURL, apiKey, model string) *GeminiProvider {
	return &GeminiProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		client:  http.DefaultClient,
	}
}

// Name returns the provider identifier carried on every vector this tier
// produces.
func (p *GeminiProvider) Name() string {
	return "gemini/" + p.Model
}

type geminiEmbedRequest struct {
	Requests []geminiEmbedItem `json:"requests"`
}

type geminiEmbedItem struct {
	Model   string        `json:"model"`
	Content geminiContent `json:"content"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiEmbedResponse struct {
	Embeddings []struct {
		Values []float64 `json:"values"`
	} `json:"embeddings"`
}

// Embed requests embeddings for the batch, failing closed on missing
// credentials, transport errors, and non-success statuses.
func (p *GeminiProvider) Embed(ctx context.Context, texts []string) (*Result, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("gemini: missing API key")
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("gemini: empty input")
	}

	payload := geminiEmbedRequest{Requests: make([]geminiEmbedItem, len(texts))}
	for i, text := range texts {
		payload.Requests[i] = geminiEmbedItem{
			Model:   "models/" + p.Model,
			Content: geminiContent{Parts: []geminiPart{{Text: text}}},
		}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:batchEmbedContents?key=%s", p.BaseURL, p.Model, p.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gemini: bad status %d: %s", resp.StatusCode, string(raw))
	}

	var embedResp geminiEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("gemini: failed to decode response: %w", err)
	}
	if len(embedResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini: expected %d embeddings, got %d", len(texts), len(embedResp.Embeddings))
	}

	vectors := make([][]float32, len(embedResp.Embeddings))
	dim := 0
	for i, emb := range embedResp.Embeddings {
		if i == 0 {
			dim = len(emb.Values)
		} else if len(emb.Values) != dim {
			return nil, fmt.Errorf("gemini: embedding %d has dim %d, expected %d", i, len(emb.Values), dim)
		}
		vec := make([]float32, len(emb.Values))
		for j, v := range emb.Values {
			vec[j] = float32(v)
		}
		vectors[i] = vec
	}
	if dim == 0 {
		return nil, fmt.Errorf("gemini: zero-dimensional embedding returned")
	}

	return &Result{Vectors: vectors, Dim: dim, Provider: p.Name()}, nil
}
