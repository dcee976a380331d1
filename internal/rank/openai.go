// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/pdiddy/tender-search/internal/httputil"
)

// OpenAILoader loads models served by an OpenAI-compatible embedding host
// such as Ollama, LocalAI or text-embeddings-inference. A model counts as
// local when the host already lists it under /models.
type OpenAILoader struct {
	// Host is the API base URL; "/v1" is appended when missing.
	Host string

	// APIKey is sent as the bearer token; local hosts accept any value.
	APIKey string

	Client     *http.Client
	MaxRetries int

	// BatchSize bounds how many titles go into one embedding request.
	BatchSize int
}

// baseURL returns Host normalized to end in /v1.
func (l *OpenAILoader) baseURL() string {
	host := strings.TrimSuffix(l.Host, "/")
	if host != "" && !strings.HasSuffix(host, "/v1") {
		host += "/v1"
	}
	return host
}

func (l *OpenAILoader) httpClient() *http.Client {
	if l.Client != nil {
		return l.Client
	}
	return http.DefaultClient
}

type modelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// IsLocal reports whether the host lists model. Any failure to ask counts
// as not local.
func (l *OpenAILoader) IsLocal(ctx context.Context, model string) bool {
	if l.Host == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL()+"/models", nil)
	if err != nil {
		return false
	}
	if l.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+l.APIKey)
	}
	resp, err := httputil.DoWithRetry(ctx, l.httpClient(), req, l.MaxRetries)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}

	var list modelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return false
	}
	for _, m := range list.Data {
		// Ollama reports tagged names such as "bge-m3:latest".
		if m.ID == model || strings.TrimSuffix(m.ID, ":latest") == model {
			return true
		}
	}
	return false
}

// Load builds a langchaingo embedder for model and checks it once so that
// missing weights surface here rather than mid-ranking.
func (l *OpenAILoader) Load(ctx context.Context, model string) (Embedder, error) {
	if l.Host == "" {
		return nil, fmt.Errorf("no embedding host configured")
	}
	token := l.APIKey
	if token == "" {
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(l.baseURL()),
		openai.WithToken(token),
		openai.WithEmbeddingModel(model),
		openai.WithHTTPClient(&httputil.RetryClient{Client: l.httpClient(), MaxRetries: l.MaxRetries}),
	)
	if err != nil {
		return nil, fmt.Errorf("creating embedding client: %w", err)
	}

	opts := []embeddings.Option{embeddings.WithStripNewLines(true)}
	if l.BatchSize > 0 {
		opts = append(opts, embeddings.WithBatchSize(l.BatchSize))
	}
	emb, err := embeddings.NewEmbedder(client, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	if _, err := emb.EmbedQuery(ctx, "ping"); err != nil {
		return nil, fmt.Errorf("probing model: %w", err)
	}
	return emb, nil
}
