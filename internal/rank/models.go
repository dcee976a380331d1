// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/pdiddy/tender-search/pkg/types"
)

// Profiles maps each ranking profile to its preferred embedding model.
var Profiles = map[string]string{
	types.ModeFast:     "sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2",
	types.ModeBalanced: "intfloat/multilingual-e5-base",
	types.ModeQuality:  "BAAI/bge-m3",
}

// DefaultMode is used for empty or unknown profiles.
const DefaultMode = types.ModeBalanced

// ResolveModel returns override when set, else the model for mode.
func ResolveModel(mode, override string) string {
	if override != "" {
		return override
	}
	if m, ok := Profiles[mode]; ok {
		return m
	}
	return Profiles[DefaultMode]
}

// PrepareTexts applies the input template the model family expects.
// e5 models are trained with "query: " and "passage: " role prefixes.
func PrepareTexts(query string, titles []string, model string) (string, []string) {
	if !strings.Contains(strings.ToLower(model), "e5") {
		return query, titles
	}
	passages := make([]string, len(titles))
	for i, t := range titles {
		passages[i] = "passage: " + t
	}
	return "query: " + query, passages
}

// Embedder turns text into vectors. The method set matches langchaingo's
// embeddings.Embedder, so its implementations plug in directly.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// ModelLoader resolves a model identifier to a ready Embedder.
type ModelLoader interface {
	// IsLocal reports whether model can be used without downloading it.
	IsLocal(ctx context.Context, model string) bool

	// Load prepares model for use. It may be slow.
	Load(ctx context.Context, model string) (Embedder, error)
}

// ErrModelNotLocal is reported when a model would have to be downloaded
// and downloads are not allowed.
var ErrModelNotLocal = errors.New("model not available locally and download not allowed")

// ModelCache memoizes loaded models by identifier. Concurrent requests for
// the same model share one load; failed loads are not remembered. Loaded
// embedders are shared read-only across requests.
type ModelCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	ready chan struct{}
	emb   Embedder
	err   error
}

// NewModelCache returns an empty cache.
func NewModelCache() *ModelCache {
	return &ModelCache{entries: make(map[string]*cacheEntry)}
}

// Has reports whether model has been loaded successfully.
func (c *ModelCache) Has(model string) bool {
	c.mu.Lock()
	e, ok := c.entries[model]
	c.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case <-e.ready:
		return e.err == nil
	default:
		return false
	}
}

// Get returns the cached embedder for model, calling load at most once
// per successful load.
func (c *ModelCache) Get(ctx context.Context, model string, load func(context.Context, string) (Embedder, error)) (Embedder, error) {
	c.mu.Lock()
	if e, ok := c.entries[model]; ok {
		c.mu.Unlock()
		select {
		case <-e.ready:
			return e.emb, e.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	e := &cacheEntry{ready: make(chan struct{})}
	c.entries[model] = e
	c.mu.Unlock()

	e.emb, e.err = load(ctx, model)
	if e.err != nil {
		c.mu.Lock()
		delete(c.entries, model)
		c.mu.Unlock()
	}
	close(e.ready)
	return e.emb, e.err
}

// Len returns the number of cached or loading models.
func (c *ModelCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
