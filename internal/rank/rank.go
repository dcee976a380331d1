// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank scores procurement records against a free-text query.
// Scores come from embedding similarity when a model can be used, and from
// token overlap otherwise; ranking never fails a search.
package rank

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/pdiddy/tender-search/pkg/types"
)

// Method names the strategy that produced a Result's scores.
type Method string

const (
	MethodEmbedding Method = "embedding"
	MethodLexical   Method = "lexical"
)

var (
	errEmptyQuery = errors.New("query is empty")
	errNoLoader   = errors.New("no embedding backend configured")
)

// Options selects the query, filter and model for one Score call.
type Options struct {
	Query string

	// Threshold drops records scoring strictly below it; 0 keeps all.
	Threshold float64

	// Mode is a ranking profile; Model overrides it when set.
	Mode  string
	Model string

	// AllowDownload permits models that are not available locally.
	AllowDownload bool
}

// Result is the scored collection plus how the scores were obtained.
type Result struct {
	types.Collection

	Method Method
	Model  string

	// FallbackReason explains why the embedding path was not used.
	// It is nil when Method is MethodEmbedding.
	FallbackReason error
}

// Scorer assigns relevance scores. The zero value scores lexically. A nil
// Cache loads the model afresh on every call; use NewScorer to share one.
type Scorer struct {
	Loader ModelLoader
	Cache  *ModelCache

	// Log receives a note when scoring falls back; nil discards it.
	Log io.Writer
}

// NewScorer returns a Scorer that loads models through loader and keeps
// them in cache. A nil cache gets a private one.
func NewScorer(loader ModelLoader, cache *ModelCache, w io.Writer) *Scorer {
	if cache == nil {
		cache = NewModelCache()
	}
	return &Scorer{Loader: loader, Cache: cache, Log: w}
}

// Score returns copies of records annotated with relevance scores, ordered
// by score descending and filtered by opts.Threshold. records is not
// modified. Model problems degrade to lexical scoring and are reported in
// Result.FallbackReason.
func (s *Scorer) Score(ctx context.Context, records []types.Record, opts Options) Result {
	model := ResolveModel(opts.Mode, opts.Model)
	res := Result{
		Collection: types.Collection{Records: []types.Record{}, Scored: true},
		Method:     MethodLexical,
	}
	if len(records) == 0 {
		return res
	}

	titles := make([]string, len(records))
	for i, r := range records {
		titles[i] = r.Title
	}

	scores, err := s.embedScores(ctx, opts.Query, titles, model, opts.AllowDownload)
	if err != nil {
		res.FallbackReason = err
		if s.Log != nil && !errors.Is(err, errNoLoader) {
			fmt.Fprintf(s.Log, "warning: embedding ranking unavailable, using token overlap: %v\n", err)
		}
		scores = lexicalScores(opts.Query, titles)
	} else {
		res.Method = MethodEmbedding
		res.Model = model
	}

	scored := make([]types.Record, len(records))
	for i, r := range records {
		r.RelevanceScore = types.Float(clamp(scores[i]))
		scored[i] = r
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return *scored[i].RelevanceScore > *scored[j].RelevanceScore
	})

	if opts.Threshold > 0 {
		kept := scored[:0]
		for _, r := range scored {
			if *r.RelevanceScore >= opts.Threshold {
				kept = append(kept, r)
			}
		}
		scored = kept
	}

	res.Records = scored
	return res
}

func lexicalScores(query string, titles []string) []float64 {
	scores := make([]float64, len(titles))
	for i, t := range titles {
		scores[i] = LexicalScore(query, t)
	}
	return scores
}

// embedScores computes (cosine+1)/2 between the query and each title.
// Blank titles score 0 and are not sent to the model.
func (s *Scorer) embedScores(ctx context.Context, query string, titles []string, model string, allowDownload bool) ([]float64, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errEmptyQuery
	}
	if s.Loader == nil {
		return nil, errNoLoader
	}
	cache := s.Cache
	if cache == nil {
		cache = NewModelCache()
	}
	if !allowDownload && !cache.Has(model) && !s.Loader.IsLocal(ctx, model) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotLocal, model)
	}

	emb, err := cache.Get(ctx, model, s.Loader.Load)
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", model, err)
	}

	var (
		idx   []int
		texts []string
	)
	for i, t := range titles {
		if strings.TrimSpace(t) != "" {
			idx = append(idx, i)
			texts = append(texts, t)
		}
	}
	scores := make([]float64, len(titles))
	if len(texts) == 0 {
		return scores, nil
	}

	queryText, passages := PrepareTexts(query, texts, model)
	qv, err := emb.EmbedQuery(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}
	dvs, err := emb.EmbedDocuments(ctx, passages)
	if err != nil {
		return nil, fmt.Errorf("encoding titles: %w", err)
	}
	if len(dvs) != len(passages) {
		return nil, fmt.Errorf("model returned %d vectors for %d titles", len(dvs), len(passages))
	}

	for k, dv := range dvs {
		cos, err := cosine(qv, dv)
		if err != nil {
			return nil, err
		}
		scores[idx[k]] = (cos + 1) / 2
	}
	return scores, nil
}

// cosine returns the cosine similarity of a and b.
func cosine(a, b []float32) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("vector dimensions differ: %d vs %d", len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, errors.New("zero-length embedding vector")
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// clamp maps v into [0, 1]; NaN becomes 0.
func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
