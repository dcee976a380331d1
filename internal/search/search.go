// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries the procurement portal backends and returns one
// unified, deduplicated record set.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/pdiddy/tender-search/pkg/types"
)

const (
	// DefaultRegion is the region the portal preselects.
	DefaultRegion = "Москва"

	// DefaultLimit is the per-source result cap.
	DefaultLimit = 50

	// MaxLimit is the largest per-source cap the portal pages through.
	MaxLimit = 500
)

// Source searches a single portal backend. A nil error with no records means
// "no results"; a non-nil error is a transport or markup failure.
type Source interface {
	Name() string
	Search(ctx context.Context, params Params) ([]types.Record, error)
}

// Params holds the search parameters shared by every source.
type Params struct {
	Query    string
	Region   string
	DateFrom time.Time
	DateTo   time.Time
	Limit    int
}

// IsEmpty reports whether the query contains no searchable text.
func (p Params) IsEmpty() bool {
	return strings.TrimSpace(p.Query) == ""
}

// withDefaults fills the region and limit, using fallbackLimit when the
// params do not carry one.
func (p Params) withDefaults(fallbackLimit int) Params {
	if p.Region == "" {
		p.Region = DefaultRegion
	}
	if p.Limit <= 0 {
		p.Limit = fallbackLimit
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// SourceError records the failure of one source during a search.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string { return e.Source + ": " + e.Err.Error() }

func (e *SourceError) Unwrap() error { return e.Err }

// Output holds the merged records and per-run statistics.
type Output struct {
	RunID        string
	Records      []types.Record
	DupsRemoved  int
	Succeeded    []string
	SourceErrors []*SourceError
}

// AllFailed reports whether every source that ran returned an error.
func (o Output) AllFailed() bool {
	return len(o.Succeeded) == 0 && len(o.SourceErrors) > 0
}

// Search runs every source with the same parameters and merges the results.
// Sources run one after another unless cfg.Parallel is set; either way their
// record sets are concatenated in the order the sources were given, so the
// earlier source wins duplicate ties. A failing source is reported in the
// output and on w (nil discards) without stopping the others.
func Search(ctx context.Context, params Params, sources []Source, cfg types.SearchConfig, w io.Writer) (Output, error) {
	if w == nil {
		w = io.Discard
	}
	if params.IsEmpty() {
		return Output{}, fmt.Errorf("query is empty: provide search text")
	}
	if len(sources) == 0 {
		return Output{}, fmt.Errorf("no search sources enabled")
	}
	params = params.withDefaults(cfg.Limit)

	var results []sourceResult
	if cfg.Parallel && len(sources) > 1 {
		var err error
		results, err = runParallel(ctx, params, sources)
		if err != nil {
			return Output{}, err
		}
	} else {
		results = runSequential(ctx, params, sources)
	}

	if err := ctx.Err(); err != nil {
		return Output{}, fmt.Errorf("search abandoned: %w", err)
	}

	out := Output{RunID: uuid.NewString()}
	sets := make([][]types.Record, 0, len(results))
	for _, sr := range results {
		if sr.err != nil {
			se := &SourceError{Source: sr.name, Err: sr.err}
			out.SourceErrors = append(out.SourceErrors, se)
			fmt.Fprintf(w, "warning: source %s failed: %v\n", sr.name, sr.err)
			continue
		}
		out.Succeeded = append(out.Succeeded, sr.name)
		sets = append(sets, sr.records)
	}

	out.Records, out.DupsRemoved = merge(sets)
	return out, nil
}

type sourceResult struct {
	name    string
	records []types.Record
	err     error
}

func runSequential(ctx context.Context, params Params, sources []Source) []sourceResult {
	results := make([]sourceResult, len(sources))
	for i, s := range sources {
		results[i] = runSource(ctx, params, s)
	}
	return results
}

func runParallel(ctx context.Context, params Params, sources []Source) ([]sourceResult, error) {
	pool, err := ants.NewPool(len(sources))
	if err != nil {
		return nil, fmt.Errorf("creating source pool: %w", err)
	}
	defer pool.Release()

	results := make([]sourceResult, len(sources))
	var wg sync.WaitGroup
	for i, s := range sources {
		i, s := i, s
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			results[i] = runSource(ctx, params, s)
		})
		if submitErr != nil {
			wg.Done()
			results[i] = sourceResult{name: s.Name(), err: fmt.Errorf("scheduling: %w", submitErr)}
		}
	}
	wg.Wait()
	return results, nil
}

// runSource calls one source, caps its output at the limit and tags every
// record with the source name.
func runSource(ctx context.Context, params Params, s Source) sourceResult {
	name := s.Name()
	records, err := s.Search(ctx, params)
	if err != nil {
		return sourceResult{name: name, err: err}
	}
	if len(records) > params.Limit {
		records = records[:params.Limit]
	}
	tagged := make([]types.Record, len(records))
	for i, r := range records {
		r.Source = name
		tagged[i] = r
	}
	return sourceResult{name: name, records: tagged}
}

// FormatTable writes records as a human-readable table to w.
func FormatTable(c types.Collection, w io.Writer) {
	if c.Len() == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-20s  %-50s  %14s  %-10s  %-14s  %s\n",
		"Rank", "Number", "Title", "Price", "Published", "Source", "Score")
	fmt.Fprintln(w, strings.Repeat("-", 130))

	for i, r := range c.Records {
		price := ""
		if r.Price != nil {
			price = fmt.Sprintf("%.2f", *r.Price)
		}
		score := ""
		if r.RelevanceScore != nil {
			score = fmt.Sprintf("%.2f", *r.RelevanceScore)
		}
		fmt.Fprintf(w, "%-4d  %-20s  %-50s  %14s  %-10s  %-14s  %s\n",
			i+1, r.PurchaseNumber, truncate(r.Title, 50), price, truncate(r.PublishDate, 10), r.Source, score)
	}

	fmt.Fprintf(w, "\n%d results\n", c.Len())
}

// FormatJSON writes records as indented JSON to w.
func FormatJSON(c types.Collection, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(c.Records)
}

// truncate shortens s to max runes; titles are mostly Cyrillic.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
