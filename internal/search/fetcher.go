// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/tender-search/internal/httputil"
	"github.com/pdiddy/tender-search/pkg/types"
)

const dateFmt = "2006-01-02"

// HTTPCardFetcher reads cards from a scraping sidecar that renders the
// portal and serves the result cards as JSON:
//
//	GET {Endpoint}?q=...&region=...&from=YYYY-MM-DD&to=YYYY-MM-DD&limit=N
//	{"cards": [{"number": "...", "href": "...", "title": "...", "price": "...", "date": "..."}]}
type HTTPCardFetcher struct {
	Endpoint string
	Client   *http.Client
	Config   types.HTTPConfig
}

type cardPage struct {
	Cards []Card `json:"cards"`
}

// FetchCards queries the sidecar endpoint for one backend.
func (f *HTTPCardFetcher) FetchCards(ctx context.Context, params Params) ([]Card, error) {
	if f.Endpoint == "" {
		return nil, fmt.Errorf("no card endpoint configured")
	}
	u, err := url.Parse(f.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint: %w", err)
	}

	q := u.Query()
	q.Set("q", params.Query)
	q.Set("region", params.Region)
	if !params.DateFrom.IsZero() {
		q.Set("from", params.DateFrom.Format(dateFmt))
	}
	if !params.DateTo.IsZero() {
		q.Set("to", params.DateTo.Format(dateFmt))
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if f.Config.UserAgent != "" {
		req.Header.Set("User-Agent", f.Config.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: f.Config.Timeout}
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, f.Config.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("card request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("card endpoint returned HTTP %d", resp.StatusCode)
	}

	var page cardPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("parsing card response: %w", err)
	}
	return page.Cards, nil
}

// NewSources builds the enabled portal sources from cfg. Document search
// comes first, so it wins duplicate ties against order search.
func NewSources(cfg types.SearchConfig, client *http.Client, w io.Writer) []Source {
	var sources []Source
	if cfg.EnableDocSearch {
		sources = append(sources, &CardSource{
			ID:      types.SourceDocSearch,
			Fetcher: &HTTPCardFetcher{Endpoint: cfg.DocSearchEndpoint, Client: client, Config: cfg.HTTPConfig},
			Log:     w,
		})
	}
	if cfg.EnableExtendedSearch {
		sources = append(sources, &CardSource{
			ID:      types.SourceExtendedSearch,
			Fetcher: &HTTPCardFetcher{Endpoint: cfg.ExtendedSearchEndpoint, Client: client, Config: cfg.HTTPConfig},
			Log:     w,
		})
	}
	return sources
}
