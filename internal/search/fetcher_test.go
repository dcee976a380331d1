// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tender-search/pkg/types"
)

func TestHTTPCardFetcher(t *testing.T) {
	var got *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cards":[{"href":"/epz/order/notice/0373100064624000001","title":"Ноутбук Dell","price":"50 000,00 руб.","date":"2024-01-01"}]}`))
	}))
	defer ts.Close()

	f := &HTTPCardFetcher{
		Endpoint: ts.URL + "/cards",
		Client:   ts.Client(),
		Config:   types.HTTPConfig{UserAgent: "tender-search/test"},
	}
	params := Params{
		Query:    "ноутбук",
		Region:   "Москва",
		DateFrom: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Limit:    20,
	}

	cards, err := f.FetchCards(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "Ноутбук Dell", cards[0].Title)

	q := got.URL.Query()
	assert.Equal(t, "/cards", got.URL.Path)
	assert.Equal(t, "ноутбук", q.Get("q"))
	assert.Equal(t, "Москва", q.Get("region"))
	assert.Equal(t, "2024-01-01", q.Get("from"))
	assert.Equal(t, "2024-02-01", q.Get("to"))
	assert.Equal(t, "20", q.Get("limit"))
	assert.Equal(t, "tender-search/test", got.Header.Get("User-Agent"))
}

func TestHTTPCardFetcherErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			wantErr: "HTTP 503",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`<html>`))
			},
			wantErr: "parsing card response",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			f := &HTTPCardFetcher{Endpoint: ts.URL, Client: ts.Client()}
			_, err := f.FetchCards(context.Background(), Params{Query: "x"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHTTPCardFetcherNoEndpoint(t *testing.T) {
	_, err := (&HTTPCardFetcher{}).FetchCards(context.Background(), Params{Query: "x"})
	assert.ErrorContains(t, err, "no card endpoint")
}

func TestNewSources(t *testing.T) {
	cfg := types.SearchConfig{EnableDocSearch: true, EnableExtendedSearch: true}
	sources := NewSources(cfg, http.DefaultClient, nil)
	require.Len(t, sources, 2)
	assert.Equal(t, types.SourceDocSearch, sources[0].Name())
	assert.Equal(t, types.SourceExtendedSearch, sources[1].Name())

	cfg.EnableDocSearch = false
	sources = NewSources(cfg, http.DefaultClient, nil)
	require.Len(t, sources, 1)
	assert.Equal(t, types.SourceExtendedSearch, sources[0].Name())
}

func TestCardSourceOverHTTP(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"cards":[
			{"href":"/n/0000000000000000001","title":"A","date":"2024-01-01"},
			{"href":"/n/0000000000000000002","title":"B","date":"2024-01-02"}
		]}`))
	}))
	defer ts.Close()

	src := &CardSource{
		ID:      types.SourceExtendedSearch,
		Fetcher: &HTTPCardFetcher{Endpoint: ts.URL, Client: ts.Client()},
	}
	out, err := Search(context.Background(), Params{Query: "x"}, []Source{src}, testCfg(), nilWriter{})
	require.NoError(t, err)
	require.Len(t, out.Records, 2)
	assert.Equal(t, "0000000000000000002", out.Records[0].PurchaseNumber)
	assert.Equal(t, "https://zakupki.gov.ru/n/0000000000000000002", out.Records[0].URL)
}

type nilWriter struct{}

func (nilWriter) Write(p []byte) (int, error) { return len(p), nil }
