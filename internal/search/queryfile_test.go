// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tender-search/pkg/types"
)

func TestQueryFileRoundTrip(t *testing.T) {
	params := Params{
		Query:    "ноутбук",
		Region:   "Москва",
		DateFrom: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Limit:    50,
	}
	scored := rec("001", "Ноутбук Dell", "https://example.com/1", "2024-01-01", types.SourceDocSearch)
	scored.RelevanceScore = types.Float(0.5)
	unpriced := rec("002", "Принтер HP", "https://example.com/2", "2024-01-02", types.SourceExtendedSearch)
	unpriced.Price = nil
	unpriced.RelevanceScore = types.Float(0)

	results := types.Collection{Records: []types.Record{scored, unpriced}, Scored: true}
	out := Output{
		RunID:        "run-1",
		DupsRemoved:  2,
		SourceErrors: []*SourceError{{Source: types.SourceExtendedSearch, Err: errors.New("timeout")}},
	}
	qf := NewQueryFile(params, out, results, &QueryRanking{Method: "lexical", Threshold: 0})

	path := filepath.Join(t.TempDir(), "last.yaml")
	require.NoError(t, WriteQueryFile(path, qf))

	loaded, err := ReadQueryFile(path)
	require.NoError(t, err)

	assert.Equal(t, results, loaded.Results)
	assert.Equal(t, "run-1", loaded.Summary.RunID)
	assert.Equal(t, 2, loaded.Summary.Total)
	assert.Equal(t, 2, loaded.Summary.DuplicatesRemoved)
	assert.Equal(t, []string{"extendedsearch: timeout"}, loaded.Summary.SourceErrors)
	require.NotNil(t, loaded.Ranking)
	assert.Equal(t, "lexical", loaded.Ranking.Method)

	back, err := loaded.Query.ToParams()
	require.NoError(t, err)
	assert.Equal(t, params, back)
}

func TestReadQueryFileErrors(t *testing.T) {
	_, err := ReadQueryFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading query file")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("results: [unterminated"), 0o644))
	_, err = ReadQueryFile(bad)
	assert.ErrorContains(t, err, "parsing query file")
}

func TestQueryParamsInvalidDate(t *testing.T) {
	_, err := QueryParams{Text: "x", DateTo: "01.02.2024"}.ToParams()
	assert.ErrorContains(t, err, "invalid date_to")
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	d, err = ParseDate("2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, time.June, d.Month())

	_, err = ParseDate("June")
	assert.Error(t, err)
}
