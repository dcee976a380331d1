// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tender-search/pkg/types"
)

// QueryFile is the on-disk representation of a search and its results.
// A saved search can be re-exported or mailed later without re-querying
// the portal.
type QueryFile struct {
	Query   QueryParams      `yaml:"query"`
	Ranking *QueryRanking    `yaml:"ranking,omitempty"`
	Results types.Collection `yaml:"results"`
	Summary QuerySummary     `yaml:"summary"`
}

// QueryParams stores the search parameters in a serializable form.
type QueryParams struct {
	Text     string `yaml:"text"`
	Region   string `yaml:"region,omitempty"`
	DateFrom string `yaml:"date_from,omitempty"`
	DateTo   string `yaml:"date_to,omitempty"`
	Limit    int    `yaml:"limit"`
}

// QueryRanking stores how the results were scored.
type QueryRanking struct {
	Method         string  `yaml:"method"`
	Model          string  `yaml:"model,omitempty"`
	Threshold      float64 `yaml:"threshold"`
	FallbackReason string  `yaml:"fallback_reason,omitempty"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	RunID             string    `yaml:"run_id"`
	Total             int       `yaml:"total"`
	DuplicatesRemoved int       `yaml:"duplicates_removed"`
	SourceErrors      []string  `yaml:"source_errors,omitempty"`
	Timestamp         time.Time `yaml:"timestamp"`
}

// NewQueryFile assembles a QueryFile from a finished search. results is the
// final collection, which may be scored and filtered after out was produced.
func NewQueryFile(params Params, out Output, results types.Collection, ranking *QueryRanking) QueryFile {
	qf := QueryFile{
		Query: QueryParams{
			Text:   params.Query,
			Region: params.Region,
			Limit:  params.Limit,
		},
		Ranking: ranking,
		Results: results,
		Summary: QuerySummary{
			RunID:             out.RunID,
			Total:             results.Len(),
			DuplicatesRemoved: out.DupsRemoved,
			Timestamp:         time.Now().UTC(),
		},
	}
	if !params.DateFrom.IsZero() {
		qf.Query.DateFrom = params.DateFrom.Format(dateFmt)
	}
	if !params.DateTo.IsZero() {
		qf.Query.DateTo = params.DateTo.Format(dateFmt)
	}
	for _, se := range out.SourceErrors {
		qf.Summary.SourceErrors = append(qf.Summary.SourceErrors, se.Error())
	}
	return qf
}

// WriteQueryFile saves a search to a YAML file.
func WriteQueryFile(path string, qf QueryFile) error {
	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// ToParams converts stored QueryParams back into Params.
func (p QueryParams) ToParams() (Params, error) {
	params := Params{
		Query:  p.Text,
		Region: p.Region,
		Limit:  p.Limit,
	}
	if p.DateFrom != "" {
		t, err := time.Parse(dateFmt, p.DateFrom)
		if err != nil {
			return params, fmt.Errorf("invalid date_from %q: %w", p.DateFrom, err)
		}
		params.DateFrom = t
	}
	if p.DateTo != "" {
		t, err := time.Parse(dateFmt, p.DateTo)
		if err != nil {
			return params, fmt.Errorf("invalid date_to %q: %w", p.DateTo, err)
		}
		params.DateTo = t
	}
	return params, nil
}

// ParseDate parses a YYYY-MM-DD flag value; empty yields the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateFmt, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}
