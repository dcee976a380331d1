// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tender-search/internal/rank"
	"github.com/pdiddy/tender-search/internal/search"
	"github.com/pdiddy/tender-search/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the procurement portal for purchases",
	Long: `Search queries the docSearch and extendedsearch backends with the same
parameters, merges their listings and removes duplicates by purchase number
(or URL). With --rank the merged set is scored against the query and sorted
by relevance; --threshold drops weak matches.

Results go to stdout as a table by default. --format selects json, csv, txt,
xlsx or yaml, and --output writes to a file instead. --save stores the whole
search in a YAML file that the export and send commands can read later.`,
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.String("query", "", "free-text search query (required)")
	f.String("region", "", "delivery region (default \"Москва\")")
	f.String("from", "", "publication date range start (YYYY-MM-DD)")
	f.String("to", "", "publication date range end (YYYY-MM-DD)")
	f.Int("limit", 0, "maximum results per source (default 50, max 500)")
	f.StringSlice("sources", nil, "backends to query: docSearch, extendedsearch (default both)")
	f.Bool("parallel", false, "query backends concurrently")
	f.Duration("timeout", 0, "HTTP request timeout (default 60s)")

	f.Bool("rank", false, "score results by relevance to the query")
	f.Float64("threshold", 0, "drop results scoring below this value (0 keeps all)")
	f.String("mode", "", "ranking profile: fast, balanced or quality")
	f.String("model", "", "embedding model identifier, overrides --mode")
	f.Bool("allow-download", false, "allow models the embedding host does not have yet")
	f.String("embedding-host", "", "OpenAI-compatible embedding API base URL")

	f.String("format", "table", "output format: table, json, csv, txt, xlsx or yaml")
	f.String("output", "", "write results to this file instead of stdout")
	f.String("save", "", "save the search and its results to a YAML file")

	viper.BindPFlag("search.limit", f.Lookup("limit"))
	viper.BindPFlag("search.parallel", f.Lookup("parallel"))
	viper.BindPFlag("search.timeout", f.Lookup("timeout"))
	viper.BindPFlag("ranking.enabled", f.Lookup("rank"))
	viper.BindPFlag("ranking.threshold", f.Lookup("threshold"))
	viper.BindPFlag("ranking.mode", f.Lookup("mode"))
	viper.BindPFlag("ranking.model", f.Lookup("model"))
	viper.BindPFlag("ranking.allow_download", f.Lookup("allow-download"))
	viper.BindPFlag("ranking.embedding_host", f.Lookup("embedding-host"))

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return err
	}

	query, _ := cmd.Flags().GetString("query")
	region, _ := cmd.Flags().GetString("region")
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")
	names, _ := cmd.Flags().GetStringSlice("sources")
	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("output")
	savePath, _ := cmd.Flags().GetString("save")

	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("provide --query")
	}
	from, err := search.ParseDate(fromStr)
	if err != nil {
		return err
	}
	to, err := search.ParseDate(toStr)
	if err != nil {
		return err
	}
	if err := selectSources(&cfg.Search, names); err != nil {
		return err
	}

	params := search.Params{
		Query:    query,
		Region:   region,
		DateFrom: from,
		DateTo:   to,
		Limit:    cfg.Search.Limit,
	}

	client := &http.Client{Timeout: cfg.Search.Timeout}
	sources := search.NewSources(cfg.Search, client, os.Stderr)

	out, err := search.Search(cmd.Context(), params, sources, cfg.Search, os.Stderr)
	if err != nil {
		return err
	}
	if out.AllFailed() {
		return fmt.Errorf("all %d source(s) failed", len(out.SourceErrors))
	}
	fmt.Fprintf(os.Stderr, "Found %d records (%d duplicates removed)\n", len(out.Records), out.DupsRemoved)

	results := types.Collection{Records: out.Records}
	var ranking *search.QueryRanking
	if cfg.Ranking.Enabled {
		res, closeFn := scoreRecords(cmd.Context(), os.Stderr, cfg, query, out.Records)
		defer closeFn()
		results = res.Collection
		ranking = &search.QueryRanking{
			Method:    string(res.Method),
			Model:     res.Model,
			Threshold: cfg.Ranking.Threshold,
		}
		if res.FallbackReason != nil {
			ranking.FallbackReason = res.FallbackReason.Error()
		}
		fmt.Fprintf(os.Stderr, "Ranked %d records by %s\n", results.Len(), res.Method)
	}

	if savePath != "" {
		params.Region = firstNonEmpty(params.Region, search.DefaultRegion)
		qf := search.NewQueryFile(params, out, results, ranking)
		if err := search.WriteQueryFile(savePath, qf); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Search saved to %s\n", savePath)
	}

	return writeResults(cmd.OutOrStdout(), results, format, outPath)
}

// selectSources narrows the enabled backends to names when any are given.
func selectSources(cfg *types.SearchConfig, names []string) error {
	if len(names) == 0 {
		return nil
	}
	cfg.EnableDocSearch = false
	cfg.EnableExtendedSearch = false
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case strings.ToLower(types.SourceDocSearch):
			cfg.EnableDocSearch = true
		case types.SourceExtendedSearch:
			cfg.EnableExtendedSearch = true
		default:
			return fmt.Errorf("unknown source %q (want %s or %s)", n, types.SourceDocSearch, types.SourceExtendedSearch)
		}
	}
	return nil
}

// scoreRecords ranks records with the configured embedding host. A vector
// cache that cannot be opened is reported on w and skipped. The returned
// func releases the cache, if one was opened.
func scoreRecords(ctx context.Context, w io.Writer, cfg types.PipelineConfig, query string, records []types.Record) (rank.Result, func()) {
	rc := cfg.Ranking
	closeFn := func() {}

	var loader rank.ModelLoader
	if rc.EmbeddingHost != "" {
		loader = &rank.OpenAILoader{
			Host:       rc.EmbeddingHost,
			APIKey:     rc.APIKey,
			Client:     &http.Client{Timeout: cfg.Search.Timeout},
			MaxRetries: cfg.Search.MaxRetries,
		}
		if rc.VectorCache != "" {
			vc, err := rank.OpenVectorCache(rc.VectorCache)
			if err != nil {
				fmt.Fprintf(w, "warning: vector cache unavailable: %v\n", err)
			} else {
				closeFn = func() { vc.Close() }
				loader = &rank.CachingLoader{Inner: loader, Cache: vc}
			}
		}
	}

	scorer := rank.NewScorer(loader, nil, w)
	res := scorer.Score(ctx, records, rank.Options{
		Query:         query,
		Threshold:     rc.Threshold,
		Mode:          rc.Mode,
		Model:         rc.Model,
		AllowDownload: rc.AllowDownload,
	})
	return res, closeFn
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
