// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tender-search/internal/export"
	"github.com/pdiddy/tender-search/internal/search"
	"github.com/pdiddy/tender-search/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Re-export saved results in another format",
	Long: `Export reads results saved by "search --save" (or a previously exported
CSV, TXT, JSON, YAML or XLSX file) and writes them in the requested format
without querying the portal again.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("from-file", "", "saved search (.yaml) or exported results file")
	exportCmd.Flags().String("format", string(export.XLSX), "output format: xlsx, csv, txt, json or yaml")
	exportCmd.Flags().String("output", "", "output file (default results.<format>)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	from, _ := cmd.Flags().GetString("from-file")
	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("output")

	if from == "" {
		return fmt.Errorf("provide --from-file")
	}
	c, _, err := loadResults(from)
	if err != nil {
		return err
	}

	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	if outPath == "" {
		outPath = f.Filename()
	}
	return writeResults(cmd.OutOrStdout(), c, string(f), outPath)
}

// loadResults reads a result set from a saved search file or from a file
// written by the exporter. The saved search is returned when there is one.
func loadResults(path string) (types.Collection, *search.QueryFile, error) {
	ext := filepath.Ext(path)
	f, err := export.ParseFormat(ext)
	if err != nil {
		return types.Collection{}, nil, fmt.Errorf("cannot tell the format of %s: %w", path, err)
	}

	if f == export.YAML {
		if qf, err := search.ReadQueryFile(path); err == nil && qf.Query.Text != "" {
			return qf.Results, qf, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return types.Collection{}, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	c, err := export.Decode(data, f)
	if err != nil {
		return types.Collection{}, nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return c, nil, nil
}
