// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/tender-search/internal/export"
	"github.com/pdiddy/tender-search/internal/search"
	"github.com/pdiddy/tender-search/pkg/types"
)

const formatTable = "table"

// writeResults renders c in format to path, or to w when path is empty.
// The table format is only meant for terminals.
func writeResults(w io.Writer, c types.Collection, format, path string) error {
	if format == "" || format == formatTable {
		if path != "" {
			return fmt.Errorf("table output cannot be written to a file; pick --format")
		}
		search.FormatTable(c, w)
		return nil
	}

	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	if f == export.XLSX && path == "" {
		return fmt.Errorf("xlsx output needs --output")
	}

	data, err := export.Encode(c, f)
	if err != nil {
		return err
	}
	if path == "" {
		_, err = w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %d records to %s\n", c.Len(), path)
	return nil
}
