// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export serializes record collections to download formats and
// reads the self-describing ones back. Columns always follow
// Collection.Fields, and an empty collection still yields a well-formed
// document.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tender-search/pkg/types"
)

// Format is an export target.
type Format string

const (
	XLSX Format = "xlsx"
	CSV  Format = "csv"
	TXT  Format = "txt"
	JSON Format = "json"
	YAML Format = "yaml"
)

// Formats lists the supported formats in menu order.
var Formats = []Format{XLSX, CSV, TXT, JSON, YAML}

// SheetName is the worksheet the XLSX export writes to.
const SheetName = "Результаты"

// ErrUnknownFormat is returned for format names outside Formats.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat maps a user-supplied name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case XLSX, CSV, TXT, JSON, YAML:
		return f, nil
	case "yml":
		return YAML, nil
	case "excel":
		return XLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Filename returns the default download name for f.
func (f Format) Filename() string { return "results." + string(f) }

// MIMEType returns the content type for f.
func (f Format) MIMEType() string {
	switch f {
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case CSV:
		return "text/csv"
	case TXT:
		return "text/plain"
	case JSON:
		return "application/json"
	case YAML:
		return "application/yaml"
	}
	return "application/octet-stream"
}

// Encode serializes c in format f.
func Encode(c types.Collection, f Format) ([]byte, error) {
	switch f {
	case XLSX:
		return encodeXLSX(c)
	case CSV:
		return encodeDelimited(c, ',')
	case TXT:
		return encodeDelimited(c, '\t')
	case JSON:
		return encodeJSON(c)
	case YAML:
		return encodeYAML(c)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// cell returns the textual value of field for r; nil numbers are empty.
func cell(r types.Record, field string) string {
	switch field {
	case types.FieldPurchaseNumber:
		return r.PurchaseNumber
	case types.FieldTitle:
		return r.Title
	case types.FieldURL:
		return r.URL
	case types.FieldPrice:
		return formatNumber(r.Price)
	case types.FieldPublishDate:
		return r.PublishDate
	case types.FieldSource:
		return r.Source
	case types.FieldRelevanceScore:
		return formatNumber(r.RelevanceScore)
	}
	return ""
}

func formatNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func encodeDelimited(c types.Collection, comma rune) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = comma

	fields := c.Fields()
	if err := w.Write(fields); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	row := make([]string, len(fields))
	for _, r := range c.Records {
		for i, f := range fields {
			row[i] = cell(r, f)
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("writing row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing rows: %w", err)
	}
	return buf.Bytes(), nil
}

func records(c types.Collection) []types.Record {
	if c.Records == nil {
		return []types.Record{}
	}
	return c.Records
}

func encodeJSON(c types.Collection) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records(c)); err != nil {
		return nil, fmt.Errorf("encoding JSON: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeYAML(c types.Collection) ([]byte, error) {
	data, err := yaml.Marshal(records(c))
	if err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}
	return data, nil
}

func encodeXLSX(c types.Collection) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	fields := c.Fields()
	header := make([]any, len(fields))
	for i, name := range fields {
		header[i] = name
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	for i, r := range c.Records {
		row := make([]any, len(fields))
		for j, field := range fields {
			row[j] = xlsxValue(r, field)
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, addr, &row); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// xlsxValue returns the cell value for field; price and score stay numeric.
func xlsxValue(r types.Record, field string) any {
	var v *float64
	switch field {
	case types.FieldPrice:
		v = r.Price
	case types.FieldRelevanceScore:
		v = r.RelevanceScore
	default:
		return cell(r, field)
	}
	if v == nil {
		return ""
	}
	return *v
}
