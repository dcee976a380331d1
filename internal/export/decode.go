// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tender-search/pkg/types"
)

// Decode parses data produced by Encode. Unknown columns are ignored and
// missing ones leave the field unset.
func Decode(data []byte, f Format) (types.Collection, error) {
	switch f {
	case CSV:
		return decodeDelimited(data, ',')
	case TXT:
		return decodeDelimited(data, '\t')
	case XLSX:
		return decodeXLSX(data)
	case JSON:
		var recs []types.Record
		if err := json.Unmarshal(data, &recs); err != nil {
			return types.Collection{}, fmt.Errorf("decoding JSON: %w", err)
		}
		return fromRecords(recs), nil
	case YAML:
		var recs []types.Record
		if err := yaml.Unmarshal(data, &recs); err != nil {
			return types.Collection{}, fmt.Errorf("decoding YAML: %w", err)
		}
		return fromRecords(recs), nil
	}
	return types.Collection{}, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

func fromRecords(recs []types.Record) types.Collection {
	c := types.Collection{Records: recs}
	if c.Records == nil {
		c.Records = []types.Record{}
	}
	for _, r := range recs {
		if r.RelevanceScore != nil {
			c.Scored = true
			break
		}
	}
	return c
}

func decodeDelimited(data []byte, comma rune) (types.Collection, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return types.Collection{}, fmt.Errorf("reading rows: %w", err)
	}
	return fromRows(rows)
}

func decodeXLSX(data []byte) (types.Collection, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return types.Collection{}, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return types.Collection{}, fmt.Errorf("reading sheet %s: %w", SheetName, err)
	}
	return fromRows(rows)
}

const bom = "\ufeff"

// fromRows maps a header row plus data rows onto records.
func fromRows(rows [][]string) (types.Collection, error) {
	c := types.Collection{Records: []types.Record{}}
	if len(rows) == 0 {
		return c, nil
	}

	header := rows[0]
	for _, name := range header {
		if strings.TrimPrefix(name, bom) == types.FieldRelevanceScore {
			c.Scored = true
		}
	}

	for i, row := range rows[1:] {
		var rec types.Record
		for j, name := range header {
			if j >= len(row) {
				break
			}
			if err := setField(&rec, strings.TrimPrefix(name, bom), row[j]); err != nil {
				return types.Collection{}, fmt.Errorf("row %d: %w", i+1, err)
			}
		}
		if c.Scored && rec.RelevanceScore == nil {
			rec.RelevanceScore = types.Float(0)
		}
		c.Records = append(c.Records, rec)
	}
	return c, nil
}

func setField(r *types.Record, field, value string) error {
	switch field {
	case types.FieldPurchaseNumber:
		r.PurchaseNumber = value
	case types.FieldTitle:
		r.Title = value
	case types.FieldURL:
		r.URL = value
	case types.FieldPublishDate:
		r.PublishDate = value
	case types.FieldSource:
		r.Source = value
	case types.FieldPrice:
		v, err := parseNumber(value)
		if err != nil {
			return fmt.Errorf("price: %w", err)
		}
		r.Price = v
	case types.FieldRelevanceScore:
		v, err := parseNumber(value)
		if err != nil {
			return fmt.Errorf("relevance_score: %w", err)
		}
		r.RelevanceScore = v
	}
	return nil
}

func parseNumber(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
