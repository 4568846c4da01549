// Package ingest parses uploaded delimited-text files into in-memory tables.
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/clarifaisql/engine/pkg/apperrors"
)

// SQLite storage classes used for inferred column types.
const (
	TypeInteger = "INTEGER"
	TypeReal    = "REAL"
	TypeText    = "TEXT"
)

// Column is a named column with an inferred storage type.
type Column struct {
	Name string
	Type string
}

// Table is a parsed upload: ordered columns plus raw row tuples.
// Cells are kept as strings; the relational store converts them on load
// according to the inferred column types.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]string
}

// ParseCSV decodes an uploaded CSV file into a Table. The file name must
// carry the .csv extension (checked before any parsing) and is also used,
// together with the header row, to infer the table name.
func ParseCSV(filename string, data []byte) (*Table, error) {
	if !strings.EqualFold(path.Ext(filename), ".csv") {
		return nil, fmt.Errorf("%w: expected a .csv file, got %q", apperrors.ErrInvalidFileType, filename)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedCSV, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: file is empty", apperrors.ErrMalformedCSV)
	}

	header := records[0]
	if len(header) == 0 {
		return nil, fmt.Errorf("%w: no columns", apperrors.ErrMalformedCSV)
	}
	rows := records[1:]

	columns := make([]Column, len(header))
	for i, name := range header {
		columns[i] = Column{
			Name: strings.TrimSpace(name),
			Type: inferColumnType(rows, i),
		}
	}

	headerNames := make([]string, len(columns))
	for i, col := range columns {
		headerNames[i] = col.Name
	}

	return &Table{
		Name:    InferTableName(filename, headerNames),
		Columns: columns,
		Rows:    rows,
	}, nil
}

// inferColumnType picks the narrowest storage class that holds every
// non-empty cell of the column: INTEGER, then REAL, then TEXT.
// A column with no non-empty cells is TEXT.
func inferColumnType(rows [][]string, col int) string {
	sawValue := false
	allInt := true
	allNumeric := true

	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[col])
		if cell == "" {
			continue
		}
		sawValue = true

		if allInt {
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				allInt = false
			}
		}
		if !allInt && allNumeric {
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				allNumeric = false
				break
			}
		}
	}

	switch {
	case !sawValue:
		return TypeText
	case allInt:
		return TypeInteger
	case allNumeric:
		return TypeReal
	default:
		return TypeText
	}
}
