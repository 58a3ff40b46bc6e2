// Package dataset reads and writes the delimited transaction table.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/anyulbade/lei-cost-enricher/internal/model"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrInvalidNumber = errors.New("invalid numeric value")
)

// Table keeps the original cells so columns it does not understand are
// written back unchanged.
type Table struct {
	Header []string
	Rows   []*model.Row

	cells  [][]string
	column map[string]int
}

func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return Read(f)
}

func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &Table{Header: append([]string(nil), header...), column: make(map[string]int, len(header))}
	for i, name := range t.Header {
		if _, dup := t.column[name]; !dup {
			t.column[name] = i
		}
	}
	for _, col := range model.RequiredColumns {
		if _, ok := t.column[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	for _, col := range model.EnrichmentColumns {
		if _, ok := t.column[col]; !ok {
			t.column[col] = len(t.Header)
			t.Header = append(t.Header, col)
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows), err)
		}
		for len(record) < len(t.Header) {
			record = append(record, "")
		}

		row, err := t.parseRow(len(t.Rows), record)
		if err != nil {
			return nil, err
		}
		t.cells = append(t.cells, record)
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

func (t *Table) parseRow(index int, record []string) (*model.Row, error) {
	row := &model.Row{Index: index, LEI: record[t.column[model.ColumnLEI]]}

	var err error
	if row.Notional, err = parseNumber(record[t.column[model.ColumnNotional]]); err != nil {
		return nil, fmt.Errorf("row %d column %s: %w", index, model.ColumnNotional, err)
	}
	if row.Rate, err = parseNumber(record[t.column[model.ColumnRate]]); err != nil {
		return nil, fmt.Errorf("row %d column %s: %w", index, model.ColumnRate, err)
	}

	if v := record[t.column[model.ColumnLegalName]]; v != "" {
		row.LegalName = &v
	}
	if v := record[t.column[model.ColumnBIC]]; v != "" {
		row.BIC = &v
	}
	if v := record[t.column[model.ColumnTransactionCosts]]; v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			row.TransactionCosts = &f
		}
	}
	return row, nil
}

// parseNumber reads an empty cell as NaN.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q", ErrInvalidNumber, s)
	}
	return f, nil
}

func (t *Table) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := t.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write emits the header and every row in input order. Enriched rows get all
// three enrichment columns from the row; other rows keep their original cells.
func (t *Table) Write(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range t.Rows {
		record := append([]string(nil), t.cells[i]...)
		if row.Enriched {
			record[t.column[model.ColumnLegalName]] = FormatString(row.LegalName)
			record[t.column[model.ColumnBIC]] = FormatString(row.BIC)
			record[t.column[model.ColumnTransactionCosts]] = FormatFloat(row.TransactionCosts)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func FormatString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func FormatFloat(f *float64) string {
	if f == nil || math.IsNaN(*f) {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
