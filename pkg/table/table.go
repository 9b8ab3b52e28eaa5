// Package table reads and writes the CSV record sets the pipeline consumes.
// Columns are dynamic: everything except the columns a command needs passes
// through untouched, and row order is preserved.
package table

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/premkondru/InstagramPostsScrapper/pkg/utils"
)

// Table is an ordered record set: a header row plus data rows. Rows are kept
// padded to the header width.
type Table struct {
	Header []string
	Rows   [][]string
}

// Read loads a CSV file. Short rows are padded and long rows truncated to the
// header width, so a ragged input never aborts the batch.
func Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read table: %s has no header row", path)
	}

	t := &Table{Header: records[0]}
	width := len(t.Header)
	for _, row := range records[1:] {
		switch {
		case len(row) < width:
			padded := make([]string, width)
			copy(padded, row)
			row = padded
		case len(row) > width:
			row = row[:width]
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Write stores the table as CSV at path.
func (t *Table) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		f.Close()
		return fmt.Errorf("write table: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		f.Close()
		return fmt.Errorf("write table: %w", err)
	}
	// WriteAll flushes; only the file close can still fail.
	return f.Close()
}

// ColumnIndex returns the index of the first column matching name
// case-insensitively, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// RequireColumn returns the index of a column the caller cannot proceed
// without.
func (t *Table) RequireColumn(name string) (int, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return -1, utils.WrapErrorf(utils.ErrMissingColumn, "%q (found: %s)", name, strings.Join(t.Header, ", "))
	}
	return idx, nil
}

// EnsureColumn returns the index of name, appending an empty column when it
// is absent. Existing values in a matching column are kept (and later
// overwritten row by row).
func (t *Table) EnsureColumn(name string) int {
	if idx := t.ColumnIndex(name); idx >= 0 {
		return idx
	}
	t.Header = append(t.Header, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], "")
	}
	return len(t.Header) - 1
}

// Get returns the trimmed value at (row, col index); out-of-range access
// yields the empty string.
func (t *Table) Get(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// Set assigns the value at (row, col index); out-of-range access is a no-op.
func (t *Table) Set(row, col int, value string) {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return
	}
	t.Rows[row][col] = value
}
