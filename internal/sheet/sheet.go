// Package sheet holds an uploaded CSV file decoded into an ordered header and
// string cells. Column order is kept because some exports are recognized by
// the position of an unlabeled column.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"kharnish/budgie/internal/ingesterror"
)

const utf8BOM = "\ufeff"

// Sheet is a rectangular table of strings. Every row has exactly
// len(Header()) cells.
type Sheet struct {
	header []string
	rows   [][]string
}

// New builds a sheet from a header and rows. Short rows are padded with
// empty cells; long rows are truncated.
func New(header []string, rows [][]string) *Sheet {
	s := &Sheet{header: append([]string(nil), header...)}
	for _, r := range rows {
		s.rows = append(s.rows, fit(r, len(header)))
	}
	return s
}

// Read decodes CSV from r. The first record is the header. Input that is not
// a table (empty, malformed quoting, records wider than the header) fails
// with a Structural *ingesterror.Error.
func Read(r io.Reader) (*Sheet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ingesterror.NotCSV(errors.New("file is empty"))
	}
	if err != nil {
		return nil, ingesterror.NotCSV(err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	s := &Sheet{header: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ingesterror.NotCSV(err)
		}
		if len(record) > len(header) && !blank(record[len(header):]) {
			line, _ := reader.FieldPos(0)
			return nil, ingesterror.NotCSV(fmt.Errorf("line %d has %d fields, header has %d", line, len(record), len(header)))
		}
		s.rows = append(s.rows, fit(record, len(header)))
	}
	return s, nil
}

// ReadFile opens and decodes a .csv file.
func ReadFile(path string) (*Sheet, error) {
	if !IsCSVName(path) {
		return nil, ingesterror.NotCSV(fmt.Errorf("%s is not a .csv file", filepath.Base(path)))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// IsCSVName reports whether a file name carries the .csv extension.
func IsCSVName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}

// Header returns a copy of the column names.
func (s *Sheet) Header() []string {
	return append([]string(nil), s.header...)
}

// Len returns the number of data rows.
func (s *Sheet) Len() int {
	return len(s.rows)
}

// Row returns a copy of data row i.
func (s *Sheet) Row(i int) []string {
	return append([]string(nil), s.rows[i]...)
}

// Index returns the position of the first column called name, or -1.
func (s *Sheet) Index(name string) int {
	for i, h := range s.header {
		if h == name {
			return i
		}
	}
	return -1
}

// Has reports whether a column called name exists.
func (s *Sheet) Has(name string) bool {
	return s.Index(name) >= 0
}

// Column returns the values of column name, and whether it exists.
func (s *Sheet) Column(name string) ([]string, bool) {
	idx := s.Index(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = r[idx]
	}
	return out, true
}

// Cell returns the value at data row i in column name, or "" when the column
// does not exist.
func (s *Sheet) Cell(i int, name string) string {
	idx := s.Index(name)
	if idx < 0 {
		return ""
	}
	return s.rows[i][idx]
}

// Set writes a cell. It is a no-op when the column does not exist.
func (s *Sheet) Set(i int, name, value string) {
	if idx := s.Index(name); idx >= 0 {
		s.rows[i][idx] = value
	}
}

// SetColumn replaces column name with values, appending the column when it is
// missing. values must have Len() entries.
func (s *Sheet) SetColumn(name string, values []string) {
	idx := s.Index(name)
	if idx < 0 {
		s.header = append(s.header, name)
		for i := range s.rows {
			s.rows[i] = append(s.rows[i], values[i])
		}
		return
	}
	for i := range s.rows {
		s.rows[i][idx] = values[i]
	}
}

// Rename renames columns according to mapping. Columns not in mapping keep
// their name.
func (s *Sheet) Rename(mapping map[string]string) {
	for i, h := range s.header {
		if to, ok := mapping[h]; ok {
			s.header[i] = to
		}
	}
}

// MapHeader rewrites every column name with fn.
func (s *Sheet) MapHeader(fn func(string) string) {
	for i, h := range s.header {
		s.header[i] = fn(h)
	}
}

// DropEmptyColumns removes columns in which every cell is blank. A sheet
// without rows keeps its columns.
func (s *Sheet) DropEmptyColumns() {
	if len(s.rows) == 0 {
		return
	}
	keep := make([]int, 0, len(s.header))
	for c := range s.header {
		for _, r := range s.rows {
			if strings.TrimSpace(r[c]) != "" {
				keep = append(keep, c)
				break
			}
		}
	}
	if len(keep) == len(s.header) {
		return
	}

	header := make([]string, len(keep))
	for i, c := range keep {
		header[i] = s.header[c]
	}
	for ri, r := range s.rows {
		row := make([]string, len(keep))
		for i, c := range keep {
			row[i] = r[c]
		}
		s.rows[ri] = row
	}
	s.header = header
}

// Promote makes data row i the header and discards it and every row above it.
func (s *Sheet) Promote(i int) error {
	if i < 0 || i >= len(s.rows) {
		return fmt.Errorf("cannot promote row %d of %d", i, len(s.rows))
	}
	s.header = append([]string(nil), s.rows[i]...)
	s.rows = s.rows[i+1:]
	return nil
}

// DropRows removes the data rows at the given indexes. Out-of-range indexes
// are ignored.
func (s *Sheet) DropRows(idx ...int) {
	drop := make(map[int]bool, len(idx))
	for _, i := range idx {
		drop[i] = true
	}
	kept := s.rows[:0]
	for i, r := range s.rows {
		if !drop[i] {
			kept = append(kept, r)
		}
	}
	s.rows = kept
}

// Clone returns a deep copy.
func (s *Sheet) Clone() *Sheet {
	c := &Sheet{header: s.Header(), rows: make([][]string, len(s.rows))}
	for i, r := range s.rows {
		c.rows[i] = append([]string(nil), r...)
	}
	return c
}

func fit(record []string, width int) []string {
	row := make([]string, width)
	copy(row, record)
	return row
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
