// Package frame provides a small in-memory tabular structure with the
// column operations needed to harmonise harvested datasets.
package frame

import (
	"slices"

	"github.com/rotisserie/eris"
)

// Frame is an ordered set of named columns over string-valued rows.
type Frame struct {
	cols  []string
	index map[string]int
	rows  [][]string
}

// New creates an empty Frame with the given column names.
func New(cols []string) *Frame {
	f := &Frame{
		cols:  slices.Clone(cols),
		index: make(map[string]int, len(cols)),
	}
	for i, c := range f.cols {
		f.index[c] = i
	}
	return f
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	return slices.Clone(f.cols)
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int {
	return len(f.rows)
}

// HasColumn reports whether the named column exists.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

// AppendRow adds a row. Short rows are padded with empty cells; rows longer
// than the header are rejected.
func (f *Frame) AppendRow(row []string) error {
	if len(row) > len(f.cols) {
		return eris.Errorf("frame: row has %d cells, want at most %d", len(row), len(f.cols))
	}
	r := make([]string, len(f.cols))
	copy(r, row)
	f.rows = append(f.rows, r)
	return nil
}

// Row returns the i-th row. The returned slice is owned by the frame.
func (f *Frame) Row(i int) []string {
	return f.rows[i]
}

// Cell returns the value at the given row and column, or "" if the column
// does not exist.
func (f *Frame) Cell(row int, col string) string {
	i, ok := f.index[col]
	if !ok {
		return ""
	}
	return f.rows[row][i]
}

// SetCell sets the value at the given row and column.
func (f *Frame) SetCell(row int, col, value string) error {
	i, ok := f.index[col]
	if !ok {
		return eris.Errorf("frame: unknown column %q", col)
	}
	f.rows[row][i] = value
	return nil
}

// Column returns a copy of the named column's values.
func (f *Frame) Column(name string) ([]string, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, eris.Errorf("frame: unknown column %q", name)
	}
	out := make([]string, len(f.rows))
	for r, row := range f.rows {
		out[r] = row[i]
	}
	return out, nil
}

// Rename renames columns in place. Unknown source names are ignored.
func (f *Frame) Rename(mapping map[string]string) {
	for i, c := range f.cols {
		if to, ok := mapping[c]; ok {
			f.cols[i] = to
		}
	}
	f.reindex()
}

// AddColumn appends a new column filled with the given value.
func (f *Frame) AddColumn(name, fill string) error {
	if f.HasColumn(name) {
		return eris.Errorf("frame: column %q already exists", name)
	}
	f.cols = append(f.cols, name)
	f.index[name] = len(f.cols) - 1
	for i := range f.rows {
		f.rows[i] = append(f.rows[i], fill)
	}
	return nil
}

// Select returns a new Frame containing only the given columns, in the
// given order.
func (f *Frame) Select(cols []string) (*Frame, error) {
	idx := make([]int, len(cols))
	for i, c := range cols {
		j, ok := f.index[c]
		if !ok {
			return nil, eris.Errorf("frame: unknown column %q", c)
		}
		idx[i] = j
	}
	out := New(cols)
	for _, row := range f.rows {
		r := make([]string, len(idx))
		for i, j := range idx {
			r[i] = row[j]
		}
		out.rows = append(out.rows, r)
	}
	return out, nil
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	out := New(f.cols)
	out.rows = make([][]string, len(f.rows))
	for i, row := range f.rows {
		out.rows[i] = slices.Clone(row)
	}
	return out
}

func (f *Frame) reindex() {
	f.index = make(map[string]int, len(f.cols))
	for i, c := range f.cols {
		f.index[c] = i
	}
}
