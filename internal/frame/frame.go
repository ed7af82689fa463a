// Package frame holds the in-memory table used between pipeline stages.
//
// A Frame is a named list of columns and rows of cells. Cells are one of:
//
//	nil        missing value
//	int64      integral number
//	float64    decimal number
//	string     text
//	time.Time  date or timestamp
//
// Frames are mutated in place by the column helpers; use Copy before
// changing a frame that other code still holds.
package frame

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Frame is an ordered set of columns and rows.
type Frame struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// New creates an empty frame with the given columns.
func New(name string, columns ...string) *Frame {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Frame{Name: name, Columns: cols}
}

// Len returns the number of rows. A nil frame has zero rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// Empty reports whether the frame is nil or has no rows.
func (f *Frame) Empty() bool {
	return f.Len() == 0
}

// Index returns the position of col, or -1.
func (f *Frame) Index(col string) int {
	if f == nil {
		return -1
	}
	for i, c := range f.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Has reports whether the frame has a column named col.
func (f *Frame) Has(col string) bool {
	return f.Index(col) >= 0
}

// Append adds a row. The row width must match the column count.
func (f *Frame) Append(row ...any) {
	if len(row) != len(f.Columns) {
		panic(fmt.Sprintf("frame %s: row has %d cells, want %d", f.Name, len(row), len(f.Columns)))
	}
	f.Rows = append(f.Rows, row)
}

// Value returns the cell at row i in column col, or nil when the column is absent.
func (f *Frame) Value(i int, col string) any {
	idx := f.Index(col)
	if idx < 0 {
		return nil
	}
	return f.Rows[i][idx]
}

// Column returns a copy of the values in col, or nil when the column is absent.
func (f *Frame) Column(col string) []any {
	idx := f.Index(col)
	if idx < 0 {
		return nil
	}
	out := make([]any, len(f.Rows))
	for i, row := range f.Rows {
		out[i] = row[idx]
	}
	return out
}

// Set replaces the values of col, appending the column when it does not exist.
func (f *Frame) Set(col string, values []any) {
	if len(values) != len(f.Rows) {
		panic(fmt.Sprintf("frame %s: column %s has %d values, want %d", f.Name, col, len(values), len(f.Rows)))
	}
	idx := f.Index(col)
	if idx < 0 {
		f.Columns = append(f.Columns, col)
		for i := range f.Rows {
			f.Rows[i] = append(f.Rows[i], values[i])
		}
		return
	}
	for i := range f.Rows {
		f.Rows[i][idx] = values[i]
	}
}

// Map applies fn to every cell of col.
func (f *Frame) Map(col string, fn func(any) any) {
	idx := f.Index(col)
	if idx < 0 {
		return
	}
	for _, row := range f.Rows {
		row[idx] = fn(row[idx])
	}
}

// Copy returns a frame with its own column and row slices.
func (f *Frame) Copy() *Frame {
	if f == nil {
		return nil
	}
	out := New(f.Name, f.Columns...)
	out.Rows = make([][]any, len(f.Rows))
	for i, row := range f.Rows {
		r := make([]any, len(row))
		copy(r, row)
		out.Rows[i] = r
	}
	return out
}

// Rename renames columns found in mapping and returns f.
func (f *Frame) Rename(mapping map[string]string) *Frame {
	for i, c := range f.Columns {
		if to, ok := mapping[c]; ok {
			f.Columns[i] = to
		}
	}
	return f
}

// RenameFunc rewrites every column name with fn and returns f.
func (f *Frame) RenameFunc(fn func(string) string) *Frame {
	for i, c := range f.Columns {
		f.Columns[i] = fn(c)
	}
	return f
}

// TrimColumns strips surrounding whitespace from column names.
func (f *Frame) TrimColumns() *Frame {
	return f.RenameFunc(strings.TrimSpace)
}

// Select returns a new frame holding only cols, in that order.
func (f *Frame) Select(cols ...string) (*Frame, error) {
	idx := make([]int, len(cols))
	for i, c := range cols {
		idx[i] = f.Index(c)
		if idx[i] < 0 {
			return nil, fmt.Errorf("frame %s: column %q not found", f.Name, c)
		}
	}
	out := New(f.Name, cols...)
	out.Rows = make([][]any, len(f.Rows))
	for r, row := range f.Rows {
		sel := make([]any, len(idx))
		for i, j := range idx {
			sel[i] = row[j]
		}
		out.Rows[r] = sel
	}
	return out, nil
}

// Head returns a copy of the first n rows.
func (f *Frame) Head(n int) *Frame {
	out := f.Copy()
	if out == nil {
		return nil
	}
	if n < len(out.Rows) {
		out.Rows = out.Rows[:n]
	}
	return out
}

// SortStable orders rows by col. Nulls always sort last and ties keep
// their current order.
func (f *Frame) SortStable(col string, desc bool) {
	idx := f.Index(col)
	if idx < 0 {
		return
	}
	sort.SliceStable(f.Rows, func(i, j int) bool {
		a, b := f.Rows[i][idx], f.Rows[j][idx]
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		c := Compare(a, b)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// DropDuplicates returns a copy without rows that fully equal an earlier row.
// Integral floats and ints holding the same number count as equal.
func (f *Frame) DropDuplicates() *Frame {
	out := New(f.Name, f.Columns...)
	seen := make(map[string]struct{}, len(f.Rows))
	for _, row := range f.Rows {
		k := rowKey(row)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		r := make([]any, len(row))
		copy(r, row)
		out.Rows = append(out.Rows, r)
	}
	return out
}

// Duplicates counts rows that fully equal an earlier row.
func (f *Frame) Duplicates() int {
	seen := make(map[string]struct{}, len(f.Rows))
	n := 0
	for _, row := range f.Rows {
		k := rowKey(row)
		if _, dup := seen[k]; dup {
			n++
			continue
		}
		seen[k] = struct{}{}
	}
	return n
}

// Nulls counts missing values in col.
func (f *Frame) Nulls(col string) int {
	idx := f.Index(col)
	if idx < 0 {
		return 0
	}
	n := 0
	for _, row := range f.Rows {
		if row[idx] == nil {
			n++
		}
	}
	return n
}

func rowKey(row []any) string {
	var b strings.Builder
	for _, v := range row {
		b.WriteString(cellKey(v))
		b.WriteByte(0x1f)
	}
	return b.String()
}

func cellKey(v any) string {
	switch x := normalize(v).(type) {
	case nil:
		return "n:"
	case int64:
		return fmt.Sprintf("i:%d", x)
	case float64:
		return fmt.Sprintf("f:%v", x)
	case string:
		return "s:" + x
	case time.Time:
		return "t:" + x.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("o:%v", x)
	}
}

// GroupKey returns a comparable key for a tuple of cells, folding integral
// floats into ints the same way DropDuplicates does.
func GroupKey(values ...any) string {
	return rowKey(values)
}
