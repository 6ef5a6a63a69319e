// Package table implements a minimal typed columnar table: the in-process
// stand-in for the "standard in-memory tabular format with typed columns"
// that the reader and writer collaborators are built around. It supports
// exactly the operations the metadata engine and planner need: column
// lookup, column replacement, row selection/filtering, and row-list
// construction.
package table

import "fmt"

// Kind identifies the concrete representation of a Column's values.
type Kind int

const (
	Int64 Kind = iota
	String
	Bool
	Float64
)

// Column is one named, typed vector of values. Exactly one of the value
// slices is populated, selected by Kind. Columns are cheap to copy: the
// underlying slice is shared, and Table.SetColumn replaces a whole column
// rather than mutating its values.
type Column struct {
	Name string
	Kind Kind

	int64s   []int64
	strings  []string
	bools    []bool
	float64s []float64
}

func NewInt64Column(name string, vs []int64) Column {
	return Column{Name: name, Kind: Int64, int64s: vs}
}

func NewStringColumn(name string, vs []string) Column {
	return Column{Name: name, Kind: String, strings: vs}
}

func NewBoolColumn(name string, vs []bool) Column {
	return Column{Name: name, Kind: Bool, bools: vs}
}

func NewFloat64Column(name string, vs []float64) Column {
	return Column{Name: name, Kind: Float64, float64s: vs}
}

// Len returns the number of values in the column.
func (c Column) Len() int {
	switch c.Kind {
	case Int64:
		return len(c.int64s)
	case String:
		return len(c.strings)
	case Bool:
		return len(c.bools)
	case Float64:
		return len(c.float64s)
	}
	return 0
}

func (c Column) Int64At(i int) int64     { return c.int64s[i] }
func (c Column) StringAt(i int) string   { return c.strings[i] }
func (c Column) BoolAt(i int) bool       { return c.bools[i] }
func (c Column) Float64At(i int) float64 { return c.float64s[i] }

// Raw slice accessors, used by parquetio to serialize a column without
// reaching into its unexported fields.
func (c Column) Int64Slice() []int64     { return c.int64s }
func (c Column) StringSlice() []string   { return c.strings }
func (c Column) BoolSlice() []bool       { return c.bools }
func (c Column) Float64Slice() []float64 { return c.float64s }

// Cols returns the table's columns in schema order, for serialization.
func (t *Table) Cols() []Column { return t.cols }

// At returns the value at row i boxed as any, for code that needs to treat
// columns uniformly (row-list construction, JSON-ish debugging).
func (c Column) At(i int) any {
	switch c.Kind {
	case Int64:
		return c.int64s[i]
	case String:
		return c.strings[i]
	case Bool:
		return c.bools[i]
	case Float64:
		return c.float64s[i]
	}
	return nil
}

// take returns a new Column containing only the given row indices, in order.
func (c Column) take(indices []int) Column {
	out := Column{Name: c.Name, Kind: c.Kind}
	switch c.Kind {
	case Int64:
		vs := make([]int64, len(indices))
		for i, idx := range indices {
			vs[i] = c.int64s[idx]
		}
		out.int64s = vs
	case String:
		vs := make([]string, len(indices))
		for i, idx := range indices {
			vs[i] = c.strings[idx]
		}
		out.strings = vs
	case Bool:
		vs := make([]bool, len(indices))
		for i, idx := range indices {
			vs[i] = c.bools[idx]
		}
		out.bools = vs
	case Float64:
		vs := make([]float64, len(indices))
		for i, idx := range indices {
			vs[i] = c.float64s[idx]
		}
		out.float64s = vs
	}
	return out
}

// Table is an ordered collection of same-length columns.
type Table struct {
	NumRows int
	cols    []Column
}

// New builds a Table from the given columns, which must all share the same
// length (numRows). It is an error to pass columns of differing lengths or
// duplicate names.
func New(numRows int, cols ...Column) (*Table, error) {
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if seen[c.Name] {
			return nil, fmt.Errorf("table: duplicate column %q", c.Name)
		}
		seen[c.Name] = true
		if c.Len() != numRows {
			return nil, fmt.Errorf("table: column %q has %d rows, want %d", c.Name, c.Len(), numRows)
		}
	}
	out := make([]Column, len(cols))
	copy(out, cols)
	return &Table{NumRows: numRows, cols: out}, nil
}

// Empty returns a zero-row table with the same schema (column names/kinds)
// as t.
func (t *Table) Empty() *Table {
	cols := make([]Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.take(nil)
	}
	return &Table{NumRows: 0, cols: cols}
}

// Names returns the column names in schema order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether a column with the given name is present.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// Column returns the named column and whether it was found.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.cols {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// MustColumn returns the named column, panicking if it is absent. Callers
// should only use this after confirming the column is a reserved one that
// every level table is guaranteed to carry.
func (t *Table) MustColumn(name string) Column {
	c, ok := t.Column(name)
	if !ok {
		panic(fmt.Sprintf("table: missing required column %q", name))
	}
	return c
}

// Drop returns a new table with the named columns removed. Columns that
// aren't present are ignored. Pure: t is unmodified.
func (t *Table) Drop(names ...string) *Table {
	remove := make(map[string]bool, len(names))
	for _, n := range names {
		remove[n] = true
	}
	cols := make([]Column, 0, len(t.cols))
	for _, c := range t.cols {
		if !remove[c.Name] {
			cols = append(cols, c)
		}
	}
	return &Table{NumRows: t.NumRows, cols: cols}
}

// SetColumn returns a new table with the named column replaced (it must
// already exist and the replacement must have the same length). Pure.
func (t *Table) SetColumn(col Column) (*Table, error) {
	if col.Len() != t.NumRows {
		return nil, fmt.Errorf("table: replacement column %q has %d rows, want %d", col.Name, col.Len(), t.NumRows)
	}
	found := false
	cols := make([]Column, len(t.cols))
	for i, c := range t.cols {
		if c.Name == col.Name {
			cols[i] = col
			found = true
		} else {
			cols[i] = c
		}
	}
	if !found {
		return nil, fmt.Errorf("table: column %q not present", col.Name)
	}
	return &Table{NumRows: t.NumRows, cols: cols}, nil
}

// Take returns a new table containing only the given row indices, in the
// order given. Pure.
func (t *Table) Take(indices []int) *Table {
	cols := make([]Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.take(indices)
	}
	return &Table{NumRows: len(indices), cols: cols}
}

// Filter returns a new table containing only the rows where mask is true.
// Pure.
func (t *Table) Filter(mask []bool) *Table {
	indices := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			indices = append(indices, i)
		}
	}
	return t.Take(indices)
}

// Row returns row i as a name->value map, for callers that need to walk
// rows uniformly (e.g. view.FilteredView's predicate evaluation).
func (t *Table) Row(i int) map[string]any {
	row := make(map[string]any, len(t.cols))
	for _, c := range t.cols {
		row[c.Name] = c.At(i)
	}
	return row
}

// Rows returns every row as a name->value map, in order. Equivalent to
// pyarrow's Table.to_pylist().
func (t *Table) Rows() []map[string]any {
	rows := make([]map[string]any, t.NumRows)
	for i := range rows {
		rows[i] = t.Row(i)
	}
	return rows
}
