// Package dataset provides a minimal column-oriented table used to carry
// aligned series between the feature, forecast and evaluation layers.
package dataset

import (
	"fmt"
	"math"
)

// Table is an ordered set of equal-length float64 columns. Row i of every
// column refers to the same (sku, day) observation; alignment is positional.
type Table struct {
	names   []string
	columns map[string][]float64
	rows    int
}

// New creates an empty table. The row count is fixed by the first column
// added.
func New() *Table {
	return &Table{
		columns: make(map[string][]float64),
		rows:    -1,
	}
}

// Len returns the number of rows, or 0 for a table with no columns.
func (t *Table) Len() int {
	if t.rows < 0 {
		return 0
	}
	return t.rows
}

// Names returns column names in insertion order.
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// HasColumn reports whether the table contains the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// AddColumn appends a named column. The column length must match the table's
// row count and the name must be unused.
func (t *Table) AddColumn(name string, values []float64) error {
	if _, ok := t.columns[name]; ok {
		return fmt.Errorf("column %q already exists", name)
	}
	if t.rows >= 0 && len(values) != t.rows {
		return fmt.Errorf("column %q has %d rows, table has %d", name, len(values), t.rows)
	}
	if t.rows < 0 {
		t.rows = len(values)
	}
	col := make([]float64, len(values))
	copy(col, values)
	t.columns[name] = col
	t.names = append(t.names, name)
	return nil
}

// Column returns the values of the named column. The returned slice is the
// table's backing array and must not be mutated by callers.
func (t *Table) Column(name string) ([]float64, error) {
	col, ok := t.columns[name]
	if !ok {
		return nil, &MissingColumnError{Column: name}
	}
	return col, nil
}

// DropNaNRows returns a copy of the table containing only rows where every
// column holds a finite value. Used to align feature frames after rolling
// windows introduce leading/trailing NaNs.
func (t *Table) DropNaNRows() *Table {
	keep := make([]bool, t.Len())
	kept := 0
	for i := 0; i < t.Len(); i++ {
		keep[i] = true
		for _, name := range t.names {
			if math.IsNaN(t.columns[name][i]) {
				keep[i] = false
				break
			}
		}
		if keep[i] {
			kept++
		}
	}

	out := New()
	for _, name := range t.names {
		col := make([]float64, 0, kept)
		for i, v := range t.columns[name] {
			if keep[i] {
				col = append(col, v)
			}
		}
		// Ignoring the error: names are unique and lengths uniform here.
		_ = out.AddColumn(name, col)
	}
	return out
}

// MissingColumnError reports a lookup of a column the table does not have.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column %q not found", e.Column)
}
