package ir

import "strings"

// Row is a single result row: column names in query order, and one
// Value per column.
//
// INVARIANT: len(Columns) == len(Values), and column names are unique.
type Row struct {
	Columns []string
	Values  []Value
}

// NewRow builds a Row from parallel column/value slices.
// Panics if the slice lengths differ.
func NewRow(columns []string, values []Value) Row {
	if len(columns) != len(values) {
		panic("ir.NewRow: columns and values differ in length")
	}
	return Row{Columns: columns, Values: values}
}

// Len returns the number of columns in the row.
func (r Row) Len() int {
	return len(r.Columns)
}

// Get returns the value of the named column.
func (r Row) Get(column string) (Value, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

// QuotedColumns renders the row's column names for diagnostics:
// each name double-quoted, in stored order, joined with commas.
func (r Row) QuotedColumns() string {
	quoted := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		quoted[i] = `"` + c + `"`
	}
	return strings.Join(quoted, ",")
}

// QueryResult is the ordered sequence of rows returned by a query.
// Results are immutable once bound and are shared between scopes by pointer.
type QueryResult struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (q *QueryResult) Len() int {
	if q == nil {
		return 0
	}
	return len(q.Rows)
}

// Single returns a result holding only row i, sharing the row's storage.
func (q *QueryResult) Single(i int) *QueryResult {
	return &QueryResult{
		Columns: q.Columns,
		Rows:    q.Rows[i : i+1 : i+1],
	}
}
