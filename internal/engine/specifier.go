package engine

import (
	"strings"

	"github.com/roach88/htmpl/internal/ir"
)

// Specifier names a bound query and, optionally, one of its columns.
//
//	q         -> Specifier{Query: "q"}
//	q(uuid)   -> Specifier{Query: "q", Column: "uuid", HasColumn: true}
type Specifier struct {
	Query     string
	Column    string
	HasColumn bool
}

// String renders the specifier in template syntax.
func (s Specifier) String() string {
	if s.HasColumn {
		return s.Query + "(" + s.Column + ")"
	}
	return s.Query
}

// ParseSpecifier parses "query" or "query(column)".
//
// The query name runs up to the first "(" and the column up to the first
// ")" after it, which must end the string. Both parts must be non-empty.
// Returns an INVALID_PARAMETER error (without an element) otherwise.
func ParseSpecifier(s string) (Specifier, error) {
	name, tail, found := strings.Cut(s, "(")
	if !found {
		return Specifier{Query: s}, nil
	}
	column, rest, found := strings.Cut(tail, ")")
	if !found || name == "" || column == "" || rest != "" {
		return Specifier{}, newInvalidParameter(s)
	}
	return Specifier{Query: name, Column: column, HasColumn: true}, nil
}

// GetSingle resolves a specifier to exactly one value.
//
//  1. The named query must be bound (MISSING_QUERY).
//  2. It must hold exactly one row (CARDINALITY), with or without a column.
//  3. With a column, the row must have it (MISSING_COLUMN).
//  4. Without one, the row must have exactly one column (NO_DEFAULT_COLUMN).
//
// Errors carry no element; callers annotate them with their own tag.
func (s *Scope) GetSingle(specifier string) (ir.Value, error) {
	spec, err := ParseSpecifier(specifier)
	if err != nil {
		return nil, err
	}
	q, err := s.Get(spec.Query)
	if err != nil {
		return nil, err
	}
	if q.Len() != 1 {
		return nil, newCardinality(spec.Query, q.Len(), 1)
	}
	row := q.Rows[0]

	if spec.HasColumn {
		v, ok := row.Get(spec.Column)
		if !ok {
			return nil, newMissingColumn(spec.Query, row.QuotedColumns(), spec.Column)
		}
		return v, nil
	}
	if row.Len() != 1 {
		return nil, newNoDefaultColumn(spec.Query, row.QuotedColumns())
	}
	return row.Values[0], nil
}
