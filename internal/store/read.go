package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/htmpl/internal/ir"
	"github.com/roach88/htmpl/internal/querysql"
)

// Parameters prepares query, without running it, and returns the named
// parameters it references, sigil included, in order of first use.
// Errors from the database's prepare step are returned as is.
func (s *Store) Parameters(ctx context.Context, query string) ([]string, error) {
	params, err := querysql.Parameters(query)
	if err != nil {
		return nil, err
	}
	compiled, err := querysql.Compile(query, s.driver.Placeholder)
	if err != nil {
		return nil, err
	}

	stmt, err := s.db.PrepareContext(ctx, compiled.SQL)
	if err != nil {
		return nil, err
	}
	if err := stmt.Close(); err != nil {
		return nil, fmt.Errorf("close prepared statement: %w", err)
	}
	return params, nil
}

// Query runs query with the given named parameter values and materializes
// every row. params is keyed by parameter name as written in the query
// (":uuid"); every parameter the query references must be present.
//
// Rows are returned in the order the database produced them.
// Returns an empty (not nil) result when no rows match.
func (s *Store) Query(ctx context.Context, query string, params map[string]ir.Value) (*ir.QueryResult, error) {
	compiled, err := querysql.Compile(query, s.driver.Placeholder)
	if err != nil {
		return nil, err
	}

	args := make([]any, 0, len(compiled.Params))
	for _, p := range compiled.Params {
		v, ok := params[p]
		if !ok {
			return nil, fmt.Errorf("no value bound for parameter %q", p)
		}
		if s.driver.Placeholder == querysql.PlaceholderNamed {
			args = append(args, sql.Named(querysql.BareName(p), ir.ToDriver(v)))
		} else {
			args = append(args, ir.ToDriver(v))
		}
	}

	if s.driver.SQLite {
		rows, err := s.db.QueryContext(ctx, compiled.SQL, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return s.scanRows(rows)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin read-only transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // read-only; nothing to keep

	rows, err := tx.QueryContext(ctx, compiled.SQL, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanRows(rows)
}

// scanRows materializes all rows into a QueryResult.
func (s *Store) scanRows(rows *sql.Rows) (*ir.QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	textual := s.textualColumns(rows, len(columns))

	result := &ir.QueryResult{Columns: columns, Rows: []ir.Row{}}
	for rows.Next() {
		raw := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(result.Rows), err)
		}

		values := make([]ir.Value, len(columns))
		for i, v := range raw {
			if b, ok := v.([]byte); ok && textual[i] {
				values[i] = ir.Text(string(b))
				continue
			}
			val, err := ir.FromDriver(v)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", len(result.Rows), columns[i], err)
			}
			values[i] = val
		}
		result.Rows = append(result.Rows, ir.NewRow(columns, values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

// textualColumns reports, per column, whether byte slices from the driver
// hold text. go-sql-driver/mysql hands back []byte for CHAR/VARCHAR/TEXT
// and DECIMAL columns; SQLite drivers already return string for text.
func (s *Store) textualColumns(rows *sql.Rows, n int) []bool {
	textual := make([]bool, n)
	if s.driver.Name != "mysql" {
		return textual
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return textual
	}
	for i, ct := range types {
		name := strings.ToUpper(ct.DatabaseTypeName())
		textual[i] = !strings.Contains(name, "BLOB") && !strings.Contains(name, "BINARY") && name != "BIT"
	}
	return textual
}
