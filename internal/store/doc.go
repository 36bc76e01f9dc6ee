// Package store provides the read-only database executor used by htmpl.
//
// The store turns query text plus resolved parameter values into a fully
// materialized ir.QueryResult. It supports four database/sql drivers:
//
//   - sqlite3:  github.com/mattn/go-sqlite3 (default)
//   - sqlite:   modernc.org/sqlite, no cgo required
//   - postgres: github.com/lib/pq
//   - mysql:    github.com/go-sql-driver/mysql
//
// # Read-only enforcement
//
// SQLite databases are opened through a "file:" URI with mode=ro, pinned to
// a single connection, and put in query_only mode. Server databases run each
// query inside a read-only transaction that is always rolled back.
//
// # Parameters
//
// Queries reference parameters by name (":uuid", "@uuid", "$uuid"). SQLite
// drivers bind names natively; for postgres and mysql the query text is
// rewritten to positional placeholders by package querysql.
package store
