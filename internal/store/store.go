package store

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver (cgo)
	_ "modernc.org/sqlite"             // SQLite driver (pure Go)

	"github.com/roach88/htmpl/internal/querysql"
)

// DefaultDriver is used when no driver is configured.
const DefaultDriver = "sqlite3"

// Driver describes how htmpl talks to one database/sql driver.
type Driver struct {
	// Name is the user-facing driver name ("sqlite3", "postgres", ...).
	Name string

	// SQLName is the name registered with database/sql.
	SQLName string

	// Placeholder is the parameter style the driver accepts.
	Placeholder querysql.Placeholder

	// SQLite drivers are opened read-only through the DSN and pinned to a
	// single connection; server drivers use read-only transactions instead.
	SQLite bool
}

var drivers = map[string]Driver{
	"sqlite3":    {Name: "sqlite3", SQLName: "sqlite3", Placeholder: querysql.PlaceholderNamed, SQLite: true},
	"sqlite":     {Name: "sqlite", SQLName: "sqlite", Placeholder: querysql.PlaceholderNamed, SQLite: true},
	"postgres":   {Name: "postgres", SQLName: "postgres", Placeholder: querysql.PlaceholderDollar},
	"postgresql": {Name: "postgres", SQLName: "postgres", Placeholder: querysql.PlaceholderDollar},
	"mysql":      {Name: "mysql", SQLName: "mysql", Placeholder: querysql.PlaceholderQuestion},
}

// LookupDriver returns the named driver. An empty name selects DefaultDriver.
func LookupDriver(name string) (Driver, error) {
	if name == "" {
		name = DefaultDriver
	}
	d, ok := drivers[strings.ToLower(name)]
	if !ok {
		return Driver{}, fmt.Errorf("unsupported driver %q: must be one of sqlite3, sqlite, postgres, mysql", name)
	}
	return d, nil
}

// Store is the read-only query executor used by template evaluation.
//
// A Store never writes: SQLite databases are opened with mode=ro and
// query_only, and server databases run every query inside a read-only
// transaction that is rolled back once the rows are materialized.
type Store struct {
	db     *sql.DB
	driver Driver
}

// Open opens the database identified by dsn with the named driver.
//
// For SQLite drivers, a plain path is turned into a "file:" URI with
// mode=ro; an existing "file:" URI gets mode=ro added unless it already
// sets a mode.
func Open(driverName, dsn string) (*Store, error) {
	d, err := LookupDriver(driverName)
	if err != nil {
		return nil, err
	}
	if dsn == "" {
		return nil, fmt.Errorf("no database configured: set --db or HTMPL_DSN")
	}
	if d.SQLite {
		dsn = readOnlySQLiteDSN(dsn)
	}

	db, err := sql.Open(d.SQLName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, driver: d}
	if err := s.configure(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenMemory creates a private in-memory SQLite database, runs setupSQL
// against it, and then switches it to query_only.
//
// This is how tests and scenario files get a database: writable exactly
// once, read-only for the whole evaluation.
func OpenMemory(setupSQL string) (*Store, error) {
	d := drivers[DefaultDriver]
	db, err := sql.Open(d.SQLName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database lives and dies with its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if strings.TrimSpace(setupSQL) != "" {
		if _, err := db.Exec(setupSQL); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run setup SQL: %w", err)
		}
	}

	s := &Store{db: db, driver: d}
	if err := s.configure(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// configure verifies the connection and applies read-only settings.
func (s *Store) configure() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if !s.driver.SQLite {
		return nil
	}

	// PRAGMAs are per connection; keep exactly one.
	s.db.SetMaxOpenConns(1)
	s.db.SetMaxIdleConns(1)
	s.db.SetConnMaxLifetime(0)

	if _, err := s.db.Exec("PRAGMA query_only = ON"); err != nil {
		return fmt.Errorf("failed to execute %q: %w", "PRAGMA query_only = ON", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB.
// Use with caution - the connection is read-only.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns the driver the store was opened with.
func (s *Store) Driver() Driver {
	return s.driver
}

// readOnlySQLiteDSN rewrites a SQLite DSN so the database opens read-only.
func readOnlySQLiteDSN(dsn string) string {
	if dsn == ":memory:" {
		return dsn
	}
	if !strings.HasPrefix(dsn, "file:") {
		return "file:" + dsn + "?mode=ro"
	}

	path, rawQuery, _ := strings.Cut(dsn, "?")
	values, err := url.ParseQuery(rawQuery)
	if err != nil || values.Has("mode") {
		return dsn
	}
	if rawQuery == "" {
		return path + "?mode=ro"
	}
	return dsn + "&mode=ro"
}
