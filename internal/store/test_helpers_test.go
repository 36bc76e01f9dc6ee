package store

import (
	"fmt"
	"testing"

	"github.com/roach88/htmpl/internal/testutil"
)

// createTestStore opens the fixture users database read-only.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("sqlite3", testutil.NewUsersDB(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// verifyPragma checks that a pragma is set to the expected value.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
