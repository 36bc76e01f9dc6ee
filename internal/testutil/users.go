package testutil

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// Fixture users. Tests across packages render templates against these two
// rows, so the UUIDs double as expected output.
var (
	CCECKMAN = uuid.MustParse("18adfb4d-6a38-4c81-b2e8-4d59e6467c9f")
	DDEDKMAN = uuid.MustParse("6de21789-6279-416c-9025-d090d407bc8c")
)

// CceckmanUUID and DdedkmanUUID are the fixture UUIDs in their text form.
var (
	CceckmanUUID = CCECKMAN.String()
	DdedkmanUUID = DDEDKMAN.String()
)

// UsersSchema creates the fixture users table.
const UsersSchema = `
CREATE TABLE users
( id   INTEGER PRIMARY KEY NOT NULL
, uuid TEXT NOT NULL
, name TEXT NOT NULL
, UNIQUE(uuid)
, UNIQUE(name)
);
`

// UsersSetupSQL returns SQL that creates and populates the users table
// with both fixture users, cceckman first.
func UsersSetupSQL() string {
	return UsersSchema + fmt.Sprintf(
		"INSERT INTO users (uuid, name) VALUES ('%s', 'cceckman'), ('%s', 'ddedkman');\n",
		CceckmanUUID, DdedkmanUUID,
	)
}

// NewUsersDB writes the fixture users database to a file in a per-test
// temporary directory and returns its path. The file is writable; open it
// through store.Open to get a read-only view.
func NewUsersDB(t *testing.T) string {
	t.Helper()
	return NewSQLiteFile(t, UsersSetupSQL())
}

// NewSQLiteFile creates a SQLite database file populated by setupSQL and
// returns its path. The file is removed when the test ends.
func NewSQLiteFile(t *testing.T, setupSQL string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err, "failed to create test DB")
	defer db.Close()

	_, err = db.Exec(setupSQL)
	require.NoError(t, err, "failed to prepare test DB")
	return path
}
