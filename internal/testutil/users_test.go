package testutil

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUsersDB(t *testing.T) {
	path := NewUsersDB(t)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query("SELECT uuid, name FROM users ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()

	var got [][2]string
	for rows.Next() {
		var u, n string
		require.NoError(t, rows.Scan(&u, &n))
		got = append(got, [2]string{u, n})
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, [][2]string{
		{CceckmanUUID, "cceckman"},
		{DdedkmanUUID, "ddedkman"},
	}, got)
}

func TestFixtureUUIDsDistinct(t *testing.T) {
	assert.NotEqual(t, CCECKMAN, DDEDKMAN)
	assert.Len(t, CceckmanUUID, 36)
}
