package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	files := upMigrations()
	require.Equal(t, []string{"000001_create_user_entries.up.sql"}, files)
	require.Equal(t, 1, countApplied(files, 0, 1))
	require.Zero(t, countApplied(files, 1, 1))
}

func TestParseVersion(t *testing.T) {
	require.EqualValues(t, 12, parseVersion("000012_add_index.up.sql"))
	require.Zero(t, parseVersion("readme.md"))
}
