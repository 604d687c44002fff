package schemas

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	names, err := fs.Glob(Migrations, "migrations/*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"migrations/0001_create_sentences.sql",
		"migrations/0002_create_attempts.sql",
	}, names)

	for _, name := range names {
		content, err := fs.ReadFile(Migrations, name)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(content), "CREATE TABLE IF NOT EXISTS "), name)
	}
}
