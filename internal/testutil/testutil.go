// Package testutil provides shared test helpers for config files and CSV stores.
package testutil

import (
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/ecoute/internal/attempt"
	"github.com/at-ishikawa/ecoute/internal/sentence"
	"github.com/at-ishikawa/ecoute/internal/server"
)

// SetupTestConfig writes a config file keeping the data files under tmpDir/data
// and pointing remote commands at baseURL without retries.
// Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string, baseURL string) string {
	t.Helper()

	if baseURL == "" {
		baseURL = "http://localhost:8000/api"
	}
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "data"), 0755))

	configContent := fmt.Sprintf(`data:
  directory: %q
client:
  base_url: %q
  retry_attempts: 0
`,
		filepath.Join(tmpDir, "data"),
		baseURL,
	)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// NewRepositories opens the sentence and attempt stores of dir.
func NewRepositories(t *testing.T, dir string) (*sentence.CSVRepository, *attempt.CSVRepository) {
	t.Helper()

	sentences, err := sentence.NewCSVRepository(filepath.Join(dir, "sentences.csv"))
	require.NoError(t, err)
	attempts, err := attempt.NewCSVRepository(filepath.Join(dir, "attempts.csv"))
	require.NoError(t, err)
	return sentences, attempts
}

// NewAPIServer starts the API over fresh stores in a temporary directory.
// The server is closed when the test finishes.
func NewAPIServer(t *testing.T, opts ...server.Option) (*httptest.Server, *sentence.CSVRepository, *attempt.CSVRepository) {
	t.Helper()

	sentences, attempts := NewRepositories(t, t.TempDir())
	handler, err := server.NewHandler(sentences, attempts, opts...)
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, sentences, attempts
}
