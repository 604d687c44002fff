package testutil

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/ecoute/internal/config"
	"github.com/at-ishikawa/ecoute/internal/sentence"
)

func TestSetupTestConfig(t *testing.T) {
	tests := []struct {
		name        string
		baseURL     string
		wantBaseURL string
	}{
		{name: "default base url", baseURL: "", wantBaseURL: "http://localhost:8000/api"},
		{name: "custom base url", baseURL: "http://127.0.0.1:9999", wantBaseURL: "http://127.0.0.1:9999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			got := SetupTestConfig(t, tmpDir, tt.baseURL)
			assert.Equal(t, filepath.Join(tmpDir, "config.yml"), got)

			info, err := os.Stat(filepath.Join(tmpDir, "data"))
			require.NoError(t, err)
			assert.True(t, info.IsDir())

			loader, err := config.NewConfigLoader(got)
			require.NoError(t, err)
			cfg, err := loader.Load()
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(tmpDir, "data"), cfg.Data.Directory)
			assert.Equal(t, tt.wantBaseURL, cfg.Client.BaseURL)
			assert.Equal(t, 0, cfg.Client.RetryAttempts)
		})
	}
}

func TestNewRepositories(t *testing.T) {
	dir := t.TempDir()
	sentences, attempts := NewRepositories(t, dir)

	require.NoError(t, sentences.Create(context.Background(), &sentence.Sentence{ID: "s1", SentenceText: "Merci"}))
	_, err := os.Stat(filepath.Join(dir, "sentences.csv"))
	assert.NoError(t, err)

	got, err := attempts.FindAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewAPIServer(t *testing.T) {
	srv, _, _ := NewAPIServer(t)

	res, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
