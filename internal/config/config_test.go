package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentflow.toml")
	contents := `
[brain]
chunk_size = 800
use_hybrid_search = false

[vector_store]
backend = "pgvector"
connection = "postgres://localhost/brain"
dimensions = 768
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.Brain.ChunkSize)
	assert.False(t, cfg.Brain.UseHybridSearch)
	assert.Equal(t, "pgvector", cfg.VectorStore.Backend)
	assert.Equal(t, 768, cfg.VectorStore.Dimensions)

	// Untouched sections keep their defaults.
	assert.True(t, cfg.Brain.UseMemory)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigRejectsInvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentflow.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid toml"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
