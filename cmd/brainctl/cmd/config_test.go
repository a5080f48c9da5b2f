package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestConfigValidateMissingFileUsesDefaultsAndPasses(t *testing.T) {
	dir := t.TempDir()
	out, err := execRoot(t, "config", "validate", filepath.Join(dir, "missing.toml"))
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")
}

func TestConfigValidateReportsEverySectionFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brain.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[brain]
chunk_size = -1

[vector_store]
backend = "pgvector"
`), 0644))

	out, err := execRoot(t, "config", "validate", path)
	require.Error(t, err)
	assert.Contains(t, out, "problem(s)")
	assert.Contains(t, out, "chunk_size")
	assert.Contains(t, out, "connection")
}
