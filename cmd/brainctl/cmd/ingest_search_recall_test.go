package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, memDir string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "brain.toml")
	content := "[memory]\ndir = \"" + memDir + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestIngestThenSearchFindsIndexedContent(t *testing.T) {
	memDir := t.TempDir()
	cfgPath := writeTestConfig(t, memDir)

	docPath := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(docPath, []byte("Project roadmap and budget planning for Q3."), 0644))

	_, err := execRoot(t, "--config", cfgPath, "ingest", docPath, "--category", "notes")
	require.NoError(t, err)

	out, err := execRoot(t, "--config", cfgPath, "search", "roadmap budget")
	require.NoError(t, err)
	assert.Contains(t, out, "roadmap")
}

func TestSearchWithNoIndexedContentReportsNoResults(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir())
	out, err := execRoot(t, "--config", cfgPath, "search", "nothing indexed here")
	require.NoError(t, err)
	assert.Contains(t, out, "no results")
}

func TestRecallWithEmptyMemoryReportsNothingRelevant(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir())
	out, err := execRoot(t, "--config", cfgPath, "recall", "what do I prefer")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing relevant")
}

func TestStatsReportsZeroedFreshBrain(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir())
	out, err := execRoot(t, "--config", cfgPath, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "documents:    0")
}

func TestIngestWithGraphRAGDisabledIgnoresMissingGraphDB(t *testing.T) {
	memDir := t.TempDir()
	path := filepath.Join(t.TempDir(), "brain.toml")
	content := "[memory]\ndir = \"" + memDir + "\"\n\n[brain]\ngraph_rag_enabled = false\ngraph_db_path = \"" + filepath.Join(memDir, "missing", "graph.db") + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	docPath := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(docPath, []byte("Some content about travel plans."), 0644))

	_, err := execRoot(t, "--config", path, "ingest", docPath, "--category", "notes")
	require.NoError(t, err)
}
