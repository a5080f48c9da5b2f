package retrieval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBM25() *BM25Index {
	return NewBM25Index(zerolog.Nop())
}

func TestBM25SearchRanksMoreRelevantDocumentFirst(t *testing.T) {
	idx := newTestBM25()
	idx.AddDocument("doc1", "the quarterly roadmap review covers budget and staffing", "notes.txt", 0)
	idx.AddDocument("doc2", "weather forecast for the weekend trip", "weather.txt", 0)

	matches := idx.Search("roadmap budget review", 5)
	require.NotEmpty(t, matches)
	assert.Equal(t, "doc1", matches[0].Fingerprint)
}

func TestBM25SearchEmptyQueryReturnsNil(t *testing.T) {
	idx := newTestBM25()
	idx.AddDocument("doc1", "some content here", "a.txt", 0)
	assert.Nil(t, idx.Search("", 5))
	assert.Nil(t, idx.Search("the and but", 5))
}

func TestBM25SearchEmptyIndexReturnsNil(t *testing.T) {
	idx := newTestBM25()
	assert.Nil(t, idx.Search("anything", 5))
}

func TestBM25SearchRespectsTopK(t *testing.T) {
	idx := newTestBM25()
	for i := 0; i < 5; i++ {
		idx.AddDocument(string(rune('a'+i)), "common shared keyword appears here", "src", i)
	}
	matches := idx.Search("keyword", 2)
	assert.Len(t, matches, 2)
}

func TestBM25ClearResetsState(t *testing.T) {
	idx := newTestBM25()
	idx.AddDocument("doc1", "some unique content", "a.txt", 0)
	require.Equal(t, 1, idx.DocumentCount())
	idx.Clear()
	assert.Equal(t, 0, idx.DocumentCount())
	assert.Equal(t, 0, idx.UniqueTermCount())
}

func TestBM25SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bm25_index.json")

	idx := newTestBM25()
	idx.AddDocument("doc1", "project roadmap discussion", "notes.txt", 0)
	idx.AddDocument("doc2", "budget planning for next quarter", "notes.txt", 1)
	require.NoError(t, idx.Save(path))

	reloaded := newTestBM25()
	require.NoError(t, reloaded.Load(path))

	assert.Equal(t, idx.DocumentCount(), reloaded.DocumentCount())
	matches := reloaded.Search("roadmap", 5)
	require.NotEmpty(t, matches)
	assert.Equal(t, "doc1", matches[0].Fingerprint)
}

func TestBM25LoadCorruptSnapshotStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bm25_index.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	idx := newTestBM25()
	idx.AddDocument("stale", "stale data that should be cleared", "x.txt", 0)
	require.NoError(t, idx.Load(path))
	assert.Equal(t, 0, idx.DocumentCount())
}

func TestBM25LoadMissingFileStartsEmpty(t *testing.T) {
	idx := newTestBM25()
	require.NoError(t, idx.Load(filepath.Join(t.TempDir(), "missing.json")))
	assert.Equal(t, 0, idx.DocumentCount())
}
