package cmd

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kunalkushwaha/agentflow/internal/config"
	"github.com/kunalkushwaha/agentflow/internal/graphstore"
	"github.com/kunalkushwaha/agentflow/retrieval"
)

func TestBuildGraphReturnsNilWhenDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Brain.GraphRAGEnabled = false
	assert.Nil(t, buildGraph(cfg, zerolog.Nop()))
}

func TestBuildGraphReturnsNilWhenPathEmpty(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Brain.GraphRAGEnabled = true
	cfg.Brain.GraphDBPath = ""
	assert.Nil(t, buildGraph(cfg, zerolog.Nop()))
}

func TestBuildGraphLoadsExistingGraphDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")
	store, err := graphstore.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(&retrieval.KnowledgeGraph{
		Entities: map[string]retrieval.Entity{
			"e1": {ID: "e1", Name: "Alice"},
		},
	}))
	require.NoError(t, store.Close())

	cfg := config.DefaultConfig()
	cfg.Brain.GraphRAGEnabled = true
	cfg.Brain.GraphDBPath = path

	graph := buildGraph(cfg, zerolog.Nop())
	require.NotNil(t, graph)
	assert.Len(t, graph.Entities, 1)
}
