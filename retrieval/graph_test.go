package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph() *KnowledgeGraph {
	return &KnowledgeGraph{
		Entities: map[string]Entity{
			"e1": {ID: "e1", Name: "Acme Corp", Type: "organization"},
			"e2": {ID: "e2", Name: "Jane Doe", Type: "person"},
			"e3": {ID: "e3", Name: "Roadmap Q3", Type: "document"},
		},
		Relationships: []Relationship{
			{SourceID: "e1", TargetID: "e2", Strength: 0.8},
			{SourceID: "e2", TargetID: "e3", Strength: 0.5},
		},
		Communities: []Community{
			{ID: "c1", Members: []string{"e1", "e2"}, Summary: "Acme leadership team"},
		},
		ChunkEntities: map[string][]string{
			ChunkKey("notes.txt", 0): {"e1"},
			ChunkKey("notes.txt", 1): {"e2"},
			ChunkKey("other.txt", 0): {"e3"},
		},
	}
}

func TestChunkKeyRoundTripsThroughSplit(t *testing.T) {
	key := ChunkKey("my source.txt", 42)
	source, idx := splitChunkKey(key)
	assert.Equal(t, "my source.txt", source)
	assert.Equal(t, 42, idx)
}

func TestGraphExpanderAttachesEntityContext(t *testing.T) {
	expander := NewGraphExpander(sampleGraph())
	results := []FusedResult{
		{Source: "notes.txt", ChunkIndex: 0, FusedScore: 0.9},
	}
	expanded := expander.Expand(results, nil, 10)
	require.Len(t, expanded, 2) // original + 1-hop neighbor chunk
	assert.Equal(t, []string{"Acme Corp"}, expanded[0].EntityContext)
}

func TestGraphExpanderAttachesCommunitySummary(t *testing.T) {
	expander := NewGraphExpander(sampleGraph())
	results := []FusedResult{
		{Source: "notes.txt", ChunkIndex: 0, FusedScore: 0.9},
	}
	expanded := expander.Expand(results, nil, 1)
	assert.Equal(t, "Acme leadership team", expanded[0].CommunitySummary)
}

func TestGraphExpanderExpandsOneHopNeighborsWhenUnderBudget(t *testing.T) {
	expander := NewGraphExpander(sampleGraph())
	results := []FusedResult{
		{Source: "notes.txt", ChunkIndex: 0, FusedScore: 0.9}, // entity e1
	}
	expanded := expander.Expand(results, nil, 5)
	require.Len(t, expanded, 2)
	found := false
	for _, e := range expanded[1:] {
		if e.Source == "notes.txt" && e.ChunkIndex == 1 {
			found = true
		}
	}
	assert.True(t, found, "expected e2's chunk to be pulled in as a 1-hop neighbor of e1")
}

func TestGraphExpanderStopsAtMaxResults(t *testing.T) {
	expander := NewGraphExpander(sampleGraph())
	results := []FusedResult{
		{Source: "notes.txt", ChunkIndex: 0, FusedScore: 0.9},
	}
	expanded := expander.Expand(results, nil, 1)
	assert.Len(t, expanded, 1)
}

func TestGraphExpanderNilGraphIsPassthrough(t *testing.T) {
	expander := NewGraphExpander(nil)
	results := []FusedResult{{Source: "notes.txt", ChunkIndex: 0, FusedScore: 0.5}}
	expanded := expander.Expand(results, nil, 10)
	require.Len(t, expanded, 1)
	assert.Empty(t, expanded[0].EntityContext)
}

func TestNeighbors1HopFindsDirectlyConnectedEntities(t *testing.T) {
	g := sampleGraph()
	neighbors := g.neighbors1Hop(map[string]struct{}{"e1": {}})
	_, hasE2 := neighbors["e2"]
	assert.True(t, hasE2)
	_, hasE3 := neighbors["e3"]
	assert.False(t, hasE3)
}
