package retrieval

import (
	"strconv"
	"strings"
)

// Entity is a node in the knowledge graph: a thing mentioned across chunks.
type Entity struct {
	ID          string
	Name        string
	Type        string
	Description string
	ChunkOrdinals []int
}

// Relationship is an undirected edge between two entities.
type Relationship struct {
	SourceID string
	TargetID string
	Strength float64 // [0,1]
}

// Community is a cluster of related entities with a summary, as produced by
// an external graph-builder (never by this core).
type Community struct {
	ID        string
	Level     int
	Members   []string // entity IDs
	Title     string
	Summary   string
	Embedding []float32
}

// KnowledgeGraph is the read-only structure consumed by GraphExpander. It
// is produced and loaded by an external collaborator; the core never
// mutates it. Entities and relationships are two flat tables keyed by
// stable identifiers — relationships never embed entity pointers, only ID
// pairs, so cyclic references never appear in memory.
type KnowledgeGraph struct {
	Entities      map[string]Entity
	Relationships []Relationship
	Communities   []Community

	// ChunkEntities maps a (source, chunkIndex) key's opaque chunk key
	// (source+"#"+chunkIndex) to the entity IDs mentioned in that chunk.
	ChunkEntities map[string][]string
}

// ChunkKey builds the inverted-index key GraphExpander uses to look up
// entities mentioned in a chunk.
func ChunkKey(source string, chunkIndex int) string {
	return source + "#" + strconv.Itoa(chunkIndex)
}

// neighbors1Hop returns the set of entity IDs directly connected to any
// entity in ids via a relationship (1-hop expansion, §4.8).
func (g *KnowledgeGraph) neighbors1Hop(ids map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for _, rel := range g.Relationships {
		_, hasSource := ids[rel.SourceID]
		_, hasTarget := ids[rel.TargetID]
		if hasSource {
			out[rel.TargetID] = struct{}{}
		}
		if hasTarget {
			out[rel.SourceID] = struct{}{}
		}
	}
	return out
}

// GraphExpander enriches retrieval results with entity and community
// context, and optionally widens the result set via 1-hop graph traversal.
type GraphExpander struct {
	graph *KnowledgeGraph
}

// NewGraphExpander wraps a loaded knowledge graph.
func NewGraphExpander(graph *KnowledgeGraph) *GraphExpander {
	return &GraphExpander{graph: graph}
}

// ExpandedResult is a FusedResult annotated with graph context.
type ExpandedResult struct {
	FusedResult
	EntityContext     []string
	CommunitySummary  string
}

// Expand attaches entity names and the best-matching community summary to
// results, then, if fewer than maxResults remain, appends 1-hop-neighbor
// chunks as graph_expanded matches (§4.8). queryEmbedding may be nil.
func (e *GraphExpander) Expand(results []FusedResult, queryEmbedding []float32, maxResults int) []ExpandedResult {
	if e.graph == nil {
		out := make([]ExpandedResult, len(results))
		for i, r := range results {
			out[i] = ExpandedResult{FusedResult: r}
		}
		return out
	}

	expanded := make([]ExpandedResult, len(results))
	touchedEntities := make(map[string]struct{})
	for i, r := range results {
		key := ChunkKey(r.Source, r.ChunkIndex)
		entityIDs := e.graph.ChunkEntities[key]
		names := make([]string, 0, len(entityIDs))
		for _, id := range entityIDs {
			if ent, ok := e.graph.Entities[id]; ok {
				names = append(names, ent.Name)
			}
			touchedEntities[id] = struct{}{}
		}
		expanded[i] = ExpandedResult{FusedResult: r, EntityContext: names}
	}

	community := e.bestCommunity(touchedEntities, queryEmbedding)
	if community != nil {
		memberSet := make(map[string]struct{}, len(community.Members))
		for _, m := range community.Members {
			memberSet[m] = struct{}{}
		}
		attached := 0
		for i := range expanded {
			if attached >= 3 {
				break
			}
			key := ChunkKey(expanded[i].Source, expanded[i].ChunkIndex)
			for _, id := range e.graph.ChunkEntities[key] {
				if _, ok := memberSet[id]; ok {
					expanded[i].CommunitySummary = community.Summary
					attached++
					break
				}
			}
		}
	}

	if len(expanded) >= maxResults {
		return expanded
	}

	neighbors := e.graph.neighbors1Hop(touchedEntities)
	seenChunks := make(map[docKey]struct{}, len(expanded))
	for _, r := range expanded {
		seenChunks[docKey{source: r.Source, chunkIndex: r.ChunkIndex}] = struct{}{}
	}
	bestVectorScore := make(map[docKey]float64)
	for _, r := range results {
		bestVectorScore[docKey{source: r.Source, chunkIndex: r.ChunkIndex}] = r.VectorScore
	}

	for chunkKey, entityIDs := range e.graph.ChunkEntities {
		if len(expanded) >= maxResults {
			break
		}
		matches := false
		for _, id := range entityIDs {
			if _, ok := neighbors[id]; ok {
				matches = true
				break
			}
		}
		if !matches {
			continue
		}
		source, idx := splitChunkKey(chunkKey)
		key := docKey{source: source, chunkIndex: idx}
		if _, dup := seenChunks[key]; dup {
			continue
		}
		seenChunks[key] = struct{}{}

		names := make([]string, 0, len(entityIDs))
		for _, id := range entityIDs {
			if ent, ok := e.graph.Entities[id]; ok {
				names = append(names, ent.Name)
			}
		}

		expanded = append(expanded, ExpandedResult{
			FusedResult: FusedResult{
				Source:     source,
				ChunkIndex: idx,
				FusedScore: bestVectorScore[key],
			},
			EntityContext: names,
		})
	}

	return expanded
}

// bestCommunity finds the community whose member set intersects
// touchedEntities, preferring the one whose embedding is most similar to
// the query embedding when embeddings exist.
func (e *GraphExpander) bestCommunity(touchedEntities map[string]struct{}, queryEmbedding []float32) *Community {
	var candidates []*Community
	for i := range e.graph.Communities {
		c := &e.graph.Communities[i]
		for _, m := range c.Members {
			if _, ok := touchedEntities[m]; ok {
				candidates = append(candidates, c)
				break
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	if queryEmbedding == nil {
		return candidates[0]
	}

	var best *Community
	bestSim := -2.0
	for _, c := range candidates {
		if len(c.Embedding) == 0 {
			continue
		}
		sim := CosineSimilarity(queryEmbedding, c.Embedding)
		if sim > bestSim {
			bestSim = sim
			best = c
		}
	}
	if best == nil {
		return candidates[0]
	}
	return best
}

func splitChunkKey(key string) (string, int) {
	i := strings.LastIndexByte(key, '#')
	if i < 0 {
		return key, 0
	}
	idx, err := strconv.Atoi(key[i+1:])
	if err != nil {
		return key[:i], 0
	}
	return key[:i], idx
}
