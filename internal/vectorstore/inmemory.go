package vectorstore

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/kunalkushwaha/agentflow/retrieval"
)

type inMemoryEntry struct {
	text      string
	embedding []float32
	metadata  map[string]string
}

// InMemoryIndex is a brute-force retrieval.VectorIndex backed by a map and
// an Embedder, for development and tests where no external vector database
// is configured.
type InMemoryIndex struct {
	mu       sync.RWMutex
	entries  map[string]inMemoryEntry
	embedder retrieval.Embedder
}

// NewInMemoryIndex builds an index that embeds every Add/Search call
// through embedder.
func NewInMemoryIndex(embedder retrieval.Embedder) *InMemoryIndex {
	return &InMemoryIndex{
		entries:  make(map[string]inMemoryEntry),
		embedder: embedder,
	}
}

// Add implements retrieval.VectorIndex.
func (idx *InMemoryIndex) Add(ctx context.Context, id, text string, metadata map[string]string) error {
	embedding, err := idx.embedder.Encode(ctx, text)
	if err != nil {
		return err
	}
	idx.mu.Lock()
	idx.entries[id] = inMemoryEntry{text: text, embedding: embedding, metadata: metadata}
	idx.mu.Unlock()
	return nil
}

// Search implements retrieval.VectorIndex via brute-force cosine similarity
// over every stored entry. O(n); fine for the dataset sizes this index is
// meant for.
func (idx *InMemoryIndex) Search(ctx context.Context, query string, maxResults int, threshold float64) ([]retrieval.VectorHit, error) {
	embedding, err := idx.embedder.Encode(ctx, query)
	if err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	type scored struct {
		id    string
		entry inMemoryEntry
		score float64
	}
	var candidates []scored
	for id, entry := range idx.entries {
		sim := retrieval.CosineSimilarity(embedding, entry.embedding)
		if sim < threshold {
			continue
		}
		candidates = append(candidates, scored{id: id, entry: entry, score: sim})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}

	hits := make([]retrieval.VectorHit, 0, len(candidates))
	for _, c := range candidates {
		chunkIndex, _ := strconv.Atoi(c.entry.metadata["chunk_index"])
		hits = append(hits, retrieval.VectorHit{
			ID:        c.id,
			Text:      c.entry.text,
			Score:     c.score,
			Source:    c.entry.metadata["source"],
			ItemIndex: chunkIndex,
			Metadata:  c.entry.metadata,
		})
	}
	return hits, nil
}
