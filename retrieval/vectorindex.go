package retrieval

import "context"

// DefaultVectorThreshold is the minimum cosine similarity a VectorIndex
// search result must clear to be considered relevant (§4.3).
const DefaultVectorThreshold = 0.4

// VectorHit is one result from VectorIndex.Search. Score is a cosine
// similarity normalized to [0,1], 1 meaning identical.
type VectorHit struct {
	ID         string
	Text       string
	Score      float64
	Source     string
	ItemIndex  int
	Metadata   map[string]string
}

// VectorIndex is the abstract similarity-search capability the core
// requires. The underlying library's threading model is opaque; the core
// only awaits Add/Search.
type VectorIndex interface {
	Add(ctx context.Context, id, text string, metadata map[string]string) error
	Search(ctx context.Context, query string, maxResults int, threshold float64) ([]VectorHit, error)
}
