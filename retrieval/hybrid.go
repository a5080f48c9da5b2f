package retrieval

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// rrfK is the Reciprocal Rank Fusion constant.
const rrfK = 60

// docKey uniquely identifies a document across the vector and BM25 result
// lists: (source, chunk_index). Two chunks with identical content from
// different sources are distinct documents.
type docKey struct {
	source     string
	chunkIndex int
}

// MatchType classifies which retrieval path(s) surfaced a result.
type MatchType string

const (
	MatchSemantic       MatchType = "semantic"
	MatchKeyword        MatchType = "keyword"
	MatchHybrid         MatchType = "hybrid"
	MatchGraphExpanded  MatchType = "graph_expanded"
)

// FusedResult is one document after RRF or weighted fusion, carrying enough
// of its provenance for callers to derive MatchType and for tests to assert
// on exact rank/score bookkeeping (§8 invariant 4).
type FusedResult struct {
	Fingerprint string
	Text        string
	Source      string
	ChunkIndex  int
	Category    Category

	VectorRank  int // 1-based, 0 if absent
	BM25Rank    int // 1-based, 0 if absent
	VectorScore float64
	BM25Score   float64
	FusedScore  float64
}

// MatchTypeOf derives the match classification from which ranked lists a
// result appeared in.
func (f FusedResult) MatchTypeOf() MatchType {
	switch {
	case f.VectorRank > 0 && f.BM25Rank > 0:
		return MatchHybrid
	case f.BM25Rank > 0:
		return MatchKeyword
	default:
		return MatchSemantic
	}
}

// HybridRetriever runs BM25 and vector search in parallel and fuses their
// ranked lists into one.
type HybridRetriever struct {
	bm25   *BM25Index
	vector VectorIndex
}

// NewHybridRetriever builds a retriever over the given BM25 index and
// vector index. vector may be nil, in which case fusion degrades to
// BM25-only results (ExternalFailure-style graceful degradation, §7).
func NewHybridRetriever(bm25 *BM25Index, vector VectorIndex) *HybridRetriever {
	return &HybridRetriever{bm25: bm25, vector: vector}
}

// candidate pairs a raw hit from one ranked list with its provenance.
type candidate struct {
	key         docKey
	fingerprint string
	text        string
	source      string
	chunkIndex  int
	vectorRank  int
	bm25Rank    int
	vectorScore float64
	bm25Score   float64
}

// fetchLists runs the BM25 search and the vector search (if configured)
// concurrently via errgroup, awaiting both before returning —
// the only suspension point in hybrid search per §5.
func (h *HybridRetriever) fetchLists(ctx context.Context, query string, fanOut int) ([]BM25Match, []VectorHit, error) {
	var bm25Results []BM25Match
	var vectorResults []VectorHit

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		bm25Results = h.bm25.Search(query, fanOut)
		return nil
	})

	if h.vector != nil {
		g.Go(func() error {
			hits, err := h.vector.Search(gCtx, query, fanOut, DefaultVectorThreshold)
			if err != nil {
				// External failure degrades gracefully: no vector results,
				// rest of the pipeline still assembled (§7).
				return nil
			}
			vectorResults = hits
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return bm25Results, vectorResults, nil
}

func mergeCandidates(bm25Results []BM25Match, vectorResults []VectorHit) map[docKey]*candidate {
	merged := make(map[docKey]*candidate)

	for i, v := range vectorResults {
		key := docKey{source: v.Source, chunkIndex: v.ItemIndex}
		merged[key] = &candidate{
			key:         key,
			fingerprint: v.ID,
			text:        v.Text,
			source:      v.Source,
			chunkIndex:  v.ItemIndex,
			vectorRank:  i + 1,
			vectorScore: v.Score,
		}
	}

	for i, m := range bm25Results {
		key := docKey{source: m.Source, chunkIndex: m.ChunkIndex}
		if c, ok := merged[key]; ok {
			c.bm25Rank = i + 1
			c.bm25Score = m.Score
			if c.fingerprint == "" {
				c.fingerprint = m.Fingerprint
			}
			if c.text == "" {
				c.text = m.Text
			}
		} else {
			merged[key] = &candidate{
				key:         key,
				fingerprint: m.Fingerprint,
				text:        m.Text,
				source:      m.Source,
				chunkIndex:  m.ChunkIndex,
				bm25Rank:    i + 1,
				bm25Score:   m.Score,
			}
		}
	}

	return merged
}

// Search fuses BM25 and vector search results via Reciprocal Rank Fusion
// (K=60): each unique document's fused score is the sum of 1/(K+rank)
// across the lists it appears in. Both searches request 2*topK candidates.
func (h *HybridRetriever) Search(ctx context.Context, query string, topK int) ([]FusedResult, error) {
	fanOut := 2 * topK
	bm25Results, vectorResults, err := h.fetchLists(ctx, query, fanOut)
	if err != nil {
		return nil, err
	}

	merged := mergeCandidates(bm25Results, vectorResults)
	if len(merged) == 0 {
		return nil, nil
	}

	results := make([]FusedResult, 0, len(merged))
	for _, c := range merged {
		fused := 0.0
		if c.vectorRank > 0 {
			fused += 1.0 / float64(rrfK+c.vectorRank)
		}
		if c.bm25Rank > 0 {
			fused += 1.0 / float64(rrfK+c.bm25Rank)
		}
		results = append(results, FusedResult{
			Fingerprint: c.fingerprint,
			Text:        c.text,
			Source:      c.source,
			ChunkIndex:  c.chunkIndex,
			VectorRank:  c.vectorRank,
			BM25Rank:    c.bm25Rank,
			VectorScore: c.vectorScore,
			BM25Score:   c.bm25Score,
			FusedScore:  fused,
		})
	}

	sortFused(results)
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// SearchWeighted fuses by normalizing each list's scores against its own
// max, then combining: combined = vectorWeight*v + (1-vectorWeight)*b.
func (h *HybridRetriever) SearchWeighted(ctx context.Context, query string, topK int, vectorWeight float64) ([]FusedResult, error) {
	fanOut := 2 * topK
	bm25Results, vectorResults, err := h.fetchLists(ctx, query, fanOut)
	if err != nil {
		return nil, err
	}

	merged := mergeCandidates(bm25Results, vectorResults)
	if len(merged) == 0 {
		return nil, nil
	}

	maxVector := maxScore(vectorResults, func(v VectorHit) float64 { return v.Score })
	maxBM25 := maxScore(bm25Results, func(m BM25Match) float64 { return m.Score })

	results := make([]FusedResult, 0, len(merged))
	for _, c := range merged {
		var vHat, bHat float64
		if maxVector > 0 {
			vHat = c.vectorScore / maxVector
		}
		if maxBM25 > 0 {
			bHat = c.bm25Score / maxBM25
		}
		combined := vectorWeight*vHat + (1-vectorWeight)*bHat

		results = append(results, FusedResult{
			Fingerprint: c.fingerprint,
			Text:        c.text,
			Source:      c.source,
			ChunkIndex:  c.chunkIndex,
			VectorRank:  c.vectorRank,
			BM25Rank:    c.bm25Rank,
			VectorScore: c.vectorScore,
			BM25Score:   c.bm25Score,
			FusedScore:  combined,
		})
	}

	sortFused(results)
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func sortFused(results []FusedResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].FusedScore != results[j].FusedScore {
			return results[i].FusedScore > results[j].FusedScore
		}
		if results[i].Source != results[j].Source {
			return results[i].Source < results[j].Source
		}
		return results[i].ChunkIndex < results[j].ChunkIndex
	})
}

func maxScore[T any](items []T, score func(T) float64) float64 {
	max := 0.0
	for _, it := range items {
		s := score(it)
		if s > max {
			max = s
		}
	}
	return max
}
