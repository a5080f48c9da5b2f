package retrieval

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// defaultChunkSize is the target chunk length in characters (§4.6).
const defaultChunkSize = 400

// ProgressFunc receives ingestion progress: a fraction in [0,1] and a
// human-readable stage description.
type ProgressFunc func(fraction float64, stage string)

// Chunk splits content on sentence boundaries (".", "!", "?", "\n"),
// trimming whitespace and dropping empty fragments, then greedily packs
// sentences into chunks of at most targetSize characters (including the
// ". " separator). A single sentence longer than targetSize becomes its
// own chunk. Pure function.
func Chunk(content string, targetSize int) []string {
	if targetSize <= 0 {
		targetSize = defaultChunkSize
	}
	sentences := splitOnSentenceBoundaries(content)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, s := range sentences {
		if current.Len() == 0 {
			if len(s) > targetSize {
				chunks = append(chunks, s)
				continue
			}
			current.WriteString(s)
			continue
		}
		if current.Len()+2+len(s) > targetSize {
			flush()
			if len(s) > targetSize {
				chunks = append(chunks, s)
				continue
			}
			current.WriteString(s)
			continue
		}
		current.WriteString(". ")
		current.WriteString(s)
	}
	flush()
	return chunks
}

func splitOnSentenceBoundaries(content string) []string {
	var out []string
	var b strings.Builder
	for _, r := range content {
		switch r {
		case '.', '!', '?', '\n':
			frag := strings.TrimSpace(b.String())
			if frag != "" {
				out = append(out, frag)
			}
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	if frag := strings.TrimSpace(b.String()); frag != "" {
		out = append(out, frag)
	}
	return out
}

// chunkMetadata is the persisted record for one chunk (§6 metadata.json).
type chunkMetadata struct {
	ID             string            `json:"id"`
	Source         string            `json:"source"`
	Category       Category          `json:"category"`
	ChunkIndex     int               `json:"chunkIndex"`
	Timestamp      time.Time         `json:"timestamp"`
	CustomMetadata map[string]string `json:"customMetadata,omitempty"`
}

// RetrievalResult is one chunk returned by KnowledgeBrain.Retrieve, after
// category filtering and optional graph expansion.
type RetrievalResult struct {
	Fingerprint      string
	Text             string
	Source           string
	Category         Category
	ChunkIndex       int
	Score            float64
	MatchType        MatchType
	EntityContext    []string
	CommunitySummary string
}

// KnowledgeBrain owns chunking, ingestion, the chunk metadata table, and
// orchestrates hybrid retrieval plus graph expansion. It exclusively owns
// the BM25 index and a handle to the vector index; the graph is shared
// read-only (§3).
type KnowledgeBrain struct {
	mu sync.RWMutex

	dir       string
	bm25      *BM25Index
	vector    VectorIndex
	retriever *HybridRetriever
	graph     *KnowledgeGraph
	expander  *GraphExpander
	metadata  map[string]chunkMetadata

	chunkSize int
	logger    zerolog.Logger
	now       func() time.Time
}

// NewKnowledgeBrain builds a brain rooted at dir, backed by the given
// vector index (nil degrades to BM25-only) and an optional knowledge graph
// (nil disables expansion).
func NewKnowledgeBrain(dir string, vector VectorIndex, graph *KnowledgeGraph, chunkSize int, logger zerolog.Logger) *KnowledgeBrain {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	bm25 := NewBM25Index(logger)
	return &KnowledgeBrain{
		dir:       dir,
		bm25:      bm25,
		vector:    vector,
		retriever: NewHybridRetriever(bm25, vector),
		graph:     graph,
		expander:  NewGraphExpander(graph),
		metadata:  make(map[string]chunkMetadata),
		chunkSize: chunkSize,
		logger:    logger,
		now:       time.Now,
	}
}

// BrainStats summarizes index size, reported by Stats.
type BrainStats struct {
	Documents   int
	UniqueTerms int
	Chunks      int
	HasVector   bool
	HasGraph    bool
}

// Stats reports the current index size for operator tooling.
func (k *KnowledgeBrain) Stats() BrainStats {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return BrainStats{
		Documents:   k.bm25.DocumentCount(),
		UniqueTerms: k.bm25.UniqueTermCount(),
		Chunks:      len(k.metadata),
		HasVector:   k.vector != nil,
		HasGraph:    k.graph != nil,
	}
}

// bm25Path returns the BM25 snapshot path within dir.
func (k *KnowledgeBrain) bm25Path() string {
	return filepath.Join(k.dir, "bm25_index.json")
}

// metadataPath returns the chunk metadata path within dir.
func (k *KnowledgeBrain) metadataPath() string {
	return filepath.Join(k.dir, "metadata.json")
}

// Load reads the BM25 snapshot and metadata table from disk. Any I/O or
// parse failure is logged and the affected store starts empty — the brain
// must boot even over corrupt state (§4.6 failure model).
func (k *KnowledgeBrain) Load() error {
	if err := k.bm25.Load(k.bm25Path()); err != nil {
		return err
	}

	var meta map[string]chunkMetadata
	if err := loadJSON(k.metadataPath(), &meta); err != nil {
		k.logger.Warn().Err(err).Msg("chunk metadata unreadable, starting empty")
		return nil
	}

	k.mu.Lock()
	k.metadata = meta
	k.mu.Unlock()
	return nil
}

// Ingest chunks content, assigns each chunk a fresh fingerprint, and
// indexes it into BM25, the vector index, and the metadata table. progress
// is invoked at each stage boundary; it may be nil.
func (k *KnowledgeBrain) Ingest(ctx context.Context, content, source string, category Category, metadata map[string]string, progress ProgressFunc) error {
	report := func(frac float64, stage string) {
		if progress != nil {
			progress(frac, stage)
		}
	}

	report(0, "Chunking content…")
	chunks := Chunk(content, k.chunkSize)
	n := len(chunks)
	if n == 0 {
		report(1, "Complete")
		return nil
	}

	now := k.now()
	for i, text := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}

		fingerprint := NewFingerprint()
		k.bm25.AddDocument(fingerprint, text, source, i)

		if k.vector != nil {
			combined := make(map[string]string, len(metadata)+3)
			for mk, mv := range metadata {
				combined[mk] = mv
			}
			combined["source"] = source
			combined["category"] = string(category)
			combined["chunk_index"] = strconv.Itoa(i)
			if err := k.vector.Add(ctx, fingerprint, text, combined); err != nil {
				k.logger.Warn().Err(err).Str("fingerprint", fingerprint).Msg("vector index add failed, continuing")
			}
		}

		k.mu.Lock()
		k.metadata[fingerprint] = chunkMetadata{
			ID:             fingerprint,
			Source:         source,
			Category:       category,
			ChunkIndex:     i,
			Timestamp:      now,
			CustomMetadata: metadata,
		}
		k.mu.Unlock()

		report(float64(i+1)/float64(n), fmt.Sprintf("Indexing chunk %d of %d", i+1, n))
	}

	report(float64(n)/float64(n+1), "Saving indices…")
	if err := k.persist(); err != nil {
		return err
	}

	report(1, "Complete")
	return nil
}

// persist atomically writes the BM25 snapshot and metadata table. Save
// failures are returned to the caller (ingest durability is not optional,
// §7) but never corrupt the in-memory state.
func (k *KnowledgeBrain) persist() error {
	if err := k.bm25.Save(k.bm25Path()); err != nil {
		return err
	}

	k.mu.RLock()
	meta := k.metadata
	k.mu.RUnlock()
	return saveJSONAtomic(k.metadataPath(), meta)
}

// Retrieve runs the router strategy for query, then the hybrid retriever
// and optional graph expansion, returning up to maxResults chunks filtered
// by categoryFilter (nil means no filter). If the strategy's UseRAG is
// false, returns an empty slice.
func (k *KnowledgeBrain) Retrieve(ctx context.Context, query string, maxResults int, categoryFilter map[Category]struct{}) ([]RetrievalResult, error) {
	classification := Classify(query)
	strategy := StrategyFor(classification.Intent)
	if maxResults > 0 {
		strategy.MaxResults = maxResults
	}
	return k.retrieveWithStrategy(ctx, query, strategy, categoryFilter)
}

// SearchDirect bypasses the router, always running a full-depth hybrid
// search. Used by tests and callers that already know their strategy.
func (k *KnowledgeBrain) SearchDirect(ctx context.Context, query string, maxResults int, categoryFilter map[Category]struct{}) ([]RetrievalResult, error) {
	strategy := Strategy{UseRAG: true, Depth: DepthFull, MaxResults: maxResults}
	return k.retrieveWithStrategy(ctx, query, strategy, categoryFilter)
}

func (k *KnowledgeBrain) retrieveWithStrategy(ctx context.Context, query string, strategy Strategy, categoryFilter map[Category]struct{}) ([]RetrievalResult, error) {
	if !strategy.UseRAG {
		return nil, nil
	}

	count := strategy.MaxResults
	if strategy.Depth == DepthLight {
		count = minInt(3, strategy.MaxResults)
	}
	if count <= 0 {
		return nil, nil
	}

	fused, err := k.retriever.Search(ctx, query, 2*count)
	if err != nil {
		return nil, err
	}

	results := make([]RetrievalResult, 0, len(fused))
	for _, f := range fused {
		k.mu.RLock()
		meta, ok := k.metadata[f.Fingerprint]
		k.mu.RUnlock()
		category := Category("")
		if ok {
			category = meta.Category
		}
		if categoryFilter != nil {
			if _, allowed := categoryFilter[category]; !allowed {
				continue
			}
		}
		results = append(results, RetrievalResult{
			Fingerprint: f.Fingerprint,
			Text:        f.Text,
			Source:      f.Source,
			Category:    category,
			ChunkIndex:  f.ChunkIndex,
			Score:       f.FusedScore,
			MatchType:   f.MatchTypeOf(),
		})
		if len(results) >= count {
			break
		}
	}

	if strategy.Depth == DepthFull && k.graph != nil {
		results = k.applyGraphExpansion(results, count)
	}

	return results, nil
}

func (k *KnowledgeBrain) applyGraphExpansion(results []RetrievalResult, maxResults int) []RetrievalResult {
	fusedForExpansion := make([]FusedResult, len(results))
	for i, r := range results {
		fusedForExpansion[i] = FusedResult{
			Fingerprint: r.Fingerprint,
			Text:        r.Text,
			Source:      r.Source,
			ChunkIndex:  r.ChunkIndex,
			Category:    r.Category,
			FusedScore:  r.Score,
		}
	}

	expanded := k.expander.Expand(fusedForExpansion, nil, maxResults)
	out := make([]RetrievalResult, len(expanded))
	for i, e := range expanded {
		matchType := MatchGraphExpanded
		if i < len(results) {
			matchType = results[i].MatchType
		}

		text, fingerprint, category := e.Text, e.Fingerprint, e.Category
		if text == "" {
			if doc, ok := k.bm25.DocumentAt(e.Source, e.ChunkIndex); ok {
				text = doc.Text
				fingerprint = doc.Fingerprint
				k.mu.RLock()
				if meta, ok := k.metadata[doc.Fingerprint]; ok {
					category = meta.Category
				}
				k.mu.RUnlock()
			}
		}

		out[i] = RetrievalResult{
			Fingerprint:      fingerprint,
			Text:             text,
			Source:           e.Source,
			Category:         category,
			ChunkIndex:       e.ChunkIndex,
			Score:            e.FusedScore,
			MatchType:        matchType,
			EntityContext:    e.EntityContext,
			CommunitySummary: e.CommunitySummary,
		}
	}
	return out
}
