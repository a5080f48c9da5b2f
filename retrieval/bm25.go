package retrieval

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// posting is one (document ordinal, term frequency) entry in a token's
// inverted-index list. Postings are append-only in insertion order; no
// caller observes posting-list iteration order directly.
type posting struct {
	ordinal int
	tf      int
}

// bm25Document is the persisted subset of a document's state: enough to
// rebuild the inverted index, length table, and average length by replay.
type bm25Document struct {
	Fingerprint string `json:"id"`
	Text        string `json:"text"`
	Source      string `json:"source"`
	ChunkIndex  int    `json:"chunkIndex"`
}

// bm25Snapshot is the on-disk form written by BM25Index.Save.
type bm25Snapshot struct {
	Documents []bm25Document `json:"documents"`
}

// BM25Index is an inverted-index keyword search engine scoring documents
// with Okapi BM25 (k1=1.5, b=0.75). It owns no I/O beyond Save/Load; all
// other operations are synchronous CPU work, safe to call without a
// context.
type BM25Index struct {
	mu sync.RWMutex

	documents    []bm25Document   // ordinal -> document
	fingerprints map[string]int   // fingerprint -> ordinal
	bySourceChunk map[docKey]int  // (source, chunkIndex) -> ordinal
	postings     map[string][]posting
	docLengths   []int
	totalLength  int

	logger zerolog.Logger
}

// NewBM25Index creates an empty index. logger may be the zero value, which
// discards everything logged to it.
func NewBM25Index(logger zerolog.Logger) *BM25Index {
	return &BM25Index{
		fingerprints:  make(map[string]int),
		bySourceChunk: make(map[docKey]int),
		postings:      make(map[string][]posting),
		logger:        logger,
	}
}

// AddDocument tokenizes text, assigns the next internal ordinal, and
// updates the inverted index, length table, and running total length.
// O(|tokens|).
func (b *BM25Index) AddDocument(fingerprint, text, source string, chunkIndex int) {
	tokens := Tokenize(text)

	b.mu.Lock()
	defer b.mu.Unlock()

	ordinal := len(b.documents)
	b.documents = append(b.documents, bm25Document{
		Fingerprint: fingerprint,
		Text:        text,
		Source:      source,
		ChunkIndex:  chunkIndex,
	})
	b.fingerprints[fingerprint] = ordinal
	b.bySourceChunk[docKey{source: source, chunkIndex: chunkIndex}] = ordinal

	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	for term, count := range tf {
		b.postings[term] = append(b.postings[term], posting{ordinal: ordinal, tf: count})
	}

	b.docLengths = append(b.docLengths, len(tokens))
	b.totalLength += len(tokens)
}

func (b *BM25Index) avgDocLength() float64 {
	if len(b.docLengths) == 0 {
		return 1
	}
	return float64(b.totalLength) / float64(len(b.docLengths))
}

// BM25Match is one scored document from Search.
type BM25Match struct {
	Fingerprint string
	Text        string
	Source      string
	ChunkIndex  int
	Score       float64
}

// Search returns up to topK documents ranked by BM25 score, descending.
// Never errors; a query that tokenizes to nothing (or an empty index)
// returns an empty slice.
func (b *BM25Index) Search(query string, topK int) []BM25Match {
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	n := len(b.documents)
	if n == 0 {
		return nil
	}

	avgdl := b.avgDocLength()
	scores := make(map[int]float64)

	for _, term := range dedupeStrings(queryTokens) {
		list := b.postings[term]
		df := len(list)
		if df == 0 {
			continue
		}
		idf := idfScore(n, df)
		for _, p := range list {
			dl := float64(b.docLengths[p.ordinal])
			tf := float64(p.tf)
			denom := tf + bm25K1*(1-bm25B+bm25B*dl/avgdl)
			scores[p.ordinal] += idf * (tf * (bm25K1 + 1)) / denom
		}
	}

	if len(scores) == 0 {
		return nil
	}

	ordinals := make([]int, 0, len(scores))
	for ord := range scores {
		ordinals = append(ordinals, ord)
	}
	sort.Slice(ordinals, func(i, j int) bool {
		si, sj := scores[ordinals[i]], scores[ordinals[j]]
		if si != sj {
			return si > sj
		}
		// Deterministic tie-break: lower ordinal (earlier insertion) first.
		return ordinals[i] < ordinals[j]
	})

	if topK > 0 && len(ordinals) > topK {
		ordinals = ordinals[:topK]
	}

	matches := make([]BM25Match, 0, len(ordinals))
	for _, ord := range ordinals {
		doc := b.documents[ord]
		matches = append(matches, BM25Match{
			Fingerprint: doc.Fingerprint,
			Text:        doc.Text,
			Source:      doc.Source,
			ChunkIndex:  doc.ChunkIndex,
			Score:       scores[ord],
		})
	}
	return matches
}

// idfScore computes ln((N - df + 0.5)/(df + 0.5) + 1).
func idfScore(n, df int) float64 {
	return math.Log((float64(n-df)+0.5)/(float64(df)+0.5) + 1)
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Clear resets the index to empty.
func (b *BM25Index) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.documents = nil
	b.fingerprints = make(map[string]int)
	b.bySourceChunk = make(map[docKey]int)
	b.postings = make(map[string][]posting)
	b.docLengths = nil
	b.totalLength = 0
}

// DocumentAt returns the indexed document at (source, chunkIndex), if any.
// Unlike Search, this is an exact key lookup with no relevance ranking —
// used by graph expansion to backfill chunk text for entity-only matches.
func (b *BM25Index) DocumentAt(source string, chunkIndex int) (BM25Match, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ordinal, ok := b.bySourceChunk[docKey{source: source, chunkIndex: chunkIndex}]
	if !ok {
		return BM25Match{}, false
	}
	doc := b.documents[ordinal]
	return BM25Match{
		Fingerprint: doc.Fingerprint,
		Text:        doc.Text,
		Source:      doc.Source,
		ChunkIndex:  doc.ChunkIndex,
	}, true
}

// DocumentCount returns the number of indexed documents.
func (b *BM25Index) DocumentCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.documents)
}

// UniqueTermCount returns the number of distinct tokens in the index.
func (b *BM25Index) UniqueTermCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.postings)
}

// Save atomically persists the documents table (not the inverted index) to
// path: write to a temp file in the same directory, then rename.
func (b *BM25Index) Save(path string) error {
	b.mu.RLock()
	snap := bm25Snapshot{Documents: append([]bm25Document(nil), b.documents...)}
	b.mu.RUnlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal bm25 snapshot: %v", ErrIoError, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "bm25-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrIoError, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write temp file: %v", ErrIoError, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp file: %v", ErrIoError, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: rename temp file: %v", ErrIoError, err)
	}
	return nil
}

// Load replaces the index's contents by replaying a saved documents table
// through AddDocument. On any read or parse failure the index is reset to
// empty and a warning is logged — initialize must never fail.
func (b *BM25Index) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		b.logger.Warn().Err(err).Str("path", path).Msg("bm25 snapshot unreadable, starting empty")
		b.Clear()
		return nil
	}

	var snap bm25Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		b.logger.Warn().Err(err).Str("path", path).Msg("bm25 snapshot corrupt, starting empty")
		b.Clear()
		return nil
	}

	b.Clear()
	for _, doc := range snap.Documents {
		b.AddDocument(doc.Fingerprint, doc.Text, doc.Source, doc.ChunkIndex)
	}
	return nil
}
