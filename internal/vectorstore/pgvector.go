// Package vectorstore adapts external vector databases to retrieval.VectorIndex.
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/kunalkushwaha/agentflow/internal/resilience"
	"github.com/kunalkushwaha/agentflow/retrieval"
)

// PgVectorIndex stores chunks in a single flat table with a pgvector
// column, one row per (id, embedding, metadata) — the schema
// KnowledgeBrain expects an opaque VectorIndex to provide.
type PgVectorIndex struct {
	pool     *pgxpool.Pool
	embedder retrieval.Embedder
	dims     int
	breaker  *resilience.CircuitBreaker
}

// NewPgVectorIndex connects to connString and ensures the chunks table
// exists with an ivfflat cosine index over a vector(dims) column.
func NewPgVectorIndex(ctx context.Context, connString string, dims int, embedder retrieval.Embedder) (*PgVectorIndex, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required for PgVectorIndex", retrieval.ErrExternalFailure)
	}
	if dims <= 0 {
		return nil, fmt.Errorf("%w: invalid vector dimensions %d", retrieval.ErrExternalFailure, dims)
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("%w: connect pgvector: %v", retrieval.ErrExternalFailure, err)
	}

	idx := &PgVectorIndex{pool: pool, embedder: embedder, dims: dims, breaker: resilience.NewCircuitBreaker(nil)}
	if err := idx.createSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return idx, nil
}

func (p *PgVectorIndex) createSchema(ctx context.Context) error {
	schema := fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS brain_chunks (
			id VARCHAR(255) PRIMARY KEY,
			text TEXT NOT NULL,
			metadata JSONB,
			embedding vector(%d)
		);
		CREATE INDEX IF NOT EXISTS idx_brain_chunks_embedding ON brain_chunks USING ivfflat (embedding vector_cosine_ops);
	`, p.dims)
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%w: create brain_chunks schema: %v", retrieval.ErrExternalFailure, err)
	}
	return nil
}

// Add implements retrieval.VectorIndex.
func (p *PgVectorIndex) Add(ctx context.Context, id, text string, metadata map[string]string) error {
	embedding, err := p.embedder.Encode(ctx, text)
	if err != nil {
		return fmt.Errorf("%w: encode chunk %s: %v", retrieval.ErrExternalFailure, id, err)
	}

	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("%w: marshal metadata: %v", retrieval.ErrExternalFailure, err)
	}

	err = p.breaker.Call(func() error {
		_, execErr := p.pool.Exec(ctx, `
			INSERT INTO brain_chunks (id, text, metadata, embedding)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET text = EXCLUDED.text, metadata = EXCLUDED.metadata, embedding = EXCLUDED.embedding
		`, id, text, metaJSON, pgvector.NewVector(embedding))
		return execErr
	})
	if err != nil {
		return fmt.Errorf("%w: insert chunk %s: %v", retrieval.ErrExternalFailure, id, err)
	}
	return nil
}

// Search implements retrieval.VectorIndex, returning up to maxResults chunks
// whose cosine similarity to query clears threshold.
func (p *PgVectorIndex) Search(ctx context.Context, query string, maxResults int, threshold float64) ([]retrieval.VectorHit, error) {
	queryEmbedding, err := p.embedder.Encode(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", retrieval.ErrExternalFailure, err)
	}

	var rows pgx.Rows
	err = p.breaker.Call(func() error {
		r, queryErr := p.pool.Query(ctx, `
			SELECT id, text, metadata, 1 - (embedding <=> $1) AS similarity
			FROM brain_chunks
			WHERE 1 - (embedding <=> $1) >= $2
			ORDER BY embedding <=> $1
			LIMIT $3
		`, pgvector.NewVector(queryEmbedding), threshold, maxResults)
		rows = r
		return queryErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %v", retrieval.ErrExternalFailure, err)
	}
	defer rows.Close()

	var hits []retrieval.VectorHit
	for rows.Next() {
		var id, text string
		var metaJSON []byte
		var similarity float64
		if err := rows.Scan(&id, &text, &metaJSON, &similarity); err != nil {
			return nil, fmt.Errorf("%w: scan vector search row: %v", retrieval.ErrExternalFailure, err)
		}
		var metadata map[string]string
		_ = json.Unmarshal(metaJSON, &metadata)

		chunkIndex := 0
		if v, ok := metadata["chunk_index"]; ok {
			fmt.Sscanf(v, "%d", &chunkIndex)
		}

		hits = append(hits, retrieval.VectorHit{
			ID:        id,
			Text:      text,
			Score:     similarity,
			Source:    metadata["source"],
			ItemIndex: chunkIndex,
			Metadata:  metadata,
		})
	}
	return hits, rows.Err()
}

// Close releases the connection pool.
func (p *PgVectorIndex) Close() {
	p.pool.Close()
}
