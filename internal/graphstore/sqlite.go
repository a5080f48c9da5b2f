// Package graphstore persists a retrieval.KnowledgeGraph to a local SQLite
// file: entities, relationships, and communities as flat tables, community
// embeddings packed as little-endian float32 blobs.
package graphstore

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/kunalkushwaha/agentflow/retrieval"
)

// Store wraps a SQLite connection holding one knowledge graph.
type Store struct {
	db *sql.DB
}

// Open creates the parent directory if needed, opens (or creates) the
// database at path, and ensures its schema exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("graphstore: mkdir %s: %w", filepath.Dir(path), err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("graphstore: open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("graphstore: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS entities (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			entity_type TEXT NOT NULL DEFAULT 'unknown',
			description TEXT NOT NULL DEFAULT '',
			chunk_ordinals TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS relationships (
			source_id TEXT NOT NULL,
			target_id TEXT NOT NULL,
			strength  REAL NOT NULL DEFAULT 0.5,
			PRIMARY KEY (source_id, target_id)
		);
		CREATE INDEX IF NOT EXISTS idx_relationships_source ON relationships(source_id);
		CREATE INDEX IF NOT EXISTS idx_relationships_target ON relationships(target_id);

		CREATE TABLE IF NOT EXISTS communities (
			id        TEXT PRIMARY KEY,
			level     INTEGER NOT NULL DEFAULT 0,
			title     TEXT NOT NULL DEFAULT '',
			summary   TEXT NOT NULL DEFAULT '',
			members   TEXT NOT NULL DEFAULT '',
			embedding BLOB
		);

		CREATE TABLE IF NOT EXISTS chunk_entities (
			chunk_key TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			PRIMARY KEY (chunk_key, entity_id)
		);
		CREATE INDEX IF NOT EXISTS idx_chunk_entities_key ON chunk_entities(chunk_key);
	`)
	return err
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// encodeVector packs a float32 slice into a little-endian byte blob.
func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector unpacks a little-endian byte blob back into a float32 slice.
func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

func joinInts(ints []int) string {
	parts := make([]string, len(ints))
	for i, v := range ints {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func splitInts(raw string) []int {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Save replaces the store's contents with graph, run inside a single
// transaction so a crash mid-write never leaves a half-written graph.
func (s *Store) Save(graph *retrieval.KnowledgeGraph) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("graphstore: begin save: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"entities", "relationships", "communities", "chunk_entities"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("graphstore: clear %s: %w", table, err)
		}
	}

	for id, e := range graph.Entities {
		if _, err := tx.Exec(`
			INSERT INTO entities (id, name, entity_type, description, chunk_ordinals)
			VALUES (?, ?, ?, ?, ?)`,
			id, e.Name, e.Type, e.Description, joinInts(e.ChunkOrdinals),
		); err != nil {
			return fmt.Errorf("graphstore: insert entity %s: %w", id, err)
		}
	}

	for _, r := range graph.Relationships {
		if _, err := tx.Exec(`
			INSERT OR REPLACE INTO relationships (source_id, target_id, strength)
			VALUES (?, ?, ?)`,
			r.SourceID, r.TargetID, r.Strength,
		); err != nil {
			return fmt.Errorf("graphstore: insert relationship %s->%s: %w", r.SourceID, r.TargetID, err)
		}
	}

	for _, c := range graph.Communities {
		if _, err := tx.Exec(`
			INSERT INTO communities (id, level, title, summary, members, embedding)
			VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, c.Level, c.Title, c.Summary, strings.Join(c.Members, ","), encodeVector(c.Embedding),
		); err != nil {
			return fmt.Errorf("graphstore: insert community %s: %w", c.ID, err)
		}
	}

	for chunkKey, entityIDs := range graph.ChunkEntities {
		for _, entityID := range entityIDs {
			if _, err := tx.Exec(`
				INSERT OR IGNORE INTO chunk_entities (chunk_key, entity_id) VALUES (?, ?)`,
				chunkKey, entityID,
			); err != nil {
				return fmt.Errorf("graphstore: insert chunk entity %s/%s: %w", chunkKey, entityID, err)
			}
		}
	}

	return tx.Commit()
}

// Load reads the full graph back into a retrieval.KnowledgeGraph.
func (s *Store) Load() (*retrieval.KnowledgeGraph, error) {
	graph := &retrieval.KnowledgeGraph{
		Entities:      make(map[string]retrieval.Entity),
		ChunkEntities: make(map[string][]string),
	}

	entityRows, err := s.db.Query(`SELECT id, name, entity_type, description, chunk_ordinals FROM entities`)
	if err != nil {
		return nil, fmt.Errorf("graphstore: query entities: %w", err)
	}
	defer entityRows.Close()
	for entityRows.Next() {
		var e retrieval.Entity
		var ordinals string
		if err := entityRows.Scan(&e.ID, &e.Name, &e.Type, &e.Description, &ordinals); err != nil {
			return nil, fmt.Errorf("graphstore: scan entity: %w", err)
		}
		e.ChunkOrdinals = splitInts(ordinals)
		graph.Entities[e.ID] = e
	}
	if err := entityRows.Err(); err != nil {
		return nil, err
	}

	relRows, err := s.db.Query(`SELECT source_id, target_id, strength FROM relationships`)
	if err != nil {
		return nil, fmt.Errorf("graphstore: query relationships: %w", err)
	}
	defer relRows.Close()
	for relRows.Next() {
		var r retrieval.Relationship
		if err := relRows.Scan(&r.SourceID, &r.TargetID, &r.Strength); err != nil {
			return nil, fmt.Errorf("graphstore: scan relationship: %w", err)
		}
		graph.Relationships = append(graph.Relationships, r)
	}
	if err := relRows.Err(); err != nil {
		return nil, err
	}

	commRows, err := s.db.Query(`SELECT id, level, title, summary, members, embedding FROM communities`)
	if err != nil {
		return nil, fmt.Errorf("graphstore: query communities: %w", err)
	}
	defer commRows.Close()
	for commRows.Next() {
		var c retrieval.Community
		var members string
		var embedding []byte
		if err := commRows.Scan(&c.ID, &c.Level, &c.Title, &c.Summary, &members, &embedding); err != nil {
			return nil, fmt.Errorf("graphstore: scan community: %w", err)
		}
		if members != "" {
			c.Members = strings.Split(members, ",")
		}
		c.Embedding = decodeVector(embedding)
		graph.Communities = append(graph.Communities, c)
	}
	if err := commRows.Err(); err != nil {
		return nil, err
	}

	chunkRows, err := s.db.Query(`SELECT chunk_key, entity_id FROM chunk_entities`)
	if err != nil {
		return nil, fmt.Errorf("graphstore: query chunk entities: %w", err)
	}
	defer chunkRows.Close()
	for chunkRows.Next() {
		var chunkKey, entityID string
		if err := chunkRows.Scan(&chunkKey, &entityID); err != nil {
			return nil, fmt.Errorf("graphstore: scan chunk entity: %w", err)
		}
		graph.ChunkEntities[chunkKey] = append(graph.ChunkEntities[chunkKey], entityID)
	}
	return graph, chunkRows.Err()
}
