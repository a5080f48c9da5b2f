// Package config loads and validates brainctl's TOML configuration: the
// retrieval engine's toggles (§6), provider connection strings, and the
// ambient logging/budget settings every component shares.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig is the on-disk TOML shape of brain.toml. Field names mirror
// spec.md §6's recognized runtime options.
type FileConfig struct {
	Brain struct {
		UseUnifiedBrain    bool    `toml:"use_unified_brain"`
		UseQueryRouting    bool    `toml:"use_query_routing"`
		UseHybridSearch    bool    `toml:"use_hybrid_search"`
		HybridVectorWeight float64 `toml:"hybrid_vector_weight"`
		UseMemory          bool    `toml:"use_memory"`
		ChunkSize          int     `toml:"chunk_size"`
		GraphRAGEnabled    bool    `toml:"graph_rag_enabled"`
		GraphDBPath        string  `toml:"graph_db_path"`
	} `toml:"brain"`

	Logging struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"logging"`

	Budget struct {
		TotalTokens int `toml:"total_tokens"`
	} `toml:"budget"`

	VectorStore struct {
		Backend    string `toml:"backend"` // "memory", "pgvector", "weaviate"
		Connection string `toml:"connection"`
		ClassName  string `toml:"class_name"` // weaviate only
		Dimensions int    `toml:"dimensions"`
	} `toml:"vector_store"`

	Embedding struct {
		Provider string `toml:"provider"` // "ollama", "openai", "dummy"
		Model    string `toml:"model"`
		BaseURL  string `toml:"base_url"`
		APIKey   string `toml:"api_key"`
	} `toml:"embedding"`

	Memory struct {
		Dir string `toml:"dir"`
	} `toml:"memory"`
}

// DefaultConfig returns the baseline configuration applied before a TOML
// file's values are merged in, matching the defaults spec.md §6 names for
// each toggle.
func DefaultConfig() *FileConfig {
	cfg := &FileConfig{}
	cfg.Brain.UseUnifiedBrain = true
	cfg.Brain.UseQueryRouting = true
	cfg.Brain.UseHybridSearch = true
	cfg.Brain.HybridVectorWeight = 0.5
	cfg.Brain.UseMemory = true
	cfg.Brain.ChunkSize = 400
	cfg.Brain.GraphRAGEnabled = false
	cfg.Brain.GraphDBPath = "./brain_data/graph.db"
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "console"
	cfg.Budget.TotalTokens = 8192
	cfg.VectorStore.Backend = "memory"
	cfg.VectorStore.Dimensions = 1536
	cfg.Embedding.Provider = "dummy"
	cfg.Memory.Dir = "./brain_data"
	return cfg
}

// LoadConfig reads path and merges it over DefaultConfig. A missing file is
// not an error — callers get defaults, matching the teacher's
// "boot over missing/corrupt state" posture (§4.6 failure model).
func LoadConfig(path string) (*FileConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse TOML config %s: %w", path, err)
	}
	return cfg, nil
}
