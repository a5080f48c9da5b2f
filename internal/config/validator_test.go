package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateConfigDefaultsAreValid(t *testing.T) {
	v := NewDefaultConfigValidator()
	assert.Empty(t, v.ValidateConfig(DefaultConfig()))
}

func TestValidateConfigCatchesOutOfRangeValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Brain.ChunkSize = 0
	cfg.Brain.HybridVectorWeight = 1.5
	cfg.Budget.TotalTokens = -1
	cfg.VectorStore.Backend = "sqlite"
	cfg.Embedding.Provider = "azure"

	v := NewDefaultConfigValidator()
	errs := v.ValidateConfig(cfg)

	fields := make(map[string]bool, len(errs))
	for _, e := range errs {
		fields[e.Field] = true
	}
	assert.True(t, fields["brain.chunk_size"])
	assert.True(t, fields["brain.hybrid_vector_weight"])
	assert.True(t, fields["budget.total_tokens"])
	assert.True(t, fields["vector_store.backend"])
	assert.True(t, fields["embedding.provider"])
}

func TestValidateConfigGraphRAGRequiresHybridSearch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Brain.UseHybridSearch = false
	cfg.Brain.GraphRAGEnabled = true

	v := NewDefaultConfigValidator()
	errs := v.ValidateConfig(cfg)

	found := false
	for _, e := range errs {
		if e.Field == "brain.graph_rag_enabled" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateConfigNonMemoryBackendRequiresConnection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VectorStore.Backend = "weaviate"
	cfg.VectorStore.ClassName = "BrainChunk"

	v := NewDefaultConfigValidator()
	errs := v.ValidateConfig(cfg)

	found := false
	for _, e := range errs {
		if e.Field == "vector_store.connection" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateConfigOpenAIRequiresAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Embedding.Provider = "openai"

	v := NewDefaultConfigValidator()
	errs := v.ValidateConfig(cfg)

	found := false
	for _, e := range errs {
		if e.Field == "embedding.api_key" {
			found = true
		}
	}
	assert.True(t, found)
}
