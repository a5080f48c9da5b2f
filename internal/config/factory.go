package config

import "github.com/kunalkushwaha/agentflow/retrieval"

// NewValidator builds the validator used by both `brainctl config validate`
// and ConfigReloader.
func NewValidator() *DefaultConfigValidator {
	return NewDefaultConfigValidator()
}

// ToBrainConfig projects the brain.* section of a loaded file into the
// retrieval package's own Config shape, decoupling retrieval from the TOML
// schema.
func (c *FileConfig) ToBrainConfig() retrieval.Config {
	return retrieval.Config{
		UseUnifiedBrain:    c.Brain.UseUnifiedBrain,
		UseQueryRouting:    c.Brain.UseQueryRouting,
		UseHybridSearch:    c.Brain.UseHybridSearch,
		HybridVectorWeight: c.Brain.HybridVectorWeight,
		UseMemory:          c.Brain.UseMemory,
		ChunkSize:          c.Brain.ChunkSize,
		GraphRAGEnabled:    c.Brain.GraphRAGEnabled,
	}
}
