package config

// Overrides holds explicit, caller-supplied values that take precedence
// over whatever a TOML file says. Unlike the teacher's ConfigResolver
// (which layers environment variables between file and explicit override),
// this resolver's precedence chain is file -> explicit override only: the
// engine's Open Questions decision rules out environment-variable
// resolution for a local-first, single-user tool.
type Overrides struct {
	UseUnifiedBrain    *bool
	UseQueryRouting    *bool
	UseHybridSearch    *bool
	HybridVectorWeight *float64
	UseMemory          *bool
	ChunkSize          *int
	GraphRAGEnabled    *bool
}

// ConfigResolver applies Overrides on top of a loaded FileConfig.
type ConfigResolver struct {
	base *FileConfig
}

// NewConfigResolver builds a resolver around an already-loaded config.
func NewConfigResolver(base *FileConfig) *ConfigResolver {
	return &ConfigResolver{base: base}
}

// Resolve returns a copy of the base config with any non-nil override
// field applied. The base config is never mutated, so a caller can resolve
// multiple times against the same loaded file with different overrides.
func (r *ConfigResolver) Resolve(o Overrides) *FileConfig {
	resolved := *r.base

	if o.UseUnifiedBrain != nil {
		resolved.Brain.UseUnifiedBrain = *o.UseUnifiedBrain
	}
	if o.UseQueryRouting != nil {
		resolved.Brain.UseQueryRouting = *o.UseQueryRouting
	}
	if o.UseHybridSearch != nil {
		resolved.Brain.UseHybridSearch = *o.UseHybridSearch
	}
	if o.HybridVectorWeight != nil {
		resolved.Brain.HybridVectorWeight = *o.HybridVectorWeight
	}
	if o.UseMemory != nil {
		resolved.Brain.UseMemory = *o.UseMemory
	}
	if o.ChunkSize != nil {
		resolved.Brain.ChunkSize = *o.ChunkSize
	}
	if o.GraphRAGEnabled != nil {
		resolved.Brain.GraphRAGEnabled = *o.GraphRAGEnabled
	}

	return &resolved
}
