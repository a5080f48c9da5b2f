package config

import "fmt"

// ValidationError names the offending field and what's wrong with it.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validVectorBackends = map[string]bool{
	"memory":   true,
	"pgvector": true,
	"weaviate": true,
}

var validEmbeddingProviders = map[string]bool{
	"dummy":  true,
	"ollama": true,
	"openai": true,
}

var validLogFormats = map[string]bool{
	"console": true,
	"json":    true,
}

// DefaultConfigValidator checks a FileConfig for internally-inconsistent or
// out-of-range values before it's handed to the rest of the engine.
type DefaultConfigValidator struct{}

// NewDefaultConfigValidator builds the validator.
func NewDefaultConfigValidator() *DefaultConfigValidator {
	return &DefaultConfigValidator{}
}

// ValidateConfig runs every section's checks and accumulates all failures
// rather than stopping at the first one, so `brainctl config validate`
// can report everything wrong with a file in one pass.
func (v *DefaultConfigValidator) ValidateConfig(cfg *FileConfig) []ValidationError {
	var errs []ValidationError
	errs = append(errs, v.validateBrain(cfg)...)
	errs = append(errs, v.validateLogging(cfg)...)
	errs = append(errs, v.validateBudget(cfg)...)
	errs = append(errs, v.validateVectorStore(cfg)...)
	errs = append(errs, v.validateEmbedding(cfg)...)
	return errs
}

func (v *DefaultConfigValidator) validateBrain(cfg *FileConfig) []ValidationError {
	var errs []ValidationError
	if cfg.Brain.ChunkSize <= 0 {
		errs = append(errs, ValidationError{"brain.chunk_size", "must be positive"})
	}
	if cfg.Brain.HybridVectorWeight < 0 || cfg.Brain.HybridVectorWeight > 1 {
		errs = append(errs, ValidationError{"brain.hybrid_vector_weight", "must be between 0 and 1"})
	}
	if cfg.Brain.GraphRAGEnabled && !cfg.Brain.UseHybridSearch {
		errs = append(errs, ValidationError{"brain.graph_rag_enabled", "requires use_hybrid_search"})
	}
	return errs
}

func (v *DefaultConfigValidator) validateLogging(cfg *FileConfig) []ValidationError {
	var errs []ValidationError
	if cfg.Logging.Format != "" && !validLogFormats[cfg.Logging.Format] {
		errs = append(errs, ValidationError{"logging.format", fmt.Sprintf("unknown format %q", cfg.Logging.Format)})
	}
	return errs
}

func (v *DefaultConfigValidator) validateBudget(cfg *FileConfig) []ValidationError {
	var errs []ValidationError
	if cfg.Budget.TotalTokens <= 0 {
		errs = append(errs, ValidationError{"budget.total_tokens", "must be positive"})
	}
	return errs
}

func (v *DefaultConfigValidator) validateVectorStore(cfg *FileConfig) []ValidationError {
	var errs []ValidationError
	if !validVectorBackends[cfg.VectorStore.Backend] {
		errs = append(errs, ValidationError{"vector_store.backend", fmt.Sprintf("unknown backend %q", cfg.VectorStore.Backend)})
	}
	if cfg.VectorStore.Backend != "memory" && cfg.VectorStore.Connection == "" {
		errs = append(errs, ValidationError{"vector_store.connection", "required for non-memory backends"})
	}
	if cfg.VectorStore.Backend == "weaviate" && cfg.VectorStore.ClassName == "" {
		errs = append(errs, ValidationError{"vector_store.class_name", "required for weaviate backend"})
	}
	if cfg.VectorStore.Dimensions <= 0 {
		errs = append(errs, ValidationError{"vector_store.dimensions", "must be positive"})
	}
	return errs
}

func (v *DefaultConfigValidator) validateEmbedding(cfg *FileConfig) []ValidationError {
	var errs []ValidationError
	if !validEmbeddingProviders[cfg.Embedding.Provider] {
		errs = append(errs, ValidationError{"embedding.provider", fmt.Sprintf("unknown provider %q", cfg.Embedding.Provider)})
	}
	if cfg.Embedding.Provider == "openai" && cfg.Embedding.APIKey == "" {
		errs = append(errs, ValidationError{"embedding.api_key", "required for openai provider"})
	}
	return errs
}
