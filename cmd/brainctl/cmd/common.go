package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kunalkushwaha/agentflow/internal/config"
	"github.com/kunalkushwaha/agentflow/internal/embedding"
	"github.com/kunalkushwaha/agentflow/internal/graphstore"
	"github.com/kunalkushwaha/agentflow/internal/logging"
	"github.com/kunalkushwaha/agentflow/internal/vectorstore"
	"github.com/kunalkushwaha/agentflow/retrieval"
)

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path, _ = cmd.Root().PersistentFlags().GetString("config")
	}
	if path == "" {
		path = "brain.toml"
	}
	return path
}

func loadFileConfig(cmd *cobra.Command) (*config.FileConfig, error) {
	cfg, err := config.LoadConfig(configPath(cmd))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verrs := config.NewValidator().ValidateConfig(cfg); len(verrs) > 0 {
		return nil, fmt.Errorf("invalid config: %s", verrs[0].Error())
	}
	return cfg, nil
}

func buildLogger(cfg *config.FileConfig) zerolog.Logger {
	level := logging.INFO
	switch cfg.Logging.Level {
	case "debug":
		level = logging.DEBUG
	case "warn":
		level = logging.WARN
	case "error":
		level = logging.ERROR
	}
	logging.SetLogLevel(level)
	return *logging.GetLogger()
}

// buildEmbedder constructs the configured retrieval.Embedder. It never
// returns an error: the dummy provider is the universal fallback.
func buildEmbedder(cfg *config.FileConfig) retrieval.Embedder {
	switch cfg.Embedding.Provider {
	case "ollama":
		return embedding.NewOllamaEmbedder(cfg.Embedding.Model, cfg.Embedding.BaseURL)
	case "openai":
		return embedding.NewOpenAIEmbedder(cfg.Embedding.APIKey, cfg.Embedding.Model)
	default:
		return embedding.NewDummyEmbedder(cfg.VectorStore.Dimensions)
	}
}

// buildVectorIndex constructs the configured retrieval.VectorIndex. The
// pgvector and weaviate backends return an error when their store cannot be
// set up; any other backend yields an in-memory index over embedder.
func buildVectorIndex(ctx context.Context, cfg *config.FileConfig, embedder retrieval.Embedder, logger zerolog.Logger) (retrieval.VectorIndex, error) {
	switch cfg.VectorStore.Backend {
	case "pgvector":
		idx, err := vectorstore.NewPgVectorIndex(ctx, cfg.VectorStore.Connection, cfg.VectorStore.Dimensions, embedder)
		if err != nil {
			return nil, err
		}
		return idx, nil
	case "weaviate":
		idx, err := vectorstore.NewWeaviateIndex(ctx, vectorstore.WeaviateConfig{
			Host:       cfg.VectorStore.Connection,
			Scheme:     "http",
			ClassName:  cfg.VectorStore.ClassName,
			Dimensions: cfg.VectorStore.Dimensions,
		}, embedder, logger)
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return vectorstore.NewInMemoryIndex(embedder), nil
	}
}

// buildGraph loads the knowledge graph from its SQLite store when
// graph-backed retrieval is enabled. A missing database file is not an
// error: graph expansion simply runs against an empty graph until one is
// populated out of band.
func buildGraph(cfg *config.FileConfig, logger zerolog.Logger) *retrieval.KnowledgeGraph {
	if !cfg.Brain.GraphRAGEnabled || cfg.Brain.GraphDBPath == "" {
		return nil
	}
	store, err := graphstore.Open(cfg.Brain.GraphDBPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.Brain.GraphDBPath).Msg("graph store unavailable, disabling graph expansion")
		return nil
	}
	defer store.Close()

	graph, err := store.Load()
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.Brain.GraphDBPath).Msg("failed to load knowledge graph, disabling graph expansion")
		return nil
	}
	return graph
}

func buildBrain(ctx context.Context, cfg *config.FileConfig, logger zerolog.Logger) (*retrieval.KnowledgeBrain, error) {
	var vector retrieval.VectorIndex
	if cfg.Brain.UseHybridSearch {
		embedder := buildEmbedder(cfg)
		idx, err := buildVectorIndex(ctx, cfg, embedder, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("vector index unavailable, falling back to keyword-only search")
		} else {
			vector = idx
		}
	}

	graph := buildGraph(cfg, logger)
	brain := retrieval.NewKnowledgeBrain(cfg.Memory.Dir, vector, graph, cfg.Brain.ChunkSize, logger)
	if err := brain.Load(); err != nil {
		return nil, fmt.Errorf("load brain snapshot: %w", err)
	}
	return brain, nil
}

func buildMemory(cfg *config.FileConfig, logger zerolog.Logger) *retrieval.UnifiedMemory {
	var embedder retrieval.Embedder
	if cfg.Brain.UseHybridSearch {
		embedder = buildEmbedder(cfg)
	}
	mem := retrieval.NewUnifiedMemory(cfg.Memory.Dir, embedder, logger)
	mem.Load()
	return mem
}

func categoryFlag(raw string) retrieval.Category {
	switch raw {
	case "email":
		return retrieval.CategoryEmail
	case "notes":
		return retrieval.CategoryNotes
	case "documents":
		return retrieval.CategoryDocuments
	case "calendar":
		return retrieval.CategoryCalendar
	case "messages":
		return retrieval.CategoryMessages
	case "web":
		return retrieval.CategoryWeb
	default:
		return retrieval.CategoryOther
	}
}
