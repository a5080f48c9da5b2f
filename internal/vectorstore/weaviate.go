package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"github.com/weaviate/weaviate/entities/schema"

	"github.com/kunalkushwaha/agentflow/internal/resilience"
	"github.com/kunalkushwaha/agentflow/retrieval"
)

// WeaviateIndex implements retrieval.VectorIndex against a Weaviate class.
// It stores our opaque chunk fingerprint in a dedicated "item_id" property
// rather than relying on Weaviate's own UUIDs, so lookups stay keyed the
// way the rest of the brain expects.
type WeaviateIndex struct {
	client    *weaviate.Client
	className string
	embedder  retrieval.Embedder
	logger    zerolog.Logger
	breaker   *resilience.CircuitBreaker
}

// WeaviateConfig holds connection and schema options for a WeaviateIndex.
type WeaviateConfig struct {
	Host       string
	Scheme     string
	APIKey     string
	ClassName  string
	Dimensions int
}

// NewWeaviateIndex connects to Weaviate and ensures the configured class
// exists, creating it with vectorizer "none" (embeddings are supplied by
// the caller's Embedder, never computed by Weaviate itself).
func NewWeaviateIndex(ctx context.Context, cfg WeaviateConfig, embedder retrieval.Embedder, logger zerolog.Logger) (*WeaviateIndex, error) {
	if cfg.ClassName == "" {
		return nil, errors.New("weaviate class name cannot be empty")
	}
	if cfg.Dimensions <= 0 {
		return nil, errors.New("vector dimensions must be positive")
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required for WeaviateIndex", retrieval.ErrExternalFailure)
	}

	clientConfig := weaviate.Config{Host: cfg.Host, Scheme: cfg.Scheme}
	if cfg.APIKey != "" {
		clientConfig.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}

	client, err := weaviate.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: create weaviate client: %v", retrieval.ErrExternalFailure, err)
	}

	idx := &WeaviateIndex{client: client, className: cfg.ClassName, embedder: embedder, logger: logger, breaker: resilience.NewCircuitBreaker(nil)}
	if err := idx.ensureClassExists(ctx); err != nil {
		return nil, fmt.Errorf("%w: ensure weaviate class %q: %v", retrieval.ErrExternalFailure, cfg.ClassName, err)
	}
	return idx, nil
}

func (w *WeaviateIndex) ensureClassExists(ctx context.Context) error {
	exists, err := w.client.Schema().ClassGetter().WithClassName(w.className).Do(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Str("class", w.className).Msg("failed to check weaviate class existence, attempting creation")
	}
	if exists != nil {
		return nil
	}

	classObj := &models.Class{
		Class:       w.className,
		Description: "Stores chunk embeddings and metadata for knowledge retrieval",
		Vectorizer:  "none",
		VectorIndexConfig: map[string]interface{}{
			"distance": "cosine",
		},
		Properties: []*models.Property{
			{
				Name:            "item_id",
				DataType:        []string{string(schema.DataTypeText)},
				Description:     "The chunk fingerprint",
				IndexFilterable: &[]bool{true}[0],
				IndexSearchable: &[]bool{false}[0],
			},
			{
				Name:     "text",
				DataType: []string{string(schema.DataTypeText)},
			},
		},
	}
	return w.client.Schema().ClassCreator().WithClass(classObj).Do(ctx)
}

// Add implements retrieval.VectorIndex: upsert-by-delete-then-create, since
// Weaviate has no native upsert when the caller supplies its own ID scheme.
func (w *WeaviateIndex) Add(ctx context.Context, id, text string, metadata map[string]string) error {
	embedding, err := w.embedder.Encode(ctx, text)
	if err != nil {
		return fmt.Errorf("%w: encode chunk %s: %v", retrieval.ErrExternalFailure, id, err)
	}

	properties := make(map[string]interface{}, len(metadata)+2)
	properties["item_id"] = id
	properties["text"] = text
	for k, v := range metadata {
		prop := sanitizePropertyName(k)
		if prop == "item_id" || prop == "text" {
			continue
		}
		properties[prop] = v
	}

	if delErr := w.deleteByID(ctx, id); delErr != nil {
		w.logger.Warn().Err(delErr).Str("id", id).Msg("failed to delete existing weaviate objects before store")
	}
	_, err = w.client.Data().Creator().
		WithClassName(w.className).
		WithProperties(properties).
		WithVector(embedding).
		Do(ctx)
	if err == nil {
		return nil
	}

	w.logger.Warn().Err(err).Str("id", id).Msg("initial weaviate store failed, retrying as delete then create")
	if delErr := w.deleteByID(ctx, id); delErr != nil {
		return fmt.Errorf("%w: store %s failed and delete retry failed: %v (%v)", retrieval.ErrExternalFailure, id, err, delErr)
	}
	_, err = w.client.Data().Creator().
		WithClassName(w.className).
		WithProperties(properties).
		WithVector(embedding).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: store %s after delete retry: %v", retrieval.ErrExternalFailure, id, err)
	}
	return nil
}

func (w *WeaviateIndex) deleteByID(ctx context.Context, itemID string) error {
	where := filters.Where().
		WithPath([]string{"item_id"}).
		WithOperator(filters.Equal).
		WithValueText(itemID)

	result, err := w.client.Batch().ObjectsBatchDeleter().
		WithClassName(w.className).
		WithWhere(where).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("batch delete for item_id %s: %w", itemID, err)
	}
	if result != nil && result.Results != nil && result.Results.Failed > 0 {
		return fmt.Errorf("failed to delete %d objects for item_id %s", result.Results.Failed, itemID)
	}
	return nil
}

// Search implements retrieval.VectorIndex via a nearVector GraphQL query.
func (w *WeaviateIndex) Search(ctx context.Context, query string, maxResults int, threshold float64) ([]retrieval.VectorHit, error) {
	embedding, err := w.embedder.Encode(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", retrieval.ErrExternalFailure, err)
	}

	fields := []graphql.Field{
		{Name: "item_id"},
		{Name: "text"},
		{Name: "source"},
		{Name: "chunk_index"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "distance"},
		}},
	}

	nearVector := w.client.GraphQL().NearVectorArgBuilder().WithVector(embedding)
	var resp *models.GraphQLResponse
	err = w.breaker.Call(func() error {
		r, queryErr := w.client.GraphQL().Get().
			WithClassName(w.className).
			WithFields(fields...).
			WithNearVector(nearVector).
			WithLimit(maxResults).
			Do(ctx)
		resp = r
		return queryErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: weaviate query: %v", retrieval.ErrExternalFailure, err)
	}

	getData, ok := resp.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: unexpected weaviate response shape", retrieval.ErrExternalFailure)
	}
	classData, _ := getData[w.className].([]interface{})

	var hits []retrieval.VectorHit
	for _, item := range classData {
		itemMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		id, _ := itemMap["item_id"].(string)
		text, _ := itemMap["text"].(string)
		source, _ := itemMap["source"].(string)
		if id == "" {
			continue
		}

		// Weaviate reports cosine distance; similarity = 1 - distance.
		similarity := 0.0
		if additional, ok := itemMap["_additional"].(map[string]interface{}); ok {
			if dist, ok := additional["distance"].(float64); ok {
				similarity = 1 - dist
			}
		}
		if similarity < threshold {
			continue
		}

		chunkIndex := 0
		if raw, ok := itemMap["chunk_index"].(string); ok {
			chunkIndex, _ = strconv.Atoi(raw)
		}

		hits = append(hits, retrieval.VectorHit{
			ID:        id,
			Text:      text,
			Score:     similarity,
			Source:    source,
			ItemIndex: chunkIndex,
		})
	}
	return hits, nil
}

// sanitizePropertyName converts a metadata key into a valid Weaviate
// property name: must start with a lowercase letter and contain only
// [a-zA-Z0-9_].
func sanitizePropertyName(key string) string {
	var b strings.Builder
	for i, r := range key {
		switch {
		case i == 0 && r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case i == 0:
			b.WriteString("prop_")
			if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
				b.WriteRune(r)
			} else {
				b.WriteRune('_')
			}
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	final := b.String()
	if final == "" || final == "prop_" {
		return "prop_unnamed"
	}
	return final
}
