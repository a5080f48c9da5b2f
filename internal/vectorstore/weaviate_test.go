package vectorstore

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewWeaviateIndexRequiresClassName(t *testing.T) {
	_, err := NewWeaviateIndex(context.Background(), WeaviateConfig{Dimensions: 768}, &stubEmbedder{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewWeaviateIndexRequiresPositiveDimensions(t *testing.T) {
	_, err := NewWeaviateIndex(context.Background(), WeaviateConfig{ClassName: "Chunks"}, &stubEmbedder{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewWeaviateIndexRequiresEmbedder(t *testing.T) {
	_, err := NewWeaviateIndex(context.Background(), WeaviateConfig{ClassName: "Chunks", Dimensions: 768}, nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestSanitizePropertyNameKeepsLowercaseName(t *testing.T) {
	assert.Equal(t, "source", sanitizePropertyName("source"))
}

func TestSanitizePropertyNamePrefixesLeadingDigit(t *testing.T) {
	assert.Equal(t, "prop_1field", sanitizePropertyName("1field"))
}

func TestSanitizePropertyNameReplacesInvalidCharacters(t *testing.T) {
	assert.Equal(t, "chunk_index", sanitizePropertyName("chunk-index"))
}

func TestSanitizePropertyNameEmptyFallsBackToUnnamed(t *testing.T) {
	assert.Equal(t, "prop_unnamed", sanitizePropertyName(""))
}
