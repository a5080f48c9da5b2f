package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/kunalkushwaha/agentflow/retrieval"
	"github.com/stretchr/testify/assert"
)

func TestNewPgVectorIndexRequiresEmbedder(t *testing.T) {
	_, err := NewPgVectorIndex(context.Background(), "postgres://localhost/test", 1536, nil)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, retrieval.ErrExternalFailure))
}

func TestNewPgVectorIndexRequiresPositiveDimensions(t *testing.T) {
	_, err := NewPgVectorIndex(context.Background(), "postgres://localhost/test", 0, &stubEmbedder{})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, retrieval.ErrExternalFailure))
}
