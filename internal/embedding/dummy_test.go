package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDummyEmbedderDefaultsDimensions(t *testing.T) {
	e := NewDummyEmbedder(0)
	assert.Equal(t, 1536, e.Dimensions())
}

func TestDummyEmbedderProducesRequestedWidth(t *testing.T) {
	e := NewDummyEmbedder(32)
	vec, err := e.Encode(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Len(t, vec, 32)
}

func TestDummyEmbedderIsDeterministicPerText(t *testing.T) {
	e := NewDummyEmbedder(16)
	v1, err := e.Encode(context.Background(), "same text")
	require.NoError(t, err)
	v2, err := e.Encode(context.Background(), "same text")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestDummyEmbedderDiffersAcrossText(t *testing.T) {
	e := NewDummyEmbedder(16)
	v1, _ := e.Encode(context.Background(), "text a")
	v2, _ := e.Encode(context.Background(), "text b")
	assert.NotEqual(t, v1, v2)
}
