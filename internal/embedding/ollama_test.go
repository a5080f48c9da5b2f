package embedding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEmbedderDefaultsBaseURL(t *testing.T) {
	e := NewOllamaEmbedder("nomic-embed-text", "")
	assert.Equal(t, "http://localhost:11434", e.baseURL)
}

func TestOllamaEmbedderEncodeParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"embedding":[0.1,0.2,0.3]}`))
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("nomic-embed-text", srv.URL)
	vec, err := e.Encode(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestOllamaEmbedderEncodeFailsOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("nomic-embed-text", srv.URL)
	_, err := e.Encode(context.Background(), "hello")
	assert.Error(t, err)
}

func TestOllamaEmbedderEncodeFailsOnEmptyEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embedding":[]}`))
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("nomic-embed-text", srv.URL)
	_, err := e.Encode(context.Background(), "hello")
	assert.Error(t, err)
}

func TestOllamaEmbedderDimensionsByModel(t *testing.T) {
	assert.Equal(t, 768, NewOllamaEmbedder("nomic-embed-text", "").Dimensions())
	assert.Equal(t, 1024, NewOllamaEmbedder("mxbai-embed-large", "").Dimensions())
}
