package embedding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIEmbedderEncodeParsesResponse(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"embedding":[0.5,0.6],"index":0}]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("sk-test", "text-embedding-3-small")
	e.baseURL = srv.URL

	vec, err := e.Encode(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.6}, vec)
	assert.Equal(t, "Bearer sk-test", gotAuth)
}

func TestOpenAIEmbedderEncodeFailsOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("invalid key"))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("bad-key", "text-embedding-3-small")
	e.baseURL = srv.URL

	_, err := e.Encode(context.Background(), "hello")
	assert.Error(t, err)
}

func TestOpenAIEmbedderEncodeFailsOnEmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("sk-test", "text-embedding-3-small")
	e.baseURL = srv.URL

	_, err := e.Encode(context.Background(), "hello")
	assert.Error(t, err)
}

func TestOpenAIEmbedderDimensionsByModel(t *testing.T) {
	assert.Equal(t, 3072, NewOpenAIEmbedder("", "text-embedding-3-large").Dimensions())
	assert.Equal(t, 1536, NewOpenAIEmbedder("", "text-embedding-3-small").Dimensions())
	assert.Equal(t, 1536, NewOpenAIEmbedder("", "text-embedding-ada-002").Dimensions())
}
