// Package embedding adapts external embedding services to retrieval.Embedder.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kunalkushwaha/agentflow/internal/resilience"
	"github.com/kunalkushwaha/agentflow/retrieval"
)

// OllamaEmbedder implements retrieval.Embedder against a local Ollama
// server's /api/embeddings endpoint.
type OllamaEmbedder struct {
	model   string
	baseURL string
	client  *http.Client
	retrier *resilience.Retrier
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewOllamaEmbedder builds an embedder against baseURL (defaulting to
// http://localhost:11434 when empty) using the given model.
func NewOllamaEmbedder(model, baseURL string) *OllamaEmbedder {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaEmbedder{
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
		retrier: resilience.NewRetrier(nil),
	}
}

// Encode implements retrieval.Embedder. The request is retried on transient
// failures (connection errors, non-2xx status, malformed response).
func (o *OllamaEmbedder) Encode(ctx context.Context, text string) ([]float32, error) {
	var embedding []float32
	result := o.retrier.Execute(ctx, func() error {
		out, err := o.encodeOnce(ctx, text)
		if err != nil {
			return err
		}
		embedding = out
		return nil
	})
	if !result.Success {
		return nil, result.LastError
	}
	return embedding, nil
}

func (o *OllamaEmbedder) encodeOnce(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(ollamaEmbeddingRequest{Model: o.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal ollama request: %v", retrieval.ErrExternalFailure, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("%w: build ollama request: %v", retrieval.ErrExternalFailure, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: ollama request: %v", retrieval.ErrExternalFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read ollama response: %v", retrieval.ErrExternalFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: ollama status %d: %s", retrieval.ErrExternalFailure, resp.StatusCode, string(body))
	}

	var parsed ollamaEmbeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parse ollama response: %v", retrieval.ErrExternalFailure, err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, fmt.Errorf("%w: ollama returned no embedding", retrieval.ErrExternalFailure)
	}
	return parsed.Embedding, nil
}

// dimensionsFor returns the known vector width for a model name, used by
// vectorstore backends that must declare a schema dimension up front.
func dimensionsFor(model string) int {
	switch {
	case strings.Contains(model, "nomic-embed"):
		return 768
	default:
		return 1024 // mxbai-embed-large and friends
	}
}

// Dimensions reports the embedding width this model produces.
func (o *OllamaEmbedder) Dimensions() int {
	return dimensionsFor(o.model)
}
