package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kunalkushwaha/agentflow/internal/resilience"
	"github.com/kunalkushwaha/agentflow/retrieval"
)

// OpenAIEmbedder implements retrieval.Embedder against the OpenAI
// embeddings API.
type OpenAIEmbedder struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	retrier *resilience.Retrier
}

type openAIEmbeddingRequest struct {
	Input          []string `json:"input"`
	Model          string   `json:"model"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// NewOpenAIEmbedder builds an embedder for the given model, authenticating
// with apiKey.
func NewOpenAIEmbedder(apiKey, model string) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://api.openai.com/v1/embeddings",
		client:  &http.Client{Timeout: 30 * time.Second},
		retrier: resilience.NewRetrier(nil),
	}
}

// Encode implements retrieval.Embedder. The request is retried on transient
// failures (connection errors, non-2xx status, malformed response).
func (o *OpenAIEmbedder) Encode(ctx context.Context, text string) ([]float32, error) {
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

func (o *OpenAIEmbedder) encodeOnce(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(openAIEmbeddingRequest{
		Input:          []string{text},
		Model:          o.model,
		EncodingFormat: "float",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal openai request: %v", retrieval.ErrExternalFailure, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("%w: build openai request: %v", retrieval.ErrExternalFailure, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: openai request: %v", retrieval.ErrExternalFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read openai response: %v", retrieval.ErrExternalFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: openai status %d: %s", retrieval.ErrExternalFailure, resp.StatusCode, string(body))
	}

	var parsed openAIEmbeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parse openai response: %v", retrieval.ErrExternalFailure, err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("%w: openai returned no embeddings", retrieval.ErrExternalFailure)
	}
	return parsed.Data[0].Embedding, nil
}

// Dimensions reports the embedding width for the configured model.
func (o *OpenAIEmbedder) Dimensions() int {
	switch o.model {
	case "text-embedding-3-large":
		return 3072
	default:
		return 1536 // text-embedding-3-small, text-embedding-ada-002
	}
}
