package openai

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"oracle/internal/embedding"
)

const (
	DefaultModel     = string(goopenai.SmallEmbedding3)
	DefaultBatchSize = 64
)

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
	BatchSize int
}

// Embedder calls an OpenAI-compatible /embeddings endpoint.
type Embedder struct {
	client    *goopenai.Client
	model     goopenai.EmbeddingModel
	batchSize int
	dim       *embedding.DimensionLock
}

// NewEmbedder creates a new embeddings client using the provided configuration.
func NewEmbedder(cfg Config) (*Embedder, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	oc := goopenai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Embedder{
		client:    goopenai.NewClientWithConfig(oc),
		model:     goopenai.EmbeddingModel(cfg.Model),
		batchSize: cfg.BatchSize,
		dim:       embedding.NewDimensionLock(0),
	}, nil
}

// Dimension is learned from the first response.
func (e *Embedder) Dimension() int { return e.dim.Get() }

// Embed returns an embedding vector for the given text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch sends texts in requests of at most batchSize inputs and returns
// vectors in input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		batch := texts[start:end]
		resp, err := e.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
			Input: batch,
			Model: e.model,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embeddings: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(batch))
		}
		vectors := make([][]float32, len(batch))
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(batch) || vectors[d.Index] != nil {
				return nil, fmt.Errorf("openai embeddings: unexpected index %d", d.Index)
			}
			vectors[d.Index] = d.Embedding
		}
		if err := e.dim.Check(vectors...); err != nil {
			return nil, fmt.Errorf("openai embeddings: %w", err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}
