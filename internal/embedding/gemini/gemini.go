package gemini

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"oracle/internal/embedding"
)

const (
	DefaultModel = "text-embedding-004"
	// MaxBatchSize is the largest batch the API accepts.
	MaxBatchSize = 100
)

// Config configures the Gemini embedder.
type Config struct {
	APIKeyEnv string
	Model     string
	BatchSize int
}

// Embedder embeds text with a Gemini embedding model.
type Embedder struct {
	client    *genai.Client
	batchSize int
	dim       *embedding.DimensionLock
	call      func(ctx context.Context, texts []string) ([][]float32, error)
}

// NewEmbedder opens a Gemini client. Close releases it.
func NewEmbedder(ctx context.Context, cfg Config) (*Embedder, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "GEMINI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	model := client.EmbeddingModel(cfg.Model)
	model.TaskType = genai.TaskTypeRetrievalDocument

	e := newEmbedder(cfg.BatchSize, func(ctx context.Context, texts []string) ([][]float32, error) {
		b := model.NewBatch()
		for _, t := range texts {
			b.AddContent(genai.Text(t))
		}
		resp, err := model.BatchEmbedContents(ctx, b)
		if err != nil {
			return nil, err
		}
		out := make([][]float32, len(resp.Embeddings))
		for i, emb := range resp.Embeddings {
			if emb != nil {
				out[i] = emb.Values
			}
		}
		return out, nil
	})
	e.client = client
	return e, nil
}

func newEmbedder(batchSize int, call func(context.Context, []string) ([][]float32, error)) *Embedder {
	if batchSize <= 0 || batchSize > MaxBatchSize {
		batchSize = MaxBatchSize
	}
	return &Embedder{batchSize: batchSize, dim: embedding.NewDimensionLock(0), call: call}
}

func (e *Embedder) Dimension() int { return e.dim.Get() }

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		batch := texts[start:min(start+e.batchSize, len(texts))]
		vectors, err := e.call(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("gemini embeddings: %w", err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("gemini embeddings: got %d vectors for %d inputs", len(vectors), len(batch))
		}
		if err := e.dim.Check(vectors...); err != nil {
			return nil, fmt.Errorf("gemini embeddings: %w", err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// Close releases the underlying client.
func (e *Embedder) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}
