package service

import (
	"context"
	"fmt"
	"strings"

	"oracle/internal/domain"
)

// DefaultK is how many fragments a question retrieves.
const DefaultK = 4

// Retriever finds the fragments closest to a question.
type Retriever struct {
	embedder   domain.Embedder
	index      domain.VectorIndex
	collection string
	k          int
}

func NewRetriever(embedder domain.Embedder, index domain.VectorIndex, collection string, k int) *Retriever {
	if k <= 0 {
		k = DefaultK
	}
	return &Retriever{embedder: embedder, index: index, collection: collection, k: k}
}

// Retrieve embeds question and returns up to k fragments, closest first.
// Every call embeds and queries afresh.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]domain.ScoredFragment, error) {
	if strings.TrimSpace(question) == "" {
		return nil, &domain.RetrievalError{Err: domain.ErrEmptyQuestion}
	}
	vector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, &domain.RetrievalError{Err: fmt.Errorf("embed question: %w", err)}
	}
	fragments, err := r.index.Query(ctx, r.collection, vector, r.k)
	if err != nil {
		return nil, &domain.RetrievalError{Err: err}
	}
	return fragments, nil
}
