// Package vectorstore holds what the VectorIndex implementations share.
package vectorstore

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"oracle/internal/domain"
)

var collectionName = regexp.MustCompile(`^[A-Za-z0-9_-]{1,255}$`)

// ValidateCollection rejects names a backing store could not hold.
func ValidateCollection(op, name string) error {
	if !collectionName.MatchString(name) {
		return &domain.StorageError{Op: op, Collection: name, Err: domain.ErrInvalidCollection}
	}
	return nil
}

// Dimension returns the common length of the fragment vectors, or an error
// when they disagree. An empty batch has dimension 0.
func Dimension(fragments []domain.Fragment) (int, error) {
	dim := 0
	for i, f := range fragments {
		if len(f.Vector) == 0 {
			return 0, fmt.Errorf("fragment %d has no vector: %w", i, domain.ErrDimensionMismatch)
		}
		if dim == 0 {
			dim = len(f.Vector)
			continue
		}
		if len(f.Vector) != dim {
			return 0, fmt.Errorf("fragment %d has %d dimensions, want %d: %w", i, len(f.Vector), dim, domain.ErrDimensionMismatch)
		}
	}
	return dim, nil
}

// CosineDistance is 1 - cosine similarity. A zero vector is at distance 1 from everything.
func CosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// Rank orders scored fragments by ascending distance keeping insertion order
// for ties, and truncates to k.
func Rank(scored []domain.ScoredFragment, k int) []domain.ScoredFragment {
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Distance < scored[j].Distance })
	if k < len(scored) {
		scored = scored[:k]
	}
	return scored
}
