package domain

import "context"

// Page is the raw text of one page of a source document.
type Page struct {
	Number int
	Text   string
}

// Document represents a single source file loaded into the system.
// Source is the path the document was loaded from and doubles as its identity.
type Document struct {
	Source string
	Pages  []Page
}

// Chunk is a bounded span of a document used as the unit of retrieval.
type Chunk struct {
	Source string
	Page   int
	Index  int
	Text   string
}

// Payload is what the vector index keeps next to each vector for later display.
type Payload struct {
	Text   string
	Source string
	Page   int
	Index  int
}

// Fragment is an embedded chunk as persisted by a VectorIndex.
type Fragment struct {
	Vector  []float32
	Payload Payload
}

// ScoredFragment is a fragment returned by a query, closest first.
type ScoredFragment struct {
	Fragment
	Distance float64
}

// Answer is the outcome of a grounded question. Refused is set when the model
// returned the refusal message; Text then holds exactly that message.
type Answer struct {
	Text    string
	Sources []string
	Refused bool
}

// NewFragment pairs a chunk with its vector.
func NewFragment(c Chunk, vector []float32) Fragment {
	return Fragment{
		Vector:  vector,
		Payload: Payload{Text: c.Text, Source: c.Source, Page: c.Page, Index: c.Index},
	}
}

// Loader reads a document from storage. A missing file yields ErrNotFound and an
// unknown format ErrUnsupportedFormat.
type Loader interface {
	Load(ctx context.Context, path string) (Document, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) []Chunk
}

// Embedder converts free text into fixed-length vectors.
// Implementations must be deterministic for a fixed model.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension returns the vector length, or 0 while it is still unknown.
	Dimension() int
}

// VectorIndex persists fragments in named collections and serves
// nearest-neighbour queries.
type VectorIndex interface {
	// Write stores fragments in collection. With recreate the collection is
	// replaced as a whole, otherwise fragments are appended.
	Write(ctx context.Context, collection string, fragments []Fragment, recreate bool) error
	// Query returns up to k fragments ranked by ascending distance to vector.
	Query(ctx context.Context, collection string, vector []float32, k int) ([]ScoredFragment, error)
}

// LanguageModel completes a prompt.
type LanguageModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
