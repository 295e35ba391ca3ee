package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"oracle/internal/domain"
)

// DefaultBatchSize bounds how many chunks go to the embedder per call.
const DefaultBatchSize = 64

// Report summarises one ingestion run.
type Report struct {
	Documents int
	Chunks    int
	// Missing lists sources that could not be loaded.
	Missing []string
	// Empty lists sources that loaded but produced no text.
	Empty []string
}

// Ingestor builds a collection from scratch out of a set of source files.
type Ingestor struct {
	loader     domain.Loader
	chunker    domain.Chunker
	embedder   domain.Embedder
	index      domain.VectorIndex
	collection string
	batchSize  int
	log        zerolog.Logger
}

func NewIngestor(loader domain.Loader, chunker domain.Chunker, embedder domain.Embedder, index domain.VectorIndex, collection string, batchSize int, log zerolog.Logger) *Ingestor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Ingestor{
		loader:     loader,
		chunker:    chunker,
		embedder:   embedder,
		index:      index,
		collection: collection,
		batchSize:  batchSize,
		log:        log,
	}
}

// Ingest loads, chunks and embeds every path and replaces the collection with
// the result. Paths may be glob patterns. Sources that cannot be loaded are
// skipped with a warning. The collection is left untouched on any error.
func (s *Ingestor) Ingest(ctx context.Context, paths []string) (Report, error) {
	var report Report
	var chunks []domain.Chunk
	for _, path := range expand(paths) {
		doc, err := s.loader.Load(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return report, &domain.IngestionError{Err: ctx.Err()}
			}
			ev := s.log.Warn().Err(err).Str("path", path)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				ev.Msg("source not found, skipping")
			case errors.Is(err, domain.ErrUnsupportedFormat):
				ev.Msg("unsupported source format, skipping")
			default:
				ev.Msg("source unreadable, skipping")
			}
			report.Missing = append(report.Missing, path)
			continue
		}
		report.Documents++
		docChunks := s.chunker.Chunk(doc)
		if len(docChunks) == 0 {
			s.log.Warn().Str("path", path).Int("pages", len(doc.Pages)).Msg("no text extracted, skipping")
			report.Empty = append(report.Empty, path)
			continue
		}
		s.log.Info().Str("path", path).Int("pages", len(doc.Pages)).Int("chunks", len(docChunks)).Msg("document chunked")
		chunks = append(chunks, docChunks...)
	}
	if report.Documents == 0 {
		return report, &domain.IngestionError{Err: domain.ErrNoValidSources}
	}
	if len(chunks) == 0 {
		return report, &domain.IngestionError{Err: domain.ErrNoChunks}
	}

	fragments, err := s.embed(ctx, chunks)
	if err != nil {
		return report, &domain.IngestionError{Err: err}
	}
	if err := s.index.Write(ctx, s.collection, fragments, true); err != nil {
		return report, &domain.IngestionError{Err: err}
	}
	report.Chunks = len(fragments)
	s.log.Info().
		Str("collection", s.collection).
		Int("documents", report.Documents).
		Int("chunks", report.Chunks).
		Int("missing", len(report.Missing)).
		Msg("ingestion completed")
	return report, nil
}

func (s *Ingestor) embed(ctx context.Context, chunks []domain.Chunk) ([]domain.Fragment, error) {
	fragments := make([]domain.Fragment, 0, len(chunks))
	for start := 0; start < len(chunks); start += s.batchSize {
		batch := chunks[start:min(start+s.batchSize, len(chunks))]
		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start, start+len(batch), err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("embed chunks %d-%d: got %d vectors", start, start+len(batch), len(vectors))
		}
		for i, c := range batch {
			fragments = append(fragments, domain.NewFragment(c, vectors[i]))
		}
		s.log.Debug().Int("done", len(fragments)).Int("total", len(chunks)).Msg("embedded batch")
	}
	return fragments, nil
}

// expand resolves glob patterns. A pattern matching nothing is kept as a
// literal path so it gets reported as missing.
func expand(paths []string) []string {
	out := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for _, p := range paths {
		matches, _ := filepath.Glob(p)
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			add(m)
		}
	}
	return out
}
