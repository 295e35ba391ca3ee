package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("document not found")
	ErrUnsupportedFormat  = errors.New("unsupported document format")
	ErrNoValidSources     = errors.New("no valid sources")
	ErrNoChunks           = errors.New("no text could be extracted from the sources")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrInvalidCollection  = errors.New("invalid collection name")
	ErrDimensionMismatch  = errors.New("vector dimension mismatch")
	ErrEmptyQuestion      = errors.New("empty question")
)

// IngestionError reports a failed ingestion run.
type IngestionError struct {
	Err error
}

func (e *IngestionError) Error() string { return fmt.Sprintf("ingestion failed: %v", e.Err) }

func (e *IngestionError) Unwrap() error { return e.Err }

// StorageError reports a failure of the vector index.
type StorageError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Collection, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// RetrievalError reports a failed lookup of grounding context.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string { return fmt.Sprintf("retrieval failed: %v", e.Err) }

func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError is the single error surfaced by the question answering
// boundary. Its message never carries the cause; use errors.Unwrap for that.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return "unable to answer the question" }

func (e *GenerationError) Unwrap() error { return e.Err }
