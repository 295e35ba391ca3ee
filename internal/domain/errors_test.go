package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_GenerationError_HidesCause(t *testing.T) {
	cause := &RetrievalError{Err: &StorageError{Op: "query", Collection: "books", Err: ErrCollectionNotFound}}
	err := error(&GenerationError{Err: cause})

	assert.Equal(t, "unable to answer the question", err.Error())
	assert.NotContains(t, err.Error(), "books")
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	var re *RetrievalError
	assert.True(t, errors.As(err, &re))
	var se *StorageError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, "books", se.Collection)
}

func Test_StorageError_Message(t *testing.T) {
	err := &StorageError{Op: "write", Collection: "books", Err: ErrDimensionMismatch}
	assert.Equal(t, `storage write "books": vector dimension mismatch`, err.Error())
}

func Test_IngestionError_Unwrap(t *testing.T) {
	err := error(&IngestionError{Err: ErrNoValidSources})
	assert.ErrorIs(t, err, ErrNoValidSources)
	assert.Equal(t, "ingestion failed: no valid sources", err.Error())
}

func Test_NewFragment(t *testing.T) {
	f := NewFragment(Chunk{Source: "a.pdf", Page: 2, Index: 7, Text: "hello"}, []float32{1, 2})
	assert.Equal(t, Payload{Text: "hello", Source: "a.pdf", Page: 2, Index: 7}, f.Payload)
	assert.Equal(t, []float32{1, 2}, f.Vector)
}
