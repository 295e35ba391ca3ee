// Package llm holds what the language model adapters share.
package llm

import "errors"

// ErrEmptyCompletion is returned when a model produced no text.
var ErrEmptyCompletion = errors.New("empty completion")
