// Package embedding provides the embedding collaborator: text to
// fixed-dimension vectors, via ONNX Runtime when available, with an LRU
// cache and a deterministic mock for tests. Failures are classified as
// transient or permanent so the pipeline's retry policy can act on them.
package embedding

import (
	"context"
	"fmt"
	"math"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// ErrorKind classifies embedding failures for the retry policy.
type ErrorKind string

// Embedding failure kinds.
const (
	KindTransient ErrorKind = "transient"
	KindPermanent ErrorKind = "permanent"
)

// Error is an embedding failure with a kind for retry classification.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("embedding (%s): %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Transient reports whether the failure may succeed on retry.
func (e *Error) Transient() bool { return e.Kind == KindTransient }

// NormalizeL2Slice normalizes the slice in place to unit L2 norm.
// A zero vector is left unchanged.
func NormalizeL2Slice(x []float32) {
	var sum float32
	for _, v := range x {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range x {
		x[i] *= norm
	}
}
