//go:build !cgo

package embedding

import (
	"context"
	"errors"
)

// ONNXEmbedder is unavailable in builds without cgo; onnx.go has the real
// implementation.
type ONNXEmbedder struct{}

// NewONNXEmbedder always fails in non-cgo builds.
func NewONNXEmbedder(_ string, _, _, _ int) (*ONNXEmbedder, error) {
	return nil, errors.New("onnx embedder requires cgo and an onnxruntime install")
}

var errONNXUnavailable = errors.New("onnx embedder requires cgo and an onnxruntime install")

// Embed is unreachable: NewONNXEmbedder never returns a usable value without cgo.
func (e *ONNXEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, errONNXUnavailable
}

// EmbedBatch is unreachable: NewONNXEmbedder never returns a usable value without cgo.
func (e *ONNXEmbedder) EmbedBatch(_ context.Context, _ []string) ([][]float32, error) {
	return nil, errONNXUnavailable
}

// Dimensions is unreachable: NewONNXEmbedder never returns a usable value without cgo.
func (e *ONNXEmbedder) Dimensions() int { return 0 }

// Close is unreachable: NewONNXEmbedder never returns a usable value without cgo.
func (e *ONNXEmbedder) Close() error { return nil }
