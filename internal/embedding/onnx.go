//go:build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXEmbedder runs a BERT-style encoder through ONNX Runtime. Tensors are
// allocated once and rewritten per call, so inference is serialized by mu.
type ONNXEmbedder struct {
	mu         sync.Mutex
	session    *ort.AdvancedSession
	tensors    modelTensors
	tokenizer  Tokenizer
	cache      *EmbeddingCache
	dimensions int
	maxTokens  int
}

type modelTensors struct {
	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	tokenTypeIDs  *ort.Tensor[int64]
	output        *ort.Tensor[float32]
}

func (t *modelTensors) destroy() {
	for _, tensor := range []ort.ArbitraryTensor{t.inputIDs, t.attentionMask, t.tokenTypeIDs, t.output} {
		if tensor != nil {
			_ = tensor.Destroy()
		}
	}
	*t = modelTensors{}
}

func newModelTensors(maxTokens, dimensions int) (modelTensors, error) {
	var t modelTensors
	inputShape := ort.NewShape(1, int64(maxTokens))

	var err error
	if t.inputIDs, err = ort.NewTensor(inputShape, make([]int64, maxTokens)); err == nil {
		if t.attentionMask, err = ort.NewTensor(inputShape, make([]int64, maxTokens)); err == nil {
			if t.tokenTypeIDs, err = ort.NewTensor(inputShape, make([]int64, maxTokens)); err == nil {
				t.output, err = ort.NewTensor(ort.NewShape(1, int64(dimensions)), make([]float32, dimensions))
			}
		}
	}
	if err != nil {
		t.destroy()
		return modelTensors{}, fmt.Errorf("allocate tensors: %w", err)
	}
	return t, nil
}

// NewONNXEmbedder loads the model at modelPath and prepares a reusable
// inference session. The runtime environment is initialized on first use.
func NewONNXEmbedder(modelPath string, dimensions, maxTokens, cacheSize int) (*ONNXEmbedder, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", err)
	}
	tensors, err := newModelTensors(maxTokens, dimensions)
	if err != nil {
		return nil, err
	}
	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"output"},
		[]ort.ArbitraryTensor{tensors.inputIDs, tensors.attentionMask, tensors.tokenTypeIDs},
		[]ort.ArbitraryTensor{tensors.output},
		nil,
	)
	if err != nil {
		tensors.destroy()
		return nil, fmt.Errorf("create session for %s: %w", modelPath, err)
	}
	return &ONNXEmbedder{
		session:    session,
		tensors:    tensors,
		tokenizer:  &SimpleTokenizer{},
		cache:      NewEmbeddingCache(cacheSize),
		dimensions: dimensions,
		maxTokens:  maxTokens,
	}, nil
}

// Embed returns the embedding for text, consulting the cache first. A
// cancelled or expired context is a transient failure; an inference failure
// is permanent, since the model will not start working on retry.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := e.cache.Get(text); ok {
		return cached, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: KindTransient, Err: err}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	inputIDs, attentionMask, tokenTypeIDs := e.tokenizer.Tokenize(text, e.maxTokens)
	copy(e.tensors.inputIDs.GetData(), inputIDs)
	copy(e.tensors.attentionMask.GetData(), attentionMask)
	copy(e.tensors.tokenTypeIDs.GetData(), tokenTypeIDs)

	if err := e.session.Run(); err != nil {
		return nil, &Error{Kind: KindPermanent, Err: fmt.Errorf("inference: %w", err)}
	}

	embedding := make([]float32, e.dimensions)
	copy(embedding, e.tensors.output.GetData()[:e.dimensions])
	NormalizeL2Slice(embedding)
	e.cache.Set(text, embedding)
	return embedding, nil
}

// EmbedBatch embeds each text in order, stopping at the first failure.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int {
	return e.dimensions
}

// Close destroys the session and its tensors.
func (e *ONNXEmbedder) Close() error {
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	e.tensors.destroy()
	return err
}
