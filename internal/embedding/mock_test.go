package embedding

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestMockEmbedder_deterministic(t *testing.T) {
	e := NewMockEmbedder(8)
	a, err := e.Embed(context.Background(), "same text")
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Embed(context.Background(), "same text")
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding differs at %d: %f vs %f", i, a[i], b[i])
		}
	}
	c, err := e.Embed(context.Background(), "different text")
	if err != nil {
		t.Fatal(err)
	}
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts should not share an embedding")
	}
}

func TestMockEmbedder_unitNorm(t *testing.T) {
	e := NewMockEmbedder(16)
	emb, err := e.Embed(context.Background(), "normalize me")
	if err != nil {
		t.Fatal(err)
	}
	var sum float64
	for _, v := range emb {
		sum += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(sum)-1.0) > 1e-5 {
		t.Errorf("norm: got %f, want 1.0", math.Sqrt(sum))
	}
}

func TestMockEmbedder_dimensions(t *testing.T) {
	e := NewMockEmbedder(32)
	if e.Dimensions() != 32 {
		t.Errorf("dimensions: got %d", e.Dimensions())
	}
	emb, err := e.Embed(context.Background(), "x")
	if err != nil {
		t.Fatal(err)
	}
	if len(emb) != 32 {
		t.Errorf("embedding length: got %d", len(emb))
	}
}

func TestMockEmbedder_cancelledContextIsTransient(t *testing.T) {
	e := NewMockEmbedder(8)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Embed(ctx, "x")
	var embErr *Error
	if !errors.As(err, &embErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !embErr.Transient() {
		t.Error("cancelled context should be transient")
	}
}

func TestMockEmbedder_embedBatch(t *testing.T) {
	e := NewMockEmbedder(8)
	embs, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(embs) != 3 {
		t.Fatalf("batch: got %d, want 3", len(embs))
	}
	single, err := e.Embed(context.Background(), "b")
	if err != nil {
		t.Fatal(err)
	}
	for i := range single {
		if embs[1][i] != single[i] {
			t.Fatal("batch embedding should match single embedding")
		}
	}
}

func TestNormalizeL2Slice_zeroVectorUnchanged(t *testing.T) {
	x := []float32{0, 0, 0}
	NormalizeL2Slice(x)
	for _, v := range x {
		if v != 0 {
			t.Errorf("zero vector changed: %v", x)
		}
	}
}
