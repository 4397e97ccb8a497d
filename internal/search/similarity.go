// Package search provides brute-force cosine similarity search over stored
// chunks.
package search

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/hyperjump/torikomi/internal/docstore"
	"github.com/hyperjump/torikomi/internal/models"
)

// ChunkSource is the read surface of the document store that the searcher
// needs.
type ChunkSource interface {
	AllChunks(ctx context.Context) (*docstore.ChunkRows, error)
	Dimension() int
}

// Result is a single similarity hit.
type Result struct {
	Chunk *models.Chunk `json:"chunk"`
	Score float64       `json:"score"`
}

// Searcher answers top-k nearest-neighbor queries with an exhaustive O(n·d)
// scan of the chunk store. There is no secondary index; this is a deliberate
// simplicity/cost tradeoff and does not scale past a bounded corpus size.
// Any replacement must preserve the exact scoring and tie-break contract
// below or explicitly supersede it.
type Searcher struct {
	source ChunkSource
}

// NewSearcher creates a searcher over the given chunk source.
func NewSearcher(source ChunkSource) *Searcher {
	return &Searcher{source: source}
}

// Search scores every stored chunk against query by cosine similarity and
// returns at most k results ordered by score descending. Ties are broken by
// ascending chunk index, then ascending document ID, so results are
// deterministic for a fixed store state. The query length must equal the
// store dimension.
func (s *Searcher) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if len(query) != s.source.Dimension() {
		return nil, &docstore.DimensionError{Got: len(query), Expected: s.source.Dimension()}
	}
	rows, err := s.source.AllChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan chunks: %w", err)
	}
	defer rows.Close()

	queryNorm := l2Norm(query)
	var results []Result
	for rows.Next() {
		ch := rows.Chunk()
		results = append(results, Result{
			Chunk: ch,
			Score: cosine(query, queryNorm, ch.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan chunks: %w", err)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Chunk.ChunkIndex != results[j].Chunk.ChunkIndex {
			return results[i].Chunk.ChunkIndex < results[j].Chunk.ChunkIndex
		}
		return results[i].Chunk.DocumentID < results[j].Chunk.DocumentID
	})
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// cosine returns dot(q, e) / (|q| * |e|) in float64. A zero norm on either
// side yields 0 rather than dividing by zero.
func cosine(query []float32, queryNorm float64, embedding []float32) float64 {
	if len(query) != len(embedding) {
		return 0
	}
	embNorm := l2Norm(embedding)
	if queryNorm == 0 || embNorm == 0 {
		return 0
	}
	var dot float64
	for i := range query {
		dot += float64(query[i]) * float64(embedding[i])
	}
	return dot / (queryNorm * embNorm)
}

func l2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}
