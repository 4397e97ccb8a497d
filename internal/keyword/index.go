// Package keyword provides a full-text index over stored chunk text. It is
// a supplementary query surface; similarity search does not consult it.
package keyword

import "context"

// Index defines keyword indexing and search over chunks.
type Index interface {
	// Index adds or replaces one chunk's text under its chunk ID.
	Index(ctx context.Context, chunkID string, doc *ChunkDoc) error
	// Delete removes a chunk from the index.
	Delete(ctx context.Context, chunkID string) error
	// Search runs a match query and returns up to limit hits by descending
	// relevance score.
	Search(ctx context.Context, query string, limit int) ([]*Result, error)
	Close() error
}

// ChunkDoc is the indexed shape of a chunk.
type ChunkDoc struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Text       string `json:"text"`
}

// Result is a single keyword search hit.
type Result struct {
	ChunkID string  `json:"chunk_id"`
	Score   float64 `json:"score"`
}
