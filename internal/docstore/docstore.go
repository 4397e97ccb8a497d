// Package docstore defines the persistence interface for documents and
// their embedded chunks.
package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/torikomi/internal/models"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// DimensionError reports an embedding whose length does not match the
// deployment-wide dimension. It is distinct from storage errors and is
// never retried.
type DimensionError struct {
	Got      int
	Expected int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: got %d, expected %d", e.Got, e.Expected)
}

// Store defines document and chunk persistence operations.
type Store interface {
	// CreateDocument inserts a new document record with status initialized
	// and returns its generated ID.
	CreateDocument(ctx context.Context, filename, sourceLocation string) (string, error)

	// GetDocument returns a document by ID, or ErrNotFound.
	GetDocument(ctx context.Context, id string) (*models.Document, error)

	// UpdateDocumentStatus sets the document status and, when chunkCount is
	// non-negative, the chunk count. Returns ErrNotFound for unknown IDs.
	UpdateDocumentStatus(ctx context.Context, id string, status models.DocumentStatus, chunkCount int) error

	// PutChunks inserts chunks one at a time. A per-chunk failure does not
	// abort the batch; the indices of failed chunks are returned alongside
	// the count of successful inserts. A chunk whose embedding length does
	// not match the store dimension fails the whole call with
	// *DimensionError before anything is inserted.
	PutChunks(ctx context.Context, docID string, chunks []*models.Chunk) (inserted int, failed []int, err error)

	// AllChunks returns a cursor over every chunk in the store. The cursor
	// is finite and each call restarts from the beginning. There is no
	// point-in-time snapshot guarantee.
	AllChunks(ctx context.Context) (*ChunkRows, error)

	// Dimension returns the deployment-wide embedding dimension.
	Dimension() int

	// Stats
	CountDocuments(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)

	Close() error
}
