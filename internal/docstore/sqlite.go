// Package docstore provides SQLite implementation of the Store interface.
package docstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/torikomi/internal/models"
)

// SQLiteStore implements Store using SQLite. Embeddings are stored as
// little-endian float32 blobs.
type SQLiteStore struct {
	db        *sql.DB
	dimension int
}

// NewSQLiteStore opens or creates a SQLite database at dbPath with the given
// embedding dimension and initializes the schema. Parent directories are
// created if they do not exist.
func NewSQLiteStore(dbPath string, dimension int) (*SQLiteStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initStoreSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db, dimension: dimension}, nil
}

func initStoreSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		last_updated TIMESTAMP NOT NULL,
		chunk_count INTEGER NOT NULL DEFAULT 0,
		source_location TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);

	CREATE TABLE IF NOT EXISTS chunks (
		chunk_id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		text TEXT NOT NULL,
		embedding BLOB NOT NULL,
		embedding_dimension INTEGER NOT NULL,
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id, chunk_index);
	`
	_, err := db.Exec(schema)
	return err
}

// Dimension returns the deployment-wide embedding dimension.
func (s *SQLiteStore) Dimension() int {
	return s.dimension
}

// CreateDocument inserts a document with status initialized.
func (s *SQLiteStore) CreateDocument(ctx context.Context, filename, sourceLocation string) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, filename, status, created_at, last_updated, chunk_count, source_location)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`,
		id, filename, string(models.DocInitialized), now, now, sourceLocation,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetDocument returns a document by ID.
func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, status, created_at, last_updated, chunk_count, source_location
		 FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.Filename, &status, &doc.CreatedAt, &doc.LastUpdated, &doc.ChunkCount, &doc.SourceLocation)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	doc.Status = models.DocumentStatus(status)
	return &doc, nil
}

// UpdateDocumentStatus sets the status and, when chunkCount >= 0, the chunk
// count. last_updated is always refreshed.
func (s *SQLiteStore) UpdateDocumentStatus(ctx context.Context, id string, status models.DocumentStatus, chunkCount int) error {
	now := time.Now().UTC()
	var (
		result sql.Result
		err    error
	)
	if chunkCount >= 0 {
		result, err = s.db.ExecContext(ctx,
			`UPDATE documents SET status = ?, chunk_count = ?, last_updated = ? WHERE id = ?`,
			string(status), chunkCount, now, id,
		)
	} else {
		result, err = s.db.ExecContext(ctx,
			`UPDATE documents SET status = ?, last_updated = ? WHERE id = ?`,
			string(status), now, id,
		)
	}
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// PutChunks inserts chunks one at a time, continuing past per-chunk failures.
// Any dimension mismatch fails the whole call before the first insert.
func (s *SQLiteStore) PutChunks(ctx context.Context, docID string, chunks []*models.Chunk) (int, []int, error) {
	for _, ch := range chunks {
		if len(ch.Embedding) != s.dimension {
			return 0, nil, &DimensionError{Got: len(ch.Embedding), Expected: s.dimension}
		}
	}
	inserted := 0
	var failed []int
	for i, ch := range chunks {
		if err := ctx.Err(); err != nil {
			return inserted, failed, err
		}
		if ch.ChunkID == "" {
			ch.ChunkID = fmt.Sprintf("%s_%d", docID, ch.ChunkIndex)
		}
		ch.DocumentID = docID
		ch.Dimension = s.dimension
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO chunks (chunk_id, document_id, chunk_index, text, embedding, embedding_dimension)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			ch.ChunkID, ch.DocumentID, ch.ChunkIndex, ch.Text,
			float32SliceToBytes(ch.Embedding), ch.Dimension,
		)
		if err != nil {
			failed = append(failed, i)
			continue
		}
		inserted++
	}
	return inserted, failed, nil
}

// AllChunks returns a cursor over the whole chunk table.
func (s *SQLiteStore) AllChunks(ctx context.Context) (*ChunkRows, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chunk_id, document_id, chunk_index, text, embedding, embedding_dimension FROM chunks`)
	if err != nil {
		return nil, err
	}
	return &ChunkRows{rows: rows}, nil
}

// CountDocuments returns the total number of documents.
func (s *SQLiteStore) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// CountChunks returns the total number of chunks.
func (s *SQLiteStore) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ChunkRows is a lazy cursor over stored chunks, in the style of sql.Rows.
type ChunkRows struct {
	rows    *sql.Rows
	current *models.Chunk
	err     error
}

// Next advances to the next chunk. It returns false when the cursor is
// exhausted or an error occurred; check Err after the loop.
func (c *ChunkRows) Next() bool {
	if !c.rows.Next() {
		return false
	}
	var ch models.Chunk
	var blob []byte
	if err := c.rows.Scan(&ch.ChunkID, &ch.DocumentID, &ch.ChunkIndex, &ch.Text, &blob, &ch.Dimension); err != nil {
		c.err = err
		return false
	}
	ch.Embedding = bytesToFloat32Slice(blob)
	c.current = &ch
	return true
}

// Chunk returns the chunk at the current cursor position.
func (c *ChunkRows) Chunk() *models.Chunk {
	return c.current
}

// Err returns the first error encountered during iteration.
func (c *ChunkRows) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.rows.Err()
}

// Close releases the underlying cursor.
func (c *ChunkRows) Close() error {
	return c.rows.Close()
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
