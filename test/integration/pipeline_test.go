// Package integration provides end-to-end tests (requires real storage and indices).
package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/torikomi/internal/chunker"
	"github.com/hyperjump/torikomi/internal/docstore"
	"github.com/hyperjump/torikomi/internal/embedding"
	"github.com/hyperjump/torikomi/internal/execlog"
	"github.com/hyperjump/torikomi/internal/extract"
	"github.com/hyperjump/torikomi/internal/keyword"
	"github.com/hyperjump/torikomi/internal/models"
	"github.com/hyperjump/torikomi/internal/notify"
	"github.com/hyperjump/torikomi/internal/pipeline"
	"github.com/hyperjump/torikomi/internal/search"
)

const dims = 8

func TestIntegration_IngestAndQuery(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := docstore.NewSQLiteStore(filepath.Join(dir, "documents.db"), dims)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	log, err := execlog.NewSQLiteLog(filepath.Join(dir, "execlog.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer log.Close()

	kwIndex, err := keyword.NewBleveIndex(filepath.Join(dir, "bleve"))
	if err != nil {
		t.Fatal(err)
	}
	defer kwIndex.Close()

	embedder := embedding.NewMockEmbedder(dims)
	defer embedder.Close()

	notifier := notify.NewNotifier(
		notify.NewMemoryChannel("general"),
		notify.NewMemoryChannel("success"),
		notify.NewMemoryChannel("errors"),
		notify.NewMemoryChannel("dead-letter"),
		zap.NewNop(),
	)

	runner := pipeline.NewRunner(log, store, notifier, extract.NewExtractor(),
		embedder, chunker.NewChunker(20), zap.NewNop(),
		pipeline.WithKeywordIndex(kwIndex))

	source := filepath.Join(dir, "report.txt")
	content := "Quarterly revenue grew strongly this period. " +
		"Operating costs stayed flat compared to last year. " +
		"The team expects continued growth next quarter."
	if err := os.WriteFile(source, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	result, err := runner.Run(ctx, pipeline.RunInput{SourceLocation: source})
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != models.RunSuccess {
		t.Fatalf("run status: got %s (%s)", result.Status, result.Message)
	}
	if result.ChunkCount < 1 {
		t.Fatalf("chunk count: got %d", result.ChunkCount)
	}

	doc, err := store.GetDocument(ctx, result.DocumentID)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Status != models.DocLoaded {
		t.Errorf("document status: got %s", doc.Status)
	}

	// Semantic: the stored chunk embeddings come from the same embedder,
	// so querying with a chunk's own text must rank it first with score 1.
	queryEmb, err := embedder.Embed(ctx, "Quarterly revenue grew strongly this period.")
	if err != nil {
		t.Fatal(err)
	}
	searcher := search.NewSearcher(store)
	hits, err := searcher.Search(ctx, queryEmb, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) < 1 {
		t.Fatal("expected at least one semantic hit")
	}
	if hits[0].Score < 0.999 {
		t.Errorf("top score: got %f, want ~1.0", hits[0].Score)
	}
	if hits[0].Chunk.DocumentID != result.DocumentID {
		t.Errorf("top hit document: got %s, want %s", hits[0].Chunk.DocumentID, result.DocumentID)
	}

	// Keyword: the runner indexes loaded chunks as a side effect.
	kwHits, err := kwIndex.Search(ctx, "revenue", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(kwHits) < 1 {
		t.Error("expected at least one keyword hit")
	}

	// The run is fully recorded: each step has a terminal SUCCESS entry.
	entries, err := log.QueryRun(ctx, result.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 10 {
		t.Errorf("log entries: got %d, want 10", len(entries))
	}
}

func TestIntegration_RerunIsNoOp(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := docstore.NewSQLiteStore(filepath.Join(dir, "documents.db"), dims)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	log, err := execlog.NewSQLiteLog(filepath.Join(dir, "execlog.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer log.Close()

	embedder := embedding.NewMockEmbedder(dims)
	defer embedder.Close()

	notifier := notify.NewNotifier(
		notify.NewMemoryChannel("general"), nil, nil,
		notify.NewMemoryChannel("dead-letter"), zap.NewNop(),
	)
	runner := pipeline.NewRunner(log, store, notifier, extract.NewExtractor(),
		embedder, chunker.NewChunker(20), zap.NewNop())

	source := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(source, []byte("A single note."), 0600); err != nil {
		t.Fatal(err)
	}

	first, err := runner.Run(ctx, pipeline.RunInput{SourceLocation: source})
	if err != nil {
		t.Fatal(err)
	}
	if first.Status != models.RunSuccess {
		t.Fatalf("first run: %s", first.Status)
	}

	second, err := runner.Run(ctx, pipeline.RunInput{RunID: first.RunID, SourceLocation: source})
	if err != nil {
		t.Fatal(err)
	}
	if second.Status != models.RunSuccess || second.DocumentID != first.DocumentID {
		t.Errorf("rerun: got %s/%s, want %s/%s",
			second.Status, second.DocumentID, first.Status, first.DocumentID)
	}

	docs, err := store.CountDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if docs != 1 {
		t.Errorf("documents after rerun: got %d, want 1", docs)
	}

	entries, err := log.QueryRun(ctx, first.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 10 {
		t.Errorf("rerun appended log entries: got %d, want 10", len(entries))
	}
}
