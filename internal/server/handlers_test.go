package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/torikomi/internal/chunker"
	"github.com/hyperjump/torikomi/internal/config"
	"github.com/hyperjump/torikomi/internal/docstore"
	"github.com/hyperjump/torikomi/internal/embedding"
	"github.com/hyperjump/torikomi/internal/execlog"
	"github.com/hyperjump/torikomi/internal/extract"
	"github.com/hyperjump/torikomi/internal/notify"
	"github.com/hyperjump/torikomi/internal/pipeline"
	"github.com/hyperjump/torikomi/internal/search"
)

const testDims = 8

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	store, err := docstore.NewSQLiteStore(filepath.Join(dir, "documents.db"), testDims)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	log, err := execlog.NewSQLiteLog(filepath.Join(dir, "execlog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { log.Close() })

	logger := zap.NewNop()
	embedder := embedding.NewMockEmbedder(testDims)
	notifier := notify.NewNotifier(
		notify.NewMemoryChannel("general"), nil, nil,
		notify.NewMemoryChannel("dlq"), logger)
	runner := pipeline.NewRunner(log, store, notifier, extract.NewExtractor(),
		embedder, chunker.NewChunker(50), logger)
	searcher := search.NewSearcher(store)

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return NewServer(runner, store, log, searcher, embedder, nil, cfg, logger)
}

func TestHandleIngestDocument_Wait(t *testing.T) {
	srv := newTestServer(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("Hello world. This is a document."), 0600); err != nil {
		t.Fatal(err)
	}

	body, _ := json.Marshal(map[string]interface{}{"source_location": path, "wait": true})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/documents", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.handleIngestDocument(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		RunID      string `json:"run_id"`
		DocumentID string `json:"document_id"`
		Status     string `json:"status"`
		ChunkCount int    `json:"chunk_count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Status != "SUCCESS" {
		t.Errorf("run status: got %s, want SUCCESS", out.Status)
	}
	if out.ChunkCount < 1 {
		t.Errorf("chunk_count: got %d, want >= 1", out.ChunkCount)
	}
	if out.DocumentID == "" {
		t.Error("document_id should be set")
	}
}

func TestHandleIngestDocument_MissingSource(t *testing.T) {
	srv := newTestServer(t)
	body, _ := json.Marshal(map[string]string{})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/documents", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleIngestDocument(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleGetDocument_NotFound(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/documents/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}

func TestHandleGetRun_AfterSuccessfulRun(t *testing.T) {
	srv := newTestServer(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("Some text to ingest."), 0600); err != nil {
		t.Fatal(err)
	}
	result, err := srv.runner.Run(context.Background(), pipeline.RunInput{SourceLocation: path})
	if err != nil {
		t.Fatal(err)
	}

	router := srv.Router()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+result.RunID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		RunID    string `json:"run_id"`
		Complete bool   `json:"complete"`
		Status   string `json:"status"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !out.Complete {
		t.Error("run should be complete")
	}
	if out.Status != "SUCCESS" {
		t.Errorf("run status: got %s, want SUCCESS", out.Status)
	}
}

func TestHandleGetRun_Unknown(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/runs/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}

func TestHandleGetRunLog(t *testing.T) {
	srv := newTestServer(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("Some text to ingest."), 0600); err != nil {
		t.Fatal(err)
	}
	result, err := srv.runner.Run(context.Background(), pipeline.RunInput{SourceLocation: path})
	if err != nil {
		t.Fatal(err)
	}

	router := srv.Router()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+result.RunID+"/log", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		Entries []struct {
			Step   string `json:"step"`
			Status string `json:"status"`
		} `json:"entries"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	// Five steps, each with STARTED and SUCCESS.
	if len(out.Entries) != 10 {
		t.Errorf("entries: got %d, want 10", len(out.Entries))
	}
}

func TestHandleStuckRuns_Empty(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/runs/stuck", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		Entries []json.RawMessage `json:"entries"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Entries) != 0 {
		t.Errorf("entries: got %d, want 0", len(out.Entries))
	}
}

func TestHandleQuery_Semantic(t *testing.T) {
	srv := newTestServer(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("The quick brown fox jumps over the lazy dog."), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := srv.runner.Run(context.Background(), pipeline.RunInput{SourceLocation: path}); err != nil {
		t.Fatal(err)
	}

	body, _ := json.Marshal(map[string]interface{}{"query": "quick brown fox", "limit": 3})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleQuery(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		Mode    string            `json:"mode"`
		Results []json.RawMessage `json:"results"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Mode != "semantic" {
		t.Errorf("mode: got %s", out.Mode)
	}
	if len(out.Results) < 1 {
		t.Error("expected at least one result")
	}
}

func TestHandleQuery_KeywordNotEnabled(t *testing.T) {
	srv := newTestServer(t)
	body, _ := json.Marshal(map[string]string{"query": "hello", "mode": "keyword"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleQuery(w, r)
	if w.Code != http.StatusNotImplemented {
		t.Errorf("status: got %d, want 501", w.Code)
	}
}

func TestHandleQuery_BadMode(t *testing.T) {
	srv := newTestServer(t)
	body, _ := json.Marshal(map[string]string{"query": "hello", "mode": "hybrid"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleQuery(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("Status test document."), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := srv.runner.Run(context.Background(), pipeline.RunInput{SourceLocation: path}); err != nil {
		t.Fatal(err)
	}

	r := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	srv.handleStatus(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		Documents int64 `json:"documents"`
		Chunks    int64 `json:"chunks"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Documents != 1 {
		t.Errorf("documents: got %d, want 1", out.Documents)
	}
	if out.Chunks < 1 {
		t.Errorf("chunks: got %d, want >= 1", out.Chunks)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.handleHealth(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
}
