package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/torikomi/internal/docstore"
	"github.com/hyperjump/torikomi/internal/execlog"
	"github.com/hyperjump/torikomi/internal/models"
	"github.com/hyperjump/torikomi/internal/pipeline"
)

// ingestRequest triggers a pipeline run for one document.
type ingestRequest struct {
	SourceLocation string `json:"source_location"`
	Filename       string `json:"filename,omitempty"`
	RunID          string `json:"run_id,omitempty"`
	// Wait runs the pipeline synchronously and returns the full run result.
	Wait bool `json:"wait,omitempty"`
}

func (s *Server) handleIngestDocument(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SourceLocation == "" {
		s.respondError(w, http.StatusBadRequest, "source_location is required")
		return
	}
	input := pipeline.RunInput{
		RunID:          req.RunID,
		Filename:       req.Filename,
		SourceLocation: req.SourceLocation,
	}
	if req.Wait {
		result, err := s.runner.Run(r.Context(), input)
		if err != nil {
			s.logger.Error("pipeline run failed to start", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.respondJSON(w, http.StatusOK, result)
		return
	}
	if input.RunID == "" {
		input.RunID = uuid.New().String()
	}
	s.logger.Debug("ingest request accepted",
		zap.String("run_id", input.RunID),
		zap.String("source_location", input.SourceLocation))
	go func() {
		// Detached from the request lifetime; the run outlives the response.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := s.runner.Run(ctx, input); err != nil {
			s.logger.Error("pipeline run failed to start",
				zap.String("run_id", input.RunID), zap.Error(err))
		}
	}()
	s.respondJSON(w, http.StatusAccepted, map[string]string{
		"run_id": input.RunID,
		"status": "accepted",
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.store.GetDocument(r.Context(), id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "document not found")
			return
		}
		s.logger.Error("get document failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

// runView summarizes a run from its execution log trace.
type runView struct {
	RunID      string                       `json:"run_id"`
	DocumentID string                       `json:"document_id,omitempty"`
	Complete   bool                         `json:"complete"`
	Status     models.RunStatus             `json:"status,omitempty"`
	FailedStep models.Step                  `json:"failed_step,omitempty"`
	Steps      map[models.Step]stepViewItem `json:"steps"`
}

type stepViewItem struct {
	Status    models.StepStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Message   string            `json:"message,omitempty"`
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runId")
	entries, err := s.log.QueryRun(r.Context(), runID)
	if err != nil {
		s.logger.Error("query run failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(entries) == 0 {
		s.respondError(w, http.StatusNotFound, "run not found")
		return
	}
	s.respondJSON(w, http.StatusOK, summarizeRun(runID, entries))
}

func summarizeRun(runID string, entries []*models.StepLogEntry) *runView {
	latest := execlog.LatestPerStep(entries)
	view := &runView{
		RunID:    runID,
		Complete: true,
		Status:   models.RunSuccess,
		Steps:    make(map[models.Step]stepViewItem, len(latest)),
	}
	for _, e := range entries {
		if e.DocumentID != "" {
			view.DocumentID = e.DocumentID
		}
	}
	for _, step := range models.Steps {
		e, ok := latest[step]
		if !ok {
			view.Complete = false
			continue
		}
		view.Steps[step] = stepViewItem{Status: e.Status, Timestamp: e.Timestamp, Message: e.Message}
		if !e.Status.Terminal() {
			view.Complete = false
		}
		if e.Status == models.StatusFailed && step != models.StepNotify {
			view.Status = models.RunFailed
			view.FailedStep = step
		}
	}
	if !view.Complete {
		view.Status = ""
		view.FailedStep = ""
	}
	return view
}

func (s *Server) handleGetRunLog(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runId")
	entries, err := s.log.QueryRun(r.Context(), runID)
	if err != nil {
		s.logger.Error("query run log failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(entries) == 0 {
		s.respondError(w, http.StatusNotFound, "run not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":  runID,
		"entries": entries,
	})
}

func (s *Server) handleStuckRuns(w http.ResponseWriter, r *http.Request) {
	olderThanSecs := 600.0
	if v := r.URL.Query().Get("older_than_seconds"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			s.respondError(w, http.StatusBadRequest, "invalid older_than_seconds")
			return
		}
		olderThanSecs = f
	}
	cutoff := time.Now().UTC().Add(-time.Duration(olderThanSecs * float64(time.Second)))
	entries, err := s.log.Stuck(r.Context(), cutoff)
	if err != nil {
		s.logger.Error("stuck query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"older_than": cutoff,
		"entries":    entries,
	})
}

// queryRequest is a similarity or keyword query over stored chunks.
type queryRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
	// Mode is "semantic" (default) or "keyword".
	Mode string `json:"mode,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.config.Query.DefaultLimit
	}
	if limit > s.config.Query.MaxLimit {
		limit = s.config.Query.MaxLimit
	}

	switch req.Mode {
	case "", "semantic":
		embeddings, err := s.embedder.EmbedBatch(r.Context(), []string{req.Query})
		if err != nil {
			s.logger.Error("query embedding failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		results, err := s.searcher.Search(r.Context(), embeddings[0], limit)
		if err != nil {
			s.logger.Error("similarity search failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"mode":    "semantic",
			"results": results,
		})
	case "keyword":
		if s.keywords == nil {
			s.respondError(w, http.StatusNotImplemented, "keyword search not enabled")
			return
		}
		results, err := s.keywords.Search(r.Context(), req.Query, limit)
		if err != nil {
			s.logger.Error("keyword search failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"mode":    "keyword",
			"results": results,
		})
	default:
		s.respondError(w, http.StatusBadRequest, "mode must be semantic or keyword")
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.store.CountDocuments(ctx)
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	chunkCount, err := s.store.CountChunks(ctx)
	if err != nil {
		s.logger.Error("status: count chunks failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docCount,
		"chunks":    chunkCount,
		"config": map[string]interface{}{
			"embedding_dimensions": s.config.Embedding.Dimensions,
			"chunk_max_words":      s.config.Pipeline.ChunkMaxWords,
			"max_attempts":         s.config.Pipeline.MaxAttempts,
			"document_db_path":     s.config.Storage.DocumentDBPath,
			"exec_log_db_path":     s.config.Storage.ExecLogDBPath,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
