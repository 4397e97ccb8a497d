// Package pipeline orchestrates the fixed step sequence of a document run:
// InitDB, Validate, Embed, Load, Notify. Every step attempt is bracketed by
// STARTED and SUCCESS/FAILED entries in the execution log; the pipeline is
// sequential and fail-stop, with bounded retry for transient collaborator
// failures.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/torikomi/internal/chunker"
	"github.com/hyperjump/torikomi/internal/docstore"
	"github.com/hyperjump/torikomi/internal/execlog"
	"github.com/hyperjump/torikomi/internal/keyword"
	"github.com/hyperjump/torikomi/internal/models"
)

// PipelineName identifies this pipeline in notification payloads.
const PipelineName = "torikomi-document-processing"

// TextExtractor is the extraction collaborator: raw source to text plus a
// confidence estimate.
type TextExtractor interface {
	Extract(ctx context.Context, sourceLocation string) (text string, confidence float64, err error)
}

// Embedder is the embedding collaborator.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Notifier delivers run outcome notifications.
type Notifier interface {
	Notify(ctx context.Context, msg *models.Notification) error
}

// RunInput identifies one document run.
type RunInput struct {
	RunID          string
	Filename       string
	SourceLocation string
}

// Runner executes pipeline runs. Runners for distinct runs share no mutable
// state beyond the storage layer, so concurrent Run calls for different run
// IDs are safe.
type Runner struct {
	log       execlog.Log
	store     docstore.Store
	notifier  Notifier
	extractor TextExtractor
	embedder  Embedder
	chunker   *chunker.Chunker
	keywords  keyword.Index
	logger    *zap.Logger

	maxAttempts int
	backoff     time.Duration
	stepTimeout time.Duration
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithMaxAttempts bounds attempts per step for transient failures.
func WithMaxAttempts(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithBackoff sets the initial retry backoff; it doubles per attempt.
func WithBackoff(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.backoff = d
		}
	}
}

// WithStepTimeout bounds each collaborator call. A timeout is a transient
// failure.
func WithStepTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.stepTimeout = d
		}
	}
}

// WithKeywordIndex enables best-effort keyword indexing of loaded chunks.
func WithKeywordIndex(idx keyword.Index) RunnerOption {
	return func(r *Runner) { r.keywords = idx }
}

// NewRunner creates a runner with the given dependencies.
func NewRunner(
	log execlog.Log,
	store docstore.Store,
	notifier Notifier,
	extractor TextExtractor,
	embedder Embedder,
	ch *chunker.Chunker,
	logger *zap.Logger,
	opts ...RunnerOption,
) *Runner {
	r := &Runner{
		log:         log,
		store:       store,
		notifier:    notifier,
		extractor:   extractor,
		embedder:    embedder,
		chunker:     ch,
		logger:      logger,
		maxAttempts: 3,
		backoff:     200 * time.Millisecond,
		stepTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// runState carries in-memory results between steps of one run.
type runState struct {
	input      RunInput
	documentID string
	text       string
	confidence float64
	chunks     []*models.Chunk
	chunkCount int
	startedAt  time.Time
	degraded   bool
}

// Run executes the step sequence for input. A missing RunID is generated.
// Step failures are not returned as errors; they are recorded in the
// execution log, surfaced through the notifier, and summarized in the
// result. The returned error covers only pre-flight problems.
func (r *Runner) Run(ctx context.Context, input RunInput) (*models.RunResult, error) {
	if input.RunID == "" {
		input.RunID = uuid.New().String()
	}
	if input.Filename == "" && input.SourceLocation != "" {
		input.Filename = filepath.Base(input.SourceLocation)
	}

	trace, err := r.log.QueryRun(ctx, input.RunID)
	if err != nil {
		// A log read failure must not abort the run; resume detection is
		// skipped and the run executes from the start.
		r.logger.Warn("execution log query failed, resume disabled",
			zap.String("run_id", input.RunID), zap.Error(err))
		trace = nil
	}
	latest := execlog.LatestPerStep(trace)
	if allStepsTerminal(latest) {
		return resultFromTrace(input.RunID, latest), nil
	}

	st := &runState{input: input, startedAt: time.Now()}

	for _, step := range models.Steps {
		prev := latest[step]
		replay := prev != nil && prev.Status == models.StatusSuccess
		if replay && r.skipOnReplay(ctx, st, step, prev) {
			continue
		}
		if err := r.executeStep(ctx, st, step, replay); err != nil {
			if step == models.StepNotify {
				// Upstream success is already persisted; a notification
				// failure degrades the run but does not undo it.
				st.degraded = true
				r.logger.Warn("success notification failed, run degraded",
					zap.String("run_id", input.RunID), zap.Error(err))
				break
			}
			return r.failRun(ctx, st, step, err), nil
		}
	}

	return &models.RunResult{
		RunID:      input.RunID,
		DocumentID: st.documentID,
		Status:     models.RunSuccess,
		ChunkCount: st.chunkCount,
		Degraded:   st.degraded,
	}, nil
}

// skipOnReplay restores state for a step that already succeeded in a prior
// invocation and reports whether the step can be skipped. Side-effect steps
// (InitDB, Load, Notify) are never re-executed; pure compute steps
// (Validate, Embed) must re-run to rebuild in-memory state.
func (r *Runner) skipOnReplay(ctx context.Context, st *runState, step models.Step, prev *models.StepLogEntry) bool {
	switch step {
	case models.StepInitDB:
		if prev.DocumentID == "" {
			return false
		}
		st.documentID = prev.DocumentID
		return true
	case models.StepLoad:
		doc, err := r.store.GetDocument(ctx, st.documentID)
		if err != nil {
			return false
		}
		st.chunkCount = doc.ChunkCount
		return true
	case models.StepNotify:
		return true
	default:
		return false
	}
}

// executeStep runs one step with the retry policy. Each attempt gets its own
// STARTED and terminal log entries, so the trace shows every attempt. In
// replay mode (the step succeeded in a prior invocation and is being re-run
// only to rebuild in-memory state) a successful attempt is not re-logged.
func (r *Runner) executeStep(ctx context.Context, st *runState, step models.Step, replay bool) error {
	backoff := r.backoff
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if !replay {
			r.append(ctx, st, step, models.StatusStarted, startMessage(attempt))
		}
		message, err := r.stepWork(ctx, st, step)
		if err == nil {
			if !replay {
				r.append(ctx, st, step, models.StatusSuccess, message)
			}
			return nil
		}
		lastErr = err
		if replay {
			// The quiet re-run failed; surface it as a fresh attempt. From
			// here on the step logs normally, so the trace's latest entry
			// reflects the real outcome of any further attempts.
			r.append(ctx, st, step, models.StatusStarted, startMessage(attempt))
			replay = false
		}
		r.append(ctx, st, step, models.StatusFailed, err.Error())
		if !IsTransient(err) || attempt == r.maxAttempts {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return lastErr
}

// stepWork dispatches to the step's work and returns the success message.
func (r *Runner) stepWork(ctx context.Context, st *runState, step models.Step) (string, error) {
	switch step {
	case models.StepInitDB:
		return r.stepInitDB(ctx, st)
	case models.StepValidate:
		return r.stepValidate(ctx, st)
	case models.StepEmbed:
		return r.stepEmbed(ctx, st)
	case models.StepLoad:
		return r.stepLoad(ctx, st)
	case models.StepNotify:
		return r.stepNotify(ctx, st)
	default:
		return "", fmt.Errorf("unknown step %q", step)
	}
}

func (r *Runner) stepInitDB(ctx context.Context, st *runState) (string, error) {
	docID, err := r.store.CreateDocument(ctx, st.input.Filename, st.input.SourceLocation)
	if err != nil {
		return "", fmt.Errorf("create document record: %w", err)
	}
	st.documentID = docID
	return fmt.Sprintf("document record created: %s", docID), nil
}

func (r *Runner) stepValidate(ctx context.Context, st *runState) (string, error) {
	tctx, cancel := context.WithTimeout(ctx, r.stepTimeout)
	defer cancel()
	text, confidence, err := r.extractor.Extract(tctx, st.input.SourceLocation)
	if err != nil {
		return "", err
	}
	if len(text) == 0 {
		return "", validationErrorf("document contains no extractable text")
	}
	st.text = text
	st.confidence = confidence
	return fmt.Sprintf("extracted %d chars (confidence %.2f)", len(text), confidence), nil
}

func (r *Runner) stepEmbed(ctx context.Context, st *runState) (string, error) {
	texts := r.chunker.Chunk(st.text)
	if len(texts) == 0 {
		return "", validationErrorf("no chunks produced from document text")
	}
	tctx, cancel := context.WithTimeout(ctx, r.stepTimeout)
	defer cancel()
	embeddings, err := r.embedder.EmbedBatch(tctx, texts)
	if err != nil {
		return "", err
	}
	dimension := r.store.Dimension()
	chunks := make([]*models.Chunk, len(texts))
	for i := range texts {
		if len(embeddings[i]) != dimension {
			return "", validationErrorf("embedding dimension mismatch: got %d, expected %d", len(embeddings[i]), dimension)
		}
		chunks[i] = &models.Chunk{
			DocumentID: st.documentID,
			ChunkID:    fmt.Sprintf("%s_%d", st.documentID, i),
			ChunkIndex: i,
			Text:       texts[i],
			Embedding:  embeddings[i],
			Dimension:  dimension,
		}
	}
	st.chunks = chunks
	return fmt.Sprintf("embedded %d chunks", len(chunks)), nil
}

func (r *Runner) stepLoad(ctx context.Context, st *runState) (string, error) {
	inserted, failed, err := r.store.PutChunks(ctx, st.documentID, st.chunks)
	if err != nil {
		return "", fmt.Errorf("store chunks: %w", err)
	}
	if inserted == 0 && len(st.chunks) > 0 {
		return "", fmt.Errorf("all %d chunk inserts failed", len(st.chunks))
	}
	if len(failed) > 0 {
		r.logger.Warn("some chunk inserts failed",
			zap.String("run_id", st.input.RunID),
			zap.String("document_id", st.documentID),
			zap.Ints("failed_indices", failed))
	}
	if err := r.store.UpdateDocumentStatus(ctx, st.documentID, models.DocLoaded, inserted); err != nil {
		return "", fmt.Errorf("update document status: %w", err)
	}
	st.chunkCount = inserted
	r.indexKeywords(ctx, st, failed)
	if len(failed) > 0 {
		return fmt.Sprintf("loaded %d chunks (%d failed)", inserted, len(failed)), nil
	}
	return fmt.Sprintf("loaded %d chunks", inserted), nil
}

// indexKeywords adds loaded chunks to the keyword index. Failures are logged
// only; keyword search is a supplementary surface and must not fail a run.
func (r *Runner) indexKeywords(ctx context.Context, st *runState, failed []int) {
	if r.keywords == nil {
		return
	}
	failedSet := make(map[int]bool, len(failed))
	for _, i := range failed {
		failedSet[i] = true
	}
	for i, ch := range st.chunks {
		if failedSet[i] {
			continue
		}
		doc := &keyword.ChunkDoc{
			DocumentID: ch.DocumentID,
			Filename:   st.input.Filename,
			Text:       ch.Text,
		}
		if err := r.keywords.Index(ctx, ch.ChunkID, doc); err != nil {
			r.logger.Warn("keyword indexing failed",
				zap.String("chunk_id", ch.ChunkID), zap.Error(err))
		}
	}
}

func (r *Runner) stepNotify(ctx context.Context, st *runState) (string, error) {
	msg := &models.Notification{
		RunID:     st.input.RunID,
		Status:    models.RunSuccess,
		Timestamp: time.Now().UTC(),
		Pipeline:  PipelineName,
		DocumentInfo: models.DocumentInfo{
			DocumentID:     st.documentID,
			Filename:       st.input.Filename,
			SourceLocation: st.input.SourceLocation,
		},
		ProcessingResults: &models.ProcessingResults{
			ChunkCount:            st.chunkCount,
			TextLength:            len(st.text),
			ProcessingTimeSeconds: time.Since(st.startedAt).Seconds(),
		},
	}
	if err := r.notifier.Notify(ctx, msg); err != nil {
		return "", fmt.Errorf("deliver success notification: %w", err)
	}
	return "success notification delivered", nil
}

// failRun records the terminal failure: document marked failed when known,
// one FAILED notification emitted. The step's own FAILED log entry was
// already written by executeStep.
func (r *Runner) failRun(ctx context.Context, st *runState, step models.Step, stepErr error) *models.RunResult {
	if st.documentID != "" {
		if err := r.store.UpdateDocumentStatus(ctx, st.documentID, models.DocFailed, -1); err != nil {
			r.logger.Warn("failed to mark document failed",
				zap.String("document_id", st.documentID), zap.Error(err))
		}
	}
	msg := &models.Notification{
		RunID:     st.input.RunID,
		Status:    models.RunFailed,
		Timestamp: time.Now().UTC(),
		Pipeline:  PipelineName,
		DocumentInfo: models.DocumentInfo{
			DocumentID:     st.documentID,
			Filename:       st.input.Filename,
			SourceLocation: st.input.SourceLocation,
		},
		ErrorDetails: &models.ErrorDetails{
			FailedStep:   step,
			ErrorMessage: stepErr.Error(),
			Retryable:    IsTransient(stepErr),
		},
	}
	if err := r.notifier.Notify(ctx, msg); err != nil {
		r.logger.Error("failure notification could not be delivered",
			zap.String("run_id", st.input.RunID), zap.Error(err))
	}
	return &models.RunResult{
		RunID:      st.input.RunID,
		DocumentID: st.documentID,
		Status:     models.RunFailed,
		FailedStep: step,
		Message:    stepErr.Error(),
	}
}

// append writes a log entry, swallowing storage failures with a warning.
// Logging problems must never abort the step whose outcome they record.
func (r *Runner) append(ctx context.Context, st *runState, step models.Step, status models.StepStatus, message string) {
	entry := &models.StepLogEntry{
		RunID:      st.input.RunID,
		DocumentID: st.documentID,
		Step:       step,
		Status:     status,
		Message:    message,
	}
	if err := r.log.Append(ctx, entry); err != nil {
		r.logger.Warn("execution log append failed",
			zap.String("run_id", st.input.RunID),
			zap.String("step", string(step)),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}

func startMessage(attempt int) string {
	if attempt > 1 {
		return fmt.Sprintf("attempt %d", attempt)
	}
	return "step started"
}

func allStepsTerminal(latest map[models.Step]*models.StepLogEntry) bool {
	for _, step := range models.Steps {
		e, ok := latest[step]
		if !ok || !e.Status.Terminal() {
			return false
		}
	}
	return true
}

// resultFromTrace reconstructs the terminal outcome of a completed run from
// its log, for idempotent re-invocation.
func resultFromTrace(runID string, latest map[models.Step]*models.StepLogEntry) *models.RunResult {
	res := &models.RunResult{RunID: runID, Status: models.RunSuccess}
	for _, step := range models.Steps {
		e := latest[step]
		if e.DocumentID != "" {
			res.DocumentID = e.DocumentID
		}
		if e.Status == models.StatusFailed {
			if step == models.StepNotify {
				res.Degraded = true
				continue
			}
			res.Status = models.RunFailed
			res.FailedStep = step
			res.Message = e.Message
		}
	}
	return res
}
