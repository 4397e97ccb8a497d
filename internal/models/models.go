// Package models defines core data structures for documents, chunks,
// execution log entries, and notifications.
package models

import "time"

// Step is a named unit of work in the fixed pipeline order.
type Step string

// Pipeline steps, in execution order.
const (
	StepInitDB   Step = "InitDB"
	StepValidate Step = "Validate"
	StepEmbed    Step = "Embed"
	StepLoad     Step = "Load"
	StepNotify   Step = "Notify"
)

// Steps is the fixed ordered step sequence of a pipeline run.
var Steps = []Step{StepInitDB, StepValidate, StepEmbed, StepLoad, StepNotify}

// StepStatus is the outcome recorded for one step attempt.
type StepStatus string

// Step attempt statuses. STARTED brackets open; SUCCESS and FAILED are terminal.
const (
	StatusStarted StepStatus = "STARTED"
	StatusSuccess StepStatus = "SUCCESS"
	StatusFailed  StepStatus = "FAILED"
)

// Terminal reports whether s is a terminal status.
func (s StepStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// DocumentStatus is the lifecycle state of a stored document.
type DocumentStatus string

// Document lifecycle states.
const (
	DocInitialized DocumentStatus = "initialized"
	DocLoaded      DocumentStatus = "loaded"
	DocFailed      DocumentStatus = "failed"
)

// StepLogEntry is one append-only record of a step attempt within a run.
// Entries are never mutated; expiry after TTL is a storage-layer concern.
type StepLogEntry struct {
	RunID      string     `json:"run_id" db:"run_id"`
	DocumentID string     `json:"document_id,omitempty" db:"document_id"`
	Step       Step       `json:"step" db:"step"`
	Status     StepStatus `json:"status" db:"status"`
	Timestamp  time.Time  `json:"timestamp" db:"timestamp"`
	Message    string     `json:"message,omitempty" db:"message"`
	TTL        time.Time  `json:"ttl" db:"ttl"`
}

// Document represents one ingested document's metadata record.
type Document struct {
	ID             string         `json:"id" db:"id"`
	Filename       string         `json:"filename" db:"filename"`
	Status         DocumentStatus `json:"status" db:"status"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	LastUpdated    time.Time      `json:"last_updated" db:"last_updated"`
	ChunkCount     int            `json:"chunk_count" db:"chunk_count"`
	SourceLocation string         `json:"source_location" db:"source_location"`
}

// Chunk is a bounded span of a document's text with its embedding vector.
// Chunks are immutable once stored.
type Chunk struct {
	DocumentID string    `json:"document_id" db:"document_id"`
	ChunkID    string    `json:"chunk_id" db:"chunk_id"`
	ChunkIndex int       `json:"chunk_index" db:"chunk_index"`
	Text       string    `json:"text" db:"text"`
	Embedding  []float32 `json:"embedding" db:"-"`
	Dimension  int       `json:"embedding_dimension" db:"embedding_dimension"`
}

// RunStatus is the terminal outcome of a pipeline run.
type RunStatus string

// Run outcomes carried in notifications and run results.
const (
	RunSuccess RunStatus = "SUCCESS"
	RunFailed  RunStatus = "FAILED"
)

// DocumentInfo identifies the document a notification is about.
type DocumentInfo struct {
	DocumentID     string `json:"document_id,omitempty"`
	Filename       string `json:"filename"`
	SourceLocation string `json:"source_location"`
}

// ProcessingResults summarizes a successful run.
type ProcessingResults struct {
	ChunkCount            int     `json:"chunk_count"`
	TextLength            int     `json:"text_length"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
}

// ErrorDetails describes a failed run.
type ErrorDetails struct {
	FailedStep   Step   `json:"failed_step"`
	ErrorMessage string `json:"error_message"`
	Retryable    bool   `json:"retryable"`
}

// Notification is the message fanned out to notification channels on a
// run's terminal outcome. ProcessingResults is set on success,
// ErrorDetails on failure.
type Notification struct {
	RunID             string             `json:"run_id"`
	Status            RunStatus          `json:"status"`
	Timestamp         time.Time          `json:"timestamp"`
	Pipeline          string             `json:"pipeline"`
	DocumentInfo      DocumentInfo       `json:"document_info"`
	ProcessingResults *ProcessingResults `json:"processing_results,omitempty"`
	ErrorDetails      *ErrorDetails      `json:"error_details,omitempty"`
}

// RunResult is what StepRunner reports back to its caller. Step-level
// failures are not returned as errors; they are recorded here and in the
// execution log.
type RunResult struct {
	RunID      string    `json:"run_id"`
	DocumentID string    `json:"document_id,omitempty"`
	Status     RunStatus `json:"status"`
	FailedStep Step      `json:"failed_step,omitempty"`
	ChunkCount int       `json:"chunk_count"`
	Message    string    `json:"message,omitempty"`
	Degraded   bool      `json:"degraded,omitempty"`
}
