// Package execlog provides the append-only execution trace for pipeline runs.
package execlog

import (
	"context"
	"time"

	"github.com/hyperjump/torikomi/internal/models"
)

// DefaultTTL is how long log entries are retained before the storage layer
// may purge them.
const DefaultTTL = 30 * 24 * time.Hour

// Log records pipeline step attempts. Append is the only mutation; entries
// are never updated or deleted through this interface. Implementations must
// be safe for concurrent appends from independent runs.
type Log interface {
	// Append writes one entry. Timestamp and TTL are filled in when zero.
	Append(ctx context.Context, entry *models.StepLogEntry) error

	// QueryRun returns all entries for a run ordered by timestamp ascending,
	// materialized from storage on each call.
	QueryRun(ctx context.Context, runID string) ([]*models.StepLogEntry, error)

	// QueryStepStatus returns entries for a step+status across all runs,
	// in no particular order.
	QueryStepStatus(ctx context.Context, step models.Step, status models.StepStatus) ([]*models.StepLogEntry, error)

	// Stuck returns STARTED entries older than olderThan whose (run, step)
	// has no terminal entry. These are abandoned or crashed attempts.
	Stuck(ctx context.Context, olderThan time.Time) ([]*models.StepLogEntry, error)

	Close() error
}

// LatestPerStep folds a run's ordered entries down to the last entry seen
// for each step. Useful for deriving run state from the trace.
func LatestPerStep(entries []*models.StepLogEntry) map[models.Step]*models.StepLogEntry {
	latest := make(map[models.Step]*models.StepLogEntry, len(models.Steps))
	for _, e := range entries {
		latest[e.Step] = e
	}
	return latest
}
