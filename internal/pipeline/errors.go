package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// transienter is implemented by collaborator errors that carry a
// retry classification (extract.Error, embedding.Error).
type transienter interface {
	Transient() bool
}

// IsTransient reports whether err may succeed on retry. Collaborator errors
// report their own classification; a deadline expiry counts as transient.
// Everything else — validation failures, storage errors, malformed input —
// is permanent.
func IsTransient(err error) bool {
	var t transienter
	if errors.As(err, &t) {
		return t.Transient()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// validationError is a permanent failure raised by the pipeline's own
// checks (empty text, missing fields).
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func validationErrorf(format string, args ...interface{}) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}
