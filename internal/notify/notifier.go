// Package notify fans out run notifications to status-selected channels
// with bounded retry and a dead-letter fallback. Delivery is at-least-once:
// a message is never silently dropped, but may be delivered more than once.
// The notifier does not deduplicate; callers must not notify twice for the
// same terminal outcome of a run.
package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/torikomi/internal/models"
)

// Channel delivers a notification to one destination. Send must be safe for
// concurrent use.
type Channel interface {
	ID() string
	Send(ctx context.Context, msg *models.Notification) error
}

// Notifier delivers notifications to the general channel plus the channel
// matching the message status. Sends that exhaust their retries are routed
// to the dead-letter channel.
type Notifier struct {
	general    Channel
	success    Channel
	errors     Channel
	deadLetter Channel
	retries    int
	backoff    time.Duration
	logger     *zap.Logger
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithRetries sets how many attempts each channel send gets (minimum 1).
func WithRetries(n int) Option {
	return func(nt *Notifier) {
		if n > 0 {
			nt.retries = n
		}
	}
}

// WithBackoff sets the initial retry backoff; it doubles per attempt.
func WithBackoff(d time.Duration) Option {
	return func(nt *Notifier) {
		if d > 0 {
			nt.backoff = d
		}
	}
}

// NewNotifier creates a notifier over the four channels. general and
// deadLetter are required; success and errors may be nil, in which case only
// the general channel receives the corresponding messages.
func NewNotifier(general, success, errors, deadLetter Channel, logger *zap.Logger, opts ...Option) *Notifier {
	n := &Notifier{
		general:    general,
		success:    success,
		errors:     errors,
		deadLetter: deadLetter,
		retries:    3,
		backoff:    200 * time.Millisecond,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify fans msg out to the channels selected by its status. Each channel
// send is retried with exponential backoff; on exhaustion the message is
// deposited to the dead-letter channel instead. Notify returns an error only
// when a channel failed and the dead-letter deposit failed too — otherwise
// the message is considered delivered (possibly via dead-letter).
func (n *Notifier) Notify(ctx context.Context, msg *models.Notification) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if msg.Pipeline == "" {
		msg.Pipeline = "torikomi"
	}

	channels := []Channel{n.general}
	switch msg.Status {
	case models.RunSuccess:
		if n.success != nil {
			channels = append(channels, n.success)
		}
	case models.RunFailed:
		if n.errors != nil {
			channels = append(channels, n.errors)
		}
	}

	var firstErr error
	for _, ch := range channels {
		if err := n.sendWithRetry(ctx, ch, msg); err == nil {
			continue
		} else {
			n.logger.Warn("channel delivery exhausted, routing to dead-letter",
				zap.String("channel", ch.ID()),
				zap.String("run_id", msg.RunID),
				zap.Error(err))
		}
		if dlqErr := n.deadLetter.Send(ctx, msg); dlqErr != nil {
			n.logger.Error("dead-letter deposit failed",
				zap.String("channel", ch.ID()),
				zap.String("run_id", msg.RunID),
				zap.Error(dlqErr))
			if firstErr == nil {
				firstErr = fmt.Errorf("channel %s and dead-letter both failed: %w", ch.ID(), dlqErr)
			}
		}
	}
	return firstErr
}

func (n *Notifier) sendWithRetry(ctx context.Context, ch Channel, msg *models.Notification) error {
	backoff := n.backoff
	var lastErr error
	for attempt := 1; attempt <= n.retries; attempt++ {
		lastErr = ch.Send(ctx, msg)
		if lastErr == nil {
			return nil
		}
		if attempt == n.retries {
			break
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
