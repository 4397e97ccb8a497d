package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hyperjump/torikomi/internal/models"
)

// MemoryChannel is an in-process channel that accumulates messages. It backs
// deployments without an external queue and doubles as the dead-letter
// destination, which operators can drain through the status API.
type MemoryChannel struct {
	id       string
	mu       sync.Mutex
	messages []*models.Notification
}

// NewMemoryChannel creates a channel with the given identifier.
func NewMemoryChannel(id string) *MemoryChannel {
	return &MemoryChannel{id: id}
}

// ID returns the channel identifier.
func (c *MemoryChannel) ID() string { return c.id }

// Send appends the message.
func (c *MemoryChannel) Send(ctx context.Context, msg *models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
	return nil
}

// Messages returns a copy of all messages received so far.
func (c *MemoryChannel) Messages() []*models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*models.Notification, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages received so far.
func (c *MemoryChannel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// WebhookChannel POSTs notifications as JSON to an HTTP endpoint.
type WebhookChannel struct {
	id     string
	url    string
	client *http.Client
}

// NewWebhookChannel creates a channel that POSTs to url. timeout bounds each
// request.
func NewWebhookChannel(id, url string, timeout time.Duration) *WebhookChannel {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookChannel{
		id:     id,
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// ID returns the channel identifier.
func (c *WebhookChannel) ID() string { return c.id }

// Send POSTs the message. Any non-2xx response is an error.
func (c *WebhookChannel) Send(ctx context.Context, msg *models.Notification) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s returned %d", c.id, resp.StatusCode)
	}
	return nil
}
