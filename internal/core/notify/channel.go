// Package notify carries transient user-facing messages from any view to
// the one toast tray of a workspace.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/duynhne/user-console/internal/core/domain"
	"github.com/duynhne/user-console/middleware"
)

// Listener consumes delivered notifications. It runs synchronously inside
// Publish and must not publish itself.
type Listener func(domain.Notification)

// Channel is a single-consumer, multi-producer notification channel.
// Only the last subscriber receives; with no subscriber, or once closed,
// notifications are dropped.
type Channel struct {
	mu       sync.Mutex
	listener Listener
	token    uint64
	closed   bool
	now      func() time.Time
}

// NewChannel creates an open channel with no listener
func NewChannel() *Channel {
	return &Channel{now: time.Now}
}

// Subscribe replaces the current listener. The returned func clears the slot
// only if it still holds this registration.
func (c *Channel) Subscribe(fn Listener) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token++
	mine := c.token
	c.listener = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.token == mine {
			c.listener = nil
		}
	}
}

// Publish builds a notification and hands it to the listener.
// Reports whether it was delivered.
func (c *Channel) Publish(message string, severity domain.Severity) bool {
	n := domain.Notification{
		ID:        newID(),
		Message:   message,
		Severity:  severity,
		CreatedAt: c.now(),
	}

	c.mu.Lock()
	fn := c.listener
	if c.closed {
		fn = nil
	}
	c.mu.Unlock()

	middleware.CountNotification(string(severity), fn != nil)
	if fn == nil {
		return false
	}
	fn(n)
	return true
}

// Close drops the listener; later publishes are discarded
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.listener = nil
}

// newID returns a time-ordered unique id.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

var _ domain.Notifier = (*Channel)(nil)
