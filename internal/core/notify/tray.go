package notify

import (
	"sync"
	"time"

	"github.com/duynhne/user-console/internal/core/domain"
)

// DefaultDuration is how long a toast stays visible without dismissal.
const DefaultDuration = 3 * time.Second

type entry struct {
	n     domain.Notification
	timer *time.Timer
}

// Tray is the toast display: it subscribes to a channel and keeps the
// delivered notifications, in arrival order, until each one expires or is
// dismissed.
type Tray struct {
	duration time.Duration

	mu      sync.Mutex
	entries []entry
	stopped bool

	unsubscribe func()
}

// NewTray subscribes a tray to ch. Every notification lives for d.
func NewTray(ch *Channel, d time.Duration) *Tray {
	if d <= 0 {
		d = DefaultDuration
	}
	t := &Tray{duration: d}
	t.unsubscribe = ch.Subscribe(t.push)
	return t
}

func (t *Tray) push(n domain.Notification) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}
	id := n.ID
	t.entries = append(t.entries, entry{
		n:     n,
		timer: time.AfterFunc(t.duration, func() { t.remove(id) }),
	})
}

// Duration is the lifetime given to each notification
func (t *Tray) Duration() time.Duration {
	return t.duration
}

// Dismiss removes one notification now. Others are left untouched.
func (t *Tray) Dismiss(id string) bool {
	return t.remove(id)
}

func (t *Tray) remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.entries {
		if t.entries[i].n.ID == id {
			t.entries[i].timer.Stop()
			t.entries = append(t.entries[:i:i], t.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Visible returns the notifications currently on screen, oldest first
func (t *Tray) Visible() []domain.Notification {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]domain.Notification, len(t.entries))
	for i := range t.entries {
		out[i] = t.entries[i].n
	}
	return out
}

// Stop unsubscribes the tray and cancels pending expiries
func (t *Tray) Stop() {
	t.unsubscribe()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	for _, e := range t.entries {
		e.timer.Stop()
	}
	t.entries = nil
}
