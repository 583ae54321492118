package domain

import "time"

// Severity of a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is a transient message shown by the toast tray.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier publishes notifications. Views depend on this instead of the
// concrete channel.
type Notifier interface {
	Publish(message string, severity Severity) bool
}
