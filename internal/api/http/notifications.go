package http

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/logging"
)

// Notification is one user-visible message raised by a panel or the host.
type Notification struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Panel   string    `json:"panel,omitempty"`
	Time    time.Time `json:"time"`
}

const feedCapacity = 64

// NotificationFeed collects user-visible messages. Without a surrounding
// editor chrome to pop toasts, the feed is the host's stand-in: messages are
// logged and kept in a bounded ring the shell can poll.
type NotificationFeed struct {
	logger *logging.Logger

	mu      sync.Mutex
	entries []Notification
}

// NewNotificationFeed creates an empty feed.
func NewNotificationFeed(logger *logging.Logger) *NotificationFeed {
	return &NotificationFeed{logger: logger.Named("notify")}
}

// Info records an informational message.
func (f *NotificationFeed) Info(msg string) {
	f.logger.Info("panel message", zap.String("content", msg))
	f.record(Notification{Level: "info", Message: msg, Time: time.Now()})
}

// Error records an error message.
func (f *NotificationFeed) Error(msg string) {
	f.logger.Warn("panel error", zap.String("content", msg))
	f.record(Notification{Level: "error", Message: msg, Time: time.Now()})
}

func (f *NotificationFeed) record(n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, n)
	if len(f.entries) > feedCapacity {
		f.entries = f.entries[len(f.entries)-feedCapacity:]
	}
}

// Recent returns the retained messages, oldest first.
func (f *NotificationFeed) Recent() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Notification, len(f.entries))
	copy(out, f.entries)
	return out
}
