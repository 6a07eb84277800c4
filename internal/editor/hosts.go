package editor

import (
	"github.com/kcf-jackson/vscode-markdown-editor/internal/workspace"
)

// Documents is the slice of the host document surface sessions drive.
// Implemented by workspace.Manager.
type Documents interface {
	Get(key string) (*workspace.Document, bool)
	// ApplyEdit atomically replaces the full text of an open document.
	ApplyEdit(key, content string) error
	Save(key string) error
}

// Webview is one attached editing surface. Post delivers a protocol message
// to the widget or its shell; Close releases the transport.
type Webview interface {
	Post(msg interface{}) error
	Close() error
}

// Notifier surfaces user-visible messages the way the host shows
// notifications.
type Notifier interface {
	Info(msg string)
	Error(msg string)
}

// StateStore persists values across host restarts. Implemented by
// workspace.StateFile.
type StateStore interface {
	Get(key string, out interface{}) (bool, error)
	Set(key string, value interface{}) error
	Delete(key string) error
}
