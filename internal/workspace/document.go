package workspace

import (
	"sync"
)

// Document is one open text document, identified by its location key.
// Text is mutated only by the Manager; readers get consistent snapshots.
type Document struct {
	key  string
	path string

	mu      sync.RWMutex
	text    string
	version int
	dirty   bool
}

// Key returns the document's canonical location key.
func (d *Document) Key() string { return d.key }

// Path returns the document's filesystem path.
func (d *Document) Path() string { return d.path }

// Text returns the current document text.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

// Version returns a counter incremented on every text change.
func (d *Document) Version() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// Dirty reports whether the document has unsaved changes.
func (d *Document) Dirty() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.dirty
}

// setText replaces the entire text in one step.
func (d *Document) setText(text string, dirty bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text = text
	d.version++
	d.dirty = dirty
}

// markSaved clears the dirty flag.
func (d *Document) markSaved() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dirty = false
}

// snapshot returns text and dirty under one lock.
func (d *Document) snapshot() (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text, d.dirty
}
