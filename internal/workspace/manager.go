package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"
	"github.com/saintfish/chardet"
	"go.uber.org/zap"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/logging"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/shared/paths"
)

// Sentinel errors for rejected open and edit requests.
var (
	ErrNotMarkdown = errors.New("not a markdown file")
	ErrNotOpen     = errors.New("document is not open")
	ErrNotUTF8     = errors.New("file is not UTF-8 encoded")
)

// EventKind classifies document lifecycle events.
type EventKind int

const (
	EventOpened EventKind = iota
	EventChanged
	EventClosed
	EventSaved
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventOpened:
		return "opened"
	case EventChanged:
		return "changed"
	case EventClosed:
		return "closed"
	case EventSaved:
		return "saved"
	default:
		return "unknown"
	}
}

// Source marks who caused a change event.
type Source int

const (
	// SourceEditor marks programmatic edits applied through ApplyEdit.
	SourceEditor Source = iota
	// SourceExternal marks changes picked up from the filesystem watcher.
	SourceExternal
)

// String returns the source name.
func (s Source) String() string {
	if s == SourceEditor {
		return "editor"
	}
	return "external"
}

// Event is one document lifecycle notification.
type Event struct {
	Kind   EventKind
	Key    string
	Source Source
}

// Manager owns the set of open documents and their lifecycle events.
//
// Events are delivered synchronously, in emission order, on the goroutine
// that caused them. A subscriber that mutates documents from inside a handler
// will observe its own events reentrantly; the sync engine's echo guard
// relies on exactly that.
type Manager struct {
	mu      sync.RWMutex
	docs    map[string]*Document
	subs    []func(Event)
	watcher *fsnotify.Watcher
	done    chan struct{}
	logger  *logging.Logger
}

// NewManager creates a document manager and starts its filesystem watcher.
func NewManager(logger *logging.Logger) (*Manager, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("start file watcher: %w", err)
	}

	m := &Manager{
		docs:    make(map[string]*Document),
		watcher: watcher,
		done:    make(chan struct{}),
		logger:  logger.Named("workspace"),
	}
	go m.watch()
	return m, nil
}

// Subscribe registers an event handler. Not safe to call concurrently with
// event delivery; wire subscribers during startup.
func (m *Manager) Subscribe(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

func (m *Manager) emit(ev Event) {
	m.mu.RLock()
	subs := m.subs
	m.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// Open loads path into a document and starts watching its file. Reopening an
// already-open document returns the existing instance and re-emits Opened,
// which is what cancels a pending disposal.
func (m *Manager) Open(path string) (*Document, error) {
	if !paths.IsMarkdown(path) {
		return nil, fmt.Errorf("%w: %s", ErrNotMarkdown, path)
	}
	key, err := paths.Key(path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if doc, ok := m.docs[key]; ok {
		m.mu.Unlock()
		m.emit(Event{Kind: EventOpened, Key: key})
		return doc, nil
	}
	m.mu.Unlock()

	text, err := readTextFile(filepath.FromSlash(key))
	if err != nil {
		return nil, err
	}

	doc := &Document{key: key, path: filepath.FromSlash(key), text: text, version: 1}

	m.mu.Lock()
	if existing, ok := m.docs[key]; ok {
		// Lost a concurrent open race; keep the first instance.
		m.mu.Unlock()
		m.emit(Event{Kind: EventOpened, Key: key})
		return existing, nil
	}
	m.docs[key] = doc
	m.mu.Unlock()

	if err := m.watcher.Add(doc.path); err != nil {
		m.logger.Warn("cannot watch document", zap.String("path", doc.path), zap.Error(err))
	}

	m.logger.Info("document opened", zap.String("key", key))
	m.emit(Event{Kind: EventOpened, Key: key})
	return doc, nil
}

// Get returns the open document for a key.
func (m *Manager) Get(key string) (*Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[key]
	return doc, ok
}

// Keys returns the keys of all open documents, sorted.
func (m *Manager) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.docs))
	for key := range m.docs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ApplyEdit atomically replaces the full text of an open document and emits
// an editor-sourced change event.
func (m *Manager) ApplyEdit(key, content string) error {
	doc, ok := m.Get(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotOpen, key)
	}
	doc.setText(content, true)
	m.emit(Event{Kind: EventChanged, Key: key, Source: SourceEditor})
	return nil
}

// Save writes an open document to disk and clears its dirty flag.
func (m *Manager) Save(key string) error {
	doc, ok := m.Get(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotOpen, key)
	}
	text, _ := doc.snapshot()
	if err := os.WriteFile(doc.path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("save %s: %w", doc.path, err)
	}
	doc.markSaved()
	m.emit(Event{Kind: EventSaved, Key: key})
	return nil
}

// CloseDoc closes an open document. Idempotent.
func (m *Manager) CloseDoc(key string) {
	m.mu.Lock()
	doc, ok := m.docs[key]
	if ok {
		delete(m.docs, key)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	_ = m.watcher.Remove(doc.path)
	m.logger.Info("document closed", zap.String("key", key))
	m.emit(Event{Kind: EventClosed, Key: key})
}

// Close stops the watcher. Open documents are dropped without events.
func (m *Manager) Close() error {
	close(m.done)
	return m.watcher.Close()
}

// watch feeds filesystem changes back into the document model.
func (m *Manager) watch() {
	for {
		select {
		case <-m.done:
			return
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.handleFsEvent(ev)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (m *Manager) handleFsEvent(ev fsnotify.Event) {
	key, err := paths.Key(ev.Name)
	if err != nil {
		return
	}
	doc, ok := m.Get(key)
	if !ok {
		return
	}

	switch {
	case ev.Op.Has(fsnotify.Write):
		m.reload(doc)
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		// Many editors save via rename-replace. If the file still exists the
		// watch needs re-arming and the content a reload; a true deletion
		// closes the document.
		if _, statErr := os.Stat(doc.path); statErr == nil {
			if addErr := m.watcher.Add(doc.path); addErr != nil {
				m.logger.Warn("cannot rewatch document", zap.String("path", doc.path), zap.Error(addErr))
			}
			m.reload(doc)
		} else {
			m.CloseDoc(key)
		}
	}
}

// reload re-reads an externally modified file. Unsaved in-editor changes win
// over the external write; the conflict is logged, not resolved.
func (m *Manager) reload(doc *Document) {
	text, dirty := doc.snapshot()
	if dirty {
		m.logger.Warn("external change ignored, document has unsaved edits",
			zap.String("key", doc.Key()))
		return
	}

	fresh, err := readTextFile(doc.path)
	if err != nil {
		m.logger.Warn("cannot reload document", zap.String("path", doc.path), zap.Error(err))
		return
	}
	if fresh == text {
		// Our own save, or a no-op write.
		return
	}

	doc.setText(fresh, false)
	m.emit(Event{Kind: EventChanged, Key: doc.Key(), Source: SourceExternal})
}

// readTextFile reads a file and rejects non-UTF-8 content, naming the
// detected encoding in the error.
func readTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}) // strip UTF-8 BOM
	if !utf8.Valid(data) {
		detected := "unknown encoding"
		if result, derr := chardet.NewTextDetector().DetectBest(data); derr == nil {
			detected = result.Charset
		}
		return "", fmt.Errorf("%w: %s looks like %s", ErrNotUTF8, path, detected)
	}
	return string(data), nil
}
