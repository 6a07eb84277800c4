package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/logging"
)

// eventLog collects emitted events for assertions.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) record(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) kinds() []EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventKind, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Kind
	}
	return out
}

func (l *eventLog) waitFor(t *testing.T, kind EventKind, timeout time.Duration) Event {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		l.mu.Lock()
		for _, ev := range l.events {
			if ev.Kind == kind {
				l.mu.Unlock()
				return ev
			}
		}
		l.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no %s event within %s", kind, timeout)
	return Event{}
}

func newTestManager(t *testing.T) (*Manager, *eventLog) {
	t.Helper()
	m, err := NewManager(logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	log := &eventLog{}
	m.Subscribe(log.record)
	return m, log
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOpenReadsContent(t *testing.T) {
	m, log := newTestManager(t)
	path := writeDoc(t, t.TempDir(), "a.md", "# hello\n")

	doc, err := m.Open(path)
	require.NoError(t, err)
	assert.Equal(t, "# hello\n", doc.Text())
	assert.False(t, doc.Dirty())
	assert.Equal(t, []EventKind{EventOpened}, log.kinds())
}

func TestOpenRejectsNonMarkdown(t *testing.T) {
	m, _ := newTestManager(t)
	path := writeDoc(t, t.TempDir(), "a.txt", "hi")

	_, err := m.Open(path)
	assert.ErrorIs(t, err, ErrNotMarkdown)
}

func TestOpenRejectsNonUTF8(t *testing.T) {
	m, _ := newTestManager(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "latin1.md")
	require.NoError(t, os.WriteFile(path, []byte{'c', 'a', 'f', 0xE9, '\n'}, 0o644))

	_, err := m.Open(path)
	assert.ErrorIs(t, err, ErrNotUTF8)
}

func TestOpenTwiceReturnsSameDocument(t *testing.T) {
	m, log := newTestManager(t)
	path := writeDoc(t, t.TempDir(), "a.md", "x")

	first, err := m.Open(path)
	require.NoError(t, err)
	second, err := m.Open(path)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, []EventKind{EventOpened, EventOpened}, log.kinds(),
		"reopen re-emits Opened so pending disposals get cancelled")
}

func TestApplyEditMarksDirtyAndEmits(t *testing.T) {
	m, log := newTestManager(t)
	path := writeDoc(t, t.TempDir(), "a.md", "old")

	doc, err := m.Open(path)
	require.NoError(t, err)

	require.NoError(t, m.ApplyEdit(doc.Key(), "new"))
	assert.Equal(t, "new", doc.Text())
	assert.True(t, doc.Dirty())

	last := log.kinds()[len(log.kinds())-1]
	assert.Equal(t, EventChanged, last)
}

func TestSaveWritesAndClearsDirty(t *testing.T) {
	m, log := newTestManager(t)
	path := writeDoc(t, t.TempDir(), "a.md", "old")

	doc, err := m.Open(path)
	require.NoError(t, err)
	require.NoError(t, m.ApplyEdit(doc.Key(), "new content"))
	require.NoError(t, m.Save(doc.Key()))

	assert.False(t, doc.Dirty())
	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new content", string(onDisk))
	log.waitFor(t, EventSaved, time.Second)
}

func TestSaveUnopenedFails(t *testing.T) {
	m, _ := newTestManager(t)
	assert.ErrorIs(t, m.Save("/nowhere/a.md"), ErrNotOpen)
}

func TestCloseDocIdempotent(t *testing.T) {
	m, log := newTestManager(t)
	path := writeDoc(t, t.TempDir(), "a.md", "x")

	doc, err := m.Open(path)
	require.NoError(t, err)

	m.CloseDoc(doc.Key())
	m.CloseDoc(doc.Key())

	_, ok := m.Get(doc.Key())
	assert.False(t, ok)

	closed := 0
	for _, k := range log.kinds() {
		if k == EventClosed {
			closed++
		}
	}
	assert.Equal(t, 1, closed)
}

func TestExternalWriteReloads(t *testing.T) {
	m, log := newTestManager(t)
	path := writeDoc(t, t.TempDir(), "a.md", "before")

	doc, err := m.Open(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("after"), 0o644))

	ev := log.waitFor(t, EventChanged, 2*time.Second)
	assert.Equal(t, SourceExternal, ev.Source)
	assert.Equal(t, "after", doc.Text())
	assert.False(t, doc.Dirty())
}

func TestExternalWriteIgnoredWhenDirty(t *testing.T) {
	m, _ := newTestManager(t)
	path := writeDoc(t, t.TempDir(), "a.md", "before")

	doc, err := m.Open(path)
	require.NoError(t, err)
	require.NoError(t, m.ApplyEdit(doc.Key(), "unsaved"))

	require.NoError(t, os.WriteFile(path, []byte("external"), 0o644))
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, "unsaved", doc.Text(), "unsaved edits win over external writes")
}

func TestScanMarkdown(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules", "pkg"), 0o755))
	writeDoc(t, dir, "readme.md", "x")
	writeDoc(t, filepath.Join(dir, "docs"), "guide.markdown", "x")
	writeDoc(t, filepath.Join(dir, "node_modules", "pkg"), "skip.md", "x")
	writeDoc(t, dir, "main.txt", "x")

	found, err := ScanMarkdown(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/guide.markdown", "readme.md"}, found)
}
