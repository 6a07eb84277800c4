package editor

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/assets"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/logging"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/monitoring"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/protocol"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/workspace"
)

const (
	testDebounce = 30 * time.Millisecond
	testDelay    = 60 * time.Millisecond
)

// fakeWebview records every posted message.
type fakeWebview struct {
	mu     sync.Mutex
	posts  []interface{}
	closed bool
}

func (w *fakeWebview) Post(msg interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.posts = append(w.posts, msg)
	return nil
}

func (w *fakeWebview) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWebview) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *fakeWebview) updates() []*protocol.Update {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []*protocol.Update
	for _, p := range w.posts {
		if u, ok := p.(*protocol.Update); ok {
			out = append(out, u)
		}
	}
	return out
}

func (w *fakeWebview) titles() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for _, p := range w.posts {
		if t, ok := p.(*protocol.SetTitle); ok {
			out = append(out, t.Content)
		}
	}
	return out
}

func (w *fakeWebview) reveals() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, p := range w.posts {
		if _, ok := p.(*protocol.Reveal); ok {
			n++
		}
	}
	return n
}

func (w *fakeWebview) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.posts = nil
}

// fakeNotifier records notifications.
type fakeNotifier struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (n *fakeNotifier) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, msg)
}

func (n *fakeNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

// memStore is an in-memory StateStore.
type memStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string][]byte)}
}

func (m *memStore) Get(key string, out interface{}) (bool, error) {
	m.mu.Lock()
	raw, ok := m.values[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, sonic.Unmarshal(raw, out)
}

func (m *memStore) Set(key string, value interface{}) error {
	raw, err := sonic.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.values[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *memStore) Delete(key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

// fixture wires a real document manager, a registry and one session over a
// temp markdown file, with test-sized timers.
type fixture struct {
	docs     *workspace.Manager
	registry *Registry
	session  *Session
	webview  *fakeWebview
	notify   *fakeNotifier
	path     string
	key      string
}

func newFixture(t *testing.T, initialContent string) *fixture {
	t.Helper()

	docs, err := workspace.NewManager(logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = docs.Close() })

	metrics := monitoring.NewMetrics()
	registry := NewRegistry(logging.NewNop(), metrics)
	docs.Subscribe(registry.Dispatch)

	path := filepath.Join(t.TempDir(), "note.md")
	require.NoError(t, os.WriteFile(path, []byte(initialContent), 0o644))

	doc, err := docs.Open(path)
	require.NoError(t, err)

	deps := Deps{
		Documents: docs,
		Notifier:  &fakeNotifier{},
		Options:   NewOptionsStore(newMemStore(), logging.NewNop()),
		Uploader:  assets.NewUploader(assets.Resolver{Template: "assets"}),
		Metrics:   metrics,
		Logger:    logging.NewNop(),
	}
	notify := deps.Notifier.(*fakeNotifier)

	session, created, err := registry.GetOrCreate(doc.Key(), func() (*Session, error) {
		s := NewSession(doc.Key(), deps, Config{DisposeDelay: testDelay})
		s.debounce = testDebounce
		return s, nil
	})
	require.NoError(t, err)
	require.True(t, created)

	webview := &fakeWebview{}
	session.AttachWebview(webview)

	return &fixture{
		docs:     docs,
		registry: registry,
		session:  session,
		webview:  webview,
		notify:   notify,
		path:     path,
		key:      doc.Key(),
	}
}

// ready drives the session to Active and clears bootstrap traffic.
func (f *fixture) ready(t *testing.T) {
	t.Helper()
	f.session.HandleMessage(&protocol.Ready{Command: protocol.CmdReady})
	require.Equal(t, StateActive, f.session.State())
	f.webview.reset()
}

// focus simulates the shell reporting focus and visibility.
func (f *fixture) focus(t *testing.T, active, visible bool) {
	t.Helper()
	f.session.HandleMessage(&protocol.ViewState{Command: protocol.CmdViewState, Active: active, Visible: visible})
}

// waitState polls for a lifecycle state.
func waitState(t *testing.T, s *Session, want State, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.State() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("state is %s, want %s", s.State(), want)
}
