package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/editor"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/logging"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/monitoring"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/workspace"
)

type recordingNotifier struct {
	infos  []string
	errors []string
}

func (n *recordingNotifier) Info(msg string)  { n.infos = append(n.infos, msg) }
func (n *recordingNotifier) Error(msg string) { n.errors = append(n.errors, msg) }

func newLinkFixture(t *testing.T) (*linkOpener, *editor.Registry, *recordingNotifier, string) {
	t.Helper()

	root := t.TempDir()
	logger := logging.NewNop()
	metrics := monitoring.NewMetrics()

	docs, err := workspace.NewManager(logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = docs.Close() })

	registry := editor.NewRegistry(logger, metrics)
	docs.Subscribe(registry.Dispatch)
	t.Cleanup(registry.CloseAll)

	notify := &recordingNotifier{}
	links := newLinkOpener(root, docs, registry, notify, logger)
	links.newSession = func(key string) (*editor.Session, error) {
		return editor.NewSession(key, editor.Deps{
			Documents: docs,
			Notifier:  notify,
			Options:   editor.NewOptionsStore(mustState(t, root), logger),
			Metrics:   metrics,
			Logger:    logger,
		}, editor.Config{DisposeDelay: time.Second}), nil
	}
	return links, registry, notify, root
}

func mustState(t *testing.T, root string) *workspace.StateFile {
	t.Helper()
	state, err := workspace.OpenState(filepath.Join(root, "state.json"))
	require.NoError(t, err)
	return state
}

func TestWorkspaceMarkdownLinkOpensPanel(t *testing.T) {
	links, registry, notify, root := newLinkFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "linked.md"), []byte("# linked"), 0o644))

	links.Open("linked.md")

	assert.Equal(t, 1, registry.Len())
	assert.Empty(t, notify.errors)
}

func TestMissingLinkTargetNotifies(t *testing.T) {
	links, registry, notify, _ := newLinkFixture(t)

	links.Open("nowhere/ghost.md")

	assert.Equal(t, 0, registry.Len())
	assert.NotEmpty(t, notify.errors)
}

func TestEmptyLinkIgnored(t *testing.T) {
	links, registry, notify, _ := newLinkFixture(t)

	links.Open("")

	assert.Equal(t, 0, registry.Len())
	assert.Empty(t, notify.infos)
	assert.Empty(t, notify.errors)
}
