package editor

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/protocol"
)

func TestDebounceCoalescesBursts(t *testing.T) {
	f := newFixture(t, "v0")
	f.ready(t)

	// A burst of rapid document changes within one debounce window.
	for i := 1; i <= 5; i++ {
		require.NoError(t, f.docs.ApplyEdit(f.key, "v"+itoa(i)))
		time.Sleep(testDebounce / 6)
	}

	time.Sleep(4 * testDebounce)

	updates := f.webview.updates()
	require.Len(t, updates, 1, "a burst must yield exactly one push")
	assert.Equal(t, "v5", updates[0].Content, "the push carries the final content only")
}

func TestFocusedPanelSuppressesPush(t *testing.T) {
	f := newFixture(t, "v0")
	f.ready(t)
	f.focus(t, true, true)

	require.NoError(t, f.docs.ApplyEdit(f.key, "changed"))
	time.Sleep(4 * testDebounce)

	assert.Empty(t, f.webview.updates(), "the focused widget is ground truth")
}

func TestFocusGainedDuringDebounceSuppressesPush(t *testing.T) {
	f := newFixture(t, "v0")
	f.ready(t)

	// The change is scheduled while unfocused, then focus arrives before the
	// debounce fires. The pending push must be dropped, not delivered into
	// the user's typing.
	require.NoError(t, f.docs.ApplyEdit(f.key, "changed"))
	f.focus(t, true, true)

	time.Sleep(4 * testDebounce)
	assert.Empty(t, f.webview.updates(), "no push may land on a focused panel")
}

func TestFocusedEditAppliesWithoutEcho(t *testing.T) {
	f := newFixture(t, "before")
	f.ready(t)
	f.focus(t, true, true)

	f.session.HandleMessage(&protocol.Edit{Command: protocol.CmdEdit, Content: "after"})

	doc, ok := f.docs.Get(f.key)
	require.True(t, ok)
	assert.Equal(t, "after", doc.Text())
	assert.True(t, doc.Dirty())

	// The change event caused by the edit must not bounce back as a push.
	time.Sleep(4 * testDebounce)
	assert.Empty(t, f.webview.updates())
}

func TestRoundTripConverges(t *testing.T) {
	f := newFixture(t, "v0")
	f.ready(t)

	// Host-side change pushes to the unfocused panel.
	require.NoError(t, f.docs.ApplyEdit(f.key, "C"))
	time.Sleep(4 * testDebounce)
	updates := f.webview.updates()
	require.Len(t, updates, 1)
	require.Equal(t, "C", updates[0].Content)
	f.webview.reset()

	// The widget echoes the same content as an edit once focused; applying
	// it must not trigger a further push.
	f.focus(t, true, true)
	f.session.HandleMessage(&protocol.Edit{Command: protocol.CmdEdit, Content: "C"})

	doc, _ := f.docs.Get(f.key)
	assert.Equal(t, "C", doc.Text())
	time.Sleep(4 * testDebounce)
	assert.Empty(t, f.webview.updates(), "no push may result from the round trip")
}

func TestUnfocusedEditNotApplied(t *testing.T) {
	f := newFixture(t, "original")
	f.ready(t)
	// Panel never reported focus: edit messages are probable echoes.

	f.session.HandleMessage(&protocol.Edit{Command: protocol.CmdEdit, Content: "sneaky"})

	doc, _ := f.docs.Get(f.key)
	assert.Equal(t, "original", doc.Text())
}

func TestSaveForcesPullDespiteFocusGuard(t *testing.T) {
	f := newFixture(t, "original")
	f.ready(t)
	// Unfocused: the edit is recorded but not applied.
	f.session.HandleMessage(&protocol.Edit{Command: protocol.CmdEdit, Content: "latest widget text"})

	doc, _ := f.docs.Get(f.key)
	require.Equal(t, "original", doc.Text())

	f.session.HandleMessage(&protocol.Save{Command: protocol.CmdSave})

	assert.Equal(t, "latest widget text", doc.Text(), "save pulls the widget buffer first")
	assert.False(t, doc.Dirty())

	onDisk, err := os.ReadFile(f.path)
	require.NoError(t, err)
	assert.Equal(t, "latest widget text", string(onDisk))
}

func TestDirtyTitleEdgeTriggered(t *testing.T) {
	f := newFixture(t, "v0")
	f.ready(t)
	f.focus(t, true, true)

	f.session.HandleMessage(&protocol.Edit{Command: protocol.CmdEdit, Content: "v1"})
	titles := f.webview.titles()
	require.Len(t, titles, 1, "first dirty transition updates the title")
	assert.True(t, strings.HasPrefix(titles[0], "● "))

	// Still dirty: no further title churn.
	f.session.HandleMessage(&protocol.Edit{Command: protocol.CmdEdit, Content: "v2"})
	assert.Len(t, f.webview.titles(), 1)

	// Saving transitions back to clean.
	f.session.HandleMessage(&protocol.Save{Command: protocol.CmdSave})
	titles = f.webview.titles()
	require.Len(t, titles, 2)
	assert.False(t, strings.HasPrefix(titles[1], "● "))
}

func TestExternalFileChangeReachesWidget(t *testing.T) {
	f := newFixture(t, "v0")
	f.ready(t)

	require.NoError(t, os.WriteFile(f.path, []byte("external edit"), 0o644))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		updates := f.webview.updates()
		if len(updates) > 0 {
			assert.Equal(t, "external edit", updates[len(updates)-1].Content)
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("external change never pushed to the widget")
}

func itoa(n int) string {
	return string(rune('0' + n))
}
