package editor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/logging"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/protocol"
)

func TestOptionsLoadEmptyWhenAbsent(t *testing.T) {
	o := NewOptionsStore(newMemStore(), logging.NewNop())
	assert.Empty(t, o.Load())
}

func TestOptionsSaveRoundTrip(t *testing.T) {
	o := NewOptionsStore(newMemStore(), logging.NewNop())

	opts := protocol.Options{"mode": "wysiwyg", "outline": true}
	require.NoError(t, o.Save(opts))

	loaded := o.Load()
	assert.Equal(t, "wysiwyg", loaded["mode"])
	assert.Equal(t, true, loaded["outline"])
}

func TestOptionsSaveReplacesWhole(t *testing.T) {
	o := NewOptionsStore(newMemStore(), logging.NewNop())

	require.NoError(t, o.Save(protocol.Options{"mode": "ir", "outline": true}))
	require.NoError(t, o.Save(protocol.Options{"mode": "sv"}))

	loaded := o.Load()
	assert.Equal(t, "sv", loaded["mode"])
	_, ok := loaded["outline"]
	assert.False(t, ok, "save replaces, never merges")
}

func TestOptionsReset(t *testing.T) {
	o := NewOptionsStore(newMemStore(), logging.NewNop())

	require.NoError(t, o.Save(protocol.Options{"mode": "wysiwyg"}))
	require.NoError(t, o.Reset())
	assert.Empty(t, o.Load())
}

type failingStore struct{}

func (failingStore) Get(string, interface{}) (bool, error) { return false, fmt.Errorf("bad read") }
func (failingStore) Set(string, interface{}) error         { return fmt.Errorf("bad write") }
func (failingStore) Delete(string) error                   { return fmt.Errorf("bad delete") }

func TestOptionsBackendFailures(t *testing.T) {
	o := NewOptionsStore(failingStore{}, logging.NewNop())

	assert.Empty(t, o.Load(), "unreadable options degrade to defaults")
	assert.Error(t, o.Save(protocol.Options{"mode": "ir"}))
	assert.Error(t, o.Reset())
}
