package editor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/logging"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/monitoring"
)

// bareSession builds a session with no document manager behind it, enough
// for registry bookkeeping tests.
func bareSession(key string) *Session {
	deps := Deps{
		Notifier: &fakeNotifier{},
		Options:  NewOptionsStore(newMemStore(), logging.NewNop()),
		Metrics:  monitoring.NewMetrics(),
		Logger:   logging.NewNop(),
	}
	return NewSession(key, deps, Config{DisposeDelay: testDelay})
}

func newBareRegistry() *Registry {
	return NewRegistry(logging.NewNop(), monitoring.NewMetrics())
}

func TestGetOrCreateRegistersOnce(t *testing.T) {
	r := newBareRegistry()

	first, created, err := r.GetOrCreate("/a.md", func() (*Session, error) {
		return bareSession("/a.md"), nil
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, r.Len())

	second, created, err := r.GetOrCreate("/a.md", func() (*Session, error) {
		t.Fatal("factory must not run for an existing key")
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, first, second)
	assert.Equal(t, 1, r.Len())
}

func TestSecondOpenRevealsExistingPanel(t *testing.T) {
	r := newBareRegistry()

	s, _, err := r.GetOrCreate("/a.md", func() (*Session, error) {
		return bareSession("/a.md"), nil
	})
	require.NoError(t, err)

	w := &fakeWebview{}
	s.AttachWebview(w)

	_, created, err := r.GetOrCreate("/a.md", func() (*Session, error) { return nil, nil })
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, w.reveals(), "second open focuses the live panel")
}

func TestFactoryErrorPropagates(t *testing.T) {
	r := newBareRegistry()

	_, _, err := r.GetOrCreate("/a.md", func() (*Session, error) {
		return nil, fmt.Errorf("resolution exploded")
	})
	assert.Error(t, err)
	assert.Equal(t, 0, r.Len(), "failed creations leave no entry")
}

func TestDisposeDeregisters(t *testing.T) {
	r := newBareRegistry()

	s, _, err := r.GetOrCreate("/a.md", func() (*Session, error) {
		return bareSession("/a.md"), nil
	})
	require.NoError(t, err)

	s.Dispose()
	assert.Equal(t, 0, r.Len())

	// A new session for the same key may now be created.
	_, created, err := r.GetOrCreate("/a.md", func() (*Session, error) {
		return bareSession("/a.md"), nil
	})
	require.NoError(t, err)
	assert.True(t, created)
}

func TestGetByToken(t *testing.T) {
	r := newBareRegistry()

	s, _, err := r.GetOrCreate("/a.md", func() (*Session, error) {
		return bareSession("/a.md"), nil
	})
	require.NoError(t, err)

	token := s.Info().Token
	found, ok := r.GetByToken(token)
	require.True(t, ok)
	assert.Same(t, s, found)

	_, ok = r.GetByToken("nonsense")
	assert.False(t, ok)
}

func TestCloseAll(t *testing.T) {
	r := newBareRegistry()
	for _, key := range []string{"/a.md", "/b.md", "/c.md"} {
		k := key
		_, _, err := r.GetOrCreate(k, func() (*Session, error) { return bareSession(k), nil })
		require.NoError(t, err)
	}
	require.Equal(t, 3, r.Len())

	r.CloseAll()
	assert.Equal(t, 0, r.Len())
}

// Property: under any interleaving of opens and disposals, a key never has
// more than one live session and a second open always yields the first.
func TestRegistryInvariantRapid(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r := newBareRegistry()
		live := make(map[string]*Session)
		keys := []string{"/a.md", "/b.md", "/c.md", "/d.md"}

		steps := rapid.IntRange(1, 60).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			key := rapid.SampledFrom(keys).Draw(rt, "key")
			if rapid.Bool().Draw(rt, "open") {
				s, created, err := r.GetOrCreate(key, func() (*Session, error) {
					return bareSession(key), nil
				})
				if err != nil {
					rt.Fatalf("GetOrCreate: %v", err)
				}
				if existing, ok := live[key]; ok {
					if created || s != existing {
						rt.Fatalf("key %s got a duplicate session", key)
					}
				} else {
					if !created {
						rt.Fatalf("key %s should have created a session", key)
					}
					live[key] = s
				}
			} else if s, ok := live[key]; ok {
				s.Dispose()
				delete(live, key)
			}

			if r.Len() != len(live) {
				rt.Fatalf("registry has %d sessions, model has %d", r.Len(), len(live))
			}
		}
	})
}
