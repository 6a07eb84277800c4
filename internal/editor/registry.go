package editor

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/logging"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/monitoring"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/shared/paths"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/workspace"
)

// Registry is the process-wide index of live panel sessions, at most one per
// document location key. Purely in-memory: it is rebuilt empty on restart,
// panels from a prior run cannot be reattached.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	byToken  map[string]string // URL token → location key

	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *logging.Logger, metrics *monitoring.Metrics) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		byToken:  make(map[string]string),
		logger:   logger.Named("registry"),
		metrics:  metrics,
	}
}

// GetOrCreate returns the live session for key, revealing it instead of
// creating a duplicate. When none exists the factory builds one and it is
// registered. The second return reports whether a session was created.
func (r *Registry) GetOrCreate(key string, factory func() (*Session, error)) (*Session, bool, error) {
	r.mu.Lock()
	if existing, ok := r.sessions[key]; ok {
		r.mu.Unlock()
		existing.Reveal()
		r.logger.Debug("existing panel revealed", zap.String("key", key))
		return existing, false, nil
	}
	r.mu.Unlock()

	session, err := factory()
	if err != nil {
		return nil, false, err
	}

	r.mu.Lock()
	if existing, ok := r.sessions[key]; ok {
		// Lost a concurrent create race; the newcomer yields.
		r.mu.Unlock()
		session.Dispose()
		existing.Reveal()
		return existing, false, nil
	}
	r.sessions[key] = session
	r.byToken[paths.Token(key)] = key
	r.mu.Unlock()

	session.setOnDispose(func(s *Session) { r.remove(key, s) })
	r.metrics.PanelsLive.Inc()
	r.metrics.PanelsOpened.Inc()
	r.logger.Info("panel registered", zap.String("key", key))
	return session, true, nil
}

// Get returns the live session for a location key.
func (r *Registry) Get(key string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	return s, ok
}

// GetByToken returns the live session addressed by a URL token.
func (r *Registry) GetByToken(token string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.byToken[token]
	if !ok {
		return nil, false
	}
	s, ok := r.sessions[key]
	return s, ok
}

// remove deregisters a session if it is still the one stored for the key.
// Idempotent; called from Session.Dispose.
func (r *Registry) remove(key string, s *Session) {
	r.mu.Lock()
	current, ok := r.sessions[key]
	if !ok || current != s {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, key)
	delete(r.byToken, paths.Token(key))
	r.mu.Unlock()

	r.metrics.PanelsLive.Dec()
	r.logger.Info("panel deregistered", zap.String("key", key))
}

// List returns a snapshot of all live sessions, ordered by key.
func (r *Registry) List() []Info {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	infos := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Dispatch routes a document lifecycle event to the session bound to its
// key, if any. Wired as the workspace manager's subscriber.
func (r *Registry) Dispatch(ev workspace.Event) {
	session, ok := r.Get(ev.Key)
	if !ok {
		return
	}
	switch ev.Kind {
	case workspace.EventOpened:
		session.OnDocumentOpened()
	case workspace.EventChanged:
		session.OnDocumentChanged(ev.Source)
	case workspace.EventClosed:
		session.OnDocumentClosed()
	case workspace.EventSaved:
		session.OnDocumentSaved()
	}
}

// CloseAll disposes every live session. Used at shutdown.
func (r *Registry) CloseAll() {
	for _, info := range r.List() {
		if s, ok := r.Get(info.Key); ok {
			s.Dispose()
		}
	}
}
