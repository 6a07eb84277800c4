package editor

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/assets"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/logging"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/monitoring"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/protocol"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/shared/id"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/shared/paths"
)

// syncDebounce is the quiet period that batches rapid document changes into
// one push. Fixed: long enough to coalesce a keystroke burst, short enough
// to stay imperceptible.
const syncDebounce = 300 * time.Millisecond

// Config carries per-session behavior settings.
type Config struct {
	// DisposeDelay is the wait between document close and panel teardown.
	DisposeDelay time.Duration
	// Theme is pushed with every update when non-empty: dark or light.
	Theme string
}

// Deps are the collaborators a session needs.
type Deps struct {
	Documents Documents
	Notifier  Notifier
	Options   *OptionsStore
	Uploader  *assets.Uploader
	// OpenLink follows a link activated inside the widget. Optional.
	OpenLink func(href string)
	Metrics  *monitoring.Metrics
	Logger   *logging.Logger
}

// Session tracks one webview panel bound to one document location.
type Session struct {
	id  id.PanelID
	key string

	docs     Documents
	notify   Notifier
	options  *OptionsStore
	uploads  *assets.Uploader
	openLink func(href string)
	metrics  *monitoring.Metrics
	logger   *logging.Logger

	disposeDelay time.Duration
	debounce     time.Duration
	theme        string

	mu      sync.Mutex
	state   State
	webview Webview
	docOpen bool
	dirty   bool
	active  bool
	visible bool
	// lastWidgetText is the widget buffer's latest text, recorded from every
	// edit message even when the focus guard rejects applying it. Explicit
	// saves pull from here.
	lastWidgetText string
	haveWidgetText bool

	onDispose func(*Session)

	// suppressEcho is held while a programmatic edit is applying, so the
	// resulting change event is not mistaken for new input. Atomic because
	// the echo arrives reentrantly on the same goroutine.
	suppressEcho atomic.Bool

	syncTimer    timer
	disposeTimer timer
}

// NewSession creates a session in Initializing state for an open document.
func NewSession(key string, deps Deps, cfg Config) *Session {
	s := &Session{
		id:           id.NewPanelID(),
		key:          key,
		docs:         deps.Documents,
		notify:       deps.Notifier,
		options:      deps.Options,
		uploads:      deps.Uploader,
		openLink:     deps.OpenLink,
		metrics:      deps.Metrics,
		logger:       deps.Logger.Named("session").With(zap.String("panel", key)),
		disposeDelay: cfg.DisposeDelay,
		debounce:     syncDebounce,
		theme:        cfg.Theme,
		state:        StateInitializing,
		docOpen:      true,
	}
	s.logger.Info("panel created", zap.String("id", string(s.id)))
	return s
}

// ID returns the session's panel ID.
func (s *Session) ID() id.PanelID { return s.id }

// Key returns the session's document location key.
func (s *Session) Key() string { return s.key }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Info is the registry's view of a session.
type Info struct {
	ID      string `json:"id"`
	Key     string `json:"key"`
	Token   string `json:"token"`
	State   string `json:"state"`
	Dirty   bool   `json:"dirty"`
	Active  bool   `json:"active"`
	Visible bool   `json:"visible"`
}

// Info returns a snapshot for the panels API.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:      string(s.id),
		Key:     s.key,
		Token:   paths.Token(s.key),
		State:   s.state.String(),
		Dirty:   s.dirty,
		Active:  s.active,
		Visible: s.visible,
	}
}

// AttachWebview binds the transport. A reattach (webview reload) replaces
// and closes the previous handle.
func (s *Session) AttachWebview(w Webview) {
	s.mu.Lock()
	prev := s.webview
	s.webview = w
	s.mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
}

// transition moves to a new state if the edge is legal. Must be called with
// the mutex held.
func (s *Session) transition(to State) bool {
	if s.state == to {
		return true
	}
	if !s.state.canTransition(to) {
		s.logger.Warn("illegal state transition refused",
			zap.Stringer("from", s.state), zap.Stringer("to", to))
		return false
	}
	s.logger.Debug("state transition",
		zap.Stringer("from", s.state), zap.Stringer("to", to))
	s.state = to
	return true
}

// HandleMessage dispatches one decoded widget or shell message.
func (s *Session) HandleMessage(msg interface{}) {
	switch m := msg.(type) {
	case *protocol.Ready:
		s.handleReady()
	case *protocol.Edit:
		s.handleEdit(m.Content)
	case *protocol.Save:
		s.handleSave()
	case *protocol.SaveOptions:
		s.handleSaveOptions(m.Options)
	case *protocol.ResetConfig:
		s.handleResetConfig()
	case *protocol.Upload:
		s.handleUpload(m.Files)
	case *protocol.OpenLink:
		s.handleOpenLink(m.Href)
	case *protocol.Info:
		s.notify.Info(m.Content)
	case *protocol.Error:
		s.notify.Error(m.Content)
	case *protocol.ViewState:
		s.handleViewState(m.Active, m.Visible)
	default:
		s.logger.Warn("unhandled message", zap.Any("message", msg))
	}
}

// handleReady moves Initializing→Active and pushes the initial content,
// persisted options and theme.
func (s *Session) handleReady() {
	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return
	}
	s.transition(StateActive)
	webview := s.webview
	s.mu.Unlock()

	if webview == nil {
		return
	}

	content, dirty := s.documentSnapshot()
	msg := protocol.NewUpdate(protocol.UpdateInit, content)
	msg.Options = s.options.Load()
	msg.Theme = s.theme
	if err := webview.Post(msg); err != nil {
		s.logger.Warn("initial push failed", zap.Error(err))
		return
	}
	s.metrics.SyncPushes.Inc()
	s.postTitle(dirty, true)
	s.logger.Info("panel ready")
}

// handleViewState updates the focus and visibility flags from the shell.
func (s *Session) handleViewState(active, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
	s.visible = visible
}

// handleSaveOptions persists a changed widget configuration map.
func (s *Session) handleSaveOptions(opts protocol.Options) {
	if err := s.options.Save(opts); err != nil {
		s.notify.Error(err.Error())
	}
}

// handleResetConfig clears the persisted widget options.
func (s *Session) handleResetConfig() {
	if err := s.options.Reset(); err != nil {
		s.notify.Error(err.Error())
		return
	}
	s.notify.Info("editor options reset")
}

// handleUpload stores an upload batch and reports the stored references.
// Best-effort: failed files are notified, successes are answered.
func (s *Session) handleUpload(files []protocol.UploadFile) {
	refs, errs := s.uploads.Store(s.key, files)
	for _, err := range errs {
		s.metrics.Uploads.WithLabelValues("error").Inc()
		s.notify.Error("upload failed: " + err.Error())
	}
	if len(refs) > 0 {
		s.metrics.Uploads.WithLabelValues("ok").Add(float64(len(refs)))
	}

	s.mu.Lock()
	webview := s.webview
	s.mu.Unlock()
	if webview != nil {
		if err := webview.Post(protocol.NewUploaded(refs)); err != nil {
			s.logger.Warn("upload ack failed", zap.Error(err))
		}
	}
}

// handleOpenLink follows a link activated inside the widget.
func (s *Session) handleOpenLink(href string) {
	if s.openLink == nil {
		s.notify.Info("link: " + href)
		return
	}
	s.openLink(href)
}

// Reveal asks the shell to bring this panel to front. Called by the registry
// instead of creating a duplicate panel.
func (s *Session) Reveal() {
	s.mu.Lock()
	webview := s.webview
	s.mu.Unlock()
	if webview != nil {
		_ = webview.Post(protocol.NewReveal())
	}
}

// OnDocumentClosed reacts to the host closing the backing document: the
// session suspends and a disposal timer starts. The decision is provisional;
// the timer re-validates when it fires.
func (s *Session) OnDocumentClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisposed {
		return
	}

	s.docOpen = false
	s.transition(StateSuspended)
	s.disposeTimer.Reschedule(s.disposeDelay, s.onDisposeTimer)
	s.logger.Info("document closed, disposal scheduled",
		zap.Duration("delay", s.disposeDelay))
}

// OnDocumentOpened reacts to the document (re)opening: a pending disposal is
// cancelled and the session resumes.
func (s *Session) OnDocumentOpened() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisposed {
		return
	}

	s.docOpen = true
	if s.state == StateSuspended || s.state == StatePendingDisposal {
		s.disposeTimer.Stop()
		s.transition(StateActive)
		// Content may have diverged while the document was closed.
		s.syncTimer.Reschedule(s.debounce, s.pushContent)
		s.logger.Info("document reopened, disposal cancelled")
	}
}

// onDisposeTimer fires after the disposal delay. The scheduling decision is
// not final: state is re-validated here, and a reopened document or a
// still-visible panel aborts the teardown.
func (s *Session) onDisposeTimer() {
	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return
	}
	if s.docOpen {
		s.transition(StateActive)
		s.mu.Unlock()
		s.logger.Info("disposal aborted, document reopened")
		return
	}
	if s.visible {
		// A panel the user can still see is never disposed, focused or not;
		// check again after another full delay.
		s.disposeTimer.Reschedule(s.disposeDelay, s.onDisposeTimer)
		s.mu.Unlock()
		s.logger.Debug("disposal deferred, panel still visible")
		return
	}
	s.transition(StatePendingDisposal)
	s.mu.Unlock()

	s.Dispose()
}

// OnPanelDismissed reacts to the webview itself being closed: disposal
// proceeds immediately, regardless of any pending timer.
func (s *Session) OnPanelDismissed() {
	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.visible = false
	s.transition(StatePendingDisposal)
	s.mu.Unlock()

	s.Dispose()
}

// Dispose tears the session down: timers stopped, webview released,
// registry notified. Idempotent; a disposed session stays disposed.
func (s *Session) Dispose() {
	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return
	}
	if s.state != StatePendingDisposal {
		s.transition(StatePendingDisposal)
	}
	s.transition(StateDisposed)

	s.syncTimer.Stop()
	s.disposeTimer.Stop()
	webview := s.webview
	s.webview = nil
	onDispose := s.onDispose
	s.onDispose = nil
	s.mu.Unlock()

	if webview != nil {
		_ = webview.Close()
	}
	if onDispose != nil {
		onDispose(s)
	}
	s.metrics.PanelsDisposed.Inc()
	s.logger.Info("panel disposed")
}

func (s *Session) setOnDispose(fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDispose = fn
}

// documentSnapshot returns the document's text and dirty flag, or zero
// values when the document is gone.
func (s *Session) documentSnapshot() (string, bool) {
	doc, ok := s.docs.Get(s.key)
	if !ok {
		return "", false
	}
	return doc.Text(), doc.Dirty()
}
