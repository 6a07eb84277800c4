package editor

import (
	"go.uber.org/zap"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/protocol"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/shared/paths"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/workspace"
)

// Document → webview direction.

// OnDocumentChanged reacts to a document change notification. Echoes of the
// session's own programmatic edits are discarded; changes while the panel is
// focused are suppressed, because during active editing the widget buffer is
// ground truth; everything else resets the debounce timer, so a burst of
// changes yields exactly one push carrying the final text.
func (s *Session) OnDocumentChanged(source workspace.Source) {
	if s.suppressEcho.Load() {
		s.metrics.SyncEchoSuppressed.Inc()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisposed {
		return
	}
	if s.active {
		return
	}
	if s.syncTimer.Reschedule(s.debounce, s.pushContent) {
		s.metrics.SyncCoalesced.Inc()
	}
	s.logger.Debug("push scheduled", zap.Stringer("source", source))
}

// pushContent runs after the debounce quiet period: it pushes the current
// full document text and refreshes the dirty title indicator. The focus
// guard is re-checked here; focus gained inside the quiet period cancels
// the push, otherwise a mid-typing setValue would move the caret. The next
// unfocused change or an explicit save reconciles.
func (s *Session) pushContent() {
	s.mu.Lock()
	if s.state == StateDisposed || s.webview == nil || s.active {
		s.mu.Unlock()
		return
	}
	webview := s.webview
	s.mu.Unlock()

	content, dirty := s.documentSnapshot()
	msg := protocol.NewUpdate(protocol.UpdateContent, content)
	msg.Theme = s.theme
	if err := webview.Post(msg); err != nil {
		s.logger.Warn("content push failed", zap.Error(err))
		return
	}
	s.metrics.SyncPushes.Inc()
	s.postTitle(dirty, false)
}

// Webview → document direction.

// handleEdit records the widget buffer and, when the panel is focused,
// applies it to the document. Unfocused edit messages are treated as echoes
// of a push and not applied; their text is still recorded so an explicit
// save can pull it.
func (s *Session) handleEdit(content string) {
	s.mu.Lock()
	s.lastWidgetText = content
	s.haveWidgetText = true
	if s.state == StateDisposed || !s.active {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.applyToDocument(content)
}

// applyToDocument replaces the document text in one atomic host edit. The
// echo-suppression flag is held for the duration and released
// unconditionally, so the resulting change event is never re-processed.
func (s *Session) applyToDocument(content string) {
	s.suppressEcho.Store(true)
	defer s.suppressEcho.Store(false)

	if err := s.docs.ApplyEdit(s.key, content); err != nil {
		s.notify.Error("cannot apply edit: " + err.Error())
		return
	}
	s.metrics.SyncPulls.Inc()
	s.postTitle(true, false)
}

// handleSave performs an explicit save: force a webview→document pull (the
// focus guard does not apply), save through the host, refresh the title.
func (s *Session) handleSave() {
	s.mu.Lock()
	content, have := s.lastWidgetText, s.haveWidgetText
	s.mu.Unlock()

	if have {
		if current, _ := s.documentSnapshot(); current != content {
			s.applyToDocument(content)
		}
	}

	if err := s.docs.Save(s.key); err != nil {
		s.notify.Error("save failed: " + err.Error())
		return
	}
	s.postTitle(false, false)
}

// OnDocumentSaved refreshes the title when the document is saved through any
// path, including saves this session did not initiate.
func (s *Session) OnDocumentSaved() {
	s.postTitle(false, false)
}

// postTitle updates the panel title with the dirty indicator. Edge-triggered
// on the dirty flag unless force is set, so unchanged state causes no UI
// churn.
func (s *Session) postTitle(dirty, force bool) {
	s.mu.Lock()
	if !force && s.dirty == dirty {
		s.mu.Unlock()
		return
	}
	s.dirty = dirty
	webview := s.webview
	s.mu.Unlock()

	if webview == nil {
		return
	}
	title := paths.Base(s.key)
	if dirty {
		title = "● " + title
	}
	_ = webview.Post(protocol.NewSetTitle(title))
}
