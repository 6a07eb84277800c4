package server

import (
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/editor"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/logging"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/shared/paths"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/workspace"
)

// Notifier is the user-visible message sink link handling reports through.
type Notifier interface {
	Info(msg string)
	Error(msg string)
}

// linkOpener follows links activated inside the widget. Workspace markdown
// files open in their own panel; everything else goes to the system opener.
type linkOpener struct {
	root       string
	docs       *workspace.Manager
	registry   *editor.Registry
	notify     Notifier
	newSession func(key string) (*editor.Session, error)
	logger     *logging.Logger
}

func newLinkOpener(root string, docs *workspace.Manager, registry *editor.Registry, notify Notifier, logger *logging.Logger) *linkOpener {
	return &linkOpener{
		root:     root,
		docs:     docs,
		registry: registry,
		notify:   notify,
		logger:   logger.Named("links"),
	}
}

// Open handles one activated link.
func (l *linkOpener) Open(href string) {
	if href == "" {
		return
	}

	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") ||
		strings.HasPrefix(href, "mailto:") {
		l.openExternal(href)
		return
	}

	target := filepath.FromSlash(href)
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.FromSlash(l.root), target)
	}
	if paths.IsMarkdown(filepath.ToSlash(target)) {
		l.openPanel(target)
		return
	}

	l.openExternal(target)
}

func (l *linkOpener) openPanel(path string) {
	doc, err := l.docs.Open(path)
	if err != nil {
		l.logger.Warn("cannot open linked document", zap.String("path", path), zap.Error(err))
		l.notify.Error("cannot open " + path)
		return
	}
	if l.newSession == nil {
		return
	}
	_, _, err = l.registry.GetOrCreate(doc.Key(), func() (*editor.Session, error) {
		return l.newSession(doc.Key())
	})
	if err != nil {
		l.logger.Warn("cannot open panel for linked document", zap.String("path", path), zap.Error(err))
		l.notify.Error("cannot open " + path)
	}
}

// openExternal hands the target to the platform opener. The widget runs in a
// browser context, so the host does the opening on its behalf.
func (l *linkOpener) openExternal(target string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	if err := cmd.Start(); err != nil {
		l.logger.Warn("system opener failed", zap.String("target", target), zap.Error(err))
		l.notify.Info("open " + target + " manually")
		return
	}
	// The opener is fire-and-forget; reap it in the background.
	go func() { _ = cmd.Wait() }()
}
