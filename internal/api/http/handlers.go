// Package http exposes the editor host's HTTP surface: panel management,
// the bootstrap and fallback pages, workspace listing, document-relative
// statics, uploads of the widget distribution, and the notification feed.
package http

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/editor"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/config"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/logging"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/monitoring"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/render"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/shared/paths"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/widget"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/workspace"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Handlers serves the editor host API.
type Handlers struct {
	docs     *workspace.Manager
	registry *editor.Registry
	// newSession builds a panel session for an open document key. Wired by
	// the server with the full collaborator set.
	newSession func(key string) (*editor.Session, error)
	bundle     *widget.Bundle
	settings   config.Settings
	feed       *NotificationFeed
	root       string
	metrics    *monitoring.Metrics
	logger     *logging.Logger
}

// Deps carries the handler collaborators.
type Deps struct {
	Docs       *workspace.Manager
	Registry   *editor.Registry
	NewSession func(key string) (*editor.Session, error)
	Bundle     *widget.Bundle
	Settings   config.Settings
	Feed       *NotificationFeed
	// Root is the workspace root scanned for markdown files.
	Root    string
	Metrics *monitoring.Metrics
	Logger  *logging.Logger
}

// NewHandlers creates the API handlers.
func NewHandlers(d Deps) *Handlers {
	return &Handlers{
		docs:       d.Docs,
		registry:   d.Registry,
		newSession: d.NewSession,
		bundle:     d.Bundle,
		settings:   d.Settings,
		feed:       d.Feed,
		root:       d.Root,
		metrics:    d.Metrics,
		logger:     d.Logger.Named("api"),
	}
}

// Register wires all routes onto the router. The websocket route is owned by
// the transport bridge and registered by the server alongside.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/open", h.OpenByLocation)

	api := r.Group("/api")
	{
		api.POST("/open", h.OpenPanel)
		api.GET("/files", h.ListFiles)
		api.GET("/panels", h.ListPanels)
		api.DELETE("/panels/:token", h.ClosePanel)
		api.GET("/notifications", h.Notifications)
		api.GET("/settings", h.ShowSettings)
	}

	r.GET("/editor/:token", h.EditorPage)
	r.GET("/raw/:token", h.RawPage)
	r.GET("/doc-assets/:token/*rel", h.DocAsset)

	r.Static("/widget/assets", h.bundle.Dir())
	r.GET("/widget/shell.js", h.ShellScript)
}

// Root reports host identity and liveness counts.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "markdown-editor-host",
		"version": Version,
		"panels":  h.registry.Len(),
	})
}

// Health is the liveness endpoint.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"panels":        h.registry.Len(),
		"widget_bundle": h.bundle.Present(),
	})
}

type openRequest struct {
	Path string `json:"path" binding:"required"`
}

type openResponse struct {
	Token    string `json:"token"`
	URL      string `json:"url"`
	Created  bool   `json:"created"`
	Fallback bool   `json:"fallback,omitempty"`
}

// OpenPanel opens a document and ensures a panel session for it. A second
// open of the same location reveals the existing panel instead of creating
// another. When the panel cannot be built the document still opens and the
// response points at the plain fallback view.
func (h *Handlers) OpenPanel(c *gin.Context) {
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}
	h.openPanel(c, req.Path)
}

// OpenByLocation is the browser-friendly variant: GET /open?path=...
// It redirects into the editor page, honoring the default editor setting.
func (h *Handlers) OpenByLocation(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	doc, err := h.docs.Open(path)
	if err != nil {
		h.writeOpenError(c, path, err)
		return
	}
	token := paths.Token(doc.Key())

	if !h.settings.DefaultEditor {
		c.Redirect(http.StatusFound, "/raw/"+token)
		return
	}

	if _, _, err := h.ensureSession(doc.Key()); err != nil {
		c.Redirect(http.StatusFound, "/raw/"+token)
		return
	}
	c.Redirect(http.StatusFound, "/editor/"+token)
}

func (h *Handlers) openPanel(c *gin.Context, path string) {
	doc, err := h.docs.Open(path)
	if err != nil {
		h.writeOpenError(c, path, err)
		return
	}
	token := paths.Token(doc.Key())

	_, created, err := h.ensureSession(doc.Key())
	if err != nil {
		h.logger.Error("panel creation failed, serving fallback",
			zap.String("path", path), zap.Error(err))
		h.feed.Error("cannot open the editor view for " + paths.Base(doc.Key()))
		c.JSON(http.StatusOK, openResponse{
			Token:    token,
			URL:      "/raw/" + token,
			Fallback: true,
		})
		return
	}

	c.JSON(http.StatusOK, openResponse{
		Token:   token,
		URL:     "/editor/" + token,
		Created: created,
	})
}

func (h *Handlers) ensureSession(key string) (*editor.Session, bool, error) {
	return h.registry.GetOrCreate(key, func() (*editor.Session, error) {
		return h.newSession(key)
	})
}

func (h *Handlers) writeOpenError(c *gin.Context, path string, err error) {
	switch {
	case errors.Is(err, workspace.ErrNotMarkdown):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, workspace.ErrNotUTF8):
		// The error names the detected encoding.
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
	default:
		h.logger.Warn("cannot open document", zap.String("path", path), zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": "cannot open " + path})
	}
}

// ListFiles lists the workspace's markdown files, workspace-relative.
func (h *Handlers) ListFiles(c *gin.Context) {
	files, err := workspace.ScanMarkdown(c.Request.Context(), h.root)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "workspace scan failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"root": h.root, "files": files})
}

// ListPanels lists live panel sessions.
func (h *Handlers) ListPanels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"panels": h.registry.List()})
}

// ClosePanel dismisses a panel, bypassing the disposal delay.
func (h *Handlers) ClosePanel(c *gin.Context) {
	session, ok := h.registry.GetByToken(c.Param("token"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such panel"})
		return
	}
	session.OnPanelDismissed()
	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

// Notifications returns the retained user-visible messages.
func (h *Handlers) Notifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": h.feed.Recent()})
}

// ShowSettings reports the effective editor settings.
func (h *Handlers) ShowSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.settings)
}

// EditorPage serves the bootstrap document for a panel.
func (h *Handlers) EditorPage(c *gin.Context) {
	token := c.Param("token")
	session, ok := h.registry.GetByToken(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no panel for token"})
		return
	}

	page := render.Page{
		Title:     paths.Base(session.Key()),
		Styles:    []string{"/widget/assets/index.css"},
		Scripts:   []string{"/widget/assets/index.min.js", "/widget/shell.js"},
		BaseHref:  "/doc-assets/" + token + "/",
		CustomCSS: h.settings.CustomCSS,
		WSPath:    "/ws/" + token,
		DarkBody:  h.settings.UseHostTheme && h.settings.Theme == "dark",
	}
	html, err := render.Render(page)
	if err != nil {
		h.logger.Error("bootstrap render failed", zap.Error(err))
		c.Redirect(http.StatusFound, "/raw/"+token)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// RawPage serves the document text as-is. This is the fallback view when
// the editor panel cannot be built.
func (h *Handlers) RawPage(c *gin.Context) {
	doc, ok := h.docByToken(c.Param("token"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no document for token"})
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(doc.Text()))
}

// DocAsset serves files relative to a document's directory, so relative
// image references inside content resolve in the browser.
func (h *Handlers) DocAsset(c *gin.Context) {
	doc, ok := h.docByToken(c.Param("token"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no document for token"})
		return
	}

	rel := strings.TrimPrefix(c.Param("rel"), "/")
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		c.JSON(http.StatusForbidden, gin.H{"error": "path escapes document directory"})
		return
	}

	c.File(filepath.Join(filepath.FromSlash(paths.Dir(doc.Key())), clean))
}

// ShellScript serves the embedded widget boot script.
func (h *Handlers) ShellScript(c *gin.Context) {
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", widget.Shell())
}

// docByToken resolves a URL token to an open document, through the session
// when one is live and by token match over open documents otherwise.
func (h *Handlers) docByToken(token string) (*workspace.Document, bool) {
	if session, ok := h.registry.GetByToken(token); ok {
		return h.docs.Get(session.Key())
	}
	for _, key := range h.docs.Keys() {
		if paths.Token(key) == token {
			return h.docs.Get(key)
		}
	}
	return nil, false
}
