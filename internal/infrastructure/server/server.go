// Package server composes the editor host: document model, panel registry,
// transports and the widget bundle, behind one gin router.
package server

import (
	"context"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/kcf-jackson/vscode-markdown-editor/internal/api/http"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/api/middleware"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/api/ws"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/assets"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/editor"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/config"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/logging"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/monitoring"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/widget"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/workspace"
)

// SettingsFileName is the YAML settings file looked up under the data dir.
const SettingsFileName = "settings.yaml"

// Server wraps the HTTP server and its collaborators.
type Server struct {
	router   *gin.Engine
	docs     *workspace.Manager
	registry *editor.Registry
	bundle   *widget.Bundle
	logger   *logging.Logger
	config   *config.Config
	settings config.Settings
	metrics  *monitoring.Metrics
}

// New builds a fully wired editor host from process configuration.
func New(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("initializing editor host",
		zap.String("addr", cfg.Addr()),
		zap.String("workspace", cfg.Workspace.Root),
		zap.String("data_dir", cfg.Workspace.DataDir),
	)

	metrics := monitoring.NewMetrics()

	settingsPath := filepath.Join(cfg.Workspace.DataDir, SettingsFileName)
	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		// Unparseable settings degrade to defaults rather than refusing to start.
		logger.Warn("settings file ignored", zap.Error(err))
	}
	logger.Info("settings loaded",
		zap.String("upload_folder", settings.UploadFolder),
		zap.String("theme", settings.Theme),
		zap.Bool("default_editor", settings.DefaultEditor),
		zap.Int("dispose_delay_seconds", settings.DisposeDelaySeconds),
	)

	docs, err := workspace.NewManager(logger)
	if err != nil {
		return nil, err
	}

	state, err := workspace.OpenState(filepath.Join(cfg.Workspace.DataDir, "state.json"))
	if err != nil {
		_ = docs.Close()
		return nil, err
	}

	registry := editor.NewRegistry(logger, metrics)
	docs.Subscribe(registry.Dispatch)

	feed := apihttp.NewNotificationFeed(logger)
	options := editor.NewOptionsStore(state, logger)
	uploader := assets.NewUploader(assets.Resolver{
		Template:    settings.UploadFolder,
		ProjectRoot: cfg.Workspace.Root,
	})
	links := newLinkOpener(cfg.Workspace.Root, docs, registry, feed, logger)

	theme := ""
	if settings.UseHostTheme {
		theme = settings.Theme
	}
	sessionFactory := func(key string) (*editor.Session, error) {
		return editor.NewSession(key, editor.Deps{
			Documents: docs,
			Notifier:  feed,
			Options:   options,
			Uploader:  uploader,
			OpenLink:  links.Open,
			Metrics:   metrics,
			Logger:    logger,
		}, editor.Config{
			DisposeDelay: settings.DisposeDelay(),
			Theme:        theme,
		}), nil
	}
	links.newSession = sessionFactory

	bundle := widget.NewBundle(cfg.Workspace.DataDir, logger)
	if err := bundle.Ensure(context.Background()); err != nil {
		// The host still serves the API and the raw fallback view.
		logger.Warn("widget bundle unavailable", zap.Error(err))
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(apihttp.Deps{
		Docs:       docs,
		Registry:   registry,
		NewSession: sessionFactory,
		Bundle:     bundle,
		Settings:   settings,
		Feed:       feed,
		Root:       cfg.Workspace.Root,
		Metrics:    metrics,
		Logger:     logger,
	})
	handlers.Register(router)

	bridge := ws.NewBridge(registry, logger, metrics)
	router.GET("/ws/:token", bridge.Handle)

	router.GET("/metrics", func(c *gin.Context) {
		metrics.UpdateUptime()
		metrics.Handler().ServeHTTP(c.Writer, c.Request)
	})

	logger.Info("editor host initialized")

	return &Server{
		router:   router,
		docs:     docs,
		registry: registry,
		bundle:   bundle,
		logger:   logger,
		config:   cfg,
		settings: settings,
		metrics:  metrics,
	}, nil
}

// Run starts the HTTP server and blocks.
func (s *Server) Run() error {
	s.logger.Info("listening", zap.String("addr", s.config.Addr()))
	return s.router.Run(s.config.Addr())
}

// Router exposes the composed router, used by tests to drive the full stack
// without a listening socket.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Settings returns the effective editor settings.
func (s *Server) Settings() config.Settings {
	return s.settings
}

// Close disposes all panels and releases the document model.
func (s *Server) Close() error {
	s.logger.Info("shutting down editor host")
	s.registry.CloseAll()

	// Give in-flight websocket close frames a moment before the watcher goes.
	time.Sleep(50 * time.Millisecond)

	err := s.docs.Close()
	_ = s.logger.Sync()
	return err
}
