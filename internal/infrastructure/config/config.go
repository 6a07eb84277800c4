// Package config provides configuration for the editor host.
//
// Two layers with different lifecycles:
//
//   - Config: process configuration (listen address, directories, logging,
//     rate limits), loaded from environment variables via envconfig and
//     overridable by CLI flags.
//   - Settings: user-facing editor options (upload folder template, theme,
//     custom CSS, disposal delay), loaded from a YAML settings file.
//
// Environment variables win over the settings file for the keys both carry.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds process configuration.
type Config struct {
	Server    ServerConfig
	Workspace WorkspaceConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration. The host binds loopback by
// default: the webview shell is the only intended client.
type ServerConfig struct {
	Host string `envconfig:"MDEDITOR_HOST" default:"127.0.0.1"`
	Port string `envconfig:"MDEDITOR_PORT" default:"7350"`
}

// WorkspaceConfig holds filesystem roots.
type WorkspaceConfig struct {
	// Root is the project root used for `${projectRoot}` template expansion
	// and the markdown file listing. Empty means the working directory.
	Root string `envconfig:"MDEDITOR_WORKSPACE" default:""`
	// DataDir holds the widget bundle, persisted state and the settings file.
	DataDir string `envconfig:"MDEDITOR_DATA_DIR" default:""`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"MDEDITOR_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"MDEDITOR_LOG_DEV" default:"false"`
}

// RateLimitConfig holds HTTP rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"MDEDITOR_RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"MDEDITOR_RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"MDEDITOR_RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads process configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Workspace.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		cfg.Workspace.Root = wd
	}
	if cfg.Workspace.DataDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			base = os.TempDir()
		}
		cfg.Workspace.DataDir = base + string(os.PathSeparator) + "vscode-markdown-editor"
	}
	return &cfg, nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// Disposal delay bounds in seconds.
const (
	MinDisposeDelaySeconds     = 1
	MaxDisposeDelaySeconds     = 60
	DefaultDisposeDelaySeconds = 10
)

// DefaultUploadFolder is used when the upload folder template is empty.
const DefaultUploadFolder = "assets"

// Settings holds the user-facing editor options.
type Settings struct {
	// UploadFolder is the image upload target template. Recognized
	// placeholders: ${projectRoot}, ${filePath}, ${fileBasenameNoExtension},
	// ${dir}. Resolved relative to the document's directory when not
	// absolute.
	UploadFolder string `yaml:"upload_folder"`
	// UseHostTheme pushes the host theme to the widget with each update.
	UseHostTheme bool `yaml:"use_host_theme"`
	// Theme is the host theme pushed when UseHostTheme is set: dark or light.
	Theme string `yaml:"theme"`
	// CustomCSS is injected verbatim into the bootstrap page.
	CustomCSS string `yaml:"custom_css"`
	// DefaultEditor claims markdown files opened by bare location. Read once
	// at startup; changing it requires a host restart.
	DefaultEditor bool `yaml:"default_editor"`
	// DisposeDelaySeconds delays panel teardown after its document closes,
	// clamped to [1, 60].
	DisposeDelaySeconds int `yaml:"dispose_delay_seconds"`
}

// DefaultSettings returns the documented option defaults.
func DefaultSettings() Settings {
	return Settings{
		UploadFolder:        DefaultUploadFolder,
		UseHostTheme:        true,
		Theme:               "light",
		CustomCSS:           "",
		DefaultEditor:       false,
		DisposeDelaySeconds: DefaultDisposeDelaySeconds,
	}
}

// LoadSettings loads settings from a YAML file, applying defaults for absent
// keys and clamping out-of-range values. A missing file yields the defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s.normalized(), nil
}

func (s Settings) normalized() Settings {
	if s.UploadFolder == "" {
		s.UploadFolder = DefaultUploadFolder
	}
	if s.Theme != "dark" && s.Theme != "light" {
		s.Theme = "light"
	}
	if s.DisposeDelaySeconds < MinDisposeDelaySeconds {
		s.DisposeDelaySeconds = MinDisposeDelaySeconds
	}
	if s.DisposeDelaySeconds > MaxDisposeDelaySeconds {
		s.DisposeDelaySeconds = MaxDisposeDelaySeconds
	}
	return s
}

// DisposeDelay returns the disposal delay as a duration.
func (s Settings) DisposeDelay() time.Duration {
	return time.Duration(s.DisposeDelaySeconds) * time.Second
}
