package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/config"
)

var (
	flagAddr      string
	flagWorkspace string
	flagDataDir   string
)

var rootCmd = &cobra.Command{
	Use:   "mdeditor",
	Short: "Markdown editor host",
	Long: `mdeditor serves a WYSIWYG markdown editor for a workspace.

The host owns the document model. Editor panels attach over WebSocket and
stay in sync with the documents both ways: file changes reach open panels,
panel edits reach the files.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAddr, "addr", "", "host address (default 127.0.0.1:7350)")
	rootCmd.PersistentFlags().StringVar(&flagWorkspace, "workspace", "", "workspace root (default working directory)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory for the widget bundle and state")
}

// loadConfig builds process configuration from the environment, letting the
// CLI flags win.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagAddr != "" {
		host, port, splitErr := splitAddr(flagAddr)
		if splitErr != nil {
			return nil, splitErr
		}
		cfg.Server.Host = host
		cfg.Server.Port = port
	}
	if flagWorkspace != "" {
		cfg.Workspace.Root = flagWorkspace
	}
	if flagDataDir != "" {
		cfg.Workspace.DataDir = flagDataDir
	}
	return cfg, nil
}

// hostAddr is the base URL client commands talk to.
func hostAddr() string {
	if flagAddr != "" {
		return "http://" + flagAddr
	}
	if env := os.Getenv("MDEDITOR_HOST"); env != "" {
		port := os.Getenv("MDEDITOR_PORT")
		if port == "" {
			port = "7350"
		}
		return "http://" + env + ":" + port
	}
	return "http://127.0.0.1:7350"
}
