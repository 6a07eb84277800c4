package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/config"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/server"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Prints the process configuration and the editor settings the host would
start with, after defaults, environment and the settings file are merged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		settingsPath := filepath.Join(cfg.Workspace.DataDir, server.SettingsFileName)
		settings, err := config.LoadSettings(settingsPath)
		if err != nil {
			fmt.Printf("# settings file ignored: %v\n", err)
		}

		fmt.Printf("addr: %s\n", cfg.Addr())
		fmt.Printf("workspace: %s\n", cfg.Workspace.Root)
		fmt.Printf("data_dir: %s\n", cfg.Workspace.DataDir)
		fmt.Printf("settings_file: %s\n", settingsPath)

		out, err := yaml.Marshal(settings)
		if err != nil {
			return err
		}
		fmt.Printf("settings:\n%s", indent(string(out)))
		return nil
	},
}

func indent(s string) string {
	var out strings.Builder
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		out.WriteString("  " + line + "\n")
	}
	return out.String()
}

func init() {
	rootCmd.AddCommand(configCmd)
}
