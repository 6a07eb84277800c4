package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/logging"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/widget"
)

var fetchForce bool

var fetchCmd = &cobra.Command{
	Use:   "fetch-widget",
	Short: "Download the editor widget bundle",
	Long: `Downloads the pinned vditor distribution into the data directory so the
host can start offline later.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		bundle := widget.NewBundle(cfg.Workspace.DataDir, logging.NewDefault())
		if bundle.Present() && !fetchForce {
			fmt.Printf("widget %s already cached at %s\n", widget.Version, bundle.Dir())
			return nil
		}

		if err := bundle.Fetch(context.Background()); err != nil {
			return err
		}
		fmt.Printf("widget %s installed at %s\n", widget.Version, bundle.Dir())
		return nil
	},
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchForce, "force", false, "refetch even when cached")
	rootCmd.AddCommand(fetchCmd)
}
