package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open <file>",
	Short: "Open a markdown file in a running host",
	Long: `Asks the running host to open a document and prints the panel URL.
Opening a file that already has a panel reveals it instead of creating a
second one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		client := resty.New().
			SetBaseURL(hostAddr()).
			SetTimeout(10 * time.Second)

		var result struct {
			Token    string `json:"token"`
			URL      string `json:"url"`
			Created  bool   `json:"created"`
			Fallback bool   `json:"fallback"`
		}
		var apiErr struct {
			Error string `json:"error"`
		}

		resp, err := client.R().
			SetBody(map[string]string{"path": path}).
			SetResult(&result).
			SetError(&apiErr).
			Post("/api/open")
		if err != nil {
			return fmt.Errorf("is the host running? %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("host refused: %s", apiErr.Error)
		}

		switch {
		case result.Fallback:
			fmt.Printf("editor unavailable, plain view at %s%s\n", hostAddr(), result.URL)
		case result.Created:
			fmt.Printf("opened %s%s\n", hostAddr(), result.URL)
		default:
			fmt.Printf("revealed existing panel %s%s\n", hostAddr(), result.URL)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}
