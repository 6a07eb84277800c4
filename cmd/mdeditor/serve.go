package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the editor host",
	Long: `Starts the editor host: opens the workspace, fetches the widget bundle if
it is not cached, and serves the editor until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		srv, err := server.New(cfg)
		if err != nil {
			return err
		}

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		errChan := make(chan error, 1)
		go func() {
			errChan <- srv.Run()
		}()

		select {
		case <-sigChan:
			log.Println("shutting down")
			return srv.Close()
		case err := <-errChan:
			_ = srv.Close()
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func splitAddr(addr string) (host, port string, err error) {
	host, port, err = net.SplitHostPort(addr)
	if err != nil {
		return "", "", fmt.Errorf("invalid --addr %q: %w", addr, err)
	}
	return host, port, nil
}
