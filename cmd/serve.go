package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docchat/docchat/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server with the ask API and WebSocket chat",
	Long: `Starts an HTTP server exposing POST /api/ask for one-shot questions,
GET /api/traces for trace browsing, and a WebSocket chat endpoint at
/ws/chat where each connection gets its own conversation memory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := buildPipeline(ctx)
		if err != nil {
			return err
		}
		defer p.Close()

		port := p.cfg.Server.Port
		if servePort != 0 {
			port = servePort
		}

		srv := server.New(
			server.Config{Port: port, AllowAll: p.cfg.Server.AllowAll},
			p.newOrchestrator(),
			func() server.QueryHandler { return p.newOrchestrator() },
			p.runs,
		)

		// Shut down cleanly on SIGINT/SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "override the configured server port")
	rootCmd.AddCommand(serveCmd)
}
