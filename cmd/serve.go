package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/shouni/gemini-facade-studio/internal/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the studio HTTP API",
		Long: `Starts the HTTP API used by the studio UI.

Sessions are loaded from the configured store at startup and every committed
change is written back to it.`,
		Example: `  # Start server on the address from HTTP_ADDR (default :8080)
  facade-studio serve

  # Start server on a custom address with an in-memory store
  facade-studio serve --addr :3000 --store memory`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.HTTP.Addr
			}
			handler := server.NewHandler(a.studio, a.publisher, a.cfg.HTTP.MaxUploadBytes)
			srv := &http.Server{
				Addr:              addr,
				Handler:           server.NewRouter(handler),
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Studio API available", "addr", addr, "store", a.cfg.Store.Driver, "model", a.cfg.Gemini.Model)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case <-ctx.Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownGrace)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (overrides HTTP_ADDR)")

	return cmd
}
