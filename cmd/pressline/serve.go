package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/pressline"
	"github.com/aretw0/pressline/internal/cli"
	httpadapter "github.com/aretw0/pressline/pkg/adapters/http"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts Pressline in server mode, exposing conversations as a JSON API with SSE updates.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		migrate, _ := cmd.Flags().GetBool("migrate")
		app, err := buildApp(cmd, cli.BuildOptions{Migrate: migrate, AuditLog: true})
		if err != nil {
			return err
		}
		defer app.Close()

		addr := app.Config.HTTP.Addr
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			addr = v
		}

		handler := httpadapter.NewHandler(app.Actions,
			httpadapter.WithSanitizer(app.Sanitizer),
			httpadapter.WithMetricsHandler(app.Metrics.Handler()),
			httpadapter.WithLogger(app.Logger),
			httpadapter.WithVersion(pressline.Version),
		)
		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			app.Logger.Info("server listening", "addr", srv.Addr, "store", app.Config.Store.Driver)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-sc.Done():
			app.Logger.Info("shutting down", "signal", fmt.Sprint(sc.Signal()))

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				app.Logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("close server: %w", err)
				}
			}
			app.Logger.Info("server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides http.addr)")
	serveCmd.Flags().Bool("migrate", false, "Run schema migration before serving")
}
