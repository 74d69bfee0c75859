package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"banjocap/internal/api"
	"banjocap/internal/service"
)

const shutdownTimeout = 30 * time.Second

var _ api.Backend = (*service.Service)(nil)

func newServeCmd(root *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and scan stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := root.logger
			if listen == "" {
				listen = root.cfg.Server.ListenAddr
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			svc := root.service()
			srv := api.NewServer(svc, api.Options{
				Logger:         logger,
				ScanContext:    ctx,
				RequestTimeout: 2 * root.cfg.HTTP.Timeout,
			})
			httpServer := &http.Server{
				Addr:              listen,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Channel to signal completion
			done := make(chan struct{})
			defer close(done)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			go func() {
				select {
				case sig := <-sigCh:
					logger.Info().Str("signal", sig.String()).Msg("initiating graceful shutdown")
				case <-done:
					return
				}
				cancel()

				shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
				defer stop()
				go func() {
					if err := httpServer.Shutdown(shutdownCtx); err != nil {
						logger.Warn().Err(err).Msg("http shutdown")
					}
				}()

				// Wait for second signal for immediate shutdown
				select {
				case sig := <-sigCh:
					logger.Warn().Str("signal", sig.String()).Msg("second signal, forcing immediate shutdown")
					os.Exit(1)
				case <-shutdownCtx.Done():
					if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
						logger.Error().Dur("timeout", shutdownTimeout).Msg("graceful shutdown timed out, forcing exit")
						os.Exit(1)
					}
				case <-done:
				}
			}()

			logger.Info().Str("addr", listen).Str("version", version).Msg("http server starting")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			// Let a running scan record its cancellation before exit.
			deadline := time.Now().Add(shutdownTimeout)
			for svc.ScanRunning() && time.Now().Before(deadline) {
				time.Sleep(100 * time.Millisecond)
			}
			logger.Info().Msg("shutdown complete")
			return nil
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default from config)")
	return cmd
}
