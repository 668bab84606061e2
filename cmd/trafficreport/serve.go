package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/traffic-report-service/internal/adapter/httpadapter"
	"github.com/couchcryptid/traffic-report-service/internal/domain"
)

func serveCmd() *cobra.Command {
	var preload string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the dataset and report API on HTTP_ADDR together with /healthz,
/readyz and /metrics. The service reports ready once a dataset is loaded;
use --preload to load a range at startup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			srv := httpadapter.NewServer(a.cfg.HTTPAddr, a.session, a.reporter, a.logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.logger.Error("http server error", "error", err)
					stop()
				}
			}()

			if preload != "" {
				go func() {
					if _, err := a.session.Load(ctx, domain.Selector{Range: preload}); err != nil {
						a.logger.Error("preload failed", "range", preload, "error", err)
					}
				}()
			}

			<-ctx.Done()
			a.logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("http server shutdown error", "error", err)
			}
			a.logger.Info("shutdown complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&preload, "preload", "", "range to load at startup (daily, weekly, monthly, all)")
	return cmd
}
