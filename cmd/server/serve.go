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

	"github.com/soaringjerry/psyscore/internal/api"
	"github.com/soaringjerry/psyscore/internal/middleware"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.RequireSecret(); err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, closeFn, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeFn()
			if a.cfg.Catalog.SeedOnStart {
				if err := a.seed(ctx, store, a.cfg.Catalog.Paths, a.cfg.Catalog.Strict, cmd.OutOrStdout()); err != nil {
					return err
				}
			}

			auth, err := middleware.NewAuthenticator(a.cfg.JWT.Secret, a.cfg.JWT.Issuer)
			if err != nil {
				return err
			}
			handler := api.NewHandler(api.NewRouter(a.surveyService(store), a.logger), api.HandlerOptions{
				Auth:           auth,
				AllowedOrigins: a.cfg.CORS.AllowedOrigins,
				Health:         store.DB(),
				Logger:         a.logger,
				Version:        version,
			})
			server := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = server.Shutdown(shutdownCtx)
			}()

			a.logger.Info("listening", "addr", addr, "db_driver", a.cfg.DB.Driver, "version", version)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			a.logger.Info("server closed")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from addr)")
	return cmd
}
