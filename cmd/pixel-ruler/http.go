package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/pixel-ruler/internal/logger"
	"github.com/ironsheep/pixel-ruler/internal/transport"
)

const shutdownTimeout = 30 * time.Second

func newHTTPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve the scan API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				cfg.HTTPAddr, _ = cmd.Flags().GetString("addr")
			}

			srv := &http.Server{
				Addr:         cfg.HTTPAddr,
				Handler:      transport.NewHandler(cfg, Version),
				ReadTimeout:  cfg.RequestTimeout,
				WriteTimeout: cfg.RequestTimeout,
			}

			errc := make(chan error, 1)
			go func() {
				logger.WithFields(logrus.Fields{
					"address": cfg.HTTPAddr,
					"timeout": cfg.RequestTimeout,
				}).Info("Starting HTTP server")

				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case err, ok := <-errc:
				if ok {
					return err
				}
				return nil
			case <-quit:
			}

			logger.Logger.Info("Shutting down server...")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			logger.Logger.Info("Server exited")
			return nil
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default from PIXEL_RULER_HTTP_ADDR)")
	return cmd
}
