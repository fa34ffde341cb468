package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/pixel-ruler/internal/capture"
	"github.com/ironsheep/pixel-ruler/internal/display"
	"github.com/ironsheep/pixel-ruler/internal/logger"
	"github.com/ironsheep/pixel-ruler/internal/session"
)

func newOverlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overlay",
		Short: "Capture the screen and open the ruler over it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			frame, err := capture.New(cfg).Capture(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := frame.Cleanup(); err != nil {
					logger.WithError(err).Warn("Failed to remove captured frame")
				}
			}()

			logger.WithFields(logrus.Fields{
				"path":      frame.Path,
				"width":     frame.Image.Width(),
				"height":    frame.Image.Height(),
				"threshold": cfg.Threshold,
			}).Info("Opening ruler")

			sess := session.New(frame.Image, session.Options{
				Threshold: cfg.Threshold,
				Mode:      cfg.Mode,
				Metric:    cfg.Metric,
			})
			return display.New(sess).Run(ctx)
		},
	}
}
