package main

import (
	"fmt"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/pixel-ruler/internal/capture"
	"github.com/ironsheep/pixel-ruler/internal/logger"
)

func newCaptureCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture the screen to a PNG file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			frame, err := capture.New(cfg).Capture(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := frame.Cleanup(); err != nil {
					logger.WithError(err).Warn("Failed to remove captured frame")
				}
			}()

			if err := imgio.Save(out, frame.Image.ToNRGBA(), imgio.PNGEncoder()); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			logger.WithFields(logrus.Fields{
				"path":   out,
				"width":  frame.Image.Width(),
				"height": frame.Image.Height(),
			}).Info("Screen saved")
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Destination PNG path")
	cmd.MarkFlagRequired("out")
	return cmd
}
